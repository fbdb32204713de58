package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"fleetbook/internal/api"
	"fleetbook/internal/config"
	"fleetbook/internal/db"
	"fleetbook/internal/fleet"
	"fleetbook/internal/insight"
	"fleetbook/internal/logger"
	"fleetbook/internal/webhook"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	dbPath   string
	cfgFile  string
	cfg      config.Config
	database *db.Database
	svc      *fleet.Service
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fleetbook",
		Short: "Fleetbook - bookkeeping for a small taxi fleet",
		Long: `A CLI tool for recording daily trips, fuel purchases and expenses per vehicle,
deriving profit and efficiency figures, and exporting accounting spreadsheets.
State is kept in SQLite and is also served over a REST API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./fleetbook.yaml)")

	// Add commands
	rootCmd.AddCommand(serverCmd())
	rootCmd.AddCommand(vehicleCmd())
	rootCmd.AddCommand(tripCmd())
	rootCmd.AddCommand(fuelCmd())
	rootCmd.AddCommand(expenseCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(backupCmd())
	rootCmd.AddCommand(restoreCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(alertsCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(insightsCmd())
	rootCmd.AddCommand(scanCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", userMessage(err))
		os.Exit(1)
	}
}

// userMessage is the text printed for a failed command
func userMessage(err error) string {
	if errors.Is(err, fleet.ErrExportFailed) {
		return "Failed to generate Excel. Please check your data logs."
	}
	return err.Error()
}

// initService loads config, sets up logging, opens the database and the fleet service
func initService(ctx context.Context) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	if err := logger.Setup(logger.Options{File: cfg.Log.File, Level: cfg.Log.Level, Stdout: cfg.Log.Stdout}); err != nil {
		return fmt.Errorf("logger error: %w", err)
	}

	database, err = db.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	svc, err = fleet.Open(ctx, database, newAdvisor(ctx), webhook.NewClient(cfg.Sync.Timeout), fleet.Options{
		Org:      cfg.Org.Name,
		Currency: cfg.Org.Currency,
		Location: cfg.Org.Location(),
	})
	if err != nil {
		database.Close()
		return err
	}
	return nil
}

func newAdvisor(ctx context.Context) insight.Advisor {
	if cfg.AI.APIKey == "" {
		return insight.Disabled{}
	}
	g, err := insight.NewGemini(ctx, cfg.AI.APIKey, cfg.AI.Model, "")
	if err != nil {
		logrus.WithError(err).Warn("AI advisor disabled")
		return insight.Disabled{}
	}
	return g
}

// withService wraps a command body with service setup and teardown
func withService(run func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := initService(cmd.Context()); err != nil {
			return err
		}
		defer database.Close()
		return run(cmd, args)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// serverCmd starts the REST API server
func serverCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the REST API server",
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			if port == 0 {
				port = cfg.Server.Port
			}
			server := api.NewServer(svc, database)
			addr := fmt.Sprintf(":%d", port)

			fmt.Printf("🚕 %s Fleetbook API Server\n", cfg.Org.Name)
			fmt.Printf("   Listening on http://localhost%s\n", addr)
			fmt.Printf("   Database: %s\n\n", cfg.Database.Path)
			fmt.Println("Available endpoints:")
			fmt.Println("  GET    /health")
			fmt.Println("  GET    /api/v1/vehicles            POST /api/v1/vehicles")
			fmt.Println("  GET    /api/v1/vehicles/{id}       PUT/DELETE /api/v1/vehicles/{id}")
			fmt.Println("  GET    /api/v1/trips|fuel|expenses POST /api/v1/trips|fuel|expenses")
			fmt.Println("  POST   /api/v1/import?kind=&format=")
			fmt.Println("  GET    /api/v1/alerts  /api/v1/dashboard  /api/v1/stats")
			fmt.Println("  GET    /api/v1/reports/{period}    /api/v1/reports/{period}/xlsx")
			fmt.Println("  GET    /api/v1/backup              POST /api/v1/restore")
			fmt.Println("  PUT    /api/v1/sync/url            POST /api/v1/sync")
			fmt.Println("  GET    /api/v1/insights            POST /api/v1/scan")
			fmt.Println()

			logrus.WithField("addr", addr).Info("api server starting")
			return http.ListenAndServe(addr, server.Router())
		}),
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Server port (default from config)")
	return cmd
}

// statsCmd shows database statistics
func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			stats, err := database.GetStats(cmd.Context())
			if err != nil {
				return fmt.Errorf("error getting stats: %w", err)
			}
			snap := svc.Snapshot()

			fmt.Println("📊 Fleetbook Statistics")
			fmt.Println("=======================")
			fmt.Printf("  Vehicles:       %d\n", len(snap.Vehicles))
			fmt.Printf("  Trips:          %d\n", len(snap.DailyLogs))
			fmt.Printf("  Fuel Logs:      %d\n", len(snap.FuelLogs))
			fmt.Printf("  Expenses:       %d\n", len(snap.ExpenseLogs))
			fmt.Printf("  State Size:     %v bytes\n", stats["state_bytes"])
			fmt.Printf("  Last Saved:     %v\n", stats["updated_at"])
			fmt.Printf("  Database:       %s\n", cfg.Database.Path)
			return nil
		}),
	}
}

// insightsCmd asks the AI advisor about the fleet
func insightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Ask the AI advisor for fleet insights",
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			fmt.Println(svc.Insights(cmd.Context()))
			return nil
		}),
	}
}

// scanCmd reads a receipt image into a draft entry
func scanCmd() *cobra.Command {
	var vehicle string
	var save bool

	cmd := &cobra.Command{
		Use:   "scan [image]",
		Short: "Scan a fuel or expense receipt",
		Args:  cobra.ExactArgs(1),
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			image, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}
			mimeType := http.DetectContentType(image)
			if strings.HasSuffix(strings.ToLower(args[0]), ".pdf") {
				mimeType = "application/pdf"
			}

			draft := svc.ScanReceipt(cmd.Context(), image, mimeType, vehicle)
			if draft == nil {
				return errors.New("could not read receipt, please enter it manually")
			}
			if !save {
				return printJSON(draft)
			}

			switch {
			case draft.Fuel != nil:
				f, err := svc.AddFuel(cmd.Context(), *draft.Fuel)
				if err != nil {
					return err
				}
				fmt.Printf("✓ Fuel %s recorded for %s\n", f.Cost, f.VehicleID)
			case draft.Expense != nil:
				e, err := svc.AddExpense(cmd.Context(), *draft.Expense)
				if err != nil {
					return err
				}
				fmt.Printf("✓ %s %s recorded for %s\n", e.Category, e.Amount, e.VehicleID)
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&vehicle, "vehicle", "V", "", "Vehicle id or registration number")
	cmd.Flags().BoolVar(&save, "save", false, "Record the draft instead of printing it")
	return cmd
}

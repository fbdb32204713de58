package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fleetbook/internal/fleet"
	"fleetbook/internal/ledger"

	"github.com/spf13/cobra"
)

// reportCmd exports the daily or monthly spreadsheet
func reportCmd() *cobra.Command {
	var period, outDir string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export the daily or monthly Excel report",
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			p, err := ledger.ParsePeriod(period)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(svc.Report(p))
			}

			name, data, err := svc.ExportReport(p)
			if err != nil {
				return err
			}
			path := filepath.Join(outDir, name)
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("error writing report: %w", err)
			}
			fmt.Printf("✓ %s report written to %s\n", p, path)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&period, "period", "P", "daily", "Report period (daily, monthly)")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report sections as JSON instead")
	return cmd
}

// backupCmd writes the whole state to a JSON file
func backupCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a JSON backup of all data",
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			name, data, err := svc.Backup()
			if err != nil {
				return err
			}
			path := filepath.Join(outDir, name)
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("error writing backup: %w", err)
			}
			fmt.Printf("✓ Backup written to %s\n", path)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory")
	return cmd
}

// restoreCmd replaces all data with a backup file
func restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore [backup.json]",
		Short: "Replace all data with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read backup: %w", err)
			}
			if err := svc.Restore(cmd.Context(), data); err != nil {
				return err
			}
			snap := svc.Snapshot()
			fmt.Printf("✓ Restored %d vehicles, %d trips, %d fuel logs, %d expenses\n",
				len(snap.Vehicles), len(snap.DailyLogs), len(snap.FuelLogs), len(snap.ExpenseLogs))
			return nil
		}),
	}
}

// syncCmd pushes unsynced records to the ledger webhook
func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push every unsynced record to the ledger webhook",
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			result, err := svc.SyncAll(cmd.Context())
			if errors.Is(err, fleet.ErrNoSyncURL) {
				return fmt.Errorf("%w (use 'fleetbook sync set-url')", err)
			}
			if err != nil {
				return err
			}
			fmt.Printf("✓ Synced %d records", result.Pushed)
			if result.Failed > 0 {
				fmt.Printf(", %d failed and will be retried next time", result.Failed)
			}
			fmt.Println()
			return nil
		}),
	}

	setURLCmd := &cobra.Command{
		Use:   "set-url [url]",
		Short: "Set the ledger webhook address (empty clears it)",
		Args:  cobra.MaximumNArgs(1),
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			url := ""
			if len(args) == 1 {
				url = args[0]
			}
			if err := svc.SetSyncURL(cmd.Context(), url); err != nil {
				return err
			}
			fmt.Println("✓ Sync url saved")
			return nil
		}),
	}

	cmd.AddCommand(setURLCmd)
	return cmd
}

// alertsCmd shows today's alerts
func alertsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alerts",
		Short: "Show today's loss and mileage alerts",
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			alerts := svc.Alerts()
			if len(alerts) == 0 {
				fmt.Println("✓ No alerts today")
				return nil
			}
			for _, a := range alerts {
				fmt.Printf("⚠️  %s: %s\n", a.Title, a.Message)
			}
			return nil
		}),
	}
}

// dashboardCmd prints today's figures and the weekly trend
func dashboardCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show today's figures, the weekly trend and all-time totals",
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			d := svc.Dashboard()
			if output == "json" {
				return printJSON(d)
			}
			cur := cfg.Org.Currency

			fmt.Printf("📈 %s - %s\n", cfg.Org.Name, d.Today.Date)
			fmt.Println("=====================================")
			fmt.Printf("  Today KM:          %d\n", d.Today.Km)
			fmt.Printf("  Today Income:      %s%s\n", cur, d.Today.Income)
			fmt.Printf("  Today Fuel:        %s%s\n", cur, d.Today.Fuel)
			fmt.Printf("  Today Costs:       %s%s\n", cur, d.Today.Expense)
			fmt.Printf("  Pending Payments:  %d\n", d.PendingPayments)
			fmt.Printf("  Unsynced Records:  %d\n", d.Unsynced)
			fmt.Println()
			fmt.Println("  Last 7 days:")
			for _, day := range d.Trend {
				fmt.Printf("    %s  income %s%-10s expense %s%s\n", day.Date, cur, day.Income, cur, day.Expense)
			}
			fmt.Println()
			fmt.Printf("  Gross Revenue:     %s%s\n", cur, d.Totals.GrossRevenue)
			fmt.Printf("  Overhead:          %s%s\n", cur, d.Totals.Overhead)
			fmt.Printf("  Net Profit:        %s%s\n", cur, d.Totals.NetProfit)
			for _, a := range d.Alerts {
				fmt.Printf("\n⚠️  %s: %s\n", a.Title, a.Message)
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	return cmd
}

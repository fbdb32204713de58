package main

import (
	"fmt"
	"time"

	"fleetbook/internal/ledger"
	"fleetbook/internal/models"
	"fleetbook/internal/parser"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// vehicleCmd manages vehicles
func vehicleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vehicle",
		Short: "Vehicle management commands",
	}

	// List subcommand
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all vehicles",
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			vehicles := svc.Vehicles()
			if len(vehicles) == 0 {
				fmt.Println("No vehicles found. Use 'fleetbook vehicle add' to register one.")
				return nil
			}

			fmt.Printf("%-38s %-22s %-12s %10s %-12s %-12s\n", "ID", "Name", "Number", "Odometer", "Insurance", "Permit")
			for _, v := range vehicles {
				fmt.Printf("%-38s %-22s %-12s %10d %-12s %-12s\n",
					v.ID, v.Name, v.Number, v.CurrentKm, v.InsuranceExpiry, v.PermitExpiry)
			}
			return nil
		}),
	}

	var in models.VehicleInput
	var insurance, permit string
	addFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&in.Name, "name", "", "Vehicle name")
		c.Flags().StringVar(&in.Number, "number", "", "Registration number")
		c.Flags().Int64Var(&in.CurrentKm, "km", 0, "Current odometer reading")
		c.Flags().StringVar(&insurance, "insurance", "", "Insurance expiry (YYYY-MM-DD)")
		c.Flags().StringVar(&permit, "permit", "", "Permit expiry (YYYY-MM-DD)")
	}

	// Add subcommand
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Register a vehicle",
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			in.InsuranceExpiry, in.PermitExpiry = models.Date(insurance), models.Date(permit)
			v, err := svc.AddVehicle(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Added %s (%s) as %s\n", v.Name, v.Number, v.ID)
			return nil
		}),
	}
	addFlags(addCmd)

	// Edit subcommand
	editCmd := &cobra.Command{
		Use:   "edit [id|number]",
		Short: "Edit a vehicle",
		Args:  cobra.ExactArgs(1),
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			current, err := svc.Vehicle(args[0])
			if err != nil {
				return err
			}
			// Unset flags keep the current values.
			next := models.VehicleInput{
				Name:            current.Name,
				Number:          current.Number,
				CurrentKm:       current.CurrentKm,
				InsuranceExpiry: current.InsuranceExpiry,
				PermitExpiry:    current.PermitExpiry,
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				next.Name = in.Name
			}
			if flags.Changed("number") {
				next.Number = in.Number
			}
			if flags.Changed("km") {
				next.CurrentKm = in.CurrentKm
			}
			if flags.Changed("insurance") {
				next.InsuranceExpiry = models.Date(insurance)
			}
			if flags.Changed("permit") {
				next.PermitExpiry = models.Date(permit)
			}

			v, err := svc.UpdateVehicle(cmd.Context(), current.ID, next)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Updated %s (%s)\n", v.Name, v.Number)
			return nil
		}),
	}
	addFlags(editCmd)

	// Remove subcommand
	removeCmd := &cobra.Command{
		Use:   "remove [id|number]",
		Short: "Remove a vehicle (its logs are kept)",
		Args:  cobra.ExactArgs(1),
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			if err := svc.DeleteVehicle(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("✓ Removed %s\n", args[0])
			return nil
		}),
	}

	cmd.AddCommand(listCmd, addCmd, editCmd, removeCmd)
	return cmd
}

// dateFlag returns the --date value or today in the organisation's timezone
func dateFlag(date string) models.Date {
	if date == "" {
		return models.DateOf(svc.Now())
	}
	return models.Date(date)
}

func parseAmount(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &models.ValidationError{Field: field, Message: fmt.Sprintf("invalid amount %q", s)}
	}
	return d, nil
}

// tripCmd records and lists trips
func tripCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trip",
		Short: "Trip log commands",
	}

	var (
		in                     models.TripInput
		date, income, tripType string
		payment                string
	)
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record a trip",
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			var err error
			in.Date = dateFlag(date)
			if in.Income, err = parseAmount("income", income); err != nil {
				return err
			}
			if in.TripType, err = models.ParseTripType(tripType); err != nil {
				return err
			}
			if in.PaymentMode, err = models.ParsePaymentMode(payment); err != nil {
				return err
			}

			l, err := svc.AddTrip(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Trip recorded: %d km, income %s (%s)\n", l.TotalKm(), l.Income, l.PaymentMode)
			return nil
		}),
	}
	addCmd.Flags().StringVarP(&in.VehicleID, "vehicle", "V", "", "Vehicle id or registration number")
	addCmd.Flags().StringVar(&date, "date", "", "Trip date (YYYY-MM-DD, default today)")
	addCmd.Flags().StringVar(&in.DriverName, "driver", "", "Driver name")
	addCmd.Flags().Int64Var(&in.OpeningKm, "opening", 0, "Opening odometer reading")
	addCmd.Flags().Int64Var(&in.ClosingKm, "closing", 0, "Closing odometer reading")
	addCmd.Flags().StringVar(&tripType, "type", string(models.TripLocal), "Trip type")
	addCmd.Flags().StringVar(&in.CustomerName, "customer", "", "Customer name")
	addCmd.Flags().StringVar(&in.CustomerContact, "contact", "", "Customer contact")
	addCmd.Flags().StringVar(&in.RouteDetails, "route", "", "Route details")
	addCmd.Flags().StringVar(&income, "income", "0", "Trip income")
	addCmd.Flags().StringVar(&payment, "payment", string(models.PaymentCash), "Payment mode")

	cmd.AddCommand(addCmd, listLogsCmd(parser.KindTrip))
	return cmd
}

// fuelCmd records and lists fuel purchases
func fuelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fuel",
		Short: "Fuel log commands",
	}

	var (
		in                   models.FuelInput
		date, cost, fuelType string
	)
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record a fuel purchase",
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			var err error
			in.Date = dateFlag(date)
			if in.Cost, err = parseAmount("cost", cost); err != nil {
				return err
			}
			if in.FuelType, err = models.ParseFuelType(fuelType); err != nil {
				return err
			}

			f, err := svc.AddFuel(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Fuel recorded: %.2f %s for %s\n", f.Quantity, f.FuelType.Unit(), f.Cost)
			return nil
		}),
	}
	addCmd.Flags().StringVarP(&in.VehicleID, "vehicle", "V", "", "Vehicle id or registration number")
	addCmd.Flags().StringVar(&date, "date", "", "Purchase date (YYYY-MM-DD, default today)")
	addCmd.Flags().StringVar(&fuelType, "type", string(models.FuelCNG), "Fuel type (CNG, Petrol)")
	addCmd.Flags().Float64Var(&in.Quantity, "qty", 0, "Quantity in kg or litres")
	addCmd.Flags().StringVar(&cost, "cost", "0", "Total cost")
	addCmd.Flags().StringVar(&in.StationName, "station", "", "Station name")

	cmd.AddCommand(addCmd, listLogsCmd(parser.KindFuel))
	return cmd
}

// expenseCmd records and lists expenses
func expenseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expense",
		Short: "Expense log commands",
	}

	var (
		in                     models.ExpenseInput
		date, amount, category string
	)
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense",
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			var err error
			in.Date = dateFlag(date)
			if in.Amount, err = parseAmount("amount", amount); err != nil {
				return err
			}
			if in.Category, err = models.ParseExpenseCategory(category); err != nil {
				return err
			}

			e, err := svc.AddExpense(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Expense recorded: %s %s\n", e.Category, e.Amount)
			return nil
		}),
	}
	addCmd.Flags().StringVarP(&in.VehicleID, "vehicle", "V", "", "Vehicle id or registration number")
	addCmd.Flags().StringVar(&date, "date", "", "Expense date (YYYY-MM-DD, default today)")
	addCmd.Flags().StringVar(&category, "category", "", "Expense category")
	addCmd.Flags().StringVar(&amount, "amount", "0", "Amount")
	addCmd.Flags().StringVar(&in.Notes, "notes", "", "Notes")

	cmd.AddCommand(addCmd, listLogsCmd(parser.KindExpense))
	return cmd
}

// listLogsCmd lists one kind of log, optionally narrowed by period and vehicle
func listLogsCmd(kind parser.Kind) *cobra.Command {
	var period, vehicle, output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s logs", kind),
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			var p ledger.Period
			if period != "" {
				var err error
				if p, err = ledger.ParsePeriod(period); err != nil {
					return err
				}
			}
			sl, err := svc.Logs(p, vehicle)
			if err != nil {
				return err
			}
			snap := svc.Snapshot()

			switch kind {
			case parser.KindTrip:
				if output == "json" {
					return printJSON(sl.Trips)
				}
				fmt.Printf("Found %d trips\n\n", len(sl.Trips))
				for _, l := range sl.Trips {
					fmt.Printf("[%s] %-22s %-10s %6d km  %10s  %-13s %s\n",
						l.Date, snap.VehicleName(l.VehicleID), l.DriverName, l.TotalKm(),
						l.Income, l.PaymentMode, syncMark(l.Synced))
				}
			case parser.KindFuel:
				if output == "json" {
					return printJSON(sl.Fuel)
				}
				fmt.Printf("Found %d fuel logs\n\n", len(sl.Fuel))
				for _, f := range sl.Fuel {
					fmt.Printf("[%s] %-22s %-6s %8.2f %-3s %10s  %s\n",
						f.Date, snap.VehicleName(f.VehicleID), f.FuelType, f.Quantity, f.FuelType.Unit(),
						f.Cost, syncMark(f.Synced))
				}
			case parser.KindExpense:
				if output == "json" {
					return printJSON(sl.Expenses)
				}
				fmt.Printf("Found %d expenses\n\n", len(sl.Expenses))
				for _, e := range sl.Expenses {
					fmt.Printf("[%s] %-22s %-15s %10s  %s %s\n",
						e.Date, snap.VehicleName(e.VehicleID), e.Category, e.Amount, e.Notes, syncMark(e.Synced))
				}
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&period, "period", "P", "", "Only this period (daily, monthly)")
	cmd.Flags().StringVarP(&vehicle, "vehicle", "V", "", "Filter by vehicle id or number")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	return cmd
}

func syncMark(synced bool) string {
	if synced {
		return "☁"
	}
	return ""
}

// importCmd bulk-imports entries from files
func importCmd() *cobra.Command {
	var format, kind string

	cmd := &cobra.Command{
		Use:   "import [file...]",
		Short: "Import trip, fuel or expense entries from CSV or JSON files",
		Args:  cobra.MinimumNArgs(1),
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			k, err := parser.ParseKind(kind)
			if err != nil {
				return err
			}

			totalAdded, totalSkipped := 0, 0
			for _, file := range args {
				fmt.Printf("Processing %s...\n", file)
				start := time.Now()

				f := format
				if f == "" {
					f = parser.FormatFromName(file)
				}
				batch, err := parser.NewParser(f, k).ParseFile(file)
				if err != nil {
					fmt.Printf("  Error: %v\n", err)
					continue
				}

				result, err := svc.Import(cmd.Context(), batch)
				if err != nil {
					fmt.Printf("  Save error: %v\n", err)
					continue
				}
				for _, s := range result.Skipped {
					fmt.Printf("  ✗ %s\n", s)
				}
				fmt.Printf("  ✓ Added %d entries in %v\n", result.Added, time.Since(start))
				totalAdded += result.Added
				totalSkipped += len(result.Problems)
			}

			fmt.Printf("\nTotal: %d entries imported", totalAdded)
			if totalSkipped > 0 {
				fmt.Printf(", %d skipped", totalSkipped)
			}
			fmt.Println()
			return nil
		}),
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "File format (csv, json, jsonl; default from extension)")
	cmd.Flags().StringVarP(&kind, "kind", "k", "trip", "Entry kind (trip, fuel, expense)")
	return cmd
}

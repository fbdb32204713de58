package ledger

import (
	"fmt"
	"strings"
	"time"

	"fleetbook/internal/models"
)

// Period selects which logs a report covers
type Period string

const (
	Daily   Period = "Daily"
	Monthly Period = "Monthly"
)

// ParsePeriod accepts "daily" or "monthly" in any case
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day":
		return Daily, nil
	case "monthly", "month":
		return Monthly, nil
	}
	return "", fmt.Errorf("unknown period %q (use daily or monthly)", s)
}

// Contains reports whether day d belongs to the period anchored at ref
func (p Period) Contains(d models.Date, ref time.Time) bool {
	switch p {
	case Daily:
		return d.SameDay(ref)
	case Monthly:
		return d.SameMonth(ref)
	}
	return false
}

// Slice is the subset of logs that fall inside one period
type Slice struct {
	Trips    []models.DailyLog
	Fuel     []models.FuelLog
	Expenses []models.ExpenseLog
}

// Filter selects the trip, fuel and expense logs of the period anchored at ref,
// keeping their stored order
func Filter(s *models.AppState, p Period, ref time.Time) Slice {
	var out Slice
	for _, l := range s.DailyLogs {
		if p.Contains(l.Date, ref) {
			out.Trips = append(out.Trips, l)
		}
	}
	for _, f := range s.FuelLogs {
		if p.Contains(f.Date, ref) {
			out.Fuel = append(out.Fuel, f)
		}
	}
	for _, e := range s.ExpenseLogs {
		if p.Contains(e.Date, ref) {
			out.Expenses = append(out.Expenses, e)
		}
	}
	return out
}

// ForVehicle narrows the slice to a single vehicle
func (sl Slice) ForVehicle(vehicleID string) Slice {
	var out Slice
	for _, l := range sl.Trips {
		if l.VehicleID == vehicleID {
			out.Trips = append(out.Trips, l)
		}
	}
	for _, f := range sl.Fuel {
		if f.VehicleID == vehicleID {
			out.Fuel = append(out.Fuel, f)
		}
	}
	for _, e := range sl.Expenses {
		if e.VehicleID == vehicleID {
			out.Expenses = append(out.Expenses, e)
		}
	}
	return out
}

// Empty reports whether the slice holds no logs at all
func (sl Slice) Empty() bool {
	return len(sl.Trips) == 0 && len(sl.Fuel) == 0 && len(sl.Expenses) == 0
}

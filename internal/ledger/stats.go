package ledger

import (
	"time"

	"fleetbook/internal/models"

	"github.com/shopspring/decimal"
)

// Snapshot is the all-time financial position of the fleet
type Snapshot struct {
	GrossRevenue decimal.Decimal `json:"grossRevenue"`
	FuelCost     decimal.Decimal `json:"fuelCost"`
	OtherCost    decimal.Decimal `json:"otherCost"`
	Overhead     decimal.Decimal `json:"overhead"`
	NetProfit    decimal.Decimal `json:"netProfit"`
}

// Totals sums every log ever recorded, including logs of deleted vehicles
func Totals(s *models.AppState) Snapshot {
	var snap Snapshot
	for _, l := range s.DailyLogs {
		snap.GrossRevenue = snap.GrossRevenue.Add(l.Income)
	}
	for _, f := range s.FuelLogs {
		snap.FuelCost = snap.FuelCost.Add(f.Cost)
	}
	for _, e := range s.ExpenseLogs {
		snap.OtherCost = snap.OtherCost.Add(e.Amount)
	}
	snap.Overhead = snap.FuelCost.Add(snap.OtherCost)
	snap.NetProfit = snap.GrossRevenue.Sub(snap.Overhead)
	return snap
}

// DayStats are the headline figures for one calendar day
type DayStats struct {
	Date    models.Date     `json:"date"`
	Km      int64           `json:"km"`
	Fuel    decimal.Decimal `json:"fuel"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"` // fuel plus other expenses
}

// Day computes the headline figures for day's calendar date across the whole fleet
func Day(s *models.AppState, day time.Time) DayStats {
	sl := Filter(s, Daily, day)
	stats := DayStats{Date: models.DateOf(day)}

	for _, l := range sl.Trips {
		stats.Km += l.TotalKm()
		stats.Income = stats.Income.Add(l.Income)
	}
	for _, f := range sl.Fuel {
		stats.Fuel = stats.Fuel.Add(f.Cost)
	}
	stats.Expense = stats.Fuel
	for _, e := range sl.Expenses {
		stats.Expense = stats.Expense.Add(e.Amount)
	}
	return stats
}

// Trend returns one DayStats per day for the n days ending at now, oldest first
func Trend(s *models.AppState, now time.Time, n int) []DayStats {
	days := make([]DayStats, 0, n)
	for i := n - 1; i >= 0; i-- {
		days = append(days, Day(s, now.AddDate(0, 0, -i)))
	}
	return days
}

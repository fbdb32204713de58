package webhook

import (
	"fleetbook/internal/models"
)

// Kind names the ledger tab a record is appended to
type Kind string

const (
	KindTrip    Kind = "trip"
	KindFuel    Kind = "fuel"
	KindExpense Kind = "expense"
)

// Record is the webhook body: one row of values for the remote sheet
type Record struct {
	Type    Kind  `json:"type"`
	Payload []any `json:"payload"`
}

// TripRecord flattens a trip into its sheet row
func TripRecord(s *models.AppState, l models.DailyLog) Record {
	status := "PAID"
	if l.IsPaymentPending() {
		status = "PENDING"
	}
	return Record{
		Type: KindTrip,
		Payload: []any{
			l.Date.String(),
			s.VehicleName(l.VehicleID),
			s.VehicleNumber(l.VehicleID),
			l.DriverName,
			string(l.TripType),
			l.CustomerName,
			l.CustomerContact,
			l.RouteDetails,
			l.OpeningKm,
			l.ClosingKm,
			l.TotalKm(),
			l.Income,
			string(l.PaymentMode),
			status,
		},
	}
}

// FuelRecord flattens a fuel purchase into its sheet row
func FuelRecord(s *models.AppState, f models.FuelLog) Record {
	return Record{
		Type: KindFuel,
		Payload: []any{
			f.Date.String(),
			s.VehicleName(f.VehicleID),
			string(f.FuelType),
			f.Quantity,
			f.Cost,
			f.StationName,
		},
	}
}

// ExpenseRecord flattens an expense into its sheet row
func ExpenseRecord(s *models.AppState, e models.ExpenseLog) Record {
	return Record{
		Type: KindExpense,
		Payload: []any{
			e.Date.String(),
			s.VehicleName(e.VehicleID),
			string(e.Category),
			e.Amount,
			e.Notes,
		},
	}
}

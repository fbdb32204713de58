package alerts

import (
	"fmt"
	"time"

	"fleetbook/internal/ledger"
	"fleetbook/internal/models"
)

// LowMileageThreshold is the km per fuel unit below which a vehicle is flagged
const LowMileageThreshold = 10.0

// Kind distinguishes alert types
type Kind string

const (
	KindLoss    Kind = "loss"
	KindMileage Kind = "mileage"
)

// Alert is an advisory message for display. Alerts are never stored.
type Alert struct {
	Kind    Kind   `json:"type"`
	Title   string `json:"title"`
	Message string `json:"msg"`
}

// Evaluate scans today's logs for every registered vehicle and returns loss
// and low-mileage alerts. A vehicle with no income today is treated as idle,
// not lossy. Mileage is only judged when fuel was bought today.
func Evaluate(s *models.AppState, today time.Time, currency string) []Alert {
	sl := ledger.Filter(s, ledger.Daily, today)

	var out []Alert
	for _, v := range s.Vehicles {
		r := ledger.VehicleRollup(v.ID, sl)

		costs := r.TotalCost()
		if costs.GreaterThan(r.Income) && r.Income.IsPositive() {
			out = append(out, Alert{
				Kind:    KindLoss,
				Title:   fmt.Sprintf("Daily Loss: %s", v.Name),
				Message: fmt.Sprintf("Costs exceeded income by %s%s today.", currency, costs.Sub(r.Income).String()),
			})
		}

		if mileage, ok := r.Mileage(); ok && mileage > 0 && mileage < LowMileageThreshold {
			out = append(out, Alert{
				Kind:    KindMileage,
				Title:   fmt.Sprintf("Efficiency Alert: %s", v.Name),
				Message: fmt.Sprintf("Low mileage detected (%.1f Km/Unit). Check fuel quality or tire pressure.", mileage),
			})
		}
	}
	return out
}

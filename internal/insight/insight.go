package insight

import (
	"context"
	"errors"
	"strings"
	"time"

	"fleetbook/internal/models"

	"github.com/shopspring/decimal"
)

// Fallback texts shown when the advisor cannot help
const (
	UnavailableText = "Insights are temporarily unavailable."
	NominalText     = "Fleet is performing as expected."
)

// ErrDisabled is returned by the no-op advisor used when no API key is configured
var ErrDisabled = errors.New("ai advisor is not configured")

// Advisor produces fleet advice and reads receipts
type Advisor interface {
	Insights(ctx context.Context, sum Summary) (string, error)
	ScanReceipt(ctx context.Context, image []byte, mimeType string) (*ScannedReceipt, error)
}

// Summary is the metrics digest sent to the advisor
type Summary struct {
	Org           string          `json:"org"`
	DailyIncome   decimal.Decimal `json:"dailyIncome"`
	TotalKm       int64           `json:"totalKm"`
	FuelSpend     decimal.Decimal `json:"fuelSpend"`
	OtherExpenses decimal.Decimal `json:"otherExpenses"`
	VehicleCount  int             `json:"vehicleCount"`
	ActiveRuns    int             `json:"activeRuns"`
}

// Summarize digests every log in the state
func Summarize(org string, s *models.AppState) Summary {
	sum := Summary{Org: org, VehicleCount: len(s.Vehicles), ActiveRuns: len(s.DailyLogs)}
	for _, l := range s.DailyLogs {
		sum.DailyIncome = sum.DailyIncome.Add(l.Income)
		sum.TotalKm += l.TotalKm()
	}
	for _, f := range s.FuelLogs {
		sum.FuelSpend = sum.FuelSpend.Add(f.Cost)
	}
	for _, e := range s.ExpenseLogs {
		sum.OtherExpenses = sum.OtherExpenses.Add(e.Amount)
	}
	return sum
}

// ScannedReceipt is what the advisor reads off a receipt image
type ScannedReceipt struct {
	Type        string  `json:"type"` // fuel or expense
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category,omitempty"`
	Quantity    float64 `json:"quantity,omitempty"`
	StationName string  `json:"stationName,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

// Draft is a pre-filled entry for the user to confirm. Exactly one field is set.
type Draft struct {
	Fuel    *models.FuelInput    `json:"fuel,omitempty"`
	Expense *models.ExpenseInput `json:"expense,omitempty"`
}

// Draft maps the receipt onto an entry for vehicleID. Unreadable dates fall
// back to today.
func (r ScannedReceipt) Draft(vehicleID string, today time.Time) Draft {
	date, err := models.ParseDate(r.Date)
	if err != nil {
		date = models.DateOf(today)
	}
	amount := decimal.NewFromFloat(r.Amount)

	if strings.EqualFold(strings.TrimSpace(r.Type), "fuel") {
		fuelType := models.FuelPetrol
		hint := strings.ToLower(r.Category + " " + r.Notes + " " + r.StationName)
		if strings.Contains(hint, "cng") || strings.Contains(hint, "gas") {
			fuelType = models.FuelCNG
		}
		return Draft{Fuel: &models.FuelInput{
			Date:        date,
			VehicleID:   vehicleID,
			FuelType:    fuelType,
			Quantity:    r.Quantity,
			Cost:        amount,
			StationName: r.StationName,
		}}
	}

	return Draft{Expense: &models.ExpenseInput{
		Date:      date,
		VehicleID: vehicleID,
		Category:  models.MatchExpenseCategory(r.Category),
		Amount:    amount,
		Notes:     r.Notes,
	}}
}

// Disabled is the advisor used when no API key is configured
type Disabled struct{}

func (Disabled) Insights(context.Context, Summary) (string, error) {
	return "", ErrDisabled
}

func (Disabled) ScanReceipt(context.Context, []byte, string) (*ScannedReceipt, error) {
	return nil, ErrDisabled
}

package models

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// Keep amounts as JSON numbers so stored blobs stay readable by other tools.
	decimal.MarshalJSONWithoutQuotes = true
}

// DailyLog is a single trip record. Distance and payment status are derived
// from the canonical fields and never stored.
type DailyLog struct {
	ID              string          `json:"id"`
	Date            Date            `json:"date"`
	VehicleID       string          `json:"vehicleId"`
	DriverName      string          `json:"driverName"`
	OpeningKm       int64           `json:"openingKm"`
	ClosingKm       int64           `json:"closingKm"`
	TripType        TripType        `json:"tripType"`
	CustomerName    string          `json:"customerName"`
	CustomerContact string          `json:"customerContact"`
	RouteDetails    string          `json:"routeDetails"`
	Income          decimal.Decimal `json:"income"`
	PaymentMode     PaymentMode     `json:"paymentMode"`
	Synced          bool            `json:"synced"`
}

// TotalKm is the distance covered on the trip
func (l DailyLog) TotalKm() int64 {
	return l.ClosingKm - l.OpeningKm
}

// IsPaymentPending reports whether the trip was taken on credit
func (l DailyLog) IsPaymentPending() bool {
	return l.PaymentMode.Pending()
}

// MarshalJSON adds the derived fields to the stored representation
func (l DailyLog) MarshalJSON() ([]byte, error) {
	type plain DailyLog
	return json.Marshal(struct {
		plain
		TotalKm          int64 `json:"totalKm"`
		IsPaymentPending bool  `json:"isPaymentPending"`
	}{plain(l), l.TotalKm(), l.IsPaymentPending()})
}

// TripInput holds the canonical fields of a trip
type TripInput struct {
	Date            Date            `json:"date"`
	VehicleID       string          `json:"vehicleId"`
	DriverName      string          `json:"driverName"`
	OpeningKm       int64           `json:"openingKm"`
	ClosingKm       int64           `json:"closingKm"`
	TripType        TripType        `json:"tripType"`
	CustomerName    string          `json:"customerName"`
	CustomerContact string          `json:"customerContact"`
	RouteDetails    string          `json:"routeDetails"`
	Income          decimal.Decimal `json:"income"`
	PaymentMode     PaymentMode     `json:"paymentMode"`
}

// Validate checks a trip. Closing readings below the opening reading are rejected.
func (in TripInput) Validate() error {
	if !in.Date.Valid() {
		return invalid("date", "invalid date %q", in.Date)
	}
	if strings.TrimSpace(in.VehicleID) == "" {
		return invalid("vehicleId", "vehicle is required")
	}
	if strings.TrimSpace(in.DriverName) == "" {
		return invalid("driverName", "driver name is required")
	}
	if in.OpeningKm < 0 {
		return invalid("openingKm", "opening KM cannot be negative")
	}
	if in.ClosingKm < in.OpeningKm {
		return invalid("closingKm", "Closing KM cannot be less than Opening KM")
	}
	if in.Income.IsNegative() {
		return invalid("income", "income cannot be negative")
	}
	if !in.TripType.Valid() {
		return invalid("tripType", "unknown trip type %q", in.TripType)
	}
	if !in.PaymentMode.Valid() {
		return invalid("paymentMode", "unknown payment mode %q", in.PaymentMode)
	}
	return nil
}

// Validate applies the entry rules to a stored trip
func (l DailyLog) Validate() error {
	return TripInput{
		Date:        l.Date,
		VehicleID:   l.VehicleID,
		DriverName:  l.DriverName,
		OpeningKm:   l.OpeningKm,
		ClosingKm:   l.ClosingKm,
		TripType:    l.TripType,
		Income:      l.Income,
		PaymentMode: l.PaymentMode,
	}.Validate()
}

// NewDailyLog validates a trip and builds the log
func NewDailyLog(in TripInput) (DailyLog, error) {
	if err := in.Validate(); err != nil {
		return DailyLog{}, err
	}

	return DailyLog{
		ID:              uuid.NewString(),
		Date:            in.Date,
		VehicleID:       in.VehicleID,
		DriverName:      strings.TrimSpace(in.DriverName),
		OpeningKm:       in.OpeningKm,
		ClosingKm:       in.ClosingKm,
		TripType:        in.TripType,
		CustomerName:    strings.TrimSpace(in.CustomerName),
		CustomerContact: strings.TrimSpace(in.CustomerContact),
		RouteDetails:    strings.TrimSpace(in.RouteDetails),
		Income:          in.Income,
		PaymentMode:     in.PaymentMode,
	}, nil
}

// FuelLog is a fuel purchase
type FuelLog struct {
	ID          string          `json:"id"`
	Date        Date            `json:"date"`
	VehicleID   string          `json:"vehicleId"`
	FuelType    FuelType        `json:"fuelType"`
	Quantity    float64         `json:"quantity"` // litres or kilograms depending on FuelType
	Cost        decimal.Decimal `json:"cost"`
	StationName string          `json:"stationName"`
	Synced      bool            `json:"synced"`
}

// FuelInput holds the fields of a fuel purchase
type FuelInput struct {
	Date        Date            `json:"date"`
	VehicleID   string          `json:"vehicleId"`
	FuelType    FuelType        `json:"fuelType"`
	Quantity    float64         `json:"quantity"`
	Cost        decimal.Decimal `json:"cost"`
	StationName string          `json:"stationName"`
}

// Validate checks a fuel purchase. Quantity must be a finite positive number.
func (in FuelInput) Validate() error {
	if !in.Date.Valid() {
		return invalid("date", "invalid date %q", in.Date)
	}
	if strings.TrimSpace(in.VehicleID) == "" {
		return invalid("vehicleId", "vehicle is required")
	}
	if !in.FuelType.Valid() {
		return invalid("fuelType", "unknown fuel type %q", in.FuelType)
	}
	if math.IsNaN(in.Quantity) || math.IsInf(in.Quantity, 0) || in.Quantity <= 0 {
		return invalid("quantity", "quantity must be positive")
	}
	if in.Cost.IsNegative() {
		return invalid("cost", "cost cannot be negative")
	}
	return nil
}

// Validate applies the entry rules to a stored fuel purchase
func (f FuelLog) Validate() error {
	return FuelInput{
		Date:      f.Date,
		VehicleID: f.VehicleID,
		FuelType:  f.FuelType,
		Quantity:  f.Quantity,
		Cost:      f.Cost,
	}.Validate()
}

// NewFuelLog validates a fuel purchase and builds the log
func NewFuelLog(in FuelInput) (FuelLog, error) {
	if err := in.Validate(); err != nil {
		return FuelLog{}, err
	}

	return FuelLog{
		ID:          uuid.NewString(),
		Date:        in.Date,
		VehicleID:   in.VehicleID,
		FuelType:    in.FuelType,
		Quantity:    in.Quantity,
		Cost:        in.Cost,
		StationName: strings.TrimSpace(in.StationName),
	}, nil
}

// ExpenseLog is a non-fuel expense
type ExpenseLog struct {
	ID        string          `json:"id"`
	Date      Date            `json:"date"`
	VehicleID string          `json:"vehicleId"`
	Category  ExpenseCategory `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Notes     string          `json:"notes"`
	Synced    bool            `json:"synced"`
}

// ExpenseInput holds the fields of an expense
type ExpenseInput struct {
	Date      Date            `json:"date"`
	VehicleID string          `json:"vehicleId"`
	Category  ExpenseCategory `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Notes     string          `json:"notes"`
}

// Validate checks an expense
func (in ExpenseInput) Validate() error {
	if !in.Date.Valid() {
		return invalid("date", "invalid date %q", in.Date)
	}
	if strings.TrimSpace(in.VehicleID) == "" {
		return invalid("vehicleId", "vehicle is required")
	}
	if !in.Category.Valid() {
		return invalid("category", "unknown expense category %q", in.Category)
	}
	if in.Amount.IsNegative() {
		return invalid("amount", "amount cannot be negative")
	}
	return nil
}

// Validate applies the entry rules to a stored expense
func (e ExpenseLog) Validate() error {
	return ExpenseInput{
		Date:      e.Date,
		VehicleID: e.VehicleID,
		Category:  e.Category,
		Amount:    e.Amount,
	}.Validate()
}

// NewExpenseLog validates an expense and builds the log
func NewExpenseLog(in ExpenseInput) (ExpenseLog, error) {
	if err := in.Validate(); err != nil {
		return ExpenseLog{}, err
	}

	return ExpenseLog{
		ID:        uuid.NewString(),
		Date:      in.Date,
		VehicleID: in.VehicleID,
		Category:  in.Category,
		Amount:    in.Amount,
		Notes:     strings.TrimSpace(in.Notes),
	}, nil
}

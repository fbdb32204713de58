package models

import (
	"fmt"
	"strings"
)

// TripType classifies a daily trip
type TripType string

const (
	TripLocal      TripType = "Local"
	TripOutstation TripType = "Outstation"
	TripAirport    TripType = "Airport Transfer"
	TripPersonal   TripType = "Personal Use"
)

// TripTypes lists every trip type in display order
var TripTypes = []TripType{TripLocal, TripOutstation, TripAirport, TripPersonal}

// Valid reports whether t is a known trip type
func (t TripType) Valid() bool {
	switch t {
	case TripLocal, TripOutstation, TripAirport, TripPersonal:
		return true
	}
	return false
}

// FuelType is the fuel bought in a fuel log
type FuelType string

const (
	FuelCNG    FuelType = "CNG"
	FuelPetrol FuelType = "Petrol"
)

// FuelTypes lists every fuel type
var FuelTypes = []FuelType{FuelCNG, FuelPetrol}

// Valid reports whether f is a known fuel type
func (f FuelType) Valid() bool {
	switch f {
	case FuelCNG, FuelPetrol:
		return true
	}
	return false
}

// Unit returns the quantity unit the fuel is sold in
func (f FuelType) Unit() string {
	switch f {
	case FuelCNG:
		return "kg"
	case FuelPetrol:
		return "L"
	}
	return "unit"
}

// PaymentMode records how a trip was paid
type PaymentMode string

const (
	PaymentCash         PaymentMode = "Cash"
	PaymentUPI          PaymentMode = "UPI"
	PaymentBankTransfer PaymentMode = "Bank Transfer"
	PaymentCredit       PaymentMode = "Credit"
)

// PaymentModes lists every payment mode
var PaymentModes = []PaymentMode{PaymentCash, PaymentUPI, PaymentBankTransfer, PaymentCredit}

// Valid reports whether p is a known payment mode
func (p PaymentMode) Valid() bool {
	switch p {
	case PaymentCash, PaymentUPI, PaymentBankTransfer, PaymentCredit:
		return true
	}
	return false
}

// Pending reports whether money is still owed for a trip paid this way
func (p PaymentMode) Pending() bool {
	switch p {
	case PaymentCredit:
		return true
	case PaymentCash, PaymentUPI, PaymentBankTransfer:
		return false
	}
	return false
}

// ExpenseCategory classifies a non-fuel expense
type ExpenseCategory string

const (
	ExpenseDriverSalary ExpenseCategory = "Driver Salary"
	ExpenseDriverBata   ExpenseCategory = "Driver Bata"
	ExpenseToll         ExpenseCategory = "Toll"
	ExpenseParking      ExpenseCategory = "Parking"
	ExpenseWash         ExpenseCategory = "Car Wash"
	ExpenseMaintenance  ExpenseCategory = "Maintenance"
	ExpenseService      ExpenseCategory = "Service Cost"
	ExpenseInsurance    ExpenseCategory = "Insurance"
	ExpenseEMI          ExpenseCategory = "EMI"
	ExpensePermit       ExpenseCategory = "Permit/Tax"
	ExpenseOther        ExpenseCategory = "Unexpected"
)

// ExpenseCategories lists every expense category in display order
var ExpenseCategories = []ExpenseCategory{
	ExpenseDriverSalary, ExpenseDriverBata, ExpenseToll, ExpenseParking, ExpenseWash,
	ExpenseMaintenance, ExpenseService, ExpenseInsurance, ExpenseEMI, ExpensePermit, ExpenseOther,
}

// Valid reports whether c is a known expense category
func (c ExpenseCategory) Valid() bool {
	for _, known := range ExpenseCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseTripType matches s case-insensitively against the trip types
func ParseTripType(s string) (TripType, error) {
	for _, t := range TripTypes {
		if strings.EqualFold(strings.TrimSpace(s), string(t)) {
			return t, nil
		}
	}
	return "", &ValidationError{Field: "tripType", Message: fmt.Sprintf("unknown trip type %q", s)}
}

// ParseFuelType matches s case-insensitively against the fuel types
func ParseFuelType(s string) (FuelType, error) {
	for _, f := range FuelTypes {
		if strings.EqualFold(strings.TrimSpace(s), string(f)) {
			return f, nil
		}
	}
	return "", &ValidationError{Field: "fuelType", Message: fmt.Sprintf("unknown fuel type %q", s)}
}

// ParsePaymentMode matches s case-insensitively against the payment modes
func ParsePaymentMode(s string) (PaymentMode, error) {
	for _, p := range PaymentModes {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, nil
		}
	}
	return "", &ValidationError{Field: "paymentMode", Message: fmt.Sprintf("unknown payment mode %q", s)}
}

// ParseExpenseCategory matches s case-insensitively against the expense categories
func ParseExpenseCategory(s string) (ExpenseCategory, error) {
	for _, c := range ExpenseCategories {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, nil
		}
	}
	return "", &ValidationError{Field: "category", Message: fmt.Sprintf("unknown expense category %q", s)}
}

// MatchExpenseCategory returns the first category whose name contains hint,
// ignoring case. Unmatched or empty hints map to ExpenseOther.
func MatchExpenseCategory(hint string) ExpenseCategory {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if hint == "" {
		return ExpenseOther
	}
	for _, c := range ExpenseCategories {
		if strings.Contains(strings.ToLower(string(c)), hint) {
			return c
		}
	}
	return ExpenseOther
}

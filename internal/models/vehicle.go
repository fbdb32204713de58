package models

import (
	"strings"

	"github.com/google/uuid"
)

// UnknownVehicle is shown wherever a log references a deleted vehicle
const UnknownVehicle = "-"

// Vehicle represents a fleet vehicle
type Vehicle struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Number          string `json:"number"`
	CurrentKm       int64  `json:"currentKm"`
	InsuranceExpiry Date   `json:"insuranceExpiry"`
	PermitExpiry    Date   `json:"permitExpiry"`
	LastServiceKm   int64  `json:"lastServiceKm"`
}

// VehicleInput carries the user-supplied fields for registering or editing a vehicle
type VehicleInput struct {
	Name            string `json:"name"`
	Number          string `json:"number"`
	CurrentKm       int64  `json:"currentKm"`
	InsuranceExpiry Date   `json:"insuranceExpiry"`
	PermitExpiry    Date   `json:"permitExpiry"`
}

// Validate checks the input fields
func (in VehicleInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "vehicle name is required")
	}
	if strings.TrimSpace(in.Number) == "" {
		return invalid("number", "registration number is required")
	}
	if in.CurrentKm < 0 {
		return invalid("currentKm", "odometer cannot be negative")
	}
	if in.InsuranceExpiry != "" && !in.InsuranceExpiry.Valid() {
		return invalid("insuranceExpiry", "invalid date %q", in.InsuranceExpiry)
	}
	if in.PermitExpiry != "" && !in.PermitExpiry.Valid() {
		return invalid("permitExpiry", "invalid date %q", in.PermitExpiry)
	}
	return nil
}

// NewVehicle registers a vehicle; the last service reading starts at the current odometer
func NewVehicle(in VehicleInput) (Vehicle, error) {
	if err := in.Validate(); err != nil {
		return Vehicle{}, err
	}
	return Vehicle{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(in.Name),
		Number:          strings.ToUpper(strings.TrimSpace(in.Number)),
		CurrentKm:       in.CurrentKm,
		InsuranceExpiry: in.InsuranceExpiry,
		PermitExpiry:    in.PermitExpiry,
		LastServiceKm:   in.CurrentKm,
	}, nil
}

// Apply edits the vehicle in place, keeping its id and service reading
func (v *Vehicle) Apply(in VehicleInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	v.Name = strings.TrimSpace(in.Name)
	v.Number = strings.ToUpper(strings.TrimSpace(in.Number))
	v.CurrentKm = in.CurrentKm
	v.InsuranceExpiry = in.InsuranceExpiry
	v.PermitExpiry = in.PermitExpiry
	return nil
}

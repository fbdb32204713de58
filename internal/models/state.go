package models

// AppState is the single persisted root: the fleet plus three newest-first log collections
type AppState struct {
	Vehicles    []Vehicle    `json:"vehicles"`
	DailyLogs   []DailyLog   `json:"dailyLogs"`
	FuelLogs    []FuelLog    `json:"fuelLogs"`
	ExpenseLogs []ExpenseLog `json:"expenseLogs"`
	SyncURL     string       `json:"googleSyncUrl,omitempty"`
}

// DefaultState seeds a fresh install with the three sample vehicles
func DefaultState() *AppState {
	return &AppState{
		Vehicles: []Vehicle{
			{
				ID:              "v1",
				Name:            "Swift Dzire (White)",
				Number:          "MH05GD3666",
				CurrentKm:       12500,
				InsuranceExpiry: "2025-10-12",
				PermitExpiry:    "2025-12-01",
				LastServiceKm:   10000,
			},
			{
				ID:              "v2",
				Name:            "Swift Dzire (Silver)",
				Number:          "MH05GD3665",
				CurrentKm:       8900,
				InsuranceExpiry: "2025-09-15",
				PermitExpiry:    "2025-11-20",
				LastServiceKm:   5000,
			},
			{
				ID:              "v3",
				Name:            "Ertiga (Grey)",
				Number:          "MH05GD3974",
				CurrentKm:       24300,
				InsuranceExpiry: "2025-08-22",
				PermitExpiry:    "2025-08-22",
				LastServiceKm:   20000,
			},
		},
		DailyLogs:   []DailyLog{},
		FuelLogs:    []FuelLog{},
		ExpenseLogs: []ExpenseLog{},
	}
}

// Clone returns a copy whose slices can be mutated without touching s
func (s *AppState) Clone() *AppState {
	return &AppState{
		Vehicles:    append([]Vehicle{}, s.Vehicles...),
		DailyLogs:   append([]DailyLog{}, s.DailyLogs...),
		FuelLogs:    append([]FuelLog{}, s.FuelLogs...),
		ExpenseLogs: append([]ExpenseLog{}, s.ExpenseLogs...),
		SyncURL:     s.SyncURL,
	}
}

// Normalize replaces nil collections with empty ones so the blob always carries arrays
func (s *AppState) Normalize() {
	if s.Vehicles == nil {
		s.Vehicles = []Vehicle{}
	}
	if s.DailyLogs == nil {
		s.DailyLogs = []DailyLog{}
	}
	if s.FuelLogs == nil {
		s.FuelLogs = []FuelLog{}
	}
	if s.ExpenseLogs == nil {
		s.ExpenseLogs = []ExpenseLog{}
	}
}

// Vehicle looks up a vehicle by id
func (s *AppState) Vehicle(id string) (Vehicle, bool) {
	for _, v := range s.Vehicles {
		if v.ID == id {
			return v, true
		}
	}
	return Vehicle{}, false
}

// VehicleName returns the vehicle's name, or UnknownVehicle for dangling references
func (s *AppState) VehicleName(id string) string {
	if v, ok := s.Vehicle(id); ok {
		return v.Name
	}
	return UnknownVehicle
}

// VehicleNumber returns the vehicle's plate, or UnknownVehicle for dangling references
func (s *AppState) VehicleNumber(id string) string {
	if v, ok := s.Vehicle(id); ok {
		return v.Number
	}
	return UnknownVehicle
}

package fleet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"fleetbook/internal/alerts"
	"fleetbook/internal/db"
	"fleetbook/internal/export"
	"fleetbook/internal/insight"
	"fleetbook/internal/ledger"
	"fleetbook/internal/models"
	"fleetbook/internal/report"
	"fleetbook/internal/webhook"

	"github.com/sirupsen/logrus"
)

var (
	// ErrVehicleNotFound is returned when an id or registration number matches no vehicle
	ErrVehicleNotFound = errors.New("vehicle not found")

	// ErrExportFailed is returned for any spreadsheet failure
	ErrExportFailed = errors.New("failed to generate excel")
)

// Repository persists the whole state at once
type Repository interface {
	Load(ctx context.Context) (*models.AppState, error)
	Save(ctx context.Context, s *models.AppState) error
}

// Options configures a Service
type Options struct {
	Org      string
	Currency string
	Location *time.Location
	Clock    func() time.Time // defaults to time.Now
}

// Service owns the in-memory fleet state and saves it after every change.
// Reads work on clones, so reports never see a half-applied mutation.
type Service struct {
	mu      sync.Mutex
	repo    Repository
	state   *models.AppState
	advisor insight.Advisor
	pusher  webhook.Pusher
	builder report.Builder
	render  func([]report.Section) ([]byte, error)
	org     string
	loc     *time.Location
	clock   func() time.Time
	log     *logrus.Entry
}

// Open loads the stored state, seeding the default fleet on first run
func Open(ctx context.Context, repo Repository, advisor insight.Advisor, pusher webhook.Pusher, opts Options) (*Service, error) {
	if advisor == nil {
		advisor = insight.Disabled{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	s := &Service{
		repo:    repo,
		advisor: advisor,
		pusher:  pusher,
		builder: report.NewBuilder(opts.Org, opts.Currency),
		render:  export.Render,
		org:     opts.Org,
		loc:     opts.Location,
		clock:   opts.Clock,
		log:     logrus.WithField("component", "fleet"),
	}

	state, err := repo.Load(ctx)
	switch {
	case errors.Is(err, db.ErrNoState):
		s.log.Info("no stored state, seeding default fleet")
		state = models.DefaultState()
		if err := repo.Save(ctx, state); err != nil {
			return nil, fmt.Errorf("failed to save seed state: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	state.Normalize()
	s.state = state

	return s, nil
}

// Now is the current time in the organisation's timezone
func (s *Service) Now() time.Time {
	return s.clock().In(s.loc)
}

// Org is the organisation name printed on reports
func (s *Service) Org() string {
	return s.org
}

// Snapshot returns a copy of the current state
func (s *Service) Snapshot() *models.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// commit applies fn to a copy of the state, saves it and only then makes it current
func (s *Service) commit(ctx context.Context, fn func(st *models.AppState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	s.state = next
	return nil
}

// resolveVehicle finds a vehicle by id or, failing that, by registration number
func resolveVehicle(st *models.AppState, ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return -1, &models.ValidationError{Field: "vehicleId", Message: "vehicle is required"}
	}
	for i, v := range st.Vehicles {
		if v.ID == ref {
			return i, nil
		}
	}
	for i, v := range st.Vehicles {
		if strings.EqualFold(v.Number, ref) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrVehicleNotFound, ref)
}

// Vehicles lists the fleet
func (s *Service) Vehicles() []models.Vehicle {
	return s.Snapshot().Vehicles
}

// AddVehicle registers a vehicle
func (s *Service) AddVehicle(ctx context.Context, in models.VehicleInput) (models.Vehicle, error) {
	v, err := models.NewVehicle(in)
	if err != nil {
		return models.Vehicle{}, err
	}
	err = s.commit(ctx, func(st *models.AppState) error {
		st.Vehicles = append(st.Vehicles, v)
		return nil
	})
	if err != nil {
		return models.Vehicle{}, err
	}
	s.log.WithFields(logrus.Fields{"vehicle": v.ID, "number": v.Number}).Info("vehicle added")
	return v, nil
}

// UpdateVehicle edits a vehicle in place
func (s *Service) UpdateVehicle(ctx context.Context, ref string, in models.VehicleInput) (models.Vehicle, error) {
	var updated models.Vehicle
	err := s.commit(ctx, func(st *models.AppState) error {
		i, err := resolveVehicle(st, ref)
		if err != nil {
			return err
		}
		if err := st.Vehicles[i].Apply(in); err != nil {
			return err
		}
		updated = st.Vehicles[i]
		return nil
	})
	if err != nil {
		return models.Vehicle{}, err
	}
	s.log.WithField("vehicle", updated.ID).Info("vehicle updated")
	return updated, nil
}

// DeleteVehicle removes a vehicle. Its logs are kept with the dangling id.
func (s *Service) DeleteVehicle(ctx context.Context, ref string) error {
	var id string
	err := s.commit(ctx, func(st *models.AppState) error {
		i, err := resolveVehicle(st, ref)
		if err != nil {
			return err
		}
		id = st.Vehicles[i].ID
		st.Vehicles = append(st.Vehicles[:i], st.Vehicles[i+1:]...)
		return nil
	})
	if err != nil {
		return err
	}
	s.log.WithField("vehicle", id).Warn("vehicle deleted, history kept")
	return nil
}

// AddTrip records a trip and moves the vehicle's odometer to the closing reading
func (s *Service) AddTrip(ctx context.Context, in models.TripInput) (models.DailyLog, error) {
	var l models.DailyLog
	err := s.commit(ctx, func(st *models.AppState) error {
		var err error
		l, err = addTrip(st, in)
		return err
	})
	if err != nil {
		return models.DailyLog{}, err
	}
	s.log.WithFields(logrus.Fields{"trip": l.ID, "vehicle": l.VehicleID, "km": l.TotalKm()}).Info("trip recorded")
	return l, nil
}

func addTrip(st *models.AppState, in models.TripInput) (models.DailyLog, error) {
	i, err := resolveVehicle(st, in.VehicleID)
	if err != nil {
		return models.DailyLog{}, err
	}
	in.VehicleID = st.Vehicles[i].ID

	l, err := models.NewDailyLog(in)
	if err != nil {
		return models.DailyLog{}, err
	}
	st.DailyLogs = append([]models.DailyLog{l}, st.DailyLogs...)
	if l.ClosingKm > st.Vehicles[i].CurrentKm {
		st.Vehicles[i].CurrentKm = l.ClosingKm
	}
	return l, nil
}

// AddFuel records a fuel purchase
func (s *Service) AddFuel(ctx context.Context, in models.FuelInput) (models.FuelLog, error) {
	var f models.FuelLog
	err := s.commit(ctx, func(st *models.AppState) error {
		var err error
		f, err = addFuel(st, in)
		return err
	})
	if err != nil {
		return models.FuelLog{}, err
	}
	s.log.WithFields(logrus.Fields{"fuel": f.ID, "vehicle": f.VehicleID}).Info("fuel recorded")
	return f, nil
}

func addFuel(st *models.AppState, in models.FuelInput) (models.FuelLog, error) {
	i, err := resolveVehicle(st, in.VehicleID)
	if err != nil {
		return models.FuelLog{}, err
	}
	in.VehicleID = st.Vehicles[i].ID

	f, err := models.NewFuelLog(in)
	if err != nil {
		return models.FuelLog{}, err
	}
	st.FuelLogs = append([]models.FuelLog{f}, st.FuelLogs...)
	return f, nil
}

// AddExpense records an expense
func (s *Service) AddExpense(ctx context.Context, in models.ExpenseInput) (models.ExpenseLog, error) {
	var e models.ExpenseLog
	err := s.commit(ctx, func(st *models.AppState) error {
		var err error
		e, err = addExpense(st, in)
		return err
	})
	if err != nil {
		return models.ExpenseLog{}, err
	}
	s.log.WithFields(logrus.Fields{"expense": e.ID, "vehicle": e.VehicleID}).Info("expense recorded")
	return e, nil
}

func addExpense(st *models.AppState, in models.ExpenseInput) (models.ExpenseLog, error) {
	i, err := resolveVehicle(st, in.VehicleID)
	if err != nil {
		return models.ExpenseLog{}, err
	}
	in.VehicleID = st.Vehicles[i].ID

	e, err := models.NewExpenseLog(in)
	if err != nil {
		return models.ExpenseLog{}, err
	}
	st.ExpenseLogs = append([]models.ExpenseLog{e}, st.ExpenseLogs...)
	return e, nil
}

// SetSyncURL stores the ledger webhook address; empty clears it
func (s *Service) SetSyncURL(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url != "" && !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return &models.ValidationError{Field: "googleSyncUrl", Message: "sync url must start with http:// or https://"}
	}
	return s.commit(ctx, func(st *models.AppState) error {
		st.SyncURL = url
		return nil
	})
}

// Alerts evaluates today's loss and mileage alerts
func (s *Service) Alerts() []alerts.Alert {
	return alerts.Evaluate(s.Snapshot(), s.Now(), s.builder.Currency)
}

// Dashboard is the home screen digest
type Dashboard struct {
	Today           ledger.DayStats   `json:"today"`
	Trend           []ledger.DayStats `json:"trend"`
	Totals          ledger.Snapshot   `json:"totals"`
	Alerts          []alerts.Alert    `json:"alerts"`
	PendingPayments int               `json:"pendingPayments"`
	Unsynced        int               `json:"unsynced"`
}

// TrendDays is the length of the dashboard trend
const TrendDays = 7

// Dashboard computes today's figures, the recent trend and all-time totals
func (s *Service) Dashboard() Dashboard {
	st := s.Snapshot()
	now := s.Now()

	d := Dashboard{
		Today:  ledger.Day(st, now),
		Trend:  ledger.Trend(st, now, TrendDays),
		Totals: ledger.Totals(st),
		Alerts: alerts.Evaluate(st, now, s.builder.Currency),
	}
	for _, l := range st.DailyLogs {
		if l.IsPaymentPending() {
			d.PendingPayments++
		}
	}
	d.Unsynced = countUnsynced(st)
	return d
}

// Report builds the report sections for the period containing today
func (s *Service) Report(p ledger.Period) []report.Section {
	return s.builder.Build(s.Snapshot(), p, s.Now())
}

// Vehicle looks up one vehicle by id or registration number
func (s *Service) Vehicle(ref string) (models.Vehicle, error) {
	snap := s.Snapshot()
	i, err := resolveVehicle(snap, ref)
	if err != nil {
		return models.Vehicle{}, err
	}
	return snap.Vehicles[i], nil
}

// Logs returns the stored logs, newest first. An empty period means all
// time; a non-empty vehicleRef narrows to that vehicle.
func (s *Service) Logs(p ledger.Period, vehicleRef string) (ledger.Slice, error) {
	snap := s.Snapshot()

	var sl ledger.Slice
	if p == "" {
		sl = ledger.Slice{Trips: snap.DailyLogs, Fuel: snap.FuelLogs, Expenses: snap.ExpenseLogs}
	} else {
		sl = ledger.Filter(snap, p, s.Now())
	}

	if vehicleRef == "" {
		return sl, nil
	}
	// Logs of a deleted vehicle can still be listed by their raw id.
	id := vehicleRef
	if i, err := resolveVehicle(snap, vehicleRef); err == nil {
		id = snap.Vehicles[i].ID
	}
	return sl.ForVehicle(id), nil
}

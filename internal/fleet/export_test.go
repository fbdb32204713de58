package fleet

import (
	"context"
	"errors"
	"testing"

	"fleetbook/internal/ledger"
	"fleetbook/internal/models"
	"fleetbook/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportReport(t *testing.T) {
	s := newService(t, &memRepo{}, nil, nil)
	_, err := s.AddTrip(context.Background(), trip("v1", 12500, 12600, 900))
	require.NoError(t, err)

	name, data, err := s.ExportReport(ledger.Monthly)
	require.NoError(t, err)
	assert.Equal(t, "Ansh_Tours_Monthly_Report_2026-03-14.xlsx", name)
	assert.NotEmpty(t, data)
	// xlsx files are zip archives
	assert.Equal(t, "PK", string(data[:2]))
}

func TestExportReport_RenderError(t *testing.T) {
	s := newService(t, &memRepo{}, nil, nil)
	s.render = func([]report.Section) ([]byte, error) { return nil, errors.New("boom") }

	_, _, err := s.ExportReport(ledger.Daily)
	assert.ErrorIs(t, err, ErrExportFailed)
	assert.EqualError(t, err, "failed to generate excel")
}

func TestExportReport_PanicBecomesError(t *testing.T) {
	s := newService(t, &memRepo{}, nil, nil)
	before := s.Snapshot()
	s.render = func([]report.Section) ([]byte, error) { panic("index out of range") }

	name, data, err := s.ExportReport(ledger.Daily)
	assert.ErrorIs(t, err, ErrExportFailed)
	assert.Empty(t, name)
	assert.Nil(t, data)
	assert.Equal(t, before, s.Snapshot())
}

func TestBackupRestore(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	s := newService(t, repo, nil, nil)
	_, err := s.AddTrip(ctx, trip("v1", 12500, 12600, 900))
	require.NoError(t, err)

	name, data, err := s.Backup()
	require.NoError(t, err)
	assert.Equal(t, "Ansh_Tours_backup_2026-03-14.json", name)

	require.NoError(t, s.DeleteVehicle(ctx, "v1"))
	require.NoError(t, s.Restore(ctx, data))

	snap := s.Snapshot()
	assert.Len(t, snap.Vehicles, 3)
	require.Len(t, snap.DailyLogs, 1)
	assert.Equal(t, "900", snap.DailyLogs[0].Income.String())
	assert.Len(t, repo.state.Vehicles, 3)
}

func TestRestore_InvalidBackupKeepsState(t *testing.T) {
	s := newService(t, &memRepo{}, nil, nil)
	before := s.Snapshot()

	assert.Error(t, s.Restore(context.Background(), []byte("{broken")))
	assert.Equal(t, before, s.Snapshot())
}

func TestRestore_RejectsInvalidTrip(t *testing.T) {
	repo := &memRepo{}
	s := newService(t, repo, nil, nil)
	before := s.Snapshot()

	backup := `{"vehicles":[{"id":"v1","name":"Dzire","number":"MH05GD3665","currentKm":100}],` +
		`"dailyLogs":[{"id":"t1","date":"2026-03-14","vehicleId":"v1","driverName":"Ramesh",` +
		`"openingKm":150,"closingKm":100,"tripType":"Bogus","income":-500,"paymentMode":"Barter"}]}`

	err := s.Restore(context.Background(), []byte(backup))
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "dailyLogs", verr.Field)
	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, 1, repo.saves)
}

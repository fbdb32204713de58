package fleet

import (
	"context"
	"errors"
	"testing"

	"fleetbook/internal/models"
	"fleetbook/internal/webhook"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const hook = "https://script.example.com/exec"

func TestSyncAll_NoURL(t *testing.T) {
	s := newService(t, &memRepo{}, nil, &mockPusher{})

	_, err := s.SyncAll(context.Background())
	assert.ErrorIs(t, err, ErrNoSyncURL)
}

func TestSyncAll_PushesInOrderAndFlags(t *testing.T) {
	ctx := context.Background()
	pusher := &mockPusher{}
	s := newService(t, &memRepo{}, nil, pusher)
	require.NoError(t, s.SetSyncURL(ctx, hook))

	_, err := s.AddExpense(ctx, models.ExpenseInput{
		Date: today, VehicleID: "v1", Category: models.ExpenseToll, Amount: decimal.NewFromInt(90),
	})
	require.NoError(t, err)
	_, err = s.AddTrip(ctx, trip("v1", 12500, 12600, 900))
	require.NoError(t, err)

	var order []webhook.Kind
	pusher.On("Push", mock.Anything, hook, mock.Anything).
		Run(func(args mock.Arguments) { order = append(order, args.Get(2).(webhook.Record).Type) }).
		Return(nil)

	res, err := s.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Pushed: 2}, res)
	assert.Equal(t, []webhook.Kind{webhook.KindTrip, webhook.KindExpense}, order)

	snap := s.Snapshot()
	assert.True(t, snap.DailyLogs[0].Synced)
	assert.True(t, snap.ExpenseLogs[0].Synced)
	assert.Equal(t, 0, s.Dashboard().Unsynced)

	// nothing left to push
	res, err = s.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{}, res)
	pusher.AssertNumberOfCalls(t, "Push", 2)
}

func TestSyncAll_FailedRecordsStayUnflagged(t *testing.T) {
	ctx := context.Background()
	pusher := &mockPusher{}
	s := newService(t, &memRepo{}, nil, pusher)
	require.NoError(t, s.SetSyncURL(ctx, hook))

	_, err := s.AddTrip(ctx, trip("v1", 12500, 12600, 900))
	require.NoError(t, err)
	_, err = s.AddFuel(ctx, models.FuelInput{
		Date: today, VehicleID: "v1", FuelType: models.FuelPetrol, Quantity: 10, Cost: decimal.NewFromInt(1050),
	})
	require.NoError(t, err)

	pusher.On("Push", mock.Anything, hook, mock.MatchedBy(func(r webhook.Record) bool { return r.Type == webhook.KindTrip })).
		Return(errors.New("connection refused"))
	pusher.On("Push", mock.Anything, hook, mock.MatchedBy(func(r webhook.Record) bool { return r.Type == webhook.KindFuel })).
		Return(nil)

	res, err := s.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Pushed: 1, Failed: 1}, res)

	snap := s.Snapshot()
	assert.False(t, snap.DailyLogs[0].Synced)
	assert.True(t, snap.FuelLogs[0].Synced)
}

func TestSyncAll_StopsOnCancelledContext(t *testing.T) {
	ctx := context.Background()
	pusher := &mockPusher{}
	s := newService(t, &memRepo{}, nil, pusher)
	require.NoError(t, s.SetSyncURL(ctx, hook))
	_, err := s.AddTrip(ctx, trip("v1", 12500, 12600, 900))
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	_, err = s.SyncAll(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
	pusher.AssertNotCalled(t, "Push", mock.Anything, mock.Anything, mock.Anything)
}

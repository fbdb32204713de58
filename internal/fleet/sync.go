package fleet

import (
	"context"
	"errors"

	"fleetbook/internal/models"
	"fleetbook/internal/webhook"

	"github.com/sirupsen/logrus"
)

// ErrNoSyncURL is returned by SyncAll when no webhook is configured
var ErrNoSyncURL = errors.New("sync url is not configured")

// SyncResult counts the outcome of one sync run
type SyncResult struct {
	Pushed int `json:"pushed"`
	Failed int `json:"failed"`
}

func countUnsynced(st *models.AppState) int {
	n := 0
	for _, l := range st.DailyLogs {
		if !l.Synced {
			n++
		}
	}
	for _, f := range st.FuelLogs {
		if !f.Synced {
			n++
		}
	}
	for _, e := range st.ExpenseLogs {
		if !e.Synced {
			n++
		}
	}
	return n
}

type pending struct {
	id     string
	record webhook.Record
	mark   func(st *models.AppState, id string)
}

// SyncAll pushes every unsynced trip, then fuel, then expense record, one at a
// time. A record is flagged as synced only after its push returns without
// error; failed ones stay unflagged for the next run.
func (s *Service) SyncAll(ctx context.Context) (SyncResult, error) {
	var result SyncResult
	if s.pusher == nil {
		return result, ErrNoSyncURL
	}

	snap := s.Snapshot()
	if snap.SyncURL == "" {
		return result, ErrNoSyncURL
	}

	var queue []pending
	for _, l := range snap.DailyLogs {
		if !l.Synced {
			queue = append(queue, pending{l.ID, webhook.TripRecord(snap, l), markTrip})
		}
	}
	for _, f := range snap.FuelLogs {
		if !f.Synced {
			queue = append(queue, pending{f.ID, webhook.FuelRecord(snap, f), markFuel})
		}
	}
	for _, e := range snap.ExpenseLogs {
		if !e.Synced {
			queue = append(queue, pending{e.ID, webhook.ExpenseRecord(snap, e), markExpense})
		}
	}

	for _, p := range queue {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.pusher.Push(ctx, snap.SyncURL, p.record); err != nil {
			result.Failed++
			s.log.WithError(err).WithFields(logrus.Fields{"type": p.record.Type, "id": p.id}).Warn("sync failed")
			continue
		}
		err := s.commit(ctx, func(st *models.AppState) error {
			p.mark(st, p.id)
			return nil
		})
		if err != nil {
			return result, err
		}
		result.Pushed++
	}

	s.log.WithFields(logrus.Fields{"pushed": result.Pushed, "failed": result.Failed}).Info("sync finished")
	return result, nil
}

func markTrip(st *models.AppState, id string) {
	for i := range st.DailyLogs {
		if st.DailyLogs[i].ID == id {
			st.DailyLogs[i].Synced = true
		}
	}
}

func markFuel(st *models.AppState, id string) {
	for i := range st.FuelLogs {
		if st.FuelLogs[i].ID == id {
			st.FuelLogs[i].Synced = true
		}
	}
}

func markExpense(st *models.AppState, id string) {
	for i := range st.ExpenseLogs {
		if st.ExpenseLogs[i].ID == id {
			st.ExpenseLogs[i].Synced = true
		}
	}
}

package fleet

import (
	"context"
	"fmt"

	"fleetbook/internal/export"
	"fleetbook/internal/ledger"
	"fleetbook/internal/models"

	"github.com/sirupsen/logrus"
)

// ExportReport renders the period workbook. Any failure, including a panic in
// the renderer, comes back as ErrExportFailed and leaves the state untouched.
func (s *Service) ExportReport(p ledger.Period) (name string, data []byte, err error) {
	snap := s.Snapshot()
	now := s.Now()

	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("panic", r).Error("excel export panicked")
			name, data, err = "", nil, ErrExportFailed
		}
	}()

	data, err = s.render(s.builder.Build(snap, p, now))
	if err != nil {
		s.log.WithError(err).Error("excel export failed")
		return "", nil, ErrExportFailed
	}

	s.log.WithFields(logrus.Fields{"period": p, "bytes": len(data)}).Info("report exported")
	return export.ReportFileName(s.org, p, now), data, nil
}

// Backup serialises the whole state for download
func (s *Service) Backup() (name string, data []byte, err error) {
	data, err = export.MarshalBackup(s.Snapshot())
	if err != nil {
		return "", nil, err
	}
	return export.BackupFileName(s.org, s.Now()), data, nil
}

// Restore replaces the whole state with a backup
func (s *Service) Restore(ctx context.Context, data []byte) error {
	restored, err := export.ParseBackup(data)
	if err != nil {
		return err
	}
	err = s.commit(ctx, func(st *models.AppState) error {
		*st = *restored
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to restore backup: %w", err)
	}
	s.log.WithField("vehicles", len(restored.Vehicles)).Warn("state restored from backup")
	return nil
}

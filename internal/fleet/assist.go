package fleet

import (
	"context"
	"strings"

	"fleetbook/internal/insight"
)

// Insights asks the advisor about the fleet. It never fails: errors and empty
// answers turn into fixed fallback texts.
func (s *Service) Insights(ctx context.Context) string {
	text, err := s.advisor.Insights(ctx, insight.Summarize(s.org, s.Snapshot()))
	if err != nil {
		s.log.WithError(err).Warn("insights unavailable")
		return insight.UnavailableText
	}
	if strings.TrimSpace(text) == "" {
		return insight.NominalText
	}
	return text
}

// ScanReceipt reads a receipt image into a draft entry for vehicleRef.
// It returns nil when the receipt could not be read; the caller falls back
// to manual entry.
func (s *Service) ScanReceipt(ctx context.Context, image []byte, mimeType, vehicleRef string) *insight.Draft {
	receipt, err := s.advisor.ScanReceipt(ctx, image, mimeType)
	if err != nil || receipt == nil {
		s.log.WithError(err).Warn("receipt scan failed")
		return nil
	}

	vehicleID := vehicleRef
	snap := s.Snapshot()
	if i, err := resolveVehicle(snap, vehicleRef); err == nil {
		vehicleID = snap.Vehicles[i].ID
	}

	draft := receipt.Draft(vehicleID, s.Now())
	return &draft
}

package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"fleetbook/internal/ledger"
	"fleetbook/internal/models"
)

// BackupContentType is the MIME type of a backup download
const BackupContentType = "application/json"

// ReportFileName names the workbook for a period report, e.g. Ansh_Tours_Daily_Report_2026-03-14.xlsx
func ReportFileName(org string, p ledger.Period, day time.Time) string {
	return fmt.Sprintf("%s_%s_Report_%s.xlsx", sanitizeFilename(org), p, models.DateOf(day))
}

// BackupFileName names the raw state download
func BackupFileName(org string, day time.Time) string {
	return fmt.Sprintf("%s_backup_%s.json", sanitizeFilename(org), models.DateOf(day))
}

func sanitizeFilename(filename string) string {
	replacements := map[rune]rune{
		'/':  '_',
		'\\': '_',
		':':  '_',
		'*':  '_',
		'?':  '_',
		'"':  '_',
		'<':  '_',
		'>':  '_',
		'|':  '_',
		' ':  '_',
	}

	result := []rune{}
	for _, char := range strings.TrimSpace(filename) {
		if replacement, exists := replacements[char]; exists {
			result = append(result, replacement)
		} else {
			result = append(result, char)
		}
	}
	if len(result) == 0 {
		return "fleet"
	}
	return string(result)
}

// MarshalBackup serialises the whole state as indented JSON
func MarshalBackup(s *models.AppState) ([]byte, error) {
	clone := s.Clone()
	clone.Normalize()
	data, err := json.MarshalIndent(clone, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal backup: %w", err)
	}
	return data, nil
}

// ParseBackup reads a backup produced by MarshalBackup. Every vehicle needs an
// id and every log must pass the same checks as a new entry.
func ParseBackup(data []byte) (*models.AppState, error) {
	var s models.AppState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &models.ValidationError{Field: "backup", Message: fmt.Sprintf("failed to parse backup: %v", err)}
	}
	s.Normalize()

	for i, v := range s.Vehicles {
		if strings.TrimSpace(v.ID) == "" {
			return nil, &models.ValidationError{Field: "vehicles", Message: fmt.Sprintf("vehicle %d has no id", i)}
		}
	}
	for _, l := range s.DailyLogs {
		if err := l.Validate(); err != nil {
			return nil, badLog("dailyLogs", "trip", l.ID, err)
		}
	}
	for _, f := range s.FuelLogs {
		if err := f.Validate(); err != nil {
			return nil, badLog("fuelLogs", "fuel log", f.ID, err)
		}
	}
	for _, e := range s.ExpenseLogs {
		if err := e.Validate(); err != nil {
			return nil, badLog("expenseLogs", "expense", e.ID, err)
		}
	}
	return &s, nil
}

func badLog(field, kind, id string, err error) error {
	return &models.ValidationError{Field: field, Message: fmt.Sprintf("%s %s: %v", kind, id, err)}
}

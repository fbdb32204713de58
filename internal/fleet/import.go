package fleet

import (
	"context"
	"sort"

	"fleetbook/internal/models"
	"fleetbook/internal/parser"

	"github.com/sirupsen/logrus"
)

// ImportResult reports how many entries were added and which lines were skipped
type ImportResult struct {
	Added    int              `json:"added"`
	Problems []parser.Problem `json:"-"`
	Skipped  []string         `json:"skipped"`
}

// Import adds every valid entry of a parsed batch in one save. Entries go
// through the same constructors as manual entry; invalid ones are skipped.
func (s *Service) Import(ctx context.Context, b *parser.Batch) (ImportResult, error) {
	result := ImportResult{Problems: append([]parser.Problem{}, b.Problems...)}
	skip := func(line int, err error) {
		result.Problems = append(result.Problems, parser.Problem{Line: line, Err: err})
	}

	err := s.commit(ctx, func(st *models.AppState) error {
		for i, in := range b.Trips {
			if _, err := addTrip(st, in); err != nil {
				skip(b.Line(i), err)
				continue
			}
			result.Added++
		}
		for i, in := range b.Fuel {
			if _, err := addFuel(st, in); err != nil {
				skip(b.Line(len(b.Trips)+i), err)
				continue
			}
			result.Added++
		}
		for i, in := range b.Expenses {
			if _, err := addExpense(st, in); err != nil {
				skip(b.Line(len(b.Trips)+len(b.Fuel)+i), err)
				continue
			}
			result.Added++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	sort.SliceStable(result.Problems, func(i, j int) bool {
		return result.Problems[i].Line < result.Problems[j].Line
	})
	for _, p := range result.Problems {
		result.Skipped = append(result.Skipped, p.String())
	}
	s.log.WithFields(logrus.Fields{"kind": b.Kind, "added": result.Added, "skipped": len(result.Problems)}).Info("import finished")
	return result, nil
}

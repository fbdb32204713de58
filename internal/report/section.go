package report

// Sheet names of the generated sections
const (
	SheetSummary = "Summary"
	SheetTrips   = "Trips"
	SheetCosts   = "Costs"
	SheetPnL     = "P&L"
)

// PlaceholderColumn and PlaceholderText fill a section that has no data
const (
	PlaceholderColumn = "Note"
	PlaceholderText   = "No entries recorded for this selection."
)

// Section is one named table of a report. Every row has len(Columns) cells.
// Cells hold strings, integers, float64 or decimal.Decimal values.
type Section struct {
	Sheet    string
	Title    string
	Subtitle string
	Columns  []string
	Rows     [][]any
}

// Empty reports whether the section carries only the placeholder row
func (s Section) Empty() bool {
	return len(s.Columns) == 1 && s.Columns[0] == PlaceholderColumn
}

func placeholder(sheet, title, subtitle string) Section {
	return Section{
		Sheet:    sheet,
		Title:    title,
		Subtitle: subtitle,
		Columns:  []string{PlaceholderColumn},
		Rows:     [][]any{{PlaceholderText}},
	}
}

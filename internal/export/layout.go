package export

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"fleetbook/internal/report"

	"github.com/shopspring/decimal"
)

// MaxColumnWidth caps auto-sized columns
const MaxColumnWidth = 40

// Grid rows of every laid-out sheet
const (
	TitleRow     = 0
	SubtitleRow  = 1
	HeaderRow    = 3
	FirstDataRow = 4
)

// Kind is the banner role of a cell
type Kind int

const (
	KindData Kind = iota
	KindTitle
	KindSubtitle
	KindHeader
)

// Sign colours money cells in profit, revenue and income columns
type Sign int

const (
	SignNone Sign = iota
	SignProfit
	SignLoss
)

// Style is the abstract look of one cell. It is comparable so it can key a style cache.
type Style struct {
	Kind    Kind
	Numeric bool
	Sign    Sign
	Total   bool
}

// Cell is a value with its style
type Cell struct {
	Value any
	Style Style
}

// Merge spans one row from column From to column To, inclusive
type Merge struct {
	Row  int
	From int
	To   int
}

// Sheet is the laid-out grid of one section. Rows may be empty (the spacer row).
type Sheet struct {
	Name   string
	Rows   [][]Cell
	Merges []Merge
	Widths []float64
}

// Layout places a section on a grid: title, subtitle, spacer, header, then data.
// The style rules only look at column names and values, never at report semantics.
func Layout(sec report.Section) Sheet {
	width := len(sec.Columns)
	sh := Sheet{
		Name: sec.Sheet,
		Rows: [][]Cell{
			{{Value: sec.Title, Style: Style{Kind: KindTitle}}},
			{{Value: sec.Subtitle, Style: Style{Kind: KindSubtitle}}},
			nil,
		},
	}
	if width > 1 {
		sh.Merges = []Merge{
			{Row: TitleRow, From: 0, To: width - 1},
			{Row: SubtitleRow, From: 0, To: width - 1},
		}
	}

	header := make([]Cell, width)
	for c, name := range sec.Columns {
		header[c] = Cell{Value: name, Style: Style{Kind: KindHeader}}
	}
	sh.Rows = append(sh.Rows, header)

	for _, row := range sec.Rows {
		total := isTotalRow(row)
		cells := make([]Cell, width)
		for c := 0; c < width && c < len(row); c++ {
			cells[c] = Cell{Value: row[c], Style: dataStyle(sec.Columns[c], row[c], total)}
		}
		sh.Rows = append(sh.Rows, cells)
	}

	sh.Widths = make([]float64, width)
	for c := range sec.Columns {
		longest := 0
		for _, row := range sh.Rows[HeaderRow:] {
			if c < len(row) {
				if n := utf8.RuneCountInString(Text(row[c].Value)); n > longest {
					longest = n
				}
			}
		}
		sh.Widths[c] = float64(min(MaxColumnWidth, longest+3))
	}
	return sh
}

func dataStyle(column string, v any, total bool) Style {
	header := strings.ToLower(column)
	st := Style{Kind: KindData, Total: total}

	numeric := IsNumber(v)
	if numeric || containsAny(header, "(₹)", "km", "odo", "qty") {
		st.Numeric = true
	}
	if numeric && containsAny(header, "profit", "revenue", "income") {
		st.Sign = SignProfit
		if isNegative(v) {
			st.Sign = SignLoss
		}
	}
	return st
}

func isTotalRow(row []any) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToUpper(Text(row[0]))
	return containsAny(first, "TOTAL", "GRAND", "SUMMARY")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// IsNumber reports whether v is written to the workbook as a number
func IsNumber(v any) bool {
	switch v.(type) {
	case int, int32, int64, float32, float64, decimal.Decimal:
		return true
	}
	return false
}

func isNegative(v any) bool {
	switch n := v.(type) {
	case int:
		return n < 0
	case int32:
		return n < 0
	case int64:
		return n < 0
	case float32:
		return n < 0
	case float64:
		return n < 0
	case decimal.Decimal:
		return n.IsNegative()
	}
	return false
}

// Text renders a cell value the way it is measured for column widths
func Text(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case decimal.Decimal:
		return n.String()
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	}
	return fmt.Sprint(v)
}

package export

import (
	"fmt"

	"fleetbook/internal/report"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the rendered workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const defaultSheet = "Sheet1"

// Workbook builds one worksheet per section, in order
func Workbook(sections []report.Section) (*excelize.File, error) {
	if len(sections) == 0 {
		return nil, fmt.Errorf("no sections to export")
	}

	f := excelize.NewFile()
	w := &writer{file: f, styles: make(map[Style]int)}

	for _, sec := range sections {
		if err := w.sheet(Layout(sec)); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write sheet %q: %w", sec.Sheet, err)
		}
	}

	if err := f.DeleteSheet(defaultSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex(sections[0].Sheet); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}
	return f, nil
}

// Render builds the workbook and serialises it to xlsx bytes
func Render(sections []report.Section) ([]byte, error) {
	f, err := Workbook(sections)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

type writer struct {
	file   *excelize.File
	styles map[Style]int
}

func (w *writer) sheet(sh Sheet) error {
	if _, err := w.file.NewSheet(sh.Name); err != nil {
		return err
	}

	for r, row := range sh.Rows {
		for c, cell := range row {
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := w.file.SetCellValue(sh.Name, name, cellValue(cell.Value)); err != nil {
				return err
			}
			id, err := w.style(cell.Style)
			if err != nil {
				return err
			}
			if err := w.file.SetCellStyle(sh.Name, name, name, id); err != nil {
				return err
			}
		}
	}

	for _, m := range sh.Merges {
		from, _ := excelize.CoordinatesToCellName(m.From+1, m.Row+1)
		to, _ := excelize.CoordinatesToCellName(m.To+1, m.Row+1)
		if err := w.file.MergeCell(sh.Name, from, to); err != nil {
			return err
		}
	}

	for c, width := range sh.Widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := w.file.SetColWidth(sh.Name, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

// style registers each distinct Style once per workbook
func (w *writer) style(st Style) (int, error) {
	if id, ok := w.styles[st]; ok {
		return id, nil
	}
	id, err := w.file.NewStyle(excelStyle(st))
	if err != nil {
		return 0, err
	}
	w.styles[st] = id
	return id, nil
}

func cellValue(v any) any {
	if d, ok := v.(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return v
}

func excelStyle(st Style) *excelize.Style {
	switch st.Kind {
	case KindTitle:
		return &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 14, Color: "1E293B"},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		}
	case KindSubtitle:
		return &excelize.Style{
			Font:      &excelize.Font{Italic: true, Size: 9, Color: "64748B"},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		}
	case KindHeader:
		return &excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1E293B"}},
			Font:      &excelize.Font{Bold: true, Size: 10, Color: "FFFFFF"},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
			Border: []excelize.Border{
				{Type: "top", Color: "000000", Style: 1},
				{Type: "bottom", Color: "000000", Style: 6},
			},
		}
	}

	s := &excelize.Style{
		Font:      &excelize.Font{Size: 9},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center", WrapText: true},
		Border:    []excelize.Border{{Type: "bottom", Color: "E2E8F0", Style: 1}},
	}
	if st.Numeric {
		s.Alignment = &excelize.Alignment{Horizontal: "right", Vertical: "center"}
	}
	switch st.Sign {
	case SignProfit:
		s.Font.Bold = true
		s.Font.Color = "15803D"
	case SignLoss:
		s.Font.Bold = true
		s.Font.Color = "B91C1C"
	}
	if st.Total {
		s.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F1F5F9"}}
		s.Font.Bold = true
		s.Font.Size = 10
		s.Border = []excelize.Border{
			{Type: "top", Color: "4F46E5", Style: 2},
			{Type: "bottom", Color: "4F46E5", Style: 2},
		}
	}
	return s
}

package output

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"opticost/core/types"
)

// SheetName is the worksheet holding the quote
const SheetName = "Quote"

const euroFormat = `#,##0.00 "€"`

// XLSXFormatter renders the quote as a one-sheet Excel workbook
type XLSXFormatter struct{}

// Format implements Formatter
func (f *XLSXFormatter) Format() Format {
	return FormatXLSX
}

// xlsxStyles holds the style ids used by the quote sheet
type xlsxStyles struct {
	title, header, section, item, amount, boldAmount, bold int
}

// Render implements Formatter
func (f *XLSXFormatter) Render(w io.Writer, report *Report) error {
	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName(wb.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("set sheet name: %w", err)
	}
	widths := map[string]float64{"A": 42, "B": 38, "C": 16}
	for col, width := range widths {
		if err := wb.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	st, err := newXLSXStyles(wb)
	if err != nil {
		return err
	}

	q := report.Quote
	sheet := &sheetWriter{f: wb, row: 1}

	if err := wb.MergeCell(SheetName, "A1", "C1"); err != nil {
		return fmt.Errorf("merge title: %w", err)
	}
	sheet.text(st.title, "Installation quote")
	sheet.text(0, "Address: "+report.Job.Address)
	sheet.text(0, fmt.Sprintf("Model: %s, %d spots (%s)", report.Job.Model, report.Job.Spots, report.Job.Service))
	if report.Job.StartDate != "" {
		sheet.text(0, "Start: "+report.Job.StartDate)
	}
	sheet.text(0, "Quote: "+report.ID)
	sheet.row++

	sheet.cells(st.header, "Item", "Details", "Amount")
	for _, s := range sections(q) {
		sheet.text(st.section, s.title)
		for _, item := range s.items {
			style := st.item
			if item.Bold {
				style = st.bold
			}
			sheet.line(style, st.amount, item.Label, item.Details, item.Value)
		}
		sheet.line(st.bold, st.boldAmount, "Subtotal", "", types.SumItems(s.items))
	}
	sheet.row++

	sheet.text(st.section, "Details")
	for _, fc := range facts(q) {
		sheet.cells(st.item, fc.label, fc.value)
	}
	sheet.row++

	sheet.line(st.bold, st.boldAmount, "Total cost", "", q.TotalCost)
	sheet.cells(st.bold, "Margin", Percent(q.MarginPercent))
	sheet.line(st.bold, st.boldAmount, "Sell price", "", q.SellPrice)

	if len(report.Warnings) > 0 {
		sheet.row++
		sheet.text(st.section, "Warnings")
		for _, warning := range report.Warnings {
			sheet.text(0, warning)
		}
	}

	if sheet.err != nil {
		return sheet.err
	}
	if err := wb.Write(w); err != nil {
		return fmt.Errorf("write excel: %w", err)
	}
	return nil
}

func newXLSXStyles(wb *excelize.File) (xlsxStyles, error) {
	var st xlsxStyles
	euro := euroFormat
	defs := []struct {
		id    *int
		style *excelize.Style
	}{
		{&st.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}},
		{&st.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Border:    thinBorders(),
		}},
		{&st.section, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}}},
		{&st.item, &excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders()}},
		{&st.bold, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 10}, Border: thinBorders()}},
		{&st.amount, &excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders(), CustomNumFmt: &euro}},
		{&st.boldAmount, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 10}, Border: thinBorders(), CustomNumFmt: &euro}},
	}
	for _, d := range defs {
		id, err := wb.NewStyle(d.style)
		if err != nil {
			return st, fmt.Errorf("create style: %w", err)
		}
		*d.id = id
	}
	return st, nil
}

// sheetWriter appends rows to the quote sheet and keeps the first error
type sheetWriter struct {
	f   *excelize.File
	row int
	err error
}

func (s *sheetWriter) set(col string, value interface{}, style int) {
	if s.err != nil {
		return
	}
	cell := fmt.Sprintf("%s%d", col, s.row)
	if err := s.f.SetCellValue(SheetName, cell, value); err != nil {
		s.err = fmt.Errorf("set %s: %w", cell, err)
		return
	}
	if style != 0 {
		if err := s.f.SetCellStyle(SheetName, cell, cell, style); err != nil {
			s.err = fmt.Errorf("style %s: %w", cell, err)
		}
	}
}

// text writes one cell in column A
func (s *sheetWriter) text(style int, value string) {
	s.set("A", sanitizeExcelCell(value), style)
	s.row++
}

// cells writes text cells left to right
func (s *sheetWriter) cells(style int, values ...string) {
	for i, v := range values {
		s.set(string(rune('A'+i)), sanitizeExcelCell(v), style)
	}
	s.row++
}

// line writes a label, details and a numeric amount
func (s *sheetWriter) line(style, amountStyle int, label, details string, amount decimal.Decimal) {
	s.set("A", sanitizeExcelCell(label), style)
	s.set("B", sanitizeExcelCell(details), style)
	s.set("C", amount.InexactFloat64(), amountStyle)
	s.row++
}

// sanitizeExcelCell stops user text from being read as a formula
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns thin borders on all four sides
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}

package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	currencyFormat = `€ #,##0.00`
	percentFormat  = `0.0"%"`
	numberFormat   = `#,##0.##`
)

// excel caps sheet names at 31 characters and forbids a handful of symbols.
var sheetNameReplacer = strings.NewReplacer(":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")")

func sheetName(name string) string {
	name = sheetNameReplacer.Replace(name)
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}

// WriteXLSX renders one worksheet per table.
func WriteXLSX(w io.Writer, tables []Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F1F5F9"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	styles := make(map[Kind]int, 3)
	for kind, format := range map[Kind]string{Currency: currencyFormat, Percent: percentFormat, Number: numberFormat} {
		fmtCode := format
		id, err := f.NewStyle(&excelize.Style{CustomNumFmt: &fmtCode})
		if err != nil {
			return err
		}
		styles[kind] = id
	}

	first := f.GetSheetName(0)
	for i, table := range tables {
		name := sheetName(table.Name)
		if i == 0 {
			if err := f.SetSheetName(first, name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}
		if err := writeSheet(f, name, table, header, styles); err != nil {
			return fmt.Errorf("export: sheet %q: %w", name, err)
		}
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, table Table, header int, styles map[Kind]int) error {
	titles := make([]any, len(table.Columns))
	for i, col := range table.Columns {
		titles[i] = col.Title
	}
	if err := f.SetSheetRow(sheet, "A1", &titles); err != nil {
		return err
	}
	if len(titles) > 0 {
		last, err := excelize.CoordinatesToCellName(len(titles), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
			return err
		}
	}
	for r, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		values := append([]any(nil), row...)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	for c, col := range table.Columns {
		name, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		width := 16.0
		if col.Kind == Text {
			width = 32
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
		style, ok := styles[col.Kind]
		if !ok || len(table.Rows) == 0 {
			continue
		}
		if err := f.SetCellStyle(sheet, name+"2", fmt.Sprintf("%s%d", name, len(table.Rows)+1), style); err != nil {
			return err
		}
	}
	return nil
}

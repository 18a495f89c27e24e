package export

import (
	"encoding/csv"
	"io"
)

// WriteCSV emits every table as a titled block separated by a blank line.
// Amounts are written with a dot decimal separator and no currency symbol.
func WriteCSV(w io.Writer, tables []Table) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	for i, table := range tables {
		if i > 0 {
			if err := writer.Write([]string{}); err != nil {
				return err
			}
		}
		if err := writer.Write([]string{table.Name}); err != nil {
			return err
		}
		header := make([]string, len(table.Columns))
		for j, col := range table.Columns {
			header[j] = col.Title
		}
		if err := writer.Write(header); err != nil {
			return err
		}
		for _, row := range table.Rows {
			record := make([]string, len(row))
			for j, v := range row {
				record[j] = formatCell(v, kindAt(table.Columns, j), false)
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func kindAt(cols []Column, i int) Kind {
	if i < len(cols) {
		return cols[i].Kind
	}
	return Text
}

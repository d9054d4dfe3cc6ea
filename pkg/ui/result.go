// Package ui renders query results and plans for the terminal.
package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"qexec/pkg/tuple"
	"qexec/pkg/types"
)

// ResultTable renders rows under a header taken from desc.
func ResultTable(desc *tuple.TupleDescription, rows []*tuple.Tuple) string {
	headers := make([]string, desc.NumFields())
	numeric := make([]bool, desc.NumFields())
	for i := range headers {
		headers[i] = desc.Attributes[i].String()
		numeric[i] = desc.Types[i] == types.IntType || desc.Types[i] == types.FloatType
	}

	cells := make([][]string, len(rows))
	for r, row := range rows {
		line := make([]string, row.NumFields())
		for c := range line {
			line[c] = row.Field(c).String()
		}
		cells[r] = line
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(cells...).
		StyleFunc(cellStyler(numeric))
	return t.Render()
}

// headerRow is the row index lipgloss/table passes to StyleFunc for the
// header; data rows are numbered from 1.
const headerRow = 0

// cellStyler styles the header row and right-aligns numeric columns.
func cellStyler(numeric []bool) table.StyleFunc {
	return func(row, col int) lipgloss.Style {
		switch {
		case row == headerRow:
			return headerStyle
		case col < len(numeric) && numeric[col]:
			return numberCellStyle
		default:
			return cellStyle
		}
	}
}

// WriteResult prints the result table followed by a row count.
func WriteResult(w io.Writer, desc *tuple.TupleDescription, rows []*tuple.Tuple) error {
	if _, err := fmt.Fprintln(w, ResultTable(desc, rows)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d row(s)\n", len(rows))
	return err
}

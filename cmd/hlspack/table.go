package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. Numeric columns align right.
type column struct {
	title   string
	numeric bool
}

// renderTable draws rows under cols with rounded borders. Short rows are
// padded; an optional footer row is rendered below a separator.
func renderTable(cols []column, rows [][]string, footer []string) string {
	if len(cols) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	configs := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		configs[i] = table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignLeft, Align: text.AlignLeft}
		if c.numeric {
			configs[i].Align = text.AlignRight
			configs[i].AlignFooter = text.AlignRight
		}
	}
	tw.SetColumnConfigs(configs)

	tw.AppendHeader(tableRow(len(cols), titles(cols)))
	for _, r := range rows {
		tw.AppendRow(tableRow(len(cols), r))
	}
	if len(footer) > 0 {
		tw.AppendFooter(tableRow(len(cols), footer))
	}
	return tw.Render()
}

func titles(cols []column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.title
	}
	return out
}

func tableRow(width int, cells []string) table.Row {
	row := make(table.Row, width)
	for i := range row {
		row[i] = ""
		if i < len(cells) {
			row[i] = cells[i]
		}
	}
	return row
}

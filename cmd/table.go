package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column is one table column; counts and sizes are right aligned.
type column struct {
	title   string
	numeric bool
}

var (
	summaryColumns = []column{{title: "Result"}, {title: "Count", numeric: true}}

	historyColumns = []column{
		{title: "Run"},
		{title: "Started"},
		{title: "Took", numeric: true},
		{title: "Input"},
		{title: "Scanned", numeric: true},
		{title: "Kept", numeric: true},
		{title: "Exact", numeric: true},
		{title: "Visual", numeric: true},
		{title: "Skipped", numeric: true},
		{title: "Failed", numeric: true},
	}

	groupColumns = []column{
		{title: "Group"},
		{title: "Kind"},
		{title: "Dupes", numeric: true},
		{title: "Size", numeric: true},
		{title: "Kept"},
	}
)

// renderTable draws rows under cols. Short rows are padded with blanks.
// A non-empty caption is printed under the table.
func renderTable(cols []column, rows [][]string, caption string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		header[i] = c.title
		configs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if c.numeric {
			configs[i].Align = text.AlignRight
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(cols))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	if caption != "" {
		tw.SetCaption("%s", caption)
	}
	return tw.Render()
}

func countCaption(label string, n int) string {
	return fmt.Sprintf("%d %s", n, label)
}

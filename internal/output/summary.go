package output

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type SummaryRow struct {
	Label string
	Value int
}

type SummarySection struct {
	Title string
	Rows  []SummaryRow
}

// RenderSummary draws the end-of-run counters as one table with a
// separator between sections.
func RenderSummary(sections []SummarySection, color bool) string {
	if len(sections) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Processing Summary")
	tw.AppendHeader(table.Row{"Step", "Count"})

	for i, section := range sections {
		if i > 0 {
			tw.AppendSeparator()
		}
		if section.Title != "" {
			title := section.Title
			if color {
				title = text.Bold.Sprint(title)
			}
			tw.AppendRow(table.Row{title, ""})
		}
		for _, row := range section.Rows {
			tw.AppendRow(table.Row{row.Label, strconv.Itoa(row.Value)})
		}
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

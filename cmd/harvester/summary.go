package main

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jsamuelsen/quote-harvester/internal/domain"
)

// renderSummary writes one row per category followed by the run totals.
func renderSummary(w io.Writer, report *domain.RunReport) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	t.SetTitle("Snapshot %s (%s, run %s)", report.DateKey, report.Policy, report.RunID)

	t.AppendHeader(table.Row{"Category", "Status", "Records", "Pages", "Failed", "Duplicates", "Trimmed", "Duration", "Error"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 9, WidthMax: 48},
	})

	pagesFetched := 0

	for _, c := range report.Categories {
		pagesFetched += c.PagesFetched

		errText := ""
		if c.Err != nil {
			errText = c.Err.Error()
		}

		t.AppendRow(table.Row{
			c.Category,
			string(c.Status),
			c.Records,
			fmt.Sprintf("%d/%d", c.PagesFetched, c.PagesPlanned),
			c.PagesFailed,
			c.Duplicates,
			c.Trimmed,
			c.Duration.Round(time.Millisecond),
			errText,
		})
	}

	t.AppendFooter(table.Row{
		"Total",
		fmt.Sprintf("%d degraded", len(report.DegradedCategories())),
		report.TotalRecords(),
		pagesFetched,
		"", "", "",
		report.Duration.Round(time.Millisecond),
		"",
	})

	t.Render()
}

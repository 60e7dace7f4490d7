package batch

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RenderSummary formats one batch's counters as a console table.
func RenderSummary(s Summary) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Metric", "Value"})

	tw.AppendRow(table.Row{"Items processed", strconv.Itoa(s.Total)})
	tw.AppendRow(table.Row{"Succeeded", strconv.Itoa(s.Succeeded)})
	tw.AppendRow(table.Row{"Failed", strconv.Itoa(s.Failed)})
	if s.TimedOut > 0 {
		tw.AppendRow(table.Row{"Timed out", strconv.Itoa(s.TimedOut)})
	}
	tw.AppendRow(table.Row{"Wall time", s.WallTime.Round(time.Millisecond).String()})
	if avg := s.AveragePerItem(); avg > 0 {
		tw.AppendRow(table.Row{"Avg per item", avg.Round(time.Millisecond).String()})
	}
	if s.Total > 0 && s.WallTime > 0 {
		speedup := float64(s.ItemTime) / float64(s.WallTime)
		tw.AppendRow(table.Row{"Parallel speedup", fmt.Sprintf("%.1fx", speedup)})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

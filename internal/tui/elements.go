package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/mabhi256/bpmx/internal/analysis"
	"github.com/mabhi256/bpmx/utils"
)

const labelWidth = 18

func renderElements(r *analysis.Report, width, height int) string {
	if len(r.ElementCounts) == 0 {
		return utils.MutedStyle.Render("No elements recorded.")
	}

	// bars are separated by a one-row gap; leave room for the title
	rows := max((height-2)/2, 1)
	top := r.TopElements(rows)

	data := make([]barchart.BarData, 0, len(top))
	for i, ec := range top {
		data = append(data, barchart.BarData{
			Label: utils.TruncateString(ec.Name, labelWidth),
			Values: []barchart.BarValue{{
				Name:  ec.Name,
				Value: float64(ec.Count),
				Style: lipgloss.NewStyle().Foreground(barColor(i)),
			}},
		})
	}

	chartWidth := max(width-12, 20)
	chart := barchart.New(chartWidth, 2*len(data)-1, barchart.WithHorizontalBars())
	chart.PushAll(data)
	chart.Draw()

	var counts []string
	for _, ec := range top {
		counts = append(counts, fmt.Sprintf("%d", ec.Count))
	}

	title := utils.SectionStyle.Render(fmt.Sprintf("🏷️  Top %d of %d element names", len(top), r.DistinctElements))
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, chart.View(), " ", utils.MutedStyle.Render(strings.Join(counts, "\n\n"))),
	)
}

func barColor(i int) lipgloss.Color {
	if i%2 == 0 {
		return utils.InfoColor
	}
	return utils.GoodColor
}

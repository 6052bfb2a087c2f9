package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mabhi256/bpmx/internal/analysis"
	"github.com/mabhi256/bpmx/utils"
)

const keyWidth = 20

func renderDashboard(r *analysis.Report, width int) string {
	boxWidth := max(width/2-2, 30)

	complexity := renderComplexityBox(r, boxWidth)
	structure := renderStructureBox(r, boxWidth)

	var top string
	if width >= 2*boxWidth+4 {
		top = lipgloss.JoinHorizontal(lipgloss.Top, complexity, "  ", structure)
	} else {
		top = lipgloss.JoinVertical(lipgloss.Left, complexity, structure)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		utils.TitleStyle.Render("🔍 "+r.Source),
		"",
		top,
		renderFindingsLine(r.Issues),
	)
}

func renderComplexityBox(r *analysis.Report, width int) string {
	tier := int(r.Tier)

	th := r.Scoring.Thresholds
	fraction := 1.0
	if th.VeryComplex > 0 {
		fraction = min(r.Score/th.VeryComplex, 1)
	}

	lines := []string{
		utils.SectionStyle.Render("📊 Complexity"),
		fmt.Sprintf("%s %s  %s",
			utils.TierIcon(tier),
			utils.TierStyle(tier).Render(fmt.Sprintf("%.1f", r.Score)),
			utils.TierStyle(tier).Render(r.Tier.String())),
		utils.CreateProgressBar(fraction, width-6, utils.TierColor(tier)),
		"",
	}
	for _, line := range utils.WrapText(r.Recommendation, width-4) {
		lines = append(lines, utils.MutedStyle.Render(line))
	}

	return utils.BoxStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func renderStructureBox(r *analysis.Report, width int) string {
	lines := []string{
		utils.SectionStyle.Render("🧱 Structure"),
		utils.FormatKeyValue("Elements", fmt.Sprintf("%d", r.TotalElements), keyWidth),
		utils.FormatKeyValue("Distinct", fmt.Sprintf("%d", r.DistinctElements), keyWidth),
		utils.FormatKeyValue("Max Depth", fmt.Sprintf("%d", r.MaxDepth), keyWidth),
		utils.FormatKeyValue("Task-like", fmt.Sprintf("%d", r.TaskCount), keyWidth),
		utils.FormatKeyValue("Data Bindings", fmt.Sprintf("%d", len(r.Bindings)), keyWidth),
		utils.FormatKeyValue("Components", fmt.Sprintf("%d", len(r.Components)), keyWidth),
		utils.FormatKeyValue("Peak Capture", utils.ByteSize(r.PeakCaptureBytes).String(), keyWidth),
	}
	return utils.BoxStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func renderFindingsLine(issues analysis.Issues) string {
	if issues.Count() == 0 {
		return utils.GoodStyle.Render("✅ No conversion risks detected")
	}
	return fmt.Sprintf("%s  %s  %s",
		utils.CriticalStyle.Render(fmt.Sprintf("🔴 %d critical", len(issues.Critical))),
		utils.WarningStyle.Render(fmt.Sprintf("⚠️  %d warning", len(issues.Warning))),
		utils.InfoStyle.Render(fmt.Sprintf("ℹ️  %d info", len(issues.Info))))
}

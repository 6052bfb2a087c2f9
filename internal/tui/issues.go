package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mabhi256/bpmx/internal/analysis"
	"github.com/mabhi256/bpmx/utils"
)

func (m *Model) subTabIssues() []analysis.Issue {
	switch m.issuesSubTab {
	case CriticalIssues:
		return m.report.Issues.Critical
	case WarningIssues:
		return m.report.Issues.Warning
	default:
		return m.report.Issues.Info
	}
}

func (m *Model) availableSubTabs() []IssuesSubTab {
	var subTabs []IssuesSubTab
	if len(m.report.Issues.Critical) > 0 {
		subTabs = append(subTabs, CriticalIssues)
	}
	if len(m.report.Issues.Warning) > 0 {
		subTabs = append(subTabs, WarningIssues)
	}
	if len(m.report.Issues.Info) > 0 {
		subTabs = append(subTabs, InfoIssues)
	}
	return subTabs
}

func (m *Model) firstNonEmptySubTab() IssuesSubTab {
	if subTabs := m.availableSubTabs(); len(subTabs) > 0 {
		return subTabs[0]
	}
	return CriticalIssues
}

func subTabIndex(s IssuesSubTab, subTabs []IssuesSubTab) int {
	for i, t := range subTabs {
		if t == s {
			return i
		}
	}
	return 0
}

func (m *Model) renderIssues(height int) string {
	if m.report.Issues.Count() == 0 {
		return utils.GoodStyle.Render("✅ No conversion risks detected!\n\nThe document can be converted without special handling.")
	}

	issues := m.subTabIssues()
	expanded := m.expandedIssues[m.issuesSubTab]

	var lines []string
	selectedStart := 0
	for i, issue := range issues {
		if i == m.selectedIssue {
			selectedStart = len(lines)
		}
		lines = append(lines, renderIssueItem(issue, i == m.selectedIssue, expanded[i], m.width)...)
		lines = append(lines, "")
	}

	// keep the selected issue on screen
	available := max(height-2, 1)
	if len(lines) > available {
		start := 0
		if selectedStart >= available {
			start = selectedStart - available/2
		}
		start = max(min(start, len(lines)-available), 0)
		lines = lines[start : start+available]
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderIssuesHeader(),
		"",
		strings.Join(lines, "\n"),
	)
}

func (m *Model) renderIssuesHeader() string {
	counts := []struct {
		subTab IssuesSubTab
		label  string
		n      int
	}{
		{CriticalIssues, "🔴 Critical", len(m.report.Issues.Critical)},
		{WarningIssues, "⚠️  Warning", len(m.report.Issues.Warning)},
		{InfoIssues, "ℹ️  Info", len(m.report.Issues.Info)},
	}

	var parts []string
	for _, c := range counts {
		style := utils.TabInactiveStyle
		if c.subTab == m.issuesSubTab {
			style = utils.TabActiveStyle
		}
		parts = append(parts, style.Render(fmt.Sprintf("%s: %d", c.label, c.n)))
	}
	return strings.Join(parts, "  ")
}

func renderIssueItem(issue analysis.Issue, isSelected, isExpanded bool, width int) []string {
	icon := utils.GetSeverityIcon(issue.Severity)
	style := utils.GetSeverityStyle(issue.Severity)

	selector := " "
	if isSelected {
		selector = "▶"
	}

	expandIcon := "[+]"
	if isExpanded {
		expandIcon = "[-]"
	}

	titleLine := fmt.Sprintf("%s %s %s", selector, icon, issue.Type)
	if isSelected {
		titleLine = lipgloss.NewStyle().
			Background(utils.InfoColor).
			Foreground(lipgloss.Color("#FFFFFF")).
			Render(titleLine)
	} else {
		titleLine = style.Render(titleLine)
	}

	lines := []string{
		titleLine,
		utils.MutedStyle.Render(fmt.Sprintf("  ├─ %s", issue.Description)),
	}

	expandLine := fmt.Sprintf("  └─ %s Show Recommendations", expandIcon)
	if isSelected {
		lines = append(lines, utils.InfoStyle.Render(expandLine))
	} else {
		lines = append(lines, utils.MutedStyle.Render(expandLine))
	}

	if isExpanded && len(issue.Recommendation) > 0 {
		lines = append(lines, "", utils.InfoStyle.Render("     Recommendations:"))
		for _, rec := range issue.Recommendation {
			for j, line := range utils.WrapText(rec, width-8) {
				prefix := "     ✓ "
				if j > 0 {
					prefix = "       "
				}
				lines = append(lines, utils.TextStyle.Render(prefix+line))
			}
		}
	}

	return lines
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mabhi256/bpmx/internal/analysis"
	"github.com/mabhi256/bpmx/utils"
)

// header (tabs + rule) and footer (help) rows
const chromeHeight = 3

func NewModel(r *analysis.Report) *Model {
	catalogue := list.New(catalogueItems(r), list.NewDefaultDelegate(), 0, 0)
	catalogue.Title = "Catalogued Entities"
	catalogue.SetShowHelp(false)
	catalogue.SetFilteringEnabled(true)

	m := &Model{
		report:     r,
		currentTab: DashboardTab,
		keys:       DefaultKeyMap(),
		bindings:   viewport.New(0, 0),
		catalogue:  catalogue,
		help:       help.New(),
		expandedIssues: map[IssuesSubTab]map[int]bool{
			CriticalIssues: {},
			WarningIssues:  {},
			InfoIssues:     {},
		},
	}
	m.issuesSubTab = m.firstNonEmptySubTab()
	return m
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		contentHeight := max(msg.Height-chromeHeight, 1)
		m.bindings.Width = msg.Width
		m.bindings.Height = contentHeight
		m.bindings.SetContent(renderBindings(m.report, msg.Width))
		m.catalogue.SetSize(msg.Width, contentHeight)

	case tea.KeyMsg:
		// the filter prompt owns the keyboard while it is open
		if m.currentTab == CatalogueTab && m.catalogue.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.catalogue, cmd = m.catalogue.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab1):
			m.currentTab = DashboardTab
		case key.Matches(msg, m.keys.Tab2):
			m.currentTab = ElementsTab
		case key.Matches(msg, m.keys.Tab3):
			m.currentTab = BindingsTab
		case key.Matches(msg, m.keys.Tab4):
			m.currentTab = CatalogueTab
		case key.Matches(msg, m.keys.Tab5):
			m.currentTab = IssuesTab
		case key.Matches(msg, m.keys.Left):
			m.handleLeftNavigation()
		case key.Matches(msg, m.keys.Right):
			m.handleRightNavigation()
		default:
			return m.handleTabSpecificKeys(msg)
		}

	case tea.MouseMsg:
		return m.handleTabSpecificKeys(msg)
	}

	return m, nil
}

func (m *Model) handleLeftNavigation() {
	if m.currentTab == IssuesTab {
		subTabs := m.availableSubTabs()
		if len(subTabs) > 1 {
			i := subTabIndex(m.issuesSubTab, subTabs)
			m.issuesSubTab = subTabs[(i+len(subTabs)-1)%len(subTabs)]
			m.selectedIssue = 0
		}
		return
	}
	if m.currentTab > DashboardTab {
		m.currentTab--
	}
}

func (m *Model) handleRightNavigation() {
	if m.currentTab == IssuesTab {
		subTabs := m.availableSubTabs()
		if len(subTabs) > 1 {
			i := subTabIndex(m.issuesSubTab, subTabs)
			m.issuesSubTab = subTabs[(i+1)%len(subTabs)]
			m.selectedIssue = 0
		}
		return
	}
	if m.currentTab < IssuesTab {
		m.currentTab++
	}
}

// handleTabSpecificKeys forwards key and mouse input the global bindings do
// not consume to the active tab.
func (m *Model) handleTabSpecificKeys(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentTab {
	case BindingsTab:
		m.bindings, cmd = m.bindings.Update(msg)
	case CatalogueTab:
		m.catalogue, cmd = m.catalogue.Update(msg)
	case IssuesTab:
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			m.handleIssuesKeys(keyMsg)
		}
	}
	return m, cmd
}

func (m *Model) handleIssuesKeys(msg tea.KeyMsg) {
	issues := m.subTabIssues()

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.selectedIssue > 0 {
			m.selectedIssue--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selectedIssue < len(issues)-1 {
			m.selectedIssue++
		}
	case key.Matches(msg, m.keys.Enter):
		expanded := m.expandedIssues[m.issuesSubTab]
		expanded[m.selectedIssue] = !expanded[m.selectedIssue]
	}
}

func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	contentHeight := max(m.height-chromeHeight, 1)

	var content string
	switch m.currentTab {
	case DashboardTab:
		content = renderDashboard(m.report, m.width)
	case ElementsTab:
		content = renderElements(m.report, m.width, contentHeight)
	case BindingsTab:
		content = m.bindings.View()
	case CatalogueTab:
		content = m.catalogue.View()
	case IssuesTab:
		content = m.renderIssues(contentHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		lipgloss.NewStyle().Height(contentHeight).MaxHeight(contentHeight).Render(content),
		utils.HelpBarStyle.Render(m.help.View(m.keys)),
	)
}

func (m *Model) renderHeader() string {
	tabIcons := []string{"📊", "🏷️", "🔗", "📦", "⚠️"}

	var tabs []string
	for i, name := range tabNames {
		style := utils.TabInactiveStyle
		indicator := " "
		if TabType(i) == m.currentTab {
			style = utils.TabActiveStyle
			indicator = "●"
		}
		tabs = append(tabs, style.Render(fmt.Sprintf("%s %s %s [%d]", indicator, tabIcons[i], name, i+1)))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		strings.Join(tabs, " "),
		strings.Repeat("─", m.width),
	)
}

// StartTUI runs the interactive report viewer until the user quits.
func StartTUI(r *analysis.Report) error {
	program := tea.NewProgram(
		NewModel(r),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err := program.Run()
	return err
}

package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/mabhi256/bpmx/internal/analysis"
)

type Model struct {
	// Data
	report *analysis.Report

	// UI State
	currentTab TabType
	width      int
	height     int

	bindings  viewport.Model
	catalogue list.Model
	help      help.Model

	issuesSubTab   IssuesSubTab
	selectedIssue  int
	expandedIssues map[IssuesSubTab]map[int]bool

	// Key bindings
	keys KeyMap
}

type TabType int

const (
	DashboardTab TabType = iota
	ElementsTab
	BindingsTab
	CatalogueTab
	IssuesTab
)

var tabNames = []string{"Dashboard", "Elements", "Bindings", "Catalogue", "Issues"}

func (t TabType) String() string {
	if int(t) < len(tabNames) {
		return tabNames[t]
	}
	return "Unknown"
}

type IssuesSubTab int

const (
	CriticalIssues IssuesSubTab = iota
	WarningIssues
	InfoIssues
)

func (s IssuesSubTab) String() string {
	switch s {
	case CriticalIssues:
		return "critical"
	case WarningIssues:
		return "warning"
	default:
		return "info"
	}
}

type KeyMap struct {
	Tab1  key.Binding
	Tab2  key.Binding
	Tab3  key.Binding
	Tab4  key.Binding
	Tab5  key.Binding
	Left  key.Binding
	Right key.Binding
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	Quit  key.Binding
}

func k(keys []string, help, desc string) key.Binding {
	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(help, desc),
	)
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Tab1:  k([]string{"1"}, "1", "dashboard"),
		Tab2:  k([]string{"2"}, "2", "elements"),
		Tab3:  k([]string{"3"}, "3", "bindings"),
		Tab4:  k([]string{"4"}, "4", "catalogue"),
		Tab5:  k([]string{"5"}, "5", "issues"),
		Left:  k([]string{"left", "h"}, "←/h", "prev"),
		Right: k([]string{"right", "l"}, "→/l", "next"),
		Up:    k([]string{"up", "k"}, "↑/k", "up"),
		Down:  k([]string{"down", "j"}, "↓/j", "down"),
		Enter: k([]string{"enter", " "}, "enter", "expand"),
		Quit:  k([]string{"q", "ctrl+c"}, "q", "quit"),
	}
}

func (km KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{km.Tab1, km.Tab2, km.Tab3, km.Tab4, km.Tab5, km.Left, km.Right, km.Quit}
}

func (km KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{km.Tab1, km.Tab2, km.Tab3, km.Tab4, km.Tab5},
		{km.Up, km.Down, km.Left, km.Right},
		{km.Enter, km.Quit},
	}
}

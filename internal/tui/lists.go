package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/mabhi256/bpmx/internal/analysis"
	"github.com/mabhi256/bpmx/internal/extract"
	"github.com/mabhi256/bpmx/utils"
)

type entityItem struct {
	category  string
	entity    extract.Entity
	duplicate int
}

func (i entityItem) FilterValue() string {
	return i.entity.ID + " " + i.entity.Name + " " + i.entity.Type + " " + i.category
}

func (i entityItem) Title() string {
	label := i.entity.ID
	if label == "" {
		label = "(no id)"
	}
	if i.entity.Name != "" {
		label = fmt.Sprintf("%s %q", label, i.entity.Name)
	}
	return label
}

func (i entityItem) Description() string {
	desc := fmt.Sprintf("%s · %s · line %d, depth %d", i.category, i.entity.Type, i.entity.Line, i.entity.Depth)
	if i.duplicate > 1 {
		desc += fmt.Sprintf(" · duplicate id ×%d", i.duplicate)
	}
	return desc
}

// catalogueItems lists entities grouped by category, each group in
// document order.
func catalogueItems(r *analysis.Report) []list.Item {
	var items []list.Item
	for _, name := range r.CategoryNames() {
		for _, e := range r.Entities[name] {
			items = append(items, entityItem{
				category:  name,
				entity:    e,
				duplicate: r.DuplicateIDs[e.ID],
			})
		}
	}
	return items
}

func renderBindings(r *analysis.Report, width int) string {
	if len(r.Bindings) == 0 {
		return utils.MutedStyle.Render("No data bindings found.")
	}

	lines := []string{
		utils.SectionStyle.Render(fmt.Sprintf("🔗 %d distinct data bindings", len(r.Bindings))),
		"",
	}
	for i, b := range r.Bindings {
		lines = append(lines, fmt.Sprintf("%5d  %s", i+1, utils.TruncateString(b, max(width-8, 10))))
	}
	return strings.Join(lines, "\n")
}

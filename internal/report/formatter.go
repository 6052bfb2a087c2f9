// Package report prints analysis and extraction results to the terminal.
package report

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mabhi256/bpmx/internal/analysis"
	"github.com/mabhi256/bpmx/internal/output"
	"github.com/mabhi256/bpmx/internal/twx"
	"github.com/mabhi256/bpmx/utils"
)

const (
	topElements  = 10
	listPreview  = 15
	ruleWidth    = 65
	sectionWidth = 50
)

// counts groups digits in large totals.
var counts = message.NewPrinter(language.English)

// Print writes the report in the "cli" (summary) or "cli-more" (detailed)
// format.
func Print(w io.Writer, r *analysis.Report, format string) {
	switch format {
	case "cli-more":
		printSummary(w, r)
		printDetailed(w, r)
		PrintRecommendations(w, r.Issues)
	default:
		printSummary(w, r)
	}
}

func printSummary(w io.Writer, r *analysis.Report) {
	tier := int(r.Tier)

	fmt.Fprintf(w, "🔍 BPM Document Analysis\n")
	counts.Fprintf(w, "Source: %s  |  Elements: %d  |  Events: %d\n", r.Source, r.TotalElements, r.Events)
	fmt.Fprintln(w, strings.Repeat("═", ruleWidth))

	fmt.Fprintln(w, "\n📊 COMPLEXITY")
	fmt.Fprintln(w, strings.Repeat("─", 35))
	fmt.Fprintf(w, "%s Score: %s (%s)\n",
		utils.TierIcon(tier),
		utils.TierStyle(tier).Render(fmt.Sprintf("%.1f", r.Score)),
		utils.TierStyle(tier).Render(r.Tier.String()))
	for _, line := range utils.WrapText(r.Recommendation, 60) {
		fmt.Fprintf(w, "   %s\n", line)
	}

	fmt.Fprintln(w, "\n🧱 STRUCTURE")
	fmt.Fprintln(w, strings.Repeat("─", 35))
	fmt.Fprintf(w, "   Max Depth:          %d\n", r.MaxDepth)
	fmt.Fprintf(w, "   Distinct Elements:  %d\n", r.DistinctElements)
	fmt.Fprintf(w, "   Task-like Elements: %d\n", r.TaskCount)
	fmt.Fprintf(w, "   Data Bindings:      %d\n", len(r.Bindings))

	if names := r.CategoryNames(); len(names) > 0 {
		fmt.Fprintln(w, "\n🗂️  CATALOGUE")
		fmt.Fprintln(w, strings.Repeat("─", 35))
		for _, name := range names {
			fmt.Fprintf(w, "   %-16s %d\n", name, len(r.Entities[name]))
		}
	}

	if n := r.Issues.Count(); n > 0 {
		fmt.Fprintf(w, "\n🎯 Findings: %d critical, %d warning, %d info\n",
			len(r.Issues.Critical), len(r.Issues.Warning), len(r.Issues.Info))
	} else {
		fmt.Fprintln(w, "\n🎯 Findings: none")
	}
}

func printDetailed(w io.Writer, r *analysis.Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "📈 SCORE BREAKDOWN")
	fmt.Fprintln(w, strings.Repeat("─", sectionWidth))
	wt := r.Scoring.Weights
	in := r.Inputs
	fmt.Fprintf(w, "Catalogued elements: %5d × %-5g = %8.1f\n", in.Elements, wt.Elements, float64(in.Elements)*wt.Elements)
	fmt.Fprintf(w, "Maximum depth:       %5d × %-5g = %8.1f\n", in.MaxDepth, wt.Depth, float64(in.MaxDepth)*wt.Depth)
	fmt.Fprintf(w, "Distinct bindings:   %5d × %-5g = %8.1f\n", in.Bindings, wt.Bindings, float64(in.Bindings)*wt.Bindings)
	fmt.Fprintf(w, "Task-like elements:  %5d × %-5g = %8.1f\n", in.Tasks, wt.Tasks, float64(in.Tasks)*wt.Tasks)
	th := r.Scoring.Thresholds
	fmt.Fprintf(w, "Tier thresholds:     moderate ≥ %g, complex ≥ %g, very-complex ≥ %g\n",
		th.Moderate, th.Complex, th.VeryComplex)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "🏷️  TOP ELEMENTS")
	fmt.Fprintln(w, strings.Repeat("─", sectionWidth))
	top := r.TopElements(topElements)
	if len(top) > 0 {
		highest := float64(top[0].Count)
		for _, ec := range top {
			bar := utils.CreateProgressBar(float64(ec.Count)/highest, 20, utils.InfoColor)
			fmt.Fprintf(w, "%-24s %s %d\n", utils.TruncateString(ec.Name, 24), bar, ec.Count)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "🔗 DATA BINDINGS")
	fmt.Fprintln(w, strings.Repeat("─", sectionWidth))
	printPreview(w, r.Bindings)

	for _, name := range r.CategoryNames() {
		entities := r.Entities[name]
		fmt.Fprintf(w, "\n📦 %s (%d)\n", strings.ToUpper(name), len(entities))
		fmt.Fprintln(w, strings.Repeat("─", sectionWidth))
		for i, e := range entities {
			if i == listPreview {
				fmt.Fprintf(w, "   … %d more\n", len(entities)-listPreview)
				break
			}
			label := e.ID
			if e.Name != "" {
				label = fmt.Sprintf("%s %q", e.ID, e.Name)
			}
			fmt.Fprintf(w, "   %-20s %s (line %d, depth %d)\n", e.Type, label, e.Line, e.Depth)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Peak capture buffer: %s\n", utils.ByteSize(r.PeakCaptureBytes))
}

func printPreview(w io.Writer, items []string) {
	if len(items) == 0 {
		fmt.Fprintln(w, utils.MutedStyle.Render("   none"))
		return
	}
	for i, item := range items {
		if i == listPreview {
			fmt.Fprintf(w, "   … %d more\n", len(items)-listPreview)
			return
		}
		fmt.Fprintf(w, "   %s\n", item)
	}
}

func PrintRecommendations(w io.Writer, issues analysis.Issues) {
	if issues.Count() == 0 {
		fmt.Fprintln(w, "\n💡 RECOMMENDATIONS")
		fmt.Fprintln(w, strings.Repeat("─", sectionWidth))
		fmt.Fprintln(w, "✅ No conversion risks detected.")
		return
	}

	fmt.Fprintln(w, "\n🚀 CONVERSION RECOMMENDATIONS")
	fmt.Fprintln(w, strings.Repeat("─", sectionWidth))

	if len(issues.Critical) > 0 {
		fmt.Fprintln(w, "\n🚩 CRITICAL ISSUES - Resolve before converting:")
		for _, issue := range issues.Critical {
			fmt.Fprintf(w, "\n🔴 %s\n", issue.Type)
			fmt.Fprintf(w, "   Issue: %s\n", issue.Description)
			printBullets(w, issue.Recommendation)
		}
	}

	if len(issues.Warning) > 0 {
		fmt.Fprintln(w, "\n⚠️  WARNINGS - Plan for these:")
		for _, issue := range issues.Warning {
			fmt.Fprintf(w, "\n🟡 %s\n", issue.Type)
			fmt.Fprintf(w, "   Concern: %s\n", issue.Description)
			printBullets(w, issue.Recommendation)
		}
	}

	if len(issues.Info) > 0 {
		fmt.Fprintln(w, "\n📈 NOTES:")
		for _, issue := range issues.Info {
			fmt.Fprintf(w, "\n💡 %s\n", issue.Type)
			fmt.Fprintf(w, "   Note: %s\n", issue.Description)
			printBullets(w, issue.Recommendation)
		}
	}
}

func printBullets(w io.Writer, recommendations []string) {
	for _, rec := range recommendations {
		trimmed := strings.TrimSpace(rec)
		if trimmed == "" {
			continue
		}
		fmt.Fprintf(w, "   • %s\n", trimmed)
	}
}

// PrintExtraction summarises one extraction run.
func PrintExtraction(w io.Writer, inv output.Inventory, outDir string) {
	fmt.Fprintf(w, "📦 Extracted %d component(s) from %s\n", len(inv.Components), inv.Source)
	fmt.Fprintln(w, strings.Repeat("─", sectionWidth))
	for _, e := range inv.Components {
		name := e.ID
		if name == "" {
			name = fmt.Sprintf("#%d", e.Index)
		}
		fmt.Fprintf(w, "✅ %-28s %8s  %s\n", utils.TruncateString(name, 28), utils.ByteSize(e.Bytes), e.Path)
	}
	for _, f := range inv.Errors {
		fmt.Fprintf(w, "%s %s\n", utils.GetSeverityIcon("critical"), utils.CriticalStyle.Render(f.Error()))
	}
	for _, id := range slices.Sorted(maps.Keys(inv.DuplicateIDs)) {
		fmt.Fprintf(w, "%s id %s extracted %d times\n", utils.GetSeverityIcon("warning"), id, inv.DuplicateIDs[id])
	}
	fmt.Fprintf(w, "\nOutput: %s\n", outDir)
}

// PrintManifest summarises an unpacked archive.
func PrintManifest(w io.Writer, m *twx.Manifest, outDir string) {
	fmt.Fprintf(w, "🗜️  Unpacked %d file(s) from %s\n", len(m.Entries), m.Archive)
	fmt.Fprintln(w, strings.Repeat("─", sectionWidth))
	for _, name := range m.CategoryNames() {
		fmt.Fprintf(w, "   %-16s %d\n", name, m.Categories[name])
	}
	fmt.Fprintf(w, "\nOutput: %s\n", outDir)
}

// PrintSummary summarises a multi-file analysis.
func PrintSummary(w io.Writer, s *twx.Summary) {
	fmt.Fprintf(w, "🔍 Analysed %d file(s) in %s\n", s.Files, s.Root)
	fmt.Fprintln(w, strings.Repeat("═", ruleWidth))
	counts.Fprintf(w, "   Total Elements:    %d\n", s.TotalElements)
	fmt.Fprintf(w, "   Max Depth:         %d\n", s.MaxDepth)
	fmt.Fprintf(w, "   Task-like:         %d\n", s.TaskCount)
	fmt.Fprintf(w, "   Distinct Bindings: %d\n", s.Bindings)
	if s.MostComplex != "" {
		fmt.Fprintf(w, "   Most Complex:      %s (%.1f)\n", s.MostComplex, s.HighestScore)
	}

	fmt.Fprintln(w, "\n📊 TIERS")
	fmt.Fprintln(w, strings.Repeat("─", 35))
	for tier := analysis.TierSimple; tier <= analysis.TierVeryComplex; tier++ {
		fmt.Fprintf(w, "%s %-14s %d\n", utils.TierIcon(int(tier)), tier, s.Tiers[tier.String()])
	}

	if s.Failed > 0 {
		fmt.Fprintf(w, "\n%s %d file(s) could not be analysed:\n", utils.GetSeverityIcon("critical"), s.Failed)
		for _, r := range s.Results {
			if r.Error != "" {
				fmt.Fprintf(w, "   • %s: %s\n", r.Path, r.Error)
			}
		}
	}
}

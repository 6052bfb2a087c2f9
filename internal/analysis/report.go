// Package analysis turns the counters of a finished scan into a report with
// a complexity score, a recommendation tier and a list of findings.
package analysis

import (
	"fmt"
	"maps"
	"slices"

	"github.com/mabhi256/bpmx/internal/extract"
)

const (
	// Findings thresholds
	DeepNestingWarning   = 15
	DeepNestingCritical  = 30
	ManyBindingsWarning  = 100
	LargeCaptureBytes    = 512 * 1024
	BraceExpressionsInfo = 1
)

type Issue struct {
	Type           string   `json:"type"`
	Severity       string   `json:"severity"` // "critical", "warning", "info"
	Description    string   `json:"description"`
	Recommendation []string `json:"recommendation,omitempty"`
}

type Issues struct {
	Critical []Issue `json:"critical"`
	Warning  []Issue `json:"warning"`
	Info     []Issue `json:"info"`
}

func (i *Issues) Count() int {
	return len(i.Critical) + len(i.Warning) + len(i.Info)
}

// Report is a read-only snapshot taken at the end of a scan.
type Report struct {
	Source           string                      `json:"source"`
	TotalElements    int                         `json:"totalElements"`
	DistinctElements int                         `json:"distinctElements"`
	MaxDepth         int                         `json:"maxDepth"`
	TaskCount        int                         `json:"taskCount"`
	ElementCounts    map[string]int              `json:"elementCounts"`
	Bindings         []string                    `json:"dataBindings"`
	Entities         map[string][]extract.Entity `json:"entities"`
	DuplicateIDs     map[string]int              `json:"duplicateIds"`

	Inputs         Inputs  `json:"scoreInputs"`
	Score          float64 `json:"complexityScore"`
	Tier           Tier    `json:"tier"`
	Recommendation string  `json:"recommendation"`
	Scoring        Scoring `json:"scoring"`

	Issues           Issues            `json:"issues"`
	Components       []extract.Entry   `json:"components,omitempty"`
	Errors           []extract.Failure `json:"errors"`
	PeakCaptureBytes int               `json:"peakCaptureBytes"`
	Events           int               `json:"events"`
}

// Build derives the report from a scan result.
func Build(res *extract.Result, scoring Scoring) *Report {
	state := res.State
	inputs := InputsFrom(state)
	score := scoring.Score(inputs)
	tier := scoring.Tier(score)

	report := &Report{
		Source:           res.SourcePath,
		TotalElements:    state.TotalElements,
		DistinctElements: len(state.ElementCounts),
		MaxDepth:         state.MaxDepth,
		TaskCount:        state.TaskCount,
		ElementCounts:    maps.Clone(state.ElementCounts),
		Bindings:         state.BindingList(),
		Entities:         state.Entities,
		DuplicateIDs:     entityDuplicates(state.Entities),
		Inputs:           inputs,
		Score:            score,
		Tier:             tier,
		Recommendation:   tier.Recommendation(),
		Scoring:          scoring,
		Components:       res.Inventory,
		Errors:           res.Failures,
		PeakCaptureBytes: res.PeakCaptureBytes,
		Events:           res.Events,
	}
	if report.Errors == nil {
		report.Errors = []extract.Failure{}
	}
	for id, n := range res.DuplicateIDs {
		report.DuplicateIDs[id] = max(report.DuplicateIDs[id], n)
	}
	report.Issues = DetectIssues(report)
	return report
}

func entityDuplicates(entities map[string][]extract.Entity) map[string]int {
	seen := make(map[string]int)
	for _, list := range entities {
		for _, e := range list {
			if e.ID != "" {
				seen[e.ID]++
			}
		}
	}
	dups := make(map[string]int)
	for id, n := range seen {
		if n > 1 {
			dups[id] = n
		}
	}
	return dups
}

// TopElements returns the n most frequent element names, ties broken by name.
func (r *Report) TopElements(n int) []ElementCount {
	counts := make([]ElementCount, 0, len(r.ElementCounts))
	for name, c := range r.ElementCounts {
		counts = append(counts, ElementCount{Name: name, Count: c})
	}
	slices.SortFunc(counts, func(a, b ElementCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

type ElementCount struct {
	Name  string
	Count int
}

// CategoryNames returns the catalogued categories in lexical order.
func (r *Report) CategoryNames() []string {
	return slices.Sorted(maps.Keys(r.Entities))
}

func DetectIssues(r *Report) Issues {
	var issues []Issue

	issues = append(issues, analyzeFailures(r)...)
	issues = append(issues, analyzeNesting(r)...)
	issues = append(issues, analyzeBindings(r)...)
	issues = append(issues, analyzeDuplicates(r)...)
	issues = append(issues, analyzeCaptureSize(r)...)

	return groupBySeverity(issues)
}

func analyzeFailures(r *Report) []Issue {
	if len(r.Errors) == 0 {
		return nil
	}
	var recs []string
	for _, f := range r.Errors {
		recs = append(recs, f.Error())
	}
	return []Issue{{
		Type:           "Extraction Failures",
		Severity:       "critical",
		Description:    fmt.Sprintf("%d component(s) could not be extracted", len(r.Errors)),
		Recommendation: recs,
	}}
}

func analyzeNesting(r *Report) []Issue {
	switch {
	case r.MaxDepth >= DeepNestingCritical:
		return []Issue{{
			Type:        "Deep Nesting",
			Severity:    "critical",
			Description: fmt.Sprintf("Maximum nesting depth %d", r.MaxDepth),
			Recommendation: []string{
				"Flatten layout sections before conversion",
				"Extract nested coach views as separate components",
			},
		}}
	case r.MaxDepth >= DeepNestingWarning:
		return []Issue{{
			Type:        "Deep Nesting",
			Severity:    "warning",
			Description: fmt.Sprintf("Maximum nesting depth %d", r.MaxDepth),
			Recommendation: []string{
				"Review deeply nested sections for reusable sub-components",
			},
		}}
	}
	return nil
}

func analyzeBindings(r *Report) []Issue {
	var issues []Issue
	if len(r.Bindings) >= ManyBindingsWarning {
		issues = append(issues, Issue{
			Type:        "Binding Density",
			Severity:    "warning",
			Description: fmt.Sprintf("%d distinct data bindings", len(r.Bindings)),
			Recommendation: []string{
				"Group bindings by business object and generate typed state for each",
			},
		})
	}

	braces := 0
	for _, b := range r.Bindings {
		if len(b) > 1 && b[0] == '#' {
			braces++
		}
	}
	if braces >= BraceExpressionsInfo {
		issues = append(issues, Issue{
			Type:        "Expression Bindings",
			Severity:    "info",
			Description: fmt.Sprintf("%d brace expression(s) need manual translation", braces),
			Recommendation: []string{
				"Rewrite #{...} expressions as derived values in the component",
			},
		})
	}
	return issues
}

func analyzeDuplicates(r *Report) []Issue {
	if len(r.DuplicateIDs) == 0 {
		return nil
	}
	ids := slices.Sorted(maps.Keys(r.DuplicateIDs))
	recs := make([]string, 0, len(ids))
	for _, id := range ids {
		recs = append(recs, fmt.Sprintf("%s appears %d times", id, r.DuplicateIDs[id]))
	}
	return []Issue{{
		Type:           "Duplicate Identifiers",
		Severity:       "warning",
		Description:    fmt.Sprintf("%d identifier(s) are used more than once", len(ids)),
		Recommendation: recs,
	}}
}

func analyzeCaptureSize(r *Report) []Issue {
	if r.PeakCaptureBytes < LargeCaptureBytes {
		return nil
	}
	return []Issue{{
		Type:        "Large Component",
		Severity:    "info",
		Description: fmt.Sprintf("Largest captured subtree buffered %d bytes", r.PeakCaptureBytes),
	}}
}

func groupBySeverity(issues []Issue) Issues {
	grouped := Issues{
		Critical: []Issue{},
		Warning:  []Issue{},
		Info:     []Issue{},
	}
	for _, issue := range issues {
		switch issue.Severity {
		case "critical":
			grouped.Critical = append(grouped.Critical, issue)
		case "warning":
			grouped.Warning = append(grouped.Warning, issue)
		default:
			grouped.Info = append(grouped.Info, issue)
		}
	}
	return grouped
}

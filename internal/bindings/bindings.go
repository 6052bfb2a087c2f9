// Package bindings finds data-binding references inside attribute values and
// text: dotted variable paths such as tw.local.customer.name and brace
// expressions such as #{tw.local.total}.
package bindings

import (
	"regexp"
	"slices"
	"strings"
)

// Matcher finds one class of reference in a string.
type Matcher interface {
	Name() string
	FindAll(text string) []string
}

const identifier = `[A-Za-z_$][A-Za-z0-9_$]*`

// DottedPath matches namespace.scope.identifier[.identifier]* where the
// namespace is one of a fixed set of roots.
type DottedPath struct {
	re *regexp.Regexp
}

func NewDottedPath(namespaces ...string) *DottedPath {
	if len(namespaces) == 0 {
		namespaces = []string{"tw"}
	}
	quoted := make([]string, len(namespaces))
	for i, ns := range namespaces {
		quoted[i] = regexp.QuoteMeta(ns)
	}
	pattern := `(?:^|[^A-Za-z0-9_$.])((?:` + strings.Join(quoted, "|") + `)\.` +
		identifier + `\.` + identifier + `(?:\.` + identifier + `)*)`
	return &DottedPath{re: regexp.MustCompile(pattern)}
}

func (m *DottedPath) Name() string { return "dotted-path" }

func (m *DottedPath) FindAll(text string) []string {
	var out []string
	for _, sub := range m.re.FindAllStringSubmatch(text, -1) {
		out = append(out, sub[1])
	}
	return out
}

// BraceExpression matches #{...} expressions, without nesting.
type BraceExpression struct {
	re *regexp.Regexp
}

func NewBraceExpression() *BraceExpression {
	return &BraceExpression{re: regexp.MustCompile(`#\{[^{}]*\}`)}
}

func (m *BraceExpression) Name() string { return "brace-expression" }

func (m *BraceExpression) FindAll(text string) []string {
	return m.re.FindAllString(text, -1)
}

// Extractor runs a set of matchers over text.
type Extractor struct {
	matchers []Matcher
}

func NewExtractor(matchers ...Matcher) *Extractor {
	return &Extractor{matchers: matchers}
}

// Default uses both matcher classes with the given dotted-path namespaces.
func Default(namespaces ...string) *Extractor {
	return NewExtractor(NewDottedPath(namespaces...), NewBraceExpression())
}

// Extract returns the distinct references found in text.
func (e *Extractor) Extract(text string) map[string]struct{} {
	refs := make(map[string]struct{})
	e.ExtractInto(text, refs)
	return refs
}

// ExtractInto adds references found in text to refs and reports how many
// were new.
func (e *Extractor) ExtractInto(text string, refs map[string]struct{}) int {
	if text == "" {
		return 0
	}
	added := 0
	for _, m := range e.matchers {
		for _, ref := range m.FindAll(text) {
			if _, seen := refs[ref]; !seen {
				refs[ref] = struct{}{}
				added++
			}
		}
	}
	return added
}

// Sorted returns the references of a set in lexical order.
func Sorted(refs map[string]struct{}) []string {
	out := make([]string, 0, len(refs))
	for ref := range refs {
		out = append(out, ref)
	}
	slices.Sort(out)
	return out
}


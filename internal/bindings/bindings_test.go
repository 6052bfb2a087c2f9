package bindings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDottedPath(t *testing.T) {
	m := NewDottedPath()

	tests := []struct {
		text string
		want []string
	}{
		{"tw.local.customer", []string{"tw.local.customer"}},
		{"tw.local.customer.address.city", []string{"tw.local.customer.address.city"}},
		{"if (tw.local.a > tw.env.LIMIT)", []string{"tw.local.a", "tw.env.LIMIT"}},
		{"tw.local", nil},
		{"http://www.tw.local.example", nil},
		{"xtw.local.a", nil},
		{"plain text", nil},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, m.FindAll(tt.text))
		})
	}
}

func TestDottedPathCustomNamespaces(t *testing.T) {
	m := NewDottedPath("tw", "bpm")
	assert.Equal(t, []string{"bpm.process.owner", "tw.system.user"},
		m.FindAll("bpm.process.owner and tw.system.user and other.scope.name"))
}

func TestBraceExpression(t *testing.T) {
	m := NewBraceExpression()
	assert.Equal(t, []string{"#{tw.local.total}", "#{a + b}"}, m.FindAll("sum #{tw.local.total} #{a + b} #{"))
	assert.Empty(t, m.FindAll("{not an expression}"))
}

func TestExtractReferencesDeduplicates(t *testing.T) {
	refs := Default().Extract("tw.local.x #{tw.local.x} tw.local.x")

	assert.Equal(t, []string{"#{tw.local.x}", "tw.local.x"}, Sorted(refs))
}

func TestExtractIntoCountsOnlyNewReferences(t *testing.T) {
	e := Default()
	refs := map[string]struct{}{"tw.local.a": {}}

	assert.Equal(t, 1, e.ExtractInto("tw.local.a tw.local.b", refs))
	assert.Equal(t, 0, e.ExtractInto("", refs))
	assert.Len(t, refs, 2)
}

type fixedMatcher struct{}

func (fixedMatcher) Name() string                 { return "fixed" }
func (fixedMatcher) FindAll(text string) []string { return []string{"always"} }

func TestExtractorMatchersAreSwappable(t *testing.T) {
	e := NewExtractor(fixedMatcher{})
	assert.Equal(t, []string{"always"}, Sorted(e.Extract("tw.local.ignored")))
}

package extract

import (
	"slices"

	"github.com/mabhi256/bpmx/internal/walker"
)

// Predicate decides whether an opening element starts a capture. tag is the
// local element name and depth the number of open ancestors.
type Predicate func(tag string, attrs []walker.Attr, depth int) bool

// MatchTags selects elements whose local name is one of tags. A non-empty id
// additionally requires the element's id attribute to equal it.
func MatchTags(tags []string, id string) Predicate {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		set[walker.LocalName(tag)] = struct{}{}
	}
	return func(tag string, attrs []walker.Attr, _ int) bool {
		if _, ok := set[tag]; !ok {
			return false
		}
		if id == "" {
			return true
		}
		got, ok := attrValue(attrs, "id")
		return ok && got == id
	}
}

// MatchID selects any element whose id attribute equals id.
func MatchID(id string) Predicate {
	return func(_ string, attrs []walker.Attr, _ int) bool {
		got, ok := attrValue(attrs, "id")
		return ok && got == id
	}
}

// AtDepth restricts p to elements opened at the given depth.
func AtDepth(p Predicate, depths ...int) Predicate {
	return func(tag string, attrs []walker.Attr, depth int) bool {
		return slices.Contains(depths, depth) && p(tag, attrs, depth)
	}
}

func attrValue(attrs []walker.Attr, name string) (string, bool) {
	return walker.Event{Attrs: attrs}.Attr(name)
}

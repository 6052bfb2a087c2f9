package walker

import "strings"

type Kind int

const (
	Open Kind = iota
	Text
	Close
)

func (k Kind) String() string {
	switch k {
	case Open:
		return "open"
	case Text:
		return "text"
	case Close:
		return "close"
	default:
		return "unknown"
	}
}

// Attr is a single attribute as written in the source, prefix included.
type Attr struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Event is one step of the document walk.
//
// Depth is the number of open ancestors: for an Open event it is the depth
// before the element is pushed, for a Close event it is the depth after the
// element is popped, so a matched pair always carries the same Depth.
type Event struct {
	Kind  Kind
	Name  string // qualified name, e.g. "bpmn:userTask"
	Attrs []Attr
	Text  string
	Depth int
	Line  int
}

// Local returns the element name without its namespace prefix.
func (e Event) Local() string {
	return LocalName(e.Name)
}

// Attr looks up an attribute by its qualified name, falling back to the
// local part so "id" also finds "xmi:id".
func (e Event) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	for _, a := range e.Attrs {
		if LocalName(a.Name) == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrMap copies the attributes into a map keyed by qualified name.
func (e Event) AttrMap() map[string]string {
	if len(e.Attrs) == 0 {
		return map[string]string{}
	}
	m := make(map[string]string, len(e.Attrs))
	for _, a := range e.Attrs {
		m[a.Name] = a.Value
	}
	return m
}

func LocalName(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}

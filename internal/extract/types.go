package extract

import (
	"maps"
	"slices"

	"github.com/mabhi256/bpmx/internal/bindings"
)

// State holds the counters of one scan. It belongs to a single Engine and is
// never shared between scans.
type State struct {
	CurrentDepth  int                 `json:"-"`
	MaxDepth      int                 `json:"maxDepth"`
	TotalElements int                 `json:"totalElements"`
	TaskCount     int                 `json:"taskCount"`
	ElementCounts map[string]int      `json:"elementCounts"`
	Bindings      map[string]struct{} `json:"-"`
	Entities      map[string][]Entity `json:"entities"`
}

func newState() *State {
	return &State{
		ElementCounts: make(map[string]int),
		Bindings:      make(map[string]struct{}),
		Entities:      make(map[string][]Entity),
	}
}

func (s *State) snapshot() *State {
	entities := make(map[string][]Entity, len(s.Entities))
	for k, v := range s.Entities {
		entities[k] = slices.Clone(v)
	}
	return &State{
		CurrentDepth:  s.CurrentDepth,
		MaxDepth:      s.MaxDepth,
		TotalElements: s.TotalElements,
		TaskCount:     s.TaskCount,
		ElementCounts: maps.Clone(s.ElementCounts),
		Bindings:      maps.Clone(s.Bindings),
		Entities:      entities,
	}
}

// BindingList returns the distinct data bindings in lexical order.
func (s *State) BindingList() []string {
	return bindings.Sorted(s.Bindings)
}

// CataloguedCount is the number of elements that belong to a category.
func (s *State) CataloguedCount() int {
	n := 0
	for _, list := range s.Entities {
		n += len(list)
	}
	return n
}

// Entity is a catalogued element of interest.
type Entity struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Depth int    `json:"depth"`
	Line  int    `json:"line"`
}

// Metadata is the sidecar description of a captured component.
type Metadata struct {
	Type       string            `json:"type"`
	Element    string            `json:"element"`
	ID         string            `json:"id,omitempty"`
	Name       string            `json:"name,omitempty"`
	Attributes map[string]string `json:"attributes"`
	// Bindings are the distinct data bindings referenced inside the
	// component.
	Bindings []string `json:"bindings,omitempty"`
}

// Component is one completed capture.
type Component struct {
	Metadata
	Index      int
	Line       int
	SourcePath string
	XML        string
}

// Entry is the inventory record of a component. Paths are relative to the
// sink's root.
type Entry struct {
	Index        int    `json:"index"`
	Type         string `json:"type"`
	ID           string `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	Line         int    `json:"line"`
	Bytes        int    `json:"bytes"`
	Source       string `json:"source,omitempty"`
	Path         string `json:"path,omitempty"`
	MetadataPath string `json:"metadataPath,omitempty"`
}

type Result struct {
	SourcePath string
	State      *State
	// Inventory lists the components in document order.
	Inventory    []Entry
	Failures     []Failure
	DuplicateIDs map[string]int
	// PeakCaptureBytes is the largest amount of buffered capture data held
	// at any point of the scan.
	PeakCaptureBytes int
	Events           int
}

// Paths locates the artifacts written for a component.
type Paths struct {
	XML      string
	Metadata string
}

// Sink receives each component as soon as its capture completes.
type Sink interface {
	Write(c Component) (Paths, error)
}

// CollectSink keeps components in memory.
type CollectSink struct {
	Components []Component
}

func (s *CollectSink) Write(c Component) (Paths, error) {
	s.Components = append(s.Components, c)
	return Paths{}, nil
}

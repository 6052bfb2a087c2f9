// Package extract runs a single streaming pass over an XML document. Every
// event updates scan statistics; a capture state machine records the subtree
// of each element selected by a Predicate and hands it to a Sink once the
// element closes. Only the subtree currently being captured is buffered.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/klauspost/pgzip"

	"github.com/mabhi256/bpmx/internal/bindings"
	"github.com/mabhi256/bpmx/internal/logging"
	"github.com/mabhi256/bpmx/internal/walker"
)

// ctxCheckInterval is how many events pass between context checks.
const ctxCheckInterval = 256

type Options struct {
	// Predicate selects elements to capture. Nil runs in analysis mode.
	Predicate Predicate
	// Category is recorded as the type of every captured component. When
	// empty the element's local name is used.
	Category string

	// Categories maps a category name to the element local names it
	// covers. Matching elements are listed in State.Entities.
	Categories map[string][]string
	// TaskElements are counted as task-like in addition to any local name
	// ending in "Task".
	TaskElements []string

	Bindings *bindings.Extractor
	// ScanText also runs the binding matchers over character data.
	ScanText bool

	Walker     walker.Options
	SourcePath string
	Sink       Sink
	Logger     *log.Logger
}

type Engine struct {
	opts     Options
	state    *State
	session  session
	tagIndex map[string]string
	tasks    map[string]struct{}
	ns       [][]walker.Attr

	inventory []Entry
	failures  []Failure
	ids       map[string]int
	peak      int
	events    int
}

type session struct {
	active     bool
	startDepth int
	events     []walker.Event
	size       int
	meta       Metadata
	line       int
	bindings   map[string]struct{}
}

func NewEngine(opts Options) *Engine {
	if opts.Bindings == nil {
		opts.Bindings = bindings.Default()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	tagIndex := make(map[string]string)
	names := make([]string, 0, len(opts.Categories))
	for name := range opts.Categories {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		for _, tag := range opts.Categories[name] {
			if _, taken := tagIndex[tag]; !taken {
				tagIndex[tag] = name
			}
		}
	}

	tasks := make(map[string]struct{}, len(opts.TaskElements))
	for _, tag := range opts.TaskElements {
		tasks[tag] = struct{}{}
	}

	return &Engine{
		opts:     opts,
		state:    newState(),
		tagIndex: tagIndex,
		tasks:    tasks,
		ids:      make(map[string]int),
	}
}

// ScanFile opens path and scans it. Failing to open the file is reported as
// ErrSourceUnavailable.
func ScanFile(ctx context.Context, path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer f.Close()

	if opts.SourcePath == "" {
		opts.SourcePath = path
	}

	var r io.Reader = f
	if strings.EqualFold(filepath.Ext(path), ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		defer gz.Close()
		r = gz
	}
	return Scan(ctx, r, opts)
}

// Scan reads r to the end and returns the result. A malformed document
// aborts the scan; per-component problems are collected in Result.Failures.
func Scan(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	e := NewEngine(opts)
	w := walker.New(r, opts.Walker)

	for {
		if e.events%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		ev, err := w.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var malformed *MalformedDocumentError
			if errors.As(err, &malformed) && malformed.Truncated && e.Capturing() {
				e.Truncate(malformed)
				break
			}
			return nil, err
		}
		e.Handle(ev)
	}
	return e.Result(), nil
}

// Capturing reports whether a capture session is open.
func (e *Engine) Capturing() bool {
	return e.session.active
}

// Handle advances the engine by one event.
func (e *Engine) Handle(ev walker.Event) {
	e.events++
	switch ev.Kind {
	case walker.Open:
		depth := e.state.CurrentDepth
		e.observeOpen(ev, depth)
		switch {
		case e.session.active:
			e.record(ev)
		case e.opts.Predicate != nil && e.opts.Predicate(ev.Local(), ev.Attrs, depth):
			e.begin(ev, depth)
		}
		e.ns = append(e.ns, namespaceDecls(ev.Attrs))
		e.state.CurrentDepth = depth + 1

	case walker.Text:
		if e.opts.ScanText {
			e.opts.Bindings.ExtractInto(ev.Text, e.state.Bindings)
		}
		if e.session.active {
			if e.opts.ScanText {
				e.opts.Bindings.ExtractInto(ev.Text, e.session.bindings)
			}
			if text := strings.TrimSpace(ev.Text); text != "" {
				ev.Text = text
				e.record(ev)
			}
		}

	case walker.Close:
		e.state.CurrentDepth--
		if len(e.ns) > 0 {
			e.ns = e.ns[:len(e.ns)-1]
		}
		if e.session.active {
			e.record(ev)
			if e.state.CurrentDepth == e.session.startDepth {
				e.flush()
			}
		}
	}
}

func (e *Engine) observeOpen(ev walker.Event, depth int) {
	s := e.state
	local := ev.Local()

	s.TotalElements++
	s.ElementCounts[local]++
	s.MaxDepth = max(s.MaxDepth, depth+1)

	if e.isTask(local) {
		s.TaskCount++
	}
	for _, a := range ev.Attrs {
		e.opts.Bindings.ExtractInto(a.Value, s.Bindings)
	}
	if category, ok := e.tagIndex[local]; ok {
		id, _ := ev.Attr("id")
		name, _ := ev.Attr("name")
		s.Entities[category] = append(s.Entities[category], Entity{
			Type:  local,
			ID:    id,
			Name:  name,
			Depth: depth,
			Line:  ev.Line,
		})
	}
}

func (e *Engine) isTask(local string) bool {
	if _, ok := e.tasks[local]; ok {
		return true
	}
	return strings.HasSuffix(local, "Task")
}

func (e *Engine) begin(ev walker.Event, depth int) {
	id, _ := ev.Attr("id")
	name, _ := ev.Attr("name")
	typ := e.opts.Category
	if typ == "" {
		typ = ev.Local()
	}

	e.session = session{
		active:     true,
		startDepth: depth,
		line:       ev.Line,
		bindings:   make(map[string]struct{}),
		meta: Metadata{
			Type:       typ,
			Element:    ev.Local(),
			ID:         id,
			Name:       name,
			Attributes: ev.AttrMap(),
		},
	}

	root := ev
	root.Attrs = append(slices.Clone(ev.Attrs), e.inheritedNamespaces(ev.Attrs)...)
	e.record(root)

	e.opts.Logger.Debug("capture started", "type", typ, "id", id, "line", ev.Line, "depth", depth)
}

func (e *Engine) record(ev walker.Event) {
	if ev.Kind == walker.Open {
		for _, a := range ev.Attrs {
			e.opts.Bindings.ExtractInto(a.Value, e.session.bindings)
		}
	}
	e.session.events = append(e.session.events, ev)
	e.session.size += eventSize(ev)
	e.peak = max(e.peak, e.session.size)
}

func (e *Engine) flush() {
	s := e.session
	e.session = session{}
	s.meta.Bindings = bindings.Sorted(s.bindings)

	comp := Component{
		Metadata:   s.meta,
		Index:      len(e.inventory),
		Line:       s.line,
		SourcePath: e.opts.SourcePath,
		XML:        Serialize(s.events),
	}

	entry := Entry{
		Index:  comp.Index,
		Type:   comp.Type,
		ID:     comp.ID,
		Name:   comp.Name,
		Line:   comp.Line,
		Bytes:  len(comp.XML),
		Source: comp.SourcePath,
	}

	if e.opts.Sink != nil {
		paths, err := e.opts.Sink.Write(comp)
		if err != nil {
			e.fail(Failure{
				Kind:    FailureWrite,
				Type:    comp.Type,
				ID:      comp.ID,
				Line:    comp.Line,
				Message: err.Error(),
				Err:     err,
			})
			return
		}
		entry.Path = paths.XML
		entry.MetadataPath = paths.Metadata
	}

	if comp.ID != "" {
		e.ids[comp.ID]++
	}
	e.inventory = append(e.inventory, entry)
	e.opts.Logger.Debug("capture finished", "type", comp.Type, "id", comp.ID, "bytes", entry.Bytes)
}

// Truncate discards an open capture after the document ended early.
func (e *Engine) Truncate(cause error) {
	if !e.session.active {
		return
	}
	s := e.session
	e.session = session{}
	e.fail(Failure{
		Kind:    FailureTruncatedCapture,
		Type:    s.meta.Type,
		ID:      s.meta.ID,
		Line:    s.line,
		Message: fmt.Sprintf("document ended before <%s> was closed, %d buffered events discarded", s.meta.Element, len(s.events)),
		Err:     fmt.Errorf("%w: %v", ErrTruncatedCapture, cause),
	})
}

func (e *Engine) fail(f Failure) {
	e.failures = append(e.failures, f)
	e.opts.Logger.Warn("component skipped", "kind", f.Kind, "type", f.Type, "id", f.ID, "line", f.Line, "err", f.Message)
}

// inheritedNamespaces returns the in-scope xmlns declarations not redeclared
// on the captured element, so the fragment stands on its own.
func (e *Engine) inheritedNamespaces(own []walker.Attr) []walker.Attr {
	declared := make(map[string]bool)
	for _, a := range own {
		if isNamespaceDecl(a.Name) {
			declared[a.Name] = true
		}
	}
	var out []walker.Attr
	for i := len(e.ns) - 1; i >= 0; i-- {
		for _, a := range e.ns[i] {
			if declared[a.Name] {
				continue
			}
			declared[a.Name] = true
			out = append(out, a)
		}
	}
	slices.SortStableFunc(out, func(a, b walker.Attr) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func namespaceDecls(attrs []walker.Attr) []walker.Attr {
	var decls []walker.Attr
	for _, a := range attrs {
		if isNamespaceDecl(a.Name) {
			decls = append(decls, a)
		}
	}
	return decls
}

func isNamespaceDecl(name string) bool {
	return name == "xmlns" || strings.HasPrefix(name, "xmlns:")
}

func eventSize(ev walker.Event) int {
	n := len(ev.Name) + len(ev.Text)
	for _, a := range ev.Attrs {
		n += len(a.Name) + len(a.Value)
	}
	return n
}

// Result returns the outcome of the events handled so far.
func (e *Engine) Result() *Result {
	dups := make(map[string]int)
	for id, n := range e.ids {
		if n > 1 {
			dups[id] = n
		}
	}
	return &Result{
		SourcePath:       e.opts.SourcePath,
		State:            e.state.snapshot(),
		Inventory:        slices.Clone(e.inventory),
		Failures:         slices.Clone(e.failures),
		DuplicateIDs:     dups,
		PeakCaptureBytes: e.peak,
		Events:           e.events,
	}
}

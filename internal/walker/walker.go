// Package walker turns an XML byte stream into an ordered sequence of
// open/text/close events without building a document tree. Only the stack of
// open element names and the current token are held in memory.
package walker

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
)

type Options struct {
	// TrimText trims surrounding whitespace from text events and drops
	// whitespace-only runs entirely.
	TrimText bool
}

// MalformedDocumentError reports a document that is not well-formed. The
// position is best effort and points at the decoder offset when the problem
// was detected. Truncated is set when the input ended while elements were
// still open.
type MalformedDocumentError struct {
	Line      int
	Column    int
	Offset    int64
	Truncated bool
	Err       error
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed document at line %d, column %d (byte %d): %v",
		e.Line, e.Column, e.Offset, e.Err)
}

func (e *MalformedDocumentError) Unwrap() error {
	return e.Err
}

type Walker struct {
	dec  *xml.Decoder
	opts Options

	stack      []string
	text       strings.Builder
	textLine   int
	queued     *Event
	sawRoot    bool
	rootClosed bool
	err        error
}

func New(r io.Reader, opts Options) *Walker {
	dec := xml.NewDecoder(r)
	dec.Strict = true
	return &Walker{dec: dec, opts: opts}
}

// Depth returns the number of currently open elements.
func (w *Walker) Depth() int {
	return len(w.stack)
}

// Next returns the next event. It returns io.EOF after the root element has
// been closed and the input is exhausted. Any other error is terminal and is
// returned again on every subsequent call.
func (w *Walker) Next() (Event, error) {
	if w.queued != nil {
		ev := *w.queued
		w.queued = nil
		return ev, nil
	}
	if w.err != nil {
		return Event{}, w.err
	}

	for {
		tok, err := w.dec.RawToken()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return w.finish()
			}
			return Event{}, w.fail(err)
		}

		switch t := tok.(type) {
		case xml.CharData:
			if len(w.stack) == 0 {
				if len(strings.TrimSpace(string(t))) > 0 {
					return Event{}, w.fail(errors.New("character data outside the root element"))
				}
				continue
			}
			if w.text.Len() == 0 {
				w.textLine, _ = w.dec.InputPos()
			}
			w.text.Write(t)

		case xml.StartElement:
			if w.rootClosed {
				return Event{}, w.fail(fmt.Errorf("element <%s> after the root element", qualified(t.Name)))
			}
			w.sawRoot = true
			line, _ := w.dec.InputPos()
			ev := Event{
				Kind:  Open,
				Name:  qualified(t.Name),
				Attrs: convertAttrs(t.Attr),
				Depth: len(w.stack),
				Line:  line,
			}
			w.stack = append(w.stack, ev.Name)
			return w.emit(ev), nil

		case xml.EndElement:
			name := qualified(t.Name)
			if len(w.stack) == 0 {
				return Event{}, w.fail(fmt.Errorf("unexpected end element </%s>", name))
			}
			top := w.stack[len(w.stack)-1]
			if top != name {
				return Event{}, w.fail(fmt.Errorf("element <%s> closed by </%s>", top, name))
			}
			w.stack = w.stack[:len(w.stack)-1]
			if len(w.stack) == 0 {
				w.rootClosed = true
			}
			line, _ := w.dec.InputPos()
			ev := Event{Kind: Close, Name: name, Depth: len(w.stack), Line: line}
			return w.emit(ev), nil

		default:
			// comments, processing instructions and directives end a text run
			if e, ok := w.flushText(); ok {
				return e, nil
			}
		}
	}
}

// All adapts Next into a range-over-func sequence. Iteration stops after the
// first error, which is yielded with a zero Event; io.EOF is not yielded.
func (w *Walker) All() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for {
			ev, err := w.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Event{}, err)
				return
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// emit returns ev, or the pending text event with ev queued behind it.
func (w *Walker) emit(ev Event) Event {
	if text, ok := w.flushText(); ok {
		w.queued = &ev
		return text
	}
	return ev
}

func (w *Walker) flushText() (Event, bool) {
	if w.text.Len() == 0 {
		return Event{}, false
	}
	value := w.text.String()
	w.text.Reset()
	if w.opts.TrimText {
		value = strings.TrimSpace(value)
		if value == "" {
			return Event{}, false
		}
	}
	return Event{Kind: Text, Text: value, Depth: len(w.stack), Line: w.textLine}, true
}

func (w *Walker) finish() (Event, error) {
	if len(w.stack) > 0 {
		err := w.fail(fmt.Errorf("unexpected end of document, <%s> is not closed", w.stack[len(w.stack)-1]))
		w.err.(*MalformedDocumentError).Truncated = true
		return Event{}, err
	}
	if !w.sawRoot {
		return Event{}, w.fail(errors.New("document has no root element"))
	}
	w.err = io.EOF
	return Event{}, io.EOF
}

func (w *Walker) fail(err error) error {
	line, col := w.dec.InputPos()
	truncated := false
	var syntax *xml.SyntaxError
	if errors.As(err, &syntax) {
		if syntax.Line > 0 {
			line = syntax.Line
		}
		truncated = syntax.Msg == "unexpected EOF"
	}
	w.err = &MalformedDocumentError{
		Line:      line,
		Column:    col,
		Offset:    w.dec.InputOffset(),
		Truncated: truncated,
		Err:       err,
	}
	return w.err
}

func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

func convertAttrs(attrs []xml.Attr) []Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]Attr, len(attrs))
	for i, a := range attrs {
		out[i] = Attr{Name: qualified(a.Name), Value: a.Value}
	}
	return out
}

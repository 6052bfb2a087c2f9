package extract

import (
	"strings"

	"github.com/mabhi256/bpmx/internal/walker"
)

const (
	xmlProlog = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"
	indentStr = "  "
)

var (
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
		"\n", "&#xA;",
		"\r", "&#xD;",
		"\t", "&#x9;",
	)
	textEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\r", "&#xD;",
	)
)

// EscapeAttr escapes a value for use inside a double-quoted attribute.
func EscapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

// EscapeText escapes character data.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

// Serialize renders a balanced event sequence as a standalone XML document
// with two-space indentation. Elements without children are self-closed and
// elements holding a single text run keep it inline.
func Serialize(events []walker.Event) string {
	var b strings.Builder
	b.WriteString(xmlProlog)

	level := 0
	for i := 0; i < len(events); i++ {
		ev := events[i]
		switch ev.Kind {
		case walker.Open:
			writeIndent(&b, level)
			writeStartTag(&b, ev)

			switch {
			case next(events, i+1, walker.Close):
				b.WriteString("/>\n")
				i++
			case next(events, i+1, walker.Text) && next(events, i+2, walker.Close):
				b.WriteByte('>')
				b.WriteString(EscapeText(events[i+1].Text))
				b.WriteString("</")
				b.WriteString(ev.Name)
				b.WriteString(">\n")
				i += 2
			default:
				b.WriteString(">\n")
				level++
			}

		case walker.Text:
			writeIndent(&b, level)
			b.WriteString(EscapeText(ev.Text))
			b.WriteByte('\n')

		case walker.Close:
			level--
			writeIndent(&b, level)
			b.WriteString("</")
			b.WriteString(ev.Name)
			b.WriteString(">\n")
		}
	}
	return b.String()
}

func next(events []walker.Event, i int, kind walker.Kind) bool {
	return i < len(events) && events[i].Kind == kind
}

func writeStartTag(b *strings.Builder, ev walker.Event) {
	b.WriteByte('<')
	b.WriteString(ev.Name)
	for _, a := range ev.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`="`)
		b.WriteString(EscapeAttr(a.Value))
		b.WriteByte('"')
	}
}

func writeIndent(b *strings.Builder, level int) {
	for range max(level, 0) {
		b.WriteString(indentStr)
	}
}

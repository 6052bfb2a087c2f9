package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mabhi256/bpmx/internal/walker"
)

func TestEscapeAttr(t *testing.T) {
	assert.Equal(t, "&amp;&lt;&gt;&quot;&apos;&#xA;", EscapeAttr("&<>\"'\n"))
	assert.Equal(t, "plain", EscapeAttr("plain"))
}

func TestEscapeText(t *testing.T) {
	assert.Equal(t, `a &lt; b &amp;&amp; "c" 'd' &gt;`, EscapeText(`a < b && "c" 'd' >`))
}

func TestSerializeMixedContent(t *testing.T) {
	events := []walker.Event{
		{Kind: walker.Open, Name: "p", Attrs: []walker.Attr{{Name: "class", Value: `x"y`}}},
		{Kind: walker.Text, Text: "before"},
		{Kind: walker.Open, Name: "b"},
		{Kind: walker.Text, Text: "bold"},
		{Kind: walker.Close, Name: "b"},
		{Kind: walker.Text, Text: "after"},
		{Kind: walker.Open, Name: "br"},
		{Kind: walker.Close, Name: "br"},
		{Kind: walker.Close, Name: "p"},
	}

	assert.Equal(t, xmlProlog+`<p class="x&quot;y">
  before
  <b>bold</b>
  after
  <br/>
</p>
`, Serialize(events))
}

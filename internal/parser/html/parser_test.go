package html_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/cajoler/internal/parser/html"
)

func parse(t *testing.T, source string) *html.Document {
	t.Helper()
	parser := html.AcquireParser()
	defer html.ReleaseParser(parser)
	doc, err := parser.Parse(source, "test.html")
	require.NoError(t, err)
	return doc
}

// TestParseElements tests that elements, attributes and text are decoded
func TestParseElements(t *testing.T) {
	doc := parse(t, `<P Class="a">Hello &amp; <b>bye</b></P>`)
	require.Len(t, doc.Children, 1)

	p := doc.Children[0]
	assert.Equal(t, html.ElementNode, p.Type)
	assert.Equal(t, "p", p.Name)
	class, ok := p.Attr("class")
	require.True(t, ok)
	assert.Equal(t, "a", class.Value)

	require.Len(t, p.Children, 2)
	assert.Equal(t, html.TextNode, p.Children[0].Type)
	assert.Equal(t, "Hello & ", p.Children[0].Text)
	assert.Equal(t, "b", p.Children[1].Name)
}

func TestParseAttributeValues(t *testing.T) {
	doc := parse(t, `<a href="?a=1&amp;b=2" title='x' hidden>x</a>`)
	a := doc.Children[0]

	href, _ := a.Attr("href")
	assert.Equal(t, "?a=1&b=2", href.Value)
	assert.Equal(t, 1, href.ValuePos.Start.Line)
	assert.Equal(t, 10, href.ValuePos.Start.Column)

	title, _ := a.Attr("title")
	assert.Equal(t, "x", title.Value)

	hidden, ok := a.Attr("hidden")
	require.True(t, ok)
	assert.False(t, hidden.HasValue)

	a.RemoveAttr("HREF")
	_, ok = a.Attr("href")
	assert.False(t, ok)
}

func TestParseRawText(t *testing.T) {
	doc := parse(t, "<style>p { color: red }</style><script>a < b</script>")
	require.Len(t, doc.Children, 2)

	style := doc.Children[0]
	assert.True(t, style.RawText())
	assert.Equal(t, "p { color: red }", style.Text)
	assert.Equal(t, 8, style.TextPos.Start.Column)

	assert.Equal(t, "a < b", doc.Children[1].Text)
}

func TestTextPositions(t *testing.T) {
	doc := parse(t, "<div>\n  hi</div>")
	text := doc.Children[0].Children[0]
	assert.Equal(t, "\n  hi", text.Text)
	assert.Equal(t, 1, text.Pos.Start.Line)
	assert.Equal(t, 6, text.Pos.Start.Column)
	assert.Equal(t, 2, text.Pos.End.Line)
	assert.Equal(t, 5, text.Pos.End.Column)
}

func TestRender(t *testing.T) {
	doc := parse(t, `<div title="a&quot;b"><img src=x.png>1 &lt; 2<!-- gone --></div>`)
	assert.Equal(t, `<div title="a&#34;b"><img src="x.png">1 &lt; 2</div>`, html.Render(doc.Children))
}

// TestVoidElementSiblings tests that content after a void element stays
// in the enclosing element.
func TestVoidElementSiblings(t *testing.T) {
	doc := parse(t, "<p>line one<br>line two</p>")
	p := doc.Children[0]
	require.Len(t, p.Children, 3)
	br := p.Children[1]
	assert.Equal(t, "br", br.Name)
	assert.Empty(t, br.Children)
	assert.Equal(t, 12, br.Pos.Start.Column)
	assert.Equal(t, 16, br.Pos.End.Column)
	assert.Equal(t, "line two", p.Children[2].Text)
	assert.Equal(t, "<p>line one<br>line two</p>", html.Render(doc.Children))
}

func TestWalk(t *testing.T) {
	doc := parse(t, "<ul><li>a</li><li>b</li></ul>")
	var names []string
	html.Walk(doc.Children, nil, func(n, parent *html.Node) bool {
		if n.Type == html.ElementNode {
			names = append(names, n.Name)
		}
		return n.Name != "li"
	})
	assert.Equal(t, []string{"ul", "li", "li"}, names)
}

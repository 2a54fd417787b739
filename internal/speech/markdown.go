package speech

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// FlattenMarkdown reduces markdown to plain sentences suitable for speech:
// headings, emphasis markers, links, and code fences all collapse to their
// visible text. Non-markdown input passes through unchanged apart from
// whitespace normalization.
func FlattenMarkdown(src string) string {
	source := []byte(src)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.FencedCodeBlock:
			writeLines(&b, source, node.Lines())
		case *ast.CodeBlock:
			writeLines(&b, source, node.Lines())
		case *ast.AutoLink:
			b.Write(node.URL(source))
		}
		if _, isBlock := n.(*ast.Paragraph); isBlock {
			b.WriteByte(' ')
		}
		return ast.WalkContinue, nil
	})

	return strings.Join(strings.Fields(b.String()), " ")
}

func writeLines(b *strings.Builder, source []byte, lines *text.Segments) {
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
		b.WriteByte(' ')
	}
}

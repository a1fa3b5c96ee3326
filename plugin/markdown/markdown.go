// Package markdown converts markdown document content to plain text so the
// retrieval pipeline chunks and embeds prose instead of markup.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Service extracts plain text from markdown sources.
type Service interface {
	PlainText(source []byte) string
}

type service struct {
	md goldmark.Markdown
}

// Option configures the markdown service.
type Option func(*options)

type options struct {
	extensions []goldmark.Extender
}

// WithGFM enables GitHub Flavored Markdown extensions (tables, strikethrough,
// autolinks, task lists).
func WithGFM() Option {
	return func(o *options) {
		o.extensions = append(o.extensions, extension.GFM)
	}
}

// NewService creates a markdown service.
func NewService(opts ...Option) Service {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return &service{
		md: goldmark.New(goldmark.WithExtensions(o.extensions...)),
	}
}

// PlainText parses the markdown source and returns the concatenated text
// content of all blocks, with block boundaries preserved as newlines.
func (s *service) PlainText(source []byte) string {
	reader := text.NewReader(source)
	doc := s.md.Parser().Parse(reader)

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch v := n.(type) {
		case *ast.Text:
			if entering {
				b.Write(v.Segment.Value(source))
				if v.SoftLineBreak() || v.HardLineBreak() {
					b.WriteByte('\n')
				}
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					line := lines.At(i)
					b.Write(line.Value(source))
				}
			}
			return ast.WalkSkipChildren, nil
		default:
			if !entering && n.Type() == ast.TypeBlock {
				b.WriteString("\n\n")
			}
		}
		return ast.WalkContinue, nil
	})

	return collapseBlankLines(strings.TrimSpace(b.String()))
}

// collapseBlankLines reduces runs of three or more newlines to exactly two.
func collapseBlankLines(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}

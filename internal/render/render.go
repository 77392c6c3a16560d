// Package render turns stored outlines back into HTML.
package render

import (
	"bytes"
	"fmt"

	"github.com/dgallion1/chestnut/internal/outline"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer is stateless after construction and safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// Options controls the goldmark engine.
type Options struct {
	// Unsafe passes raw HTML in section bodies through unescaped.
	Unsafe bool
}

func New(opts Options) *Renderer {
	engineOptions := []goldmark.Option{
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.TaskList),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}
	if opts.Unsafe {
		engineOptions = append(engineOptions, goldmark.WithRendererOptions(html.WithUnsafe()))
	}
	return &Renderer{md: goldmark.New(engineOptions...)}
}

// Markdown renders markdown source to HTML.
func (r *Renderer) Markdown(src string) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}

// Outline renders a parsed body: the title as h1, then every section at its
// own level.
func (r *Renderer) Outline(body outline.ParsedBody) ([]byte, error) {
	return r.Markdown(outline.MarkdownText(body))
}

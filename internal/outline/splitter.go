// Package outline splits header-structured text into a flat outline of
// sections. The header syntax, title and metadata conventions, and the chain
// clean-up rules all come from a Dialect, so one Splitter serves markdown,
// AsciiDoc, or anything else with line-oriented headers.
package outline

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/dgallion1/chestnut/internal/document"
)

// Dialect supplies every syntax-dependent step of a parse.
//
// PruneCondition inspects the raw header chain and Prune acts on its verdict;
// C ties the two together so they cannot disagree about what the verdict
// means.
type Dialect[C any] interface {
	// HeaderPattern matches whole header lines. It must be multi-line
	// anchored so each match is exactly one line.
	HeaderPattern() *regexp.Regexp
	HeaderLevel(line string) int
	HeaderBody(line string) string
	// PopTitle removes the document title from the head of content. ok is
	// false when there is none and content comes back unchanged.
	PopTitle(content string) (rest, title string, ok bool)
	// Metadata returns the document's metadata block, or an empty map.
	Metadata(content string) (map[string]any, error)
	PruneCondition(chain []string) C
	// Prune returns a replacement chain, or false to keep chain as is.
	Prune(chain []string, cond C) ([]string, bool)
}

// Parser turns raw text into metadata and an outline. Meta is nil when the
// document carries no metadata block.
type Parser interface {
	Parse(content string) (*document.Meta, ParsedBody, error)
}

// Splitter is a Parser driven by a Dialect. It holds no mutable state and is
// safe for concurrent use.
type Splitter[C any] struct {
	dialect Dialect[C]
	pattern *regexp.Regexp
}

// NewSplitter builds a Splitter for d.
func NewSplitter[C any](d Dialect[C]) *Splitter[C] {
	return &Splitter[C]{dialect: d, pattern: d.HeaderPattern()}
}

// Parse splits content into sections. Errors only come from the dialect's
// metadata step and are returned as is.
func (s *Splitter[C]) Parse(content string) (*document.Meta, ParsedBody, error) {
	chain := SplitChain(s.pattern, content)

	rest, title, ok := s.dialect.PopTitle(content)
	metadata, err := s.dialect.Metadata(rest)
	if err != nil {
		return nil, ParsedBody{}, err
	}
	if !ok || title == "" {
		title, _ = metadata["title"].(string)
	}

	if pruned, ok := s.dialect.Prune(chain, s.dialect.PruneCondition(chain)); ok {
		chain = pruned
	}

	// chain: header, content, header, content, ..., header[, content]
	if len(chain)%2 != 0 {
		chain = append(chain, "")
	}

	n := len(chain) / 2
	index := make([]string, 0, n)
	sections := make([]Section, 0, n)
	for i := range n {
		line := chain[2*i]
		header := s.dialect.HeaderBody(line)
		index = append(index, header)
		sections = append(sections, Section{
			Header: header,
			Level:  s.dialect.HeaderLevel(line),
			Body:   Leaf(trimBlock(chain[2*i+1])),
		})
	}

	return metaFor(metadata, title), NewParsedBody(title, index, sections), nil
}

func metaFor(metadata map[string]any, title string) *document.Meta {
	if len(metadata) == 0 {
		return nil
	}
	name, _ := metadata["name"].(string)
	if name == "" {
		name, _ = metadata["slug"].(string)
	}
	if name == "" {
		name = title
	}
	meta := document.NewMeta(name, metadata)
	return &meta
}

// SplitChain cuts content at every match of pattern. The result starts with
// the text ahead of the first header when that text is not blank, then
// alternates header line and the raw text up to the next header. The text
// after the last header is left off when blank.
func SplitChain(pattern *regexp.Regexp, content string) []string {
	locs := pattern.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		if strings.TrimSpace(content) == "" {
			return nil
		}
		return []string{content}
	}

	chain := make([]string, 0, 2*len(locs)+1)
	if pre := content[:locs[0][0]]; strings.TrimSpace(pre) != "" {
		chain = append(chain, pre)
	}
	for i, loc := range locs {
		chain = append(chain, content[loc[0]:loc[1]])
		end := len(content)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := content[loc[1]:end]
		if i+1 == len(locs) && strings.TrimSpace(body) == "" {
			break
		}
		chain = append(chain, body)
	}
	return chain
}

// trimBlock drops blank lines around s but keeps the indentation of its
// first non-blank line.
func trimBlock(s string) string {
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	for {
		i := strings.IndexByte(s, '\n')
		if i < 0 || strings.TrimSpace(s[:i]) != "" {
			return s
		}
		s = s[i+1:]
	}
}

// ForFile returns the parser for a source file. AsciiDoc sources get the
// AsciiDoc dialect; everything else is converted to markdown before parsing.
func ForFile(filename string) Parser {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".adoc", ".asciidoc":
		return AsciiDoc()
	default:
		return Markdown()
	}
}

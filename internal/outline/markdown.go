package outline

import (
	"regexp"
	"strings"
)

var (
	// Levels 2-6 split sections; level 1 is reserved for the title.
	mdHeader       = regexp.MustCompile(`(?m)^#{2,6}[ \t]+\S.*$`)
	mdTitle        = regexp.MustCompile(`^#[ \t]+(\S.*)$`)
	mdClosingRun   = regexp.MustCompile(`[ \t]+#+$`)
	mdSetextRule   = regexp.MustCompile(`^ {0,3}=+[ \t]*$`)
	mdFrontMatters = []string{"---", "+++"}
)

// Shape describes what the markdown pruner has to repair in a chain.
type Shape uint8

const (
	// ShapePreamble: the chain opens with text ahead of the first section
	// header (title line, front matter, intro prose).
	ShapePreamble Shape = 1 << iota
	// ShapeFenced: a header line sits inside a code fence and is really
	// part of the preceding content.
	ShapeFenced
	// ShapeFrontMatter: a header-shaped line, such as a YAML comment, sits
	// inside the front matter block.
	ShapeFrontMatter
)

func (s Shape) Has(flag Shape) bool { return s&flag != 0 }

// MarkdownDialect parses ATX-header markdown with YAML or TOML front matter.
// Embed it to override individual steps.
type MarkdownDialect struct{}

// Markdown returns a Splitter for MarkdownDialect.
func Markdown() *Splitter[Shape] {
	return NewSplitter[Shape](MarkdownDialect{})
}

func (MarkdownDialect) HeaderPattern() *regexp.Regexp { return mdHeader }

func (MarkdownDialect) HeaderLevel(line string) int {
	line = strings.TrimLeft(line, " \t")
	return len(line) - len(strings.TrimLeft(line, "#"))
}

func (MarkdownDialect) HeaderBody(line string) string {
	body := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
	return strings.TrimSpace(mdClosingRun.ReplaceAllString(body, ""))
}

// PopTitle takes the first ATX or setext level-1 header, looking past
// leading blank lines and a front matter block. The front matter stays in
// the returned content.
func (d MarkdownDialect) PopTitle(content string) (string, string, bool) {
	_, end, _ := frontMatterSpan(content)
	head, lines := content[:end], strings.SplitAfter(content[end:], "\n")

	i := skipBlankLines(lines, 0)
	if i >= len(lines) {
		return content, "", false
	}

	line := strings.TrimRight(lines[i], "\r\n")
	if m := mdTitle.FindStringSubmatch(line); m != nil {
		return head + strings.Join(lines[:i], "") + strings.Join(lines[i+1:], ""), d.HeaderBody(line), true
	}
	if i+1 < len(lines) && strings.TrimSpace(line) != "" && mdSetextRule.MatchString(strings.TrimRight(lines[i+1], "\r\n")) {
		return head + strings.Join(lines[:i], "") + strings.Join(lines[i+2:], ""), strings.TrimSpace(line), true
	}
	return content, "", false
}

func (MarkdownDialect) Metadata(content string) (map[string]any, error) {
	return FrontMatter(content)
}

func (MarkdownDialect) PruneCondition(chain []string) Shape {
	start, shapes := headerShapes(chain)
	var shape Shape
	if start == 1 {
		shape |= ShapePreamble
	}
	for _, s := range shapes {
		shape |= s
	}
	return shape
}

// Prune folds header lines that sit inside a code fence or the front matter
// back into the text they interrupt, then drops the preamble. Chain segments
// are contiguous slices of the source, so folding is plain concatenation.
func (MarkdownDialect) Prune(chain []string, shape Shape) ([]string, bool) {
	if shape == 0 {
		return nil, false
	}

	start, shapes := headerShapes(chain)
	out := make([]string, 0, len(chain))
	if start == 1 {
		out = append(out, chain[0])
	}
	for k, i := 0, start; i < len(chain); k, i = k+1, i+2 {
		header, body := chain[i], ""
		hasBody := i+1 < len(chain)
		if hasBody {
			body = chain[i+1]
		}
		if shapes[k]&shape != 0 && len(out) > 0 {
			out[len(out)-1] += header + body
			continue
		}
		out = append(out, header)
		if hasBody {
			out = append(out, body)
		}
	}

	if start == 1 && shape.Has(ShapePreamble) {
		out = out[1:]
	}
	return out, true
}

// headerShapes classifies every header line of chain. start is 1 when
// chain opens with a preamble. shapes[k] describes the header at
// chain[start+2k]: ShapeFrontMatter or ShapeFenced when it belongs to the
// text before it, zero otherwise.
func headerShapes(chain []string) (start int, shapes []Shape) {
	if len(chain) == 0 {
		return 0, nil
	}

	var f fence
	pos, fmEnd := 0, 0
	if !mdHeader.MatchString(chain[0]) {
		start = 1
		if _, end, ok := frontMatterSpan(strings.Join(chain, "")); ok {
			fmEnd = end
		}
		f = f.advance(after(chain[0], pos, fmEnd))
		pos = len(chain[0])
	}

	shapes = make([]Shape, 0, (len(chain)-start+1)/2)
	for i := start; i < len(chain); i += 2 {
		var s Shape
		switch {
		case pos < fmEnd:
			s = ShapeFrontMatter
		case f.open():
			s = ShapeFenced
		}
		shapes = append(shapes, s)
		pos += len(chain[i])
		if i+1 < len(chain) {
			f = f.advance(after(chain[i+1], pos, fmEnd))
			pos += len(chain[i+1])
		}
	}
	return start, shapes
}

// after returns the part of text, found at offset pos in the source, that
// lies at or beyond offset limit.
func after(text string, pos, limit int) string {
	return text[min(len(text), max(0, limit-pos)):]
}

// MarkdownHeader formats an ATX header line.
func MarkdownHeader(level int, text string) string {
	return strings.Repeat("#", max(level, 1)) + " " + text
}

// fence is an open code fence: its marker character and run length.
// The zero value is no open fence.
type fence struct {
	marker byte
	n      int
}

func (f fence) open() bool { return f.n > 0 }

// advance feeds the lines of text through f. A fence opens on a run of three
// or more backticks or tildes and closes only on a bare run of the same
// marker at least as long as the opening one.
func (f fence) advance(text string) fence {
	for line := range strings.Lines(text) {
		marker, n, rest := fenceRun(line)
		if n < 3 {
			continue
		}
		switch {
		case !f.open():
			// A backtick info string cannot contain backticks.
			if marker == '`' && strings.Contains(rest, "`") {
				continue
			}
			f = fence{marker: marker, n: n}
		case marker == f.marker && n >= f.n && strings.TrimSpace(rest) == "":
			f = fence{}
		}
	}
	return f
}

// fenceRun splits line into a run of fence markers, after at most three
// spaces of indentation, and the text following it.
func fenceRun(line string) (marker byte, n int, rest string) {
	line = strings.TrimRight(line, "\r\n")
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 || trimmed == "" {
		return 0, 0, ""
	}
	marker = trimmed[0]
	if marker != '`' && marker != '~' {
		return 0, 0, ""
	}
	n = len(trimmed) - len(strings.TrimLeft(trimmed, string(marker)))
	return marker, n, trimmed[n:]
}

package outline

import "strings"

// Nest folds a flat run of sections into a tree: each section becomes a
// child of the nearest earlier section with a lower level. A parent that has
// text of its own keeps it as a leading child with an empty header.
func Nest(sections []Section) []Section {
	type node struct {
		header   string
		level    int
		text     string
		children []*node
	}

	root := &node{}
	stack := []*node{root}
	for _, s := range Flatten(sections) {
		for len(stack) > 1 && stack[len(stack)-1].level >= s.Level {
			stack = stack[:len(stack)-1]
		}
		n := &node{header: s.Header, level: s.Level, text: s.Body.Text()}
		parent := stack[len(stack)-1]
		parent.children = append(parent.children, n)
		stack = append(stack, n)
	}

	var build func(n *node) Section
	build = func(n *node) Section {
		if len(n.children) == 0 {
			return Section{Header: n.header, Level: n.level, Body: Leaf(n.text)}
		}
		kids := make([]Section, 0, len(n.children)+1)
		if n.text != "" {
			kids = append(kids, Section{Level: n.level, Body: Leaf(n.text)})
		}
		for _, c := range n.children {
			kids = append(kids, build(c))
		}
		return Section{Header: n.header, Level: n.level, Body: Nested(kids...)}
	}

	out := make([]Section, 0, len(root.children))
	for _, c := range root.children {
		out = append(out, build(c))
	}
	return out
}

// Flatten undoes Nest. Flat input comes back unchanged.
func Flatten(sections []Section) []Section {
	out := make([]Section, 0, len(sections))
	for _, s := range sections {
		if !s.Body.IsNested() {
			out = append(out, s)
			continue
		}
		kids := s.Body.Sections()
		text := ""
		if len(kids) > 0 && kids[0].Header == "" && !kids[0].Body.IsNested() {
			text, kids = kids[0].Body.Text(), kids[1:]
		}
		out = append(out, Section{Header: s.Header, Level: s.Level, Body: Leaf(text)})
		out = append(out, Flatten(kids)...)
	}
	return out
}

// HeaderFormatter renders a header line for a dialect.
type HeaderFormatter func(level int, text string) string

// Reconstruct writes body back out as dialect text: the title as a level-1
// header, then each section header followed by its text.
func Reconstruct(body ParsedBody, format HeaderFormatter) string {
	var sb strings.Builder
	if body.HasTitle() {
		sb.WriteString(format(1, body.ID()))
		sb.WriteString("\n\n")
	}
	for _, s := range Flatten(body.content) {
		sb.WriteString(format(s.Level, s.Header))
		sb.WriteString("\n")
		if text := s.Body.Text(); text != "" {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// MarkdownText is Reconstruct with markdown headers.
func MarkdownText(body ParsedBody) string {
	return Reconstruct(body, MarkdownHeader)
}

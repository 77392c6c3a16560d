package outline

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Section is one header with its level and body.
type Section struct {
	Header string
	Level  int
	Body   Body
}

// Body is either a leaf of text or a nested run of sections.
// The zero value is an empty leaf.
type Body struct {
	text     string
	children []Section
	nested   bool
}

// Leaf returns a text body.
func Leaf(text string) Body {
	return Body{text: text}
}

// Nested returns a body holding child sections.
func Nested(children ...Section) Body {
	return Body{children: slices.Clone(children), nested: true}
}

func (b Body) IsNested() bool { return b.nested }

// Text is the leaf text; nested bodies have none.
func (b Body) Text() string { return b.text }

// Sections returns a copy of the children of a nested body.
func (b Body) Sections() []Section {
	if !b.nested {
		return nil
	}
	return slices.Clone(b.children)
}

// Equal compares two sections, descending into nested bodies.
func (s Section) Equal(o Section) bool {
	if s.Header != o.Header || s.Level != o.Level || s.Body.nested != o.Body.nested {
		return false
	}
	if !s.Body.nested {
		return s.Body.text == o.Body.text
	}
	return slices.EqualFunc(s.Body.children, o.Body.children, Section.Equal)
}

type sectionJSON struct {
	Header   string    `json:"header"`
	Level    int       `json:"level"`
	Text     *string   `json:"text,omitempty"`
	Sections []Section `json:"sections,omitempty"`
}

func (s Section) MarshalJSON() ([]byte, error) {
	out := sectionJSON{Header: s.Header, Level: s.Level}
	if s.Body.nested {
		out.Sections = s.Body.children
		if out.Sections == nil {
			out.Sections = []Section{}
		}
	} else {
		text := s.Body.text
		out.Text = &text
	}
	return json.Marshal(out)
}

func (s *Section) UnmarshalJSON(data []byte) error {
	var in sectionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode section: %w", err)
	}
	s.Header = in.Header
	s.Level = in.Level
	if in.Text != nil {
		s.Body = Leaf(*in.Text)
	} else {
		s.Body = Nested(in.Sections...)
	}
	return nil
}

// ParsedBody is the outline of one document: its title, the headers below
// the title in order, and the sections themselves. It is built once and
// never mutated; accessors hand out copies.
type ParsedBody struct {
	id      string
	index   []string
	content []Section
}

// NewParsedBody copies index and content into a new ParsedBody.
func NewParsedBody(id string, index []string, content []Section) ParsedBody {
	return ParsedBody{
		id:      id,
		index:   slices.Clone(index),
		content: slices.Clone(content),
	}
}

// ID is the document title. Empty when no title could be resolved.
func (p ParsedBody) ID() string { return p.id }

// HasTitle reports whether a title was resolved.
func (p ParsedBody) HasTitle() bool { return p.id != "" }

// Index returns the non-title headers in document order.
func (p ParsedBody) Index() []string { return slices.Clone(p.index) }

// Content returns the sections in document order.
func (p ParsedBody) Content() []Section { return slices.Clone(p.content) }

// Len is the number of top-level sections.
func (p ParsedBody) Len() int { return len(p.content) }

// WithID returns a copy titled id.
func (p ParsedBody) WithID(id string) ParsedBody {
	p.id = id
	return p
}

type parsedBodyJSON struct {
	ID      string    `json:"id"`
	Index   []string  `json:"index"`
	Content []Section `json:"content"`
}

func (p ParsedBody) MarshalJSON() ([]byte, error) {
	out := parsedBodyJSON{ID: p.id, Index: p.index, Content: p.content}
	if out.Index == nil {
		out.Index = []string{}
	}
	if out.Content == nil {
		out.Content = []Section{}
	}
	return json.Marshal(out)
}

func (p *ParsedBody) UnmarshalJSON(data []byte) error {
	var in parsedBodyJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode parsed body: %w", err)
	}
	*p = NewParsedBody(in.ID, in.Index, in.Content)
	return nil
}

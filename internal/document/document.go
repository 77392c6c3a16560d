package document

import "maps"

// Meta names a document and carries its key/value metadata.
// A Meta is never mutated after NewMeta returns.
type Meta struct {
	name   string
	values map[string]any
}

// NewMeta builds a Meta, copying values so later writes by the caller
// cannot leak in.
func NewMeta(name string, values map[string]any) Meta {
	m := Meta{name: name, values: make(map[string]any, len(values))}
	maps.Copy(m.values, values)
	return m
}

// Name is the stable document name. It doubles as the Document file ID.
func (m Meta) Name() string { return m.name }

// Values returns a copy of the metadata map.
func (m Meta) Values() map[string]any {
	out := make(map[string]any, len(m.values))
	maps.Copy(out, m.values)
	return out
}

// Get returns a single metadata value.
func (m Meta) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// String returns a metadata value when it is a non-empty string.
func (m Meta) String(key string) string {
	s, _ := m.values[key].(string)
	return s
}

// Len is the number of metadata keys.
func (m Meta) Len() int { return len(m.values) }

// Document is a stored document. Its identity is the file ID alone: two
// Documents with the same file ID are the same document whatever their
// content or metadata.
type Document struct {
	fileID  string
	meta    Meta
	content *string
}

// Load builds a Document with its content loaded.
func Load(meta Meta, content string) Document {
	return Document{fileID: meta.Name(), meta: meta, content: &content}
}

// FromMeta builds a Document whose content has not been loaded yet.
func FromMeta(meta Meta) Document {
	return Document{fileID: meta.Name(), meta: meta}
}

func (d Document) FileID() string { return d.fileID }
func (d Document) Meta() Meta     { return d.meta }

// Content returns the raw content, and false when it was never loaded.
func (d Document) Content() (string, bool) {
	if d.content == nil {
		return "", false
	}
	return *d.content, true
}

// Equal reports whether both documents share a file ID.
func (d Document) Equal(other Document) bool {
	return d.fileID == other.fileID
}

// WithContent returns a copy carrying content. The file ID is kept even if
// the caller later swaps metadata.
func (d Document) WithContent(content string) Document {
	d.content = &content
	return d
}

// WithMeta returns a copy carrying meta under the original file ID.
func (d Document) WithMeta(meta Meta) Document {
	d.meta = meta
	return d
}

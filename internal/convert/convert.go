package convert

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/chestnut/internal/outline"
)

// Converter turns a source document into text the outline splitter reads:
// markdown for every format except AsciiDoc, which is passed through.
type Converter interface {
	Convert(r io.Reader, filename string) (string, error)
}

// Options tunes individual converters.
type Options struct {
	PDFFallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".adoc":     true,
	".asciidoc": true,
	".txt":      true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate converter for a filename.
func ForFile(filename string, opts Options) (Converter, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown", ".adoc", ".asciidoc":
		return &PassthroughConverter{}, nil
	case ".txt":
		return &TextConverter{}, nil
	case ".csv":
		return &CSVConverter{}, nil
	case ".html", ".htm":
		return &HTMLConverter{}, nil
	case ".pdf":
		return &PDFConverter{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXConverter{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Stem is the filename without directory and extension.
func Stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// writeSection appends a section header and its text, separated the way the
// splitter expects.
func writeSection(sb *strings.Builder, level int, header, text string) {
	sb.WriteString(outline.MarkdownHeader(level, header))
	sb.WriteString("\n\n")
	if text != "" {
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
}

// escapeText keeps extracted prose from being read as markdown structure:
// lines that would open a header or a code fence get a leading backslash.
func escapeText(s string) string {
	lines := strings.SplitAfter(s, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			lines[i] = `\` + trimmed
		}
	}
	return strings.Join(lines, "")
}

// oneLine collapses runs of whitespace so text fits on a header line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

package convert

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// PassthroughConverter hands markdown and AsciiDoc sources to the splitter
// as they are, apart from line ending and BOM normalization.
type PassthroughConverter struct{}

func (c *PassthroughConverter) Convert(r io.Reader, filename string) (string, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(src) {
		return "", fmt.Errorf("%s: content is not valid UTF-8", filename)
	}
	return NormalizeNewlines(string(src)), nil
}

// NormalizeNewlines strips a UTF-8 BOM and rewrites CRLF and CR line endings
// as LF.
func NormalizeNewlines(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

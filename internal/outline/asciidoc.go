package outline

import (
	"regexp"
	"strings"
)

var (
	adocHeader = regexp.MustCompile(`(?m)^={2,6}[ \t]+\S.*$`)
	adocTitle  = regexp.MustCompile(`^=[ \t]+(\S.*)$`)
	adocAttr   = regexp.MustCompile(`^:([A-Za-z0-9_][A-Za-z0-9_-]*):(?:[ \t]+(.*))?$`)
)

// AsciiDocDialect parses "== Section" headers with a "= Title" document
// title and ":key: value" attribute entries as metadata.
type AsciiDocDialect struct{}

// AsciiDoc returns a Splitter for AsciiDocDialect. Its prune condition is
// simply whether the chain opens with a preamble.
func AsciiDoc() *Splitter[bool] {
	return NewSplitter[bool](AsciiDocDialect{})
}

func (AsciiDocDialect) HeaderPattern() *regexp.Regexp { return adocHeader }

func (AsciiDocDialect) HeaderLevel(line string) int {
	line = strings.TrimLeft(line, " \t")
	return len(line) - len(strings.TrimLeft(line, "="))
}

func (AsciiDocDialect) HeaderBody(line string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "="))
}

func (AsciiDocDialect) PopTitle(content string) (string, string, bool) {
	lines := strings.SplitAfter(content, "\n")
	i := skipBlankLines(lines, 0)
	if i >= len(lines) {
		return content, "", false
	}
	m := adocTitle.FindStringSubmatch(strings.TrimRight(lines[i], "\r\n"))
	if m == nil {
		return content, "", false
	}
	return strings.Join(lines[:i], "") + strings.Join(lines[i+1:], ""), strings.TrimSpace(m[1]), true
}

// Metadata collects the attribute entries that open the header block. It
// stops at the first line that is not an attribute entry.
func (AsciiDocDialect) Metadata(content string) (map[string]any, error) {
	values := map[string]any{}
	lines := strings.SplitAfter(content, "\n")
	for _, line := range lines[skipBlankLines(lines, 0):] {
		m := adocAttr.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
		if m == nil {
			break
		}
		values[m[1]] = strings.TrimSpace(m[2])
	}
	return values, nil
}

func (AsciiDocDialect) PruneCondition(chain []string) bool {
	return len(chain) > 0 && !adocHeader.MatchString(chain[0])
}

func (AsciiDocDialect) Prune(chain []string, preamble bool) ([]string, bool) {
	if !preamble {
		return nil, false
	}
	return chain[1:], true
}

// AsciiDocHeader formats a section title line.
func AsciiDocHeader(level int, text string) string {
	return strings.Repeat("=", max(level, 1)) + " " + text
}

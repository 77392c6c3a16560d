package outline

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

var frontMatterFormats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", yaml.Unmarshal),
	frontmatter.NewFormat("+++", "+++", toml.Unmarshal),
}

// FrontMatter decodes a YAML (---) or TOML (+++) block at the head of
// content. Content without one yields an empty map.
func FrontMatter(content string) (map[string]any, error) {
	values := map[string]any{}

	start, _, ok := frontMatterSpan(content)
	if !ok {
		return values, nil
	}
	if _, err := frontmatter.Parse(strings.NewReader(content[start:]), &values, frontMatterFormats...); err != nil {
		return nil, fmt.Errorf("parse front matter: %w", err)
	}
	return values, nil
}

// frontMatterSpan locates the front matter block at the head of content,
// past leading blank lines. content[start:end] runs from the opening
// delimiter through the closing delimiter line.
//
// A --- block whose body decodes to something other than a mapping, such as
// prose between two thematic breaks, is not front matter. A body that does
// not decode at all still counts so the decode error reaches the caller.
func frontMatterSpan(content string) (start, end int, ok bool) {
	lines := strings.SplitAfter(content, "\n")
	i := skipBlankLines(lines, 0)
	if i >= len(lines) {
		return 0, 0, false
	}
	last := frontMatterEnd(lines, i)
	if last < 0 {
		return 0, 0, false
	}
	if strings.TrimSpace(lines[i]) == "---" && !yamlMapping(strings.Join(lines[i+1:last], "")) {
		return 0, 0, false
	}
	for _, line := range lines[:i] {
		start += len(line)
	}
	end = start
	for _, line := range lines[i : last+1] {
		end += len(line)
	}
	return start, end, true
}

func yamlMapping(body string) bool {
	var v any
	if err := yaml.Unmarshal([]byte(body), &v); err != nil {
		return true
	}
	switch v.(type) {
	case nil, map[string]any, map[any]any:
		return true
	}
	return false
}

func skipBlankLines(lines []string, i int) int {
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	return i
}

// frontMatterEnd returns the index of the closing delimiter of a front
// matter block opening at lines[i], or -1.
func frontMatterEnd(lines []string, i int) int {
	open := strings.TrimSpace(lines[i])
	for _, delim := range mdFrontMatters {
		if open != delim {
			continue
		}
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == delim {
				return j
			}
		}
	}
	return -1
}

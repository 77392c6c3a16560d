package convert

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// TextConverter handles plain text files. Each paragraph becomes its own
// section.
type TextConverter struct{}

func (c *TextConverter) Convert(r io.Reader, filename string) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return "", err
	}

	var out strings.Builder
	for i, para := range paragraphs {
		writeSection(&out, 2, fmt.Sprintf("Paragraph %d", i+1), escapeText(para))
	}
	return out.String(), nil
}

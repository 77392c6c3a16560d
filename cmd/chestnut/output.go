package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgallion1/chestnut/internal/document"
	"github.com/dgallion1/chestnut/internal/outline"
	"github.com/dgallion1/chestnut/internal/pipeline"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("130"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("130")).
			Padding(0, 1)
)

// printOutline writes the title, metadata and an indented section tree.
func printOutline(w io.Writer, meta *document.Meta, body outline.ParsedBody) {
	title := body.ID()
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintln(w, titleStyle.Render(title))
	if meta != nil && meta.Len() > 0 {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("meta: %s (%d keys)", meta.Name(), meta.Len())))
	}
	printSections(w, body.Content(), 0)
}

func printSections(w io.Writer, sections []outline.Section, depth int) {
	for _, s := range sections {
		indent := strings.Repeat("  ", depth+max(s.Level-2, 0))
		if s.Body.IsNested() {
			fmt.Fprintf(w, "%s%s\n", indent, headerLabel(s))
			printSections(w, s.Body.Sections(), depth+1)
			continue
		}
		fmt.Fprintf(w, "%s%s %s\n", indent, headerLabel(s), dimStyle.Render(bodySize(s.Body.Text())))
	}
}

func headerLabel(s outline.Section) string {
	if s.Header == "" {
		return dimStyle.Render("(intro)")
	}
	return headerStyle.Render(s.Header)
}

func bodySize(text string) string {
	if text == "" {
		return "(empty)"
	}
	lines := strings.Count(text, "\n") + 1
	if lines == 1 {
		return "(1 line)"
	}
	return fmt.Sprintf("(%d lines)", lines)
}

type importCounts struct {
	completed, duplicates, failed int
}

func (c *importCounts) add(status pipeline.JobStatus) {
	switch status {
	case pipeline.StatusCompleted:
		c.completed++
	case pipeline.StatusDupSkipped:
		c.duplicates++
	default:
		c.failed++
	}
}

func (c importCounts) total() int {
	return c.completed + c.duplicates + c.failed
}

func printImportResult(w io.Writer, path string, snap pipeline.JobSnapshot) {
	switch snap.Status {
	case pipeline.StatusCompleted:
		fmt.Fprintf(w, "%s %s %s\n", successStyle.Render("✓"), path,
			dimStyle.Render(fmt.Sprintf("→ %s (%d sections)", snap.DocID, snap.Progress.Sections)))
	case pipeline.StatusDupSkipped:
		fmt.Fprintf(w, "%s %s %s\n", warnStyle.Render("="), path,
			dimStyle.Render("duplicate of "+snap.DuplicateOf))
	default:
		fmt.Fprintf(w, "%s %s %s\n", errorStyle.Render("✗"), path,
			errorStyle.Render(strings.Join(snap.Progress.Errors, "; ")))
	}
}

func printImportSummary(w io.Writer, c importCounts) {
	summary := fmt.Sprintf("%d stored, %d duplicates, %d failed", c.completed, c.duplicates, c.failed)
	fmt.Fprintln(w, boxStyle.Render(summary))
}

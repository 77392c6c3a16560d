package outline

import (
	"errors"
	"slices"
	"sync"
	"testing"
)

func TestSplitter_TitleAndSections(t *testing.T) {
	meta, body, err := Markdown().Parse("# Title\n## A\nbody1\n## B\nbody2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta != nil {
		t.Errorf("expected no meta without front matter, got %+v", meta)
	}
	if body.ID() != "Title" {
		t.Errorf("expected id %q, got %q", "Title", body.ID())
	}
	if !slices.Equal(body.Index(), []string{"A", "B"}) {
		t.Errorf("expected index [A B], got %v", body.Index())
	}

	want := []Section{
		{Header: "A", Level: 2, Body: Leaf("body1")},
		{Header: "B", Level: 2, Body: Leaf("body2")},
	}
	assertSections(t, body.Content(), want)
}

func TestSplitter_EmptyInput(t *testing.T) {
	meta, body, err := Markdown().Parse("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta != nil {
		t.Errorf("expected nil meta, got %+v", meta)
	}
	if body.HasTitle() {
		t.Errorf("expected no title, got %q", body.ID())
	}
	if len(body.Index()) != 0 || len(body.Content()) != 0 {
		t.Errorf("expected empty outline, got index=%v content=%v", body.Index(), body.Content())
	}
}

func TestSplitter_TrailingHeaderGetsEmptyBody(t *testing.T) {
	_, body, err := Markdown().Parse("## A\nbody\n## B\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Section{
		{Header: "A", Level: 2, Body: Leaf("body")},
		{Header: "B", Level: 2, Body: Leaf("")},
	}
	assertSections(t, body.Content(), want)
}

func TestSplitter_ExplicitTitleBeatsMetadata(t *testing.T) {
	input := "# Explicit\n---\ntitle: From Meta\nauthor: jo\n---\n## A\nbody"
	meta, body, err := Markdown().Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.ID() != "Explicit" {
		t.Errorf("expected explicit title to win, got %q", body.ID())
	}
	if meta == nil {
		t.Fatalf("expected meta from front matter")
	}
	if meta.String("author") != "jo" {
		t.Errorf("expected author %q, got %q", "jo", meta.String("author"))
	}
	if meta.Name() != "Explicit" {
		t.Errorf("expected meta name to fall back to title, got %q", meta.Name())
	}
	assertSections(t, body.Content(), []Section{{Header: "A", Level: 2, Body: Leaf("body")}})
}

func TestSplitter_MetadataTitleFallback(t *testing.T) {
	_, body, err := Markdown().Parse("---\ntitle: X\n---\n## A\nbody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.ID() != "X" {
		t.Errorf("expected fallback title %q, got %q", "X", body.ID())
	}
	if !slices.Equal(body.Index(), []string{"A"}) {
		t.Errorf("expected index [A], got %v", body.Index())
	}
}

func TestSplitter_NoTitleAnywhere(t *testing.T) {
	meta, body, err := Markdown().Parse("---\nauthor: jo\n---\n## A\nbody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.HasTitle() {
		t.Errorf("expected no title, got %q", body.ID())
	}
	if meta == nil || meta.Name() != "" {
		t.Errorf("expected unnamed meta, got %+v", meta)
	}
}

func TestSplitter_MetaNamePrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"---\nname: by-name\nslug: by-slug\n---\n# T\n", "by-name"},
		{"---\nslug: by-slug\n---\n# T\n", "by-slug"},
		{"---\nauthor: a\n---\n# T\n", "T"},
	}
	for _, tt := range tests {
		meta, _, err := Markdown().Parse(tt.input)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", tt.input, err)
		}
		if meta == nil || meta.Name() != tt.want {
			t.Errorf("input %q: expected meta name %q, got %+v", tt.input, tt.want, meta)
		}
	}
}

func TestSplitter_RefoldIsStable(t *testing.T) {
	input := "---\nauthor: jo\n---\n# Guide\n\nIntro\n\n## Install\n\nRun it.\n\n### Linux\n\napt install\n\n" +
		"## Usage\n\n```\n## inside\n```\n\n## Empty\n"

	_, first, err := Markdown().Parse(input)
	if err != nil {
		t.Fatalf("first parse: %v", err)
	}
	_, second, err := Markdown().Parse(MarkdownText(first))
	if err != nil {
		t.Fatalf("second parse: %v", err)
	}

	if first.ID() != second.ID() {
		t.Errorf("expected id %q after refold, got %q", first.ID(), second.ID())
	}
	if !slices.Equal(first.Index(), second.Index()) {
		t.Errorf("expected index %v after refold, got %v", first.Index(), second.Index())
	}
	assertSections(t, second.Content(), first.Content())

	if got := len(first.Content()); got != 4 {
		t.Fatalf("expected 4 sections, got %d", got)
	}
	if text := first.Content()[2].Body.Text(); text != "```\n## inside\n```" {
		t.Errorf("expected fenced header kept in Usage body, got %q", text)
	}
}

func TestSplitter_ContentMatchesIndex(t *testing.T) {
	inputs := []string{
		"",
		"plain prose only",
		"## A",
		"## A\n## B\n## C",
		"# T\n## A\ntext\n### B\n",
		"intro\n## A\n```\n## B\n",
	}
	for _, in := range inputs {
		_, body, err := Markdown().Parse(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if len(body.Content()) != len(body.Index()) {
			t.Errorf("input %q: %d sections but %d index entries", in, len(body.Content()), len(body.Index()))
		}
	}
}

var errMetadata = errors.New("metadata backend down")

type failingDialect struct{ MarkdownDialect }

func (failingDialect) Metadata(string) (map[string]any, error) { return nil, errMetadata }

func TestSplitter_StrategyErrorsPropagateUnwrapped(t *testing.T) {
	s := NewSplitter[Shape](failingDialect{})
	_, _, err := s.Parse("# T\n## A\nx")
	if err != errMetadata {
		t.Fatalf("expected the dialect error as is, got %v", err)
	}
}

func TestSplitter_MalformedFrontMatter(t *testing.T) {
	_, _, err := Markdown().Parse("---\ntitle: [unclosed\n---\n## A\nx")
	if err == nil {
		t.Fatal("expected error for malformed front matter")
	}
}

// countingDialect checks that the verdict handed to Prune is the one
// PruneCondition computed from the unpruned chain.
type countingDialect struct {
	MarkdownDialect
}

func (countingDialect) PruneCondition(chain []string) int { return len(chain) }

func (countingDialect) Prune(chain []string, n int) ([]string, bool) {
	if n != len(chain) {
		panic("condition computed from a different chain")
	}
	if n <= 2 {
		return nil, false
	}
	// Keep only the first section.
	return chain[:2], true
}

func TestSplitter_PruneSeesConditionFromRawChain(t *testing.T) {
	s := NewSplitter[int](countingDialect{})

	_, body, err := s.Parse("## A\na\n## B\nb")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSections(t, body.Content(), []Section{{Header: "A", Level: 2, Body: Leaf("a")}})

	_, body, err = s.Parse("## Only\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSections(t, body.Content(), []Section{{Header: "Only", Level: 2, Body: Leaf("")}})
}

func TestSplitter_ConcurrentUse(t *testing.T) {
	s := Markdown()
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, body, err := s.Parse("# T\n## A\nx\n## B\ny")
			if err != nil {
				errs <- err
				return
			}
			if body.Len() != 2 {
				errs <- errors.New("unexpected section count")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestForFile(t *testing.T) {
	if _, ok := ForFile("notes.adoc").(*Splitter[bool]); !ok {
		t.Errorf("expected AsciiDoc splitter for .adoc")
	}
	if _, ok := ForFile("README.MD").(*Splitter[Shape]); !ok {
		t.Errorf("expected markdown splitter for .MD")
	}
	if _, ok := ForFile("report.pdf").(*Splitter[Shape]); !ok {
		t.Errorf("expected markdown splitter for converted sources")
	}
}

func assertSections(t *testing.T, got, want []Section) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d sections, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("section[%d]: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestSplitter_FencesCloseOnMatchingMarker(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Section
	}{
		{
			name:  "backticks inside tilde fence",
			input: "## A\n~~~\n```\n## B\n~~~\n## C\nz",
			want: []Section{
				{Header: "A", Level: 2, Body: Leaf("~~~\n```\n## B\n~~~")},
				{Header: "C", Level: 2, Body: Leaf("z")},
			},
		},
		{
			name:  "four backtick fence",
			input: "## A\n````md\n```\n## B\n```\n````\n## C\nz",
			want: []Section{
				{Header: "A", Level: 2, Body: Leaf("````md\n```\n## B\n```\n````")},
				{Header: "C", Level: 2, Body: Leaf("z")},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, body, err := Markdown().Parse(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(body.Index(), []string{"A", "C"}) {
				t.Errorf("expected index [A C], got %v", body.Index())
			}
			assertSections(t, body.Content(), tt.want)
		})
	}
}

func TestSplitter_LeadingThematicBreak(t *testing.T) {
	meta, body, err := Markdown().Parse("---\nSome intro prose.\n\n---\n## A\nx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta != nil {
		t.Errorf("expected no meta, got %+v", meta)
	}
	assertSections(t, body.Content(), []Section{{Header: "A", Level: 2, Body: Leaf("x")}})
}

func TestSplitter_HeaderShapedFrontMatterComment(t *testing.T) {
	meta, body, err := Markdown().Parse("---\n## owner notes\nauthor: jo\n---\n# T\n## A\nx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.ID() != "T" {
		t.Errorf("expected title %q, got %q", "T", body.ID())
	}
	if !slices.Equal(body.Index(), []string{"A"}) {
		t.Errorf("expected index [A], got %v", body.Index())
	}
	if meta == nil || meta.String("author") != "jo" {
		t.Errorf("expected author from front matter, got %+v", meta)
	}
	assertSections(t, body.Content(), []Section{{Header: "A", Level: 2, Body: Leaf("x")}})
}

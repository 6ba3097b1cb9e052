package paper

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/csheth/posterize/internal/arxiv"
)

func TestDescribeUsesMetadata(t *testing.T) {
	t.Parallel()

	id, err := arxiv.ParseID("1706.03762")
	if err != nil {
		t.Fatalf("ParseID: %v", err)
	}
	meta := &arxiv.Metadata{
		ID:       id,
		Title:    "Attention Is All You Need",
		Authors:  []string{"Ashish Vaswani", "Noam Shazeer"},
		Abstract: "The dominant sequence transduction models...",
		Subjects: []string{"cs.CL"},
	}

	info := Describe(meta, "")
	if info.ID != "1706.03762" {
		t.Fatalf("ID = %q", info.ID)
	}
	if info.Title != meta.Title || info.Abstract != meta.Abstract {
		t.Fatalf("metadata not carried over: %#v", info)
	}
	if info.Pages != 0 || info.Excerpt != "" {
		t.Fatalf("expected no PDF-derived fields, got %#v", info)
	}
}

func TestDescribeToleratesUnreadablePDF(t *testing.T) {
	t.Parallel()

	bogus := filepath.Join(t.TempDir(), "bogus.pdf")
	if err := os.WriteFile(bogus, []byte("%PDF-1.4 definitely not a real pdf"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	info := Describe(nil, bogus)
	if info.Pages != 0 {
		t.Fatalf("pages = %d, want 0 for malformed pdf", info.Pages)
	}
}

func TestAuthorLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		authors []string
		want    string
	}{
		{"none", nil, ""},
		{"single", []string{"A. Author"}, "A. Author"},
		{"three", []string{"A", "B", "C"}, "A, B, C"},
		{"truncated", []string{"A", "B", "C", "D", "E"}, "A, B, C et al."},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			info := Info{Authors: tt.authors}
			if got := info.AuthorLine(); got != tt.want {
				t.Fatalf("AuthorLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClipTextRespectsRuneBoundaries(t *testing.T) {
	t.Parallel()

	clipped := clipText(strings.Repeat("가", 50), 10)
	if got := len([]rune(clipped)); got != 10 {
		t.Fatalf("clipped rune length = %d", got)
	}
}

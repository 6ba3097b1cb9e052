package poster

import (
	"errors"
	"strings"
	"testing"

	"github.com/csheth/posterize/internal/paper"
)

var testDocument = FileRef{URI: "https://files.example/doc", MIMEType: "application/pdf"}

func TestBuildRequestOmitsResolutionForFlash(t *testing.T) {
	t.Parallel()

	cfg := resolveConfig(t, Options{Model: "flash"})
	req, err := BuildRequest(cfg, paper.Info{}, testDocument, nil, "")
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if req.Resolution != "" {
		t.Fatalf("resolution = %q, want empty", req.Resolution)
	}
	if req.Model != "gemini-2.5-flash-image" {
		t.Fatalf("model = %q", req.Model)
	}
}

func TestBuildRequestCarriesResolutionForPro(t *testing.T) {
	t.Parallel()

	cfg := resolveConfig(t, Options{Model: "pro", Resolution: "4K"})
	req, err := BuildRequest(cfg, paper.Info{}, testDocument, nil, "")
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if req.Resolution != "4K" {
		t.Fatalf("resolution = %q, want 4K", req.Resolution)
	}
	if req.AspectRatio != "3:2" {
		t.Fatalf("aspect = %q", req.AspectRatio)
	}
}

func TestBuildRequestEnablesSearchOnlyForHistoryPanel(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		panel string
		want  bool
	}{
		{"", false},
		{"qa", false},
		{"history", true},
	} {
		cfg := resolveConfig(t, Options{SidePanel: tt.panel})
		req, err := BuildRequest(cfg, paper.Info{}, testDocument, nil, "")
		if err != nil {
			t.Fatalf("BuildRequest(%q): %v", tt.panel, err)
		}
		if req.EnableSearch != tt.want {
			t.Fatalf("EnableSearch for panel %q = %v, want %v", tt.panel, req.EnableSearch, tt.want)
		}
	}
}

func TestBuildRequestRevisionNeedsPriorPoster(t *testing.T) {
	t.Parallel()

	cfg := resolveConfig(t, Options{})
	_, err := BuildRequest(cfg, paper.Info{}, testDocument, nil, "what if")
	if !errors.Is(err, ErrRevisionPrecondition) {
		t.Fatalf("error = %v, want ErrRevisionPrecondition", err)
	}

	prior := &FileRef{URI: "https://files.example/prior", MIMEType: "image/png"}
	req, err := BuildRequest(cfg, paper.Info{}, testDocument, prior, "what if")
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if req.Prior == nil || req.Prior.URI != prior.URI {
		t.Fatalf("prior = %#v", req.Prior)
	}
	if req.RevisionNote == "" {
		t.Fatal("revision note missing")
	}
	if !strings.Contains(req.Prompt, "what if") {
		t.Fatal("prompt does not mention the what-if idea")
	}
}

func TestBuildRequestRejectsInconsistentConfig(t *testing.T) {
	t.Parallel()

	cfg := resolveConfig(t, Options{})
	cfg.AspectRatio = "7:5"
	if _, err := BuildRequest(cfg, paper.Info{}, testDocument, nil, ""); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("error = %v, want ErrInvalidOption", err)
	}

	cfg = resolveConfig(t, Options{})
	if _, err := BuildRequest(cfg, paper.Info{}, FileRef{}, nil, ""); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("missing document error = %v, want ErrInvalidOption", err)
	}
}

func TestBuildRequestPromptReflectsConfig(t *testing.T) {
	t.Parallel()

	cfg := resolveConfig(t, Options{Orientation: "portrait", Language: "Korean", SidePanel: "qa"})
	info := paper.Info{Title: "Attention Is All You Need", Authors: []string{"Vaswani"}, Pages: 15}
	req, err := BuildRequest(cfg, info, testDocument, nil, "")
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	for _, want := range []string{"Korean", "PORTRAIT", "4:3", "Q&A", "Attention Is All You Need", "15 pages"} {
		if !strings.Contains(req.Prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, req.Prompt)
		}
	}
	if strings.Contains(req.Prompt, "timeline") {
		t.Fatal("qa prompt should not contain the history panel block")
	}
}

func TestBuildRequestPromptCarriesAbstractAndExcerpt(t *testing.T) {
	t.Parallel()

	cfg := resolveConfig(t, Options{})
	info := paper.Info{
		Title:    "Attention Is All You Need",
		Abstract: "The dominant sequence transduction models are based on recurrence.",
		Excerpt:  "We propose a new simple network architecture, the Transformer.",
	}
	req, err := BuildRequest(cfg, info, testDocument, nil, "")
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if !strings.Contains(req.Prompt, info.Abstract) {
		t.Fatalf("prompt missing the abstract:\n%s", req.Prompt)
	}
	if !strings.Contains(req.Prompt, info.Excerpt) {
		t.Fatalf("prompt missing the PDF excerpt:\n%s", req.Prompt)
	}
}

func TestPaperContextClipsLongFields(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", contextFieldLimit+100)
	context := paperContext(paper.Info{Abstract: long})
	if strings.Contains(context, long) {
		t.Fatal("abstract was not clipped")
	}
	if !strings.Contains(context, long[:contextFieldLimit]+"…") {
		t.Fatal("clipped abstract missing from context")
	}
}

// Package pipeline sequences poster generation across a batch of papers.
//
// Items run sequentially: the output directory's variant scan needs a
// consistent filesystem snapshot, and the generation service rate limits make
// serialization the simpler-correct choice.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/csheth/posterize/internal/arxiv"
	"github.com/csheth/posterize/internal/gemini"
	"github.com/csheth/posterize/internal/paper"
	"github.com/csheth/posterize/internal/poster"
)

const (
	defaultFetchAttempts = 3
	defaultFetchDelay    = 2 * time.Second
)

// Source fetches a paper's PDF into the local cache.
type Source interface {
	Fetch(ctx context.Context, id arxiv.ID) (string, error)
}

// Service is the slice of the generation backend the pipeline needs.
// *gemini.Invoker satisfies it.
type Service interface {
	UploadFile(ctx context.Context, path, mimeType string) (gemini.File, error)
	DeleteFile(ctx context.Context, name string) error
	GenerateImage(ctx context.Context, req poster.Request) (gemini.Image, error)
}

// MetadataFunc fetches paper metadata; nil defaults to the arXiv API.
type MetadataFunc func(ctx context.Context, id arxiv.ID) (*arxiv.Metadata, error)

// Options are one invocation's raw inputs.
type Options struct {
	PaperIDs    []string
	Model       string
	Orientation string
	SidePanel   string
	Resolution  string
	Language    string
	OutputDir   string
	OutputFile  string
	WhatIf      string
}

// Validate resolves the option set without touching the filesystem or the
// network, surfacing the same errors Run would. Callers use it to fail on bad
// options before constructing clients or directories.
func (o Options) Validate() error {
	_, err := o.resolve()
	return err
}

func (o Options) resolve() (poster.Config, error) {
	if len(o.PaperIDs) == 0 {
		return poster.Config{}, fmt.Errorf("%w: no paper identifiers given", poster.ErrInvalidOption)
	}
	return poster.Resolve(poster.Options{
		Model:       o.Model,
		Orientation: o.Orientation,
		SidePanel:   o.SidePanel,
		Resolution:  o.Resolution,
		Language:    o.Language,
		OutputFile:  o.OutputFile,
		WhatIf:      o.WhatIf,
		PaperCount:  len(o.PaperIDs),
	})
}

// Result is one paper's terminal status: a written file or a classified error.
type Result struct {
	ID   string
	Path string
	Err  error
}

// Reason labels the failure class for reporting.
func (r Result) Reason() string {
	switch {
	case r.Err == nil:
		return ""
	case errors.Is(r.Err, arxiv.ErrInvalidIdentifier):
		return "invalid identifier"
	case errors.Is(r.Err, arxiv.ErrNotFound):
		return "not found on arXiv"
	case errors.Is(r.Err, arxiv.ErrFetch):
		return "download failed"
	case errors.Is(r.Err, poster.ErrRevisionPrecondition):
		return "missing base poster"
	case errors.Is(r.Err, gemini.ErrGeneration):
		return "generation failed"
	case errors.Is(r.Err, context.Canceled):
		return "canceled"
	default:
		return "failed"
	}
}

// Runner drives the per-paper pipeline. Zero-value collaborators get sane
// defaults except Source and Service, which are required.
type Runner struct {
	Source        Source
	Service       Service
	Metadata      MetadataFunc
	FetchAttempts int
	FetchDelay    time.Duration
	Logf          func(format string, args ...any)
}

// Run validates options once, then processes each identifier in order. A
// failing item is recorded and the batch continues; cancellation between
// items stops the run and returns what completed so far.
func (r *Runner) Run(ctx context.Context, opts Options) ([]Result, error) {
	cfg, err := opts.resolve()
	if err != nil {
		return nil, err
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = "outputs"
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(opts.PaperIDs))
	for _, raw := range opts.PaperIDs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, r.runOne(ctx, cfg, outputDir, opts, raw))
	}
	return results, nil
}

func (r *Runner) runOne(ctx context.Context, cfg poster.Config, outputDir string, opts Options, raw string) Result {
	id, err := arxiv.ParseID(raw)
	if err != nil {
		return Result{ID: raw, Err: err}
	}
	result := Result{ID: id.String()}

	whatIf := strings.TrimSpace(opts.WhatIf)
	priorPath := ""
	if whatIf != "" {
		// Check the revision precondition before any network activity.
		priorPath = poster.PriorPosterPath(outputDir, cfg, id.FileStem(), opts.OutputFile)
		if _, err := os.Stat(priorPath); err != nil {
			result.Err = fmt.Errorf("%w: generate the base poster first (expected %s)", poster.ErrRevisionPrecondition, priorPath)
			return result
		}
	}

	r.logf("downloading %s (%s)", id, id.AbsURL())
	pdfPath, err := r.fetchWithRetry(ctx, id)
	if err != nil {
		result.Err = err
		return result
	}

	meta, err := r.metadata(ctx, id)
	if err != nil {
		result.Err = err
		return result
	}
	info := paper.Describe(meta, pdfPath)
	r.logf("fetched %q (%s)", info.Title, info.AuthorLine())

	document, err := r.Service.UploadFile(ctx, pdfPath, "application/pdf")
	if err != nil {
		result.Err = err
		return result
	}
	defer r.cleanup(document.Name)

	var prior *poster.FileRef
	if priorPath != "" {
		uploaded, err := r.Service.UploadFile(ctx, priorPath, "image/png")
		if err != nil {
			result.Err = err
			return result
		}
		defer r.cleanup(uploaded.Name)
		prior = &poster.FileRef{URI: uploaded.URI, MIMEType: uploaded.MIMEType}
	}

	req, err := poster.BuildRequest(cfg, info,
		poster.FileRef{URI: document.URI, MIMEType: document.MIMEType}, prior, whatIf)
	if err != nil {
		result.Err = err
		return result
	}

	r.logf("generating poster for %s (%s, %s)", id, cfg.Orientation, cfg.AspectRatio)
	image, err := r.Service.GenerateImage(ctx, req)
	if err != nil {
		result.Err = err
		return result
	}

	// The output path is resolved after generation so a failed call never
	// consumes a variant index; the directory scan is the source of truth.
	target, err := poster.ResolveTarget(outputDir, cfg, id.FileStem(), opts.OutputFile, whatIf)
	if err != nil {
		result.Err = err
		return result
	}
	if err := os.MkdirAll(filepath.Dir(target.Path), 0o755); err != nil {
		result.Err = err
		return result
	}
	if err := os.WriteFile(target.Path, image.Data, 0o644); err != nil {
		result.Err = err
		return result
	}
	result.Path = target.Path
	return result
}

// fetchWithRetry retries only transient download failures; not-found is
// surfaced immediately.
func (r *Runner) fetchWithRetry(ctx context.Context, id arxiv.ID) (string, error) {
	attempts := r.FetchAttempts
	if attempts <= 0 {
		attempts = defaultFetchAttempts
	}
	delay := r.FetchDelay
	if delay <= 0 {
		delay = defaultFetchDelay
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		path, err := r.Source.Fetch(ctx, id)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, arxiv.ErrFetch) {
			return "", err
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		r.logf("download failed (%v), retrying", err)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return "", lastErr
}

func (r *Runner) metadata(ctx context.Context, id arxiv.ID) (*arxiv.Metadata, error) {
	if r.Metadata != nil {
		return r.Metadata(ctx, id)
	}
	return arxiv.FetchMetadata(ctx, nil, id)
}

// cleanup deletes an uploaded artifact. Best effort: the poster already
// succeeded or failed by the time this runs.
func (r *Runner) cleanup(name string) {
	if name == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := r.Service.DeleteFile(ctx, name); err != nil {
		r.logf("cleanup of %s failed: %v", name, err)
	}
}

func (r *Runner) logf(format string, args ...any) {
	if r.Logf != nil {
		r.Logf(format, args...)
	}
}

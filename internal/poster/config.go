// Package poster resolves generation configurations and output targets.
//
// Variant-index resolution scans the output directory and is only safe when a
// single process targets a given directory and configuration at a time;
// concurrent invocations must serialize externally.
package poster

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Model selects the image-generation backend variant.
type Model string

const (
	ModelPro   Model = "pro"
	ModelFlash Model = "flash"
)

// APIName maps the model to its service identifier.
func (m Model) APIName() string {
	switch m {
	case ModelPro:
		return "gemini-3-pro-image-preview"
	case ModelFlash:
		return "gemini-2.5-flash-image"
	default:
		return ""
	}
}

// SupportsResolution reports whether the model accepts an image-size knob.
// Flash never does.
func (m Model) SupportsResolution() bool {
	return m == ModelPro
}

// Orientation is the poster's page orientation.
type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

// SidePanel selects the optional secondary region composed next to the poster.
type SidePanel string

const (
	PanelNone    SidePanel = ""
	PanelQA      SidePanel = "qa"
	PanelHistory SidePanel = "history"
)

// Resolution is the requested output image size. Pro only.
type Resolution string

const (
	Res1K Resolution = "1K"
	Res2K Resolution = "2K"
	Res4K Resolution = "4K"
)

const (
	defaultLanguage   = "English"
	defaultResolution = Res2K
)

// supportedAspectRatios is the full set the generation service accepts.
var supportedAspectRatios = map[string]bool{
	"1:1": true, "2:3": true, "3:2": true, "3:4": true, "4:3": true,
	"4:5": true, "5:4": true, "9:16": true, "16:9": true, "21:9": true,
}

var whitespaceRe = regexp.MustCompile(`\s+`)

var (
	// ErrInvalidOption reports a value outside its enumerated set.
	ErrInvalidOption = errors.New("invalid option")
	// ErrIncompatibleOption reports a valid option the chosen model cannot honor.
	ErrIncompatibleOption = errors.New("incompatible option")
	// ErrConflictingOptions reports options that cannot be combined in one run.
	ErrConflictingOptions = errors.New("conflicting options")
	// ErrRevisionPrecondition reports a what-if request with no base poster on disk.
	ErrRevisionPrecondition = errors.New("no existing poster to revise")
)

// Options are the raw CLI-level inputs to Resolve.
type Options struct {
	Model       string
	Orientation string
	SidePanel   string
	Resolution  string // empty means model default
	Language    string
	OutputFile  string // explicit filename override, single-paper runs only
	WhatIf      string // revision guidance text, single-paper runs only
	PaperCount  int
}

// Config is the immutable generation configuration for one run. Revisions get
// a fresh Config plus a reference to the prior artifact; the original is
// never mutated.
type Config struct {
	Model       Model
	Orientation Orientation
	SidePanel   SidePanel
	Resolution  Resolution // empty when the model rejects it
	Language    string     // display form, used verbatim in the prompt
	AspectRatio string     // derived, never user-set
}

// Resolve merges options with defaults and the capability matrix. Pure
// validation and derivation; the first failing rule wins and nothing here
// performs I/O.
func Resolve(opts Options) (Config, error) {
	model := Model(strings.TrimSpace(opts.Model))
	if model == "" {
		model = ModelPro
	}
	switch model {
	case ModelPro, ModelFlash:
	default:
		return Config{}, fmt.Errorf("%w: unknown model %q (want pro or flash)", ErrInvalidOption, opts.Model)
	}

	var resolution Resolution
	if raw := strings.TrimSpace(opts.Resolution); raw != "" {
		if !model.SupportsResolution() {
			return Config{}, fmt.Errorf("%w: model %s does not accept a resolution", ErrIncompatibleOption, model)
		}
		switch Resolution(raw) {
		case Res1K, Res2K, Res4K:
			resolution = Resolution(raw)
		default:
			return Config{}, fmt.Errorf("%w: unknown resolution %q (want 1K, 2K, or 4K)", ErrInvalidOption, raw)
		}
	} else if model.SupportsResolution() {
		resolution = defaultResolution
	}

	orientation := Orientation(strings.TrimSpace(opts.Orientation))
	if orientation == "" {
		orientation = Landscape
	}
	switch orientation {
	case Landscape, Portrait:
	default:
		return Config{}, fmt.Errorf("%w: unknown orientation %q (want landscape or portrait)", ErrInvalidOption, opts.Orientation)
	}

	panel := SidePanel(strings.TrimSpace(opts.SidePanel))
	switch panel {
	case PanelNone, PanelQA, PanelHistory:
	case SidePanel("none"):
		panel = PanelNone
	default:
		return Config{}, fmt.Errorf("%w: unknown side panel %q (want qa or history)", ErrInvalidOption, opts.SidePanel)
	}

	aspect := aspectFor(orientation, panel)
	if !supportedAspectRatios[aspect] {
		// Unreachable while the table below stays within the supported set;
		// guards future table edits.
		return Config{}, fmt.Errorf("%w: derived aspect ratio %q is unsupported", ErrInvalidOption, aspect)
	}

	// The language is kept verbatim for the prompt; LanguageSlug normalizes
	// it separately for filenames.
	language := opts.Language
	if language == "" {
		language = defaultLanguage
	}
	if strings.TrimSpace(language) == "" {
		return Config{}, fmt.Errorf("%w: language must not be empty", ErrInvalidOption)
	}

	if opts.OutputFile != "" && opts.PaperCount > 1 {
		return Config{}, fmt.Errorf("%w: an explicit output filename only works with a single paper", ErrConflictingOptions)
	}
	if strings.TrimSpace(opts.WhatIf) != "" && opts.PaperCount > 1 {
		return Config{}, fmt.Errorf("%w: a what-if revision only works with a single paper", ErrConflictingOptions)
	}

	return Config{
		Model:       model,
		Orientation: orientation,
		SidePanel:   panel,
		Resolution:  resolution,
		Language:    language,
		AspectRatio: aspect,
	}, nil
}

// aspectFor is the fixed orientation x side-panel lookup. Panels force the
// wider side-by-side ratios.
func aspectFor(o Orientation, p SidePanel) string {
	if p != PanelNone {
		if o == Landscape {
			return "21:9"
		}
		return "4:3"
	}
	if o == Landscape {
		return "3:2"
	}
	return "3:4"
}

// LanguageSlug renders a language name for filenames: lower-cased, runs of
// whitespace collapsed to single underscores.
func LanguageSlug(language string) string {
	slug := strings.ToLower(strings.TrimSpace(language))
	return whitespaceRe.ReplaceAllString(slug, "_")
}

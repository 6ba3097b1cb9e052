package poster

import (
	"fmt"
	"strings"

	"github.com/csheth/posterize/internal/paper"
)

// revisionNote steers the model toward treating the prior poster as the
// styling and structure reference.
const revisionNote = "REFERENCE: the uploaded image above is the existing poster. " +
	"Use it as a reference and incorporate the 'what if' idea while maintaining " +
	"the overall structure and style."

// FileRef points at an artifact already uploaded to the generation service.
type FileRef struct {
	URI      string
	MIMEType string
}

// Request is the fully specified generation call. Assembling one performs no
// network I/O.
type Request struct {
	Model        string // service model identifier
	Prompt       string
	Document     FileRef
	Prior        *FileRef // prior poster, revisions only
	RevisionNote string   // accompanies Prior
	AspectRatio  string
	Resolution   string // empty means the knob is omitted
	EnableSearch bool   // research-history panel needs live search
}

// BuildRequest assembles the service payload from a resolved config, the
// paper's context, and uploaded artifact references. The consistency checks
// are defensive; Resolve already guarantees them.
func BuildRequest(cfg Config, info paper.Info, document FileRef, prior *FileRef, whatIf string) (Request, error) {
	if cfg.Model.APIName() == "" {
		return Request{}, fmt.Errorf("%w: config has no model", ErrInvalidOption)
	}
	if !supportedAspectRatios[cfg.AspectRatio] {
		return Request{}, fmt.Errorf("%w: config aspect ratio %q is unsupported", ErrInvalidOption, cfg.AspectRatio)
	}
	if cfg.Resolution != "" && !cfg.Model.SupportsResolution() {
		return Request{}, fmt.Errorf("%w: model %s does not accept a resolution", ErrIncompatibleOption, cfg.Model)
	}
	if document.URI == "" {
		return Request{}, fmt.Errorf("%w: missing document reference", ErrInvalidOption)
	}

	whatIf = strings.TrimSpace(whatIf)
	if whatIf != "" && prior == nil {
		return Request{}, fmt.Errorf("%w: a what-if revision needs the prior poster", ErrRevisionPrecondition)
	}

	req := Request{
		Model:        cfg.Model.APIName(),
		Prompt:       buildPosterPrompt(cfg, info, whatIf),
		Document:     document,
		AspectRatio:  cfg.AspectRatio,
		Resolution:   string(cfg.Resolution),
		EnableSearch: cfg.SidePanel == PanelHistory,
	}
	if whatIf != "" {
		req.Prior = prior
		req.RevisionNote = revisionNote
	}
	return req, nil
}

package arxiv

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const arxivHost = "https://arxiv.org"

// ErrInvalidIdentifier reports input that cannot be an arXiv identifier.
var ErrInvalidIdentifier = errors.New("invalid arXiv identifier")

var (
	// New-style identifier, optionally qualified by a category (cs.CV/2301.12345)
	// and a version suffix (2308.01234v2).
	idRegexp  = regexp.MustCompile(`^(?:([A-Za-z][A-Za-z0-9-]*(?:\.[A-Za-z0-9-]+)*)/)?([0-9]{4}\.[0-9]{4,5}(?:v[0-9]+)?)$`)
	urlRegexp = regexp.MustCompile(`(?i)arxiv\.org/(?:abs|pdf)/(.+?)(?:\.pdf)?$`)
)

// ID is a validated, canonical arXiv paper identifier. The category segment,
// when present, only affects the fetch URLs; filenames use the numeric part.
type ID struct {
	category string
	number   string
}

// ParseID validates and canonicalizes a raw identifier. It accepts bare IDs,
// an "arxiv:" prefix, and abs/pdf arXiv URLs. Canonicalization trims
// whitespace and lower-cases the category segment only.
func ParseID(raw string) (ID, error) {
	input := strings.TrimSpace(raw)
	if matches := urlRegexp.FindStringSubmatch(input); len(matches) > 1 {
		input = matches[1]
	}
	if len(input) >= len("arxiv:") && strings.EqualFold(input[:len("arxiv:")], "arxiv:") {
		input = input[len("arxiv:"):]
	}
	input = strings.TrimSpace(input)

	matches := idRegexp.FindStringSubmatch(input)
	if matches == nil {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, raw)
	}
	return ID{category: strings.ToLower(matches[1]), number: matches[2]}, nil
}

// String returns the canonical form, category segment included.
func (id ID) String() string {
	if id.category != "" {
		return id.category + "/" + id.number
	}
	return id.number
}

// Key returns a filesystem-safe cache key for the identifier.
func (id ID) Key() string {
	return strings.ReplaceAll(id.String(), "/", "-")
}

// FileStem returns the numeric part used in output filenames.
func (id ID) FileStem() string {
	return id.number
}

// PDFURL returns the deterministic download URL for the paper's PDF.
func (id ID) PDFURL() string {
	return arxivHost + id.pdfRef()
}

// AbsURL returns the abstract page URL.
func (id ID) AbsURL() string {
	return arxivHost + "/abs/" + id.String()
}

// IsZero reports whether the ID was never parsed.
func (id ID) IsZero() bool {
	return id.number == ""
}

func (id ID) pdfRef() string {
	return "/pdf/" + id.String() + ".pdf"
}

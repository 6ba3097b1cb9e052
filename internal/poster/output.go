package poster

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Target is a resolved output location for one generation attempt. The file
// itself is only written after a successful generation, so a failed attempt
// never reserves a variant slot.
type Target struct {
	Path      string
	PriorPath string // base poster a revision builds on; empty otherwise
	Variant   int    // 0 for the base poster
}

// BasePath computes the default output filename. A pure function of the
// config and paper stem; no filesystem probing.
func BasePath(dir string, cfg Config, stem string) string {
	name := fmt.Sprintf("poster_%s_%s_%s_%s.png",
		stem, cfg.Orientation, LanguageSlug(cfg.Language), panelSuffix(cfg.SidePanel))
	return filepath.Join(dir, name)
}

func panelSuffix(p SidePanel) string {
	if p == PanelNone {
		return "nopanel"
	}
	return string(p)
}

// PriorPosterPath returns where the base poster for this config must already
// live for a revision to proceed. Custom names bypass the formula but still
// resolve under the output directory.
func PriorPosterPath(dir string, cfg Config, stem, customName string) string {
	if customName == "" {
		return BasePath(dir, cfg, stem)
	}
	if filepath.IsAbs(customName) {
		return customName
	}
	return filepath.Join(dir, customName)
}

// ResolveTarget decides where this attempt's image lands. For revisions the
// base poster must exist and the next free variant index is recomputed from
// the directory listing; the filesystem is the only durable counter.
func ResolveTarget(dir string, cfg Config, stem, customName, whatIf string) (Target, error) {
	base := PriorPosterPath(dir, cfg, stem, customName)
	if strings.TrimSpace(whatIf) == "" {
		return Target{Path: base}, nil
	}

	if _, err := os.Stat(base); err != nil {
		return Target{}, fmt.Errorf("%w: generate the base poster first (expected %s)", ErrRevisionPrecondition, base)
	}
	path, variant, err := NextVariantPath(base)
	if err != nil {
		return Target{}, err
	}
	return Target{Path: path, PriorPath: base, Variant: variant}, nil
}

// NextVariantPath scans the base poster's directory for _var_<n> siblings and
// returns the path one past the highest existing index (1 when none exist).
// Deleted holes are never reused.
func NextVariantPath(basePath string) (string, int, error) {
	dir := filepath.Dir(basePath)
	file := filepath.Base(basePath)
	ext := filepath.Ext(file)
	stem := strings.TrimSuffix(file, ext)

	variantRe, err := regexp.Compile("^" + regexp.QuoteMeta(stem) + `_var_([0-9]+)` + regexp.QuoteMeta(ext) + "$")
	if err != nil {
		return "", 0, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", 0, err
	}
	highest := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matches := variantRe.FindStringSubmatch(entry.Name())
		if matches == nil {
			continue
		}
		n, err := strconv.Atoi(matches[1])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}

	next := highest + 1
	return filepath.Join(dir, fmt.Sprintf("%s_var_%d%s", stem, next, ext)), next, nil
}

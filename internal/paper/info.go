// Package paper condenses arXiv metadata and PDF-derived facts into the
// context block handed to the poster prompt.
package paper

import (
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/csheth/posterize/internal/arxiv"
)

const (
	maxExcerptChars = 2_000
	maxAuthorsShown = 3
)

var extraneousWhitespace = regexp.MustCompile(`\s+`)

// Info carries everything the prompt needs to know about a paper.
type Info struct {
	ID       string
	Title    string
	Authors  []string
	Abstract string
	Subjects []string
	Pages    int
	Excerpt  string
}

// Describe merges API metadata with facts read from the local PDF. PDF
// parsing is best effort: a malformed file degrades to metadata only.
func Describe(meta *arxiv.Metadata, pdfPath string) Info {
	info := Info{}
	if meta != nil {
		info.ID = meta.ID.String()
		info.Title = meta.Title
		info.Authors = append([]string(nil), meta.Authors...)
		info.Abstract = meta.Abstract
		info.Subjects = append([]string(nil), meta.Subjects...)
	}
	if pdfPath != "" {
		info.Pages, info.Excerpt = inspectPDF(pdfPath)
	}
	return info
}

// AuthorLine renders the first few authors for display and prompting.
func (i Info) AuthorLine() string {
	if len(i.Authors) == 0 {
		return ""
	}
	if len(i.Authors) <= maxAuthorsShown {
		return strings.Join(i.Authors, ", ")
	}
	return strings.Join(i.Authors[:maxAuthorsShown], ", ") + " et al."
}

func inspectPDF(path string) (pages int, excerpt string) {
	// The pdf package panics on some malformed files.
	defer func() {
		if recover() != nil {
			pages, excerpt = 0, ""
		}
	}()

	file, reader, err := pdf.Open(path)
	if err != nil {
		return 0, ""
	}
	defer file.Close()

	pages = reader.NumPage()

	content, err := reader.GetPlainText()
	if err != nil {
		return pages, ""
	}
	var builder strings.Builder
	if _, err := io.Copy(&builder, io.LimitReader(content, maxExcerptChars*4)); err != nil {
		return pages, ""
	}
	text := extraneousWhitespace.ReplaceAllString(strings.TrimSpace(builder.String()), " ")
	return pages, clipText(text, maxExcerptChars)
}

func clipText(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

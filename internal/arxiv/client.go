package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const apiEndpoint = "https://export.arxiv.org/api/query"

var extraneousWhitespace = regexp.MustCompile(`\s+`)

// Metadata is the subset of the arXiv Atom API payload used for posters.
type Metadata struct {
	ID       ID
	Title    string
	Authors  []string
	Abstract string
	Subjects []string
}

// FetchMetadata queries the arXiv API for the paper's metadata. A well-formed
// feed with no entries means the identifier does not exist upstream.
func FetchMetadata(ctx context.Context, client *http.Client, id ID) (*Metadata, error) {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	url := fmt.Sprintf("%s?id_list=%s", apiEndpoint, id.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: arxiv API %s (%s)", ErrFetch, resp.Status, strings.TrimSpace(string(body)))
	}

	entry, err := decodeEntry(resp.Body)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		authors = append(authors, strings.TrimSpace(a.Name))
	}
	subjects := make([]string, 0, len(entry.Categories))
	for _, cat := range entry.Categories {
		subjects = append(subjects, strings.TrimSpace(cat.Term))
	}

	return &Metadata{
		ID:       id,
		Title:    normalizeWhitespace(entry.Title),
		Authors:  authors,
		Abstract: normalizeWhitespace(entry.Summary),
		Subjects: subjects,
	}, nil
}

type apiFeed struct {
	Entries []apiEntry `xml:"entry"`
}

type apiEntry struct {
	ID         string        `xml:"id"`
	Title      string        `xml:"title"`
	Summary    string        `xml:"summary"`
	Authors    []apiAuthor   `xml:"author"`
	Categories []apiCategory `xml:"category"`
}

type apiAuthor struct {
	Name string `xml:"name"`
}

type apiCategory struct {
	Term string `xml:"term,attr"`
}

func decodeEntry(reader io.Reader) (*apiEntry, error) {
	var feed apiFeed
	if err := xml.NewDecoder(reader).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to decode arxiv response: %w", err)
	}
	if len(feed.Entries) == 0 {
		return nil, nil
	}
	return &feed.Entries[0], nil
}

func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	return extraneousWhitespace.ReplaceAllString(strings.TrimSpace(s), " ")
}

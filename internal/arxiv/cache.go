package arxiv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	cacheEnvVar        = "POSTERIZE_CACHE_DIR"
	cacheSubdir        = "posterize/pdfs"
	partialSuffix      = ".part"
	defaultHTTPTimeout = 90 * time.Second
)

var (
	// ErrNotFound means the remote reports the identifier does not exist. Never retried.
	ErrNotFound = errors.New("paper not found")
	// ErrFetch covers network and server failures. Callers may retry a bounded number of times.
	ErrFetch = errors.New("pdf fetch failed")
)

var pdfMagic = []byte("%PDF")

// Cache is an on-disk store of downloaded paper PDFs, keyed by canonical
// identifier. Cached artifacts are trusted indefinitely; there is no TTL and
// no invalidation.
type Cache struct {
	dir     string
	client  *http.Client
	baseURL string
}

// NewCache opens (creating if needed) the cache directory. The directory comes
// from POSTERIZE_CACHE_DIR or the user cache dir. A nil client gets a default
// with a download timeout.
func NewCache(client *http.Client) (*Cache, error) {
	dir := os.Getenv(cacheEnvVar)
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = filepath.Join(os.TempDir(), "posterize-cache")
		}
		dir = filepath.Join(base, cacheSubdir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Cache{dir: dir, client: client, baseURL: arxivHost}, nil
}

// Path returns where the cached PDF for id lives, whether or not it exists yet.
func (c *Cache) Path(id ID) string {
	return filepath.Join(c.dir, id.Key()+".pdf")
}

// Fetch returns the local path for the paper's PDF, downloading it on a cache
// miss. A hit returns immediately without touching the network.
func (c *Cache) Fetch(ctx context.Context, id ID) (string, error) {
	pdfPath := c.Path(id)
	if info, err := os.Stat(pdfPath); err == nil && info.Size() > 0 {
		return pdfPath, nil
	}
	return c.download(ctx, id, pdfPath)
}

func (c *Cache) download(ctx context.Context, id ID, pdfPath string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+id.pdfRef(), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: %s (%s)", ErrFetch, resp.Status, strings.TrimSpace(string(body)))
	}

	return c.save(resp, pdfPath)
}

// save streams the body through a .part file and renames it into place, so a
// failed download never leaves a bad artifact at the final path.
func (c *Cache) save(resp *http.Response, pdfPath string) (string, error) {
	partialPath := pdfPath + partialSuffix
	file, err := os.OpenFile(partialPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", err
	}
	size, err := io.Copy(file, resp.Body)
	if err != nil {
		file.Close()
		os.Remove(partialPath)
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(partialPath)
		return "", err
	}

	if err := verifyPDF(partialPath, size, resp.Header.Get("Content-Type")); err != nil {
		os.Remove(partialPath)
		return "", err
	}
	if err := os.Rename(partialPath, pdfPath); err != nil {
		return "", err
	}
	return pdfPath, nil
}

func verifyPDF(path string, size int64, contentType string) error {
	if size == 0 {
		return fmt.Errorf("%w: empty response body", ErrFetch)
	}
	header := make([]byte, len(pdfMagic))
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := io.ReadFull(file, header); err != nil {
		return fmt.Errorf("%w: short response body", ErrFetch)
	}
	if bytes.Equal(header, pdfMagic) {
		return nil
	}
	if strings.HasPrefix(contentType, "application/pdf") {
		return nil
	}
	return fmt.Errorf("%w: response is not a PDF (content type %q)", ErrFetch, contentType)
}

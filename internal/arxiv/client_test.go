package arxiv

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <title>Attention Is All
 You Need</title>
    <summary>  The dominant sequence transduction models are based on complex
 recurrent or convolutional neural networks.  </summary>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <category term="cs.CL"/>
    <category term="cs.LG"/>
  </entry>
</feed>`

const emptyFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"></feed>`

func TestDecodeEntry(t *testing.T) {
	t.Parallel()

	entry, err := decodeEntry(strings.NewReader(sampleFeed))
	if err != nil {
		t.Fatalf("decodeEntry: %v", err)
	}
	if entry == nil {
		t.Fatal("expected an entry")
	}
	if got := normalizeWhitespace(entry.Title); got != "Attention Is All You Need" {
		t.Fatalf("title = %q", got)
	}
	if len(entry.Authors) != 2 || entry.Authors[0].Name != "Ashish Vaswani" {
		t.Fatalf("authors = %#v", entry.Authors)
	}
	if len(entry.Categories) != 2 || entry.Categories[0].Term != "cs.CL" {
		t.Fatalf("categories = %#v", entry.Categories)
	}
}

func TestDecodeEntryEmptyFeed(t *testing.T) {
	t.Parallel()

	entry, err := decodeEntry(strings.NewReader(emptyFeed))
	if err != nil {
		t.Fatalf("decodeEntry: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected nil entry, got %#v", entry)
	}
}

func TestFetchMetadataNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(emptyFeed))
	}))
	t.Cleanup(server.Close)

	// Point the request at the test server by swapping the client transport.
	client := &http.Client{Transport: rewriteTransport{target: server.URL}}
	_, err := FetchMetadata(context.Background(), client, ID{number: "2101.00001"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestFetchMetadataParsesFeed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id_list"); got != "1706.03762" {
			t.Errorf("id_list = %q", got)
		}
		_, _ = w.Write([]byte(sampleFeed))
	}))
	t.Cleanup(server.Close)

	client := &http.Client{Transport: rewriteTransport{target: server.URL}}
	meta, err := FetchMetadata(context.Background(), client, ID{number: "1706.03762"})
	if err != nil {
		t.Fatalf("FetchMetadata: %v", err)
	}
	if meta.Title != "Attention Is All You Need" {
		t.Fatalf("title = %q", meta.Title)
	}
	if !strings.HasPrefix(meta.Abstract, "The dominant sequence") {
		t.Fatalf("abstract = %q", meta.Abstract)
	}
	if len(meta.Subjects) != 2 {
		t.Fatalf("subjects = %#v", meta.Subjects)
	}
}

// rewriteTransport redirects every request to the test server.
type rewriteTransport struct {
	target string
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	redirected := *req
	u := *req.URL
	u.Scheme = "http"
	u.Host = strings.TrimPrefix(rt.target, "http://")
	redirected.URL = &u
	return http.DefaultTransport.RoundTrip(&redirected)
}

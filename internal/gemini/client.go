// Package gemini calls the Gemini generative API: File API uploads plus
// image generation, with failures classified for retry decisions.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/csheth/posterize/internal/poster"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	// Image generation regularly takes over a minute; rely on the caller's
	// context for cancellation.
	defaultHTTPTimeout = 5 * time.Minute
)

// ErrGeneration means the service failed or declined to produce an image.
var ErrGeneration = errors.New("poster generation failed")

// errTransient marks failures worth another attempt: rate limits, server
// errors, and network hiccups.
var errTransient = errors.New("transient service failure")

// Client is a thin REST client for the generative API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient builds a client. An empty key falls back to GEMINI_API_KEY then
// GOOGLE_API_KEY. A nil http.Client gets a generation-friendly timeout.
func NewClient(apiKey string, httpClient *http.Client) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("API key missing: set GEMINI_API_KEY or GOOGLE_API_KEY, or pass --api-key")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{apiKey: apiKey, baseURL: defaultBaseURL, client: httpClient}, nil
}

// File is an artifact uploaded to the service's File API.
type File struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType"`
}

// Image is a generated image payload.
type Image struct {
	Data     []byte
	MIMEType string
}

// UploadFile pushes a local file through the resumable upload flow and
// returns its File API handle.
func (c *Client) UploadFile(ctx context.Context, path, mimeType string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}

	uploadURL, err := c.startUpload(ctx, filepath.Base(path), mimeType, len(data))
	if err != nil {
		return File{}, err
	}
	return c.finishUpload(ctx, uploadURL, mimeType, data)
}

func (c *Client) startUpload(ctx context.Context, displayName, mimeType string, size int) (string, error) {
	payload := map[string]any{
		"file": map[string]string{"display_name": displayName},
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload/v1beta/files", bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("X-Goog-Upload-Protocol", "resumable")
	req.Header.Set("X-Goog-Upload-Command", "start")
	req.Header.Set("X-Goog-Upload-Header-Content-Length", strconv.Itoa(size))
	req.Header.Set("X-Goog-Upload-Header-Content-Type", mimeType)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errTransient, err)
	}
	defer resp.Body.Close()
	if err := classifyStatus(resp, "file upload start"); err != nil {
		return "", err
	}

	uploadURL := resp.Header.Get("X-Goog-Upload-URL")
	if uploadURL == "" {
		return "", fmt.Errorf("file upload start returned no upload URL")
	}
	return uploadURL, nil
}

func (c *Client) finishUpload(ctx context.Context, uploadURL, mimeType string, data []byte) (File, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return File{}, err
	}
	req.Header.Set("X-Goog-Upload-Offset", "0")
	req.Header.Set("X-Goog-Upload-Command", "upload, finalize")
	req.Header.Set("Content-Type", mimeType)

	resp, err := c.client.Do(req)
	if err != nil {
		return File{}, fmt.Errorf("%w: %v", errTransient, err)
	}
	defer resp.Body.Close()
	if err := classifyStatus(resp, "file upload"); err != nil {
		return File{}, err
	}

	var parsed struct {
		File File `json:"file"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return File{}, fmt.Errorf("failed to decode upload response: %w", err)
	}
	if parsed.File.URI == "" {
		return File{}, fmt.Errorf("upload response carried no file URI")
	}
	return parsed.File, nil
}

// DeleteFile removes an uploaded artifact. Callers treat failures as
// best-effort cleanup.
func (c *Client) DeleteFile(ctx context.Context, name string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/v1beta/"+name, nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("file delete failed: %s", resp.Status)
	}
	return nil
}

type generatePayload struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	Tools            []tool           `json:"tools,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	FileData   *fileData   `json:"fileData,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type fileData struct {
	FileURI  string `json:"fileUri"`
	MIMEType string `json:"mimeType"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio"`
	ImageSize   string `json:"imageSize,omitempty"`
}

type tool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

// GenerateImage performs one generation call. A response without an image
// part means the service declined; that outcome is never retried.
func (c *Client) GenerateImage(ctx context.Context, genReq poster.Request) (Image, error) {
	payload := buildPayload(genReq)
	buf, err := json.Marshal(payload)
	if err != nil {
		return Image{}, err
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, genReq.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf))
	if err != nil {
		return Image{}, err
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", errTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", errTransient, err)
	}
	if resp.StatusCode >= 400 {
		return Image{}, classifyStatusBody(resp.StatusCode, resp.Status, body, "generation")
	}

	return extractImage(body)
}

func buildPayload(genReq poster.Request) generatePayload {
	parts := []part{
		{FileData: &fileData{FileURI: genReq.Document.URI, MIMEType: genReq.Document.MIMEType}},
	}
	if genReq.Prior != nil {
		parts = append(parts,
			part{FileData: &fileData{FileURI: genReq.Prior.URI, MIMEType: genReq.Prior.MIMEType}},
			part{Text: genReq.RevisionNote},
		)
	}
	parts = append(parts, part{Text: genReq.Prompt})

	payload := generatePayload{
		Contents: []content{{Parts: parts}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
			ImageConfig: &imageConfig{
				AspectRatio: genReq.AspectRatio,
				ImageSize:   genReq.Resolution,
			},
		},
	}
	if genReq.EnableSearch {
		payload.Tools = []tool{{GoogleSearch: &struct{}{}}}
	}
	return payload
}

func extractImage(body []byte) (Image, error) {
	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []part `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Image{}, fmt.Errorf("failed to decode generation response: %w", err)
	}

	for _, candidate := range parsed.Candidates {
		for _, p := range candidate.Content.Parts {
			if p.InlineData == nil || !strings.HasPrefix(p.InlineData.MIMEType, "image/") {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return Image{}, fmt.Errorf("failed to decode image payload: %w", err)
			}
			if len(data) == 0 {
				continue
			}
			return Image{Data: data, MIMEType: p.InlineData.MIMEType}, nil
		}
	}
	return Image{}, fmt.Errorf("%w: service returned no image", ErrGeneration)
}

func classifyStatus(resp *http.Response, operation string) error {
	if resp.StatusCode < 400 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return classifyStatusBody(resp.StatusCode, resp.Status, body, operation)
}

// classifyStatusBody sorts HTTP failures into retryable and fatal. Rate
// limits and server-side errors are transient; auth and invalid-argument
// failures are not.
func classifyStatusBody(code int, status string, body []byte, operation string) error {
	detail := strings.TrimSpace(string(body))
	if len(detail) > 512 {
		detail = detail[:512]
	}
	if code == http.StatusTooManyRequests || code >= 500 {
		return fmt.Errorf("%w: %s %s (%s)", errTransient, operation, status, detail)
	}
	return fmt.Errorf("%w: %s %s (%s)", ErrGeneration, operation, status, detail)
}

// Package extractor is a client for the document extraction service that
// classifies an uploaded document and returns its labeled fields.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/docfill/internal/model"
	"github.com/sells-group/docfill/internal/resilience"
)

// Client defines the extraction service operations.
type Client interface {
	// Analyze uploads a document and returns the decoded response along with
	// the verbatim body.
	Analyze(ctx context.Context, up Upload) (*model.AnalysisResponse, []byte, error)
}

// Upload is one document to analyze.
type Upload struct {
	Name      string
	MediaType string
	Data      []byte
}

// UploadFile reads path into an Upload. The media type is guessed from the
// extension, then from the content.
func UploadFile(path string) (Upload, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return Upload{}, eris.Wrapf(err, "extractor: read %s", path)
	}
	mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mt == "" {
		mt = http.DetectContentType(data)
	}
	return Upload{Name: filepath.Base(path), MediaType: mt, Data: data}, nil
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets the service base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithAPIKey sends key as a bearer token.
func WithAPIKey(key string) Option {
	return func(c *httpClient) { c.apiKey = key }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit limits requests to perSecond with the given burst. Zero
// disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *httpClient) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithRetry sets the retry policy.
func WithRetry(p resilience.Policy) Option {
	return func(c *httpClient) { c.retry = p }
}

type httpClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.Policy
}

// NewClient creates an extraction service client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: "http://localhost:8000",
		http:    &http.Client{Timeout: 120 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
		retry:   resilience.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.LogRetry("extractor", "analyze")
	}
	return c
}

func (c *httpClient) Analyze(ctx context.Context, up Upload) (*model.AnalysisResponse, []byte, error) {
	if len(up.Data) == 0 {
		return nil, nil, eris.New("extractor: empty upload")
	}

	body, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		return c.post(ctx, up)
	})
	if err != nil {
		return nil, nil, eris.Wrap(err, "extractor: analyze")
	}

	var resp model.AnalysisResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, body, eris.Wrap(err, "extractor: decode response")
	}
	return &resp, body, nil
}

func (c *httpClient) post(ctx context.Context, up Upload) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "extractor: rate limit wait")
		}
	}

	payload, contentType, err := encodeUpload(up)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "extractor: create request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "extractor: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "extractor: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("extractor: status %d: %s", resp.StatusCode, truncate(data, 256))
		if resilience.TransientStatus(resp.StatusCode) {
			return nil, resilience.Transient(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}
	return data, nil
}

func encodeUpload(up Upload) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := up.Name
	if name == "" {
		name = "document"
	}
	mt := up.MediaType
	if mt == "" {
		mt = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	h.Set("Content-Type", mt)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", eris.Wrap(err, "extractor: create form part")
	}
	if _, err := part.Write(up.Data); err != nil {
		return nil, "", eris.Wrap(err, "extractor: write form part")
	}
	if err := w.Close(); err != nil {
		return nil, "", eris.Wrap(err, "extractor: close form")
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

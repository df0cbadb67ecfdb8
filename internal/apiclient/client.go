// Package apiclient talks to the resume-analysis backend over HTTP/JSON.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"resumeview/internal/model"
)

const (
	uploadPath  = "/api/upload"
	resumesPath = "/api/resumes"

	// maxErrorBody caps how much of a failed response is read looking for "detail".
	maxErrorBody = 64 << 10
)

// Client calls the backend endpoints. It never retries and applies no timeout of its own
// unless one was configured; callers cancel through the context.
type Client struct {
	baseURL string
	http    *http.Client
	metrics *Metrics
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default traced HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithMetrics enables Prometheus observation of backend calls.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New returns a Client for baseURL. A zero timeout leaves requests unbounded.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// UploadResume posts content as the multipart field "file" and decodes the analysis.
// onProgress may be nil; when set it is called as the request body is sent.
func (c *Client) UploadResume(ctx context.Context, filename string, content io.Reader, onProgress ProgressFunc) (*model.UploadResult, error) {
	if content == nil {
		return nil, errors.New("upload content is nil")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filename)))
	header.Set("Content-Type", "application/pdf")
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("read upload content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	total := int64(body.Len())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, newProgressReader(body, total, onProgress))
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var out model.UploadResult
	if err := c.do(req, "upload", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListResumes returns every stored resume summary, as ordered by the backend.
func (c *Client) ListResumes(ctx context.Context) ([]model.ResumeSummary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+resumesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build list request: %w", err)
	}
	out := make([]model.ResumeSummary, 0)
	if err := c.do(req, "list", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetResumeDetail fetches one stored analysis. A missing id matches ErrNotFound.
func (c *Client) GetResumeDetail(ctx context.Context, id int64) (*model.ResumeDetail, error) {
	url := c.baseURL + resumesPath + "/" + strconv.FormatInt(id, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build detail request: %w", err)
	}
	var out model.ResumeDetail
	if err := c.do(req, "detail", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ping reports whether the backend answers HTTP at all; any status counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: "ping", Err: err}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (c *Client) do(req *http.Request, op string, out any) error {
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.observe(op, "network_error", time.Since(start))
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.observe(op, "server_error", time.Since(start))
		return &ServerError{Status: resp.StatusCode, Detail: readDetail(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.observe(op, "decode_error", time.Since(start))
		return &DecodeError{Op: op, Status: resp.StatusCode, Err: err}
	}
	c.metrics.observe(op, "ok", time.Since(start))
	return nil
}

// readDetail extracts a string "detail" field from an error body. Any other shape yields "".
func readDetail(r io.Reader) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.NewDecoder(io.LimitReader(r, maxErrorBody)).Decode(&payload); err != nil {
		return ""
	}
	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err != nil {
		return ""
	}
	return strings.TrimSpace(detail)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

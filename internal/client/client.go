package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kdimtricp/piiscan/internal/analysis"
	"github.com/kdimtricp/piiscan/internal/media"
)

// Client talks to the analysis service over its HTTP/JSON contract.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewWithTimeout overrides the default request timeout. Uploads of large
// files usually need more than the 30s default.
func NewWithTimeout(baseURL string, timeout time.Duration) *Client {
	c := New(baseURL)
	c.httpClient.Timeout = timeout
	return c
}

type uploadResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// UploadVideo submits a normalized resource as a single-field multipart
// request and returns the job id the service assigned. No retry happens
// here; a failure is surfaced once and retrying is the caller's call.
func (c *Client) UploadVideo(ctx context.Context, r *media.Resource) (string, error) {
	f, err := os.Open(r.Path)
	if err != nil {
		return "", fmt.Errorf("failed to open resource: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, r.Filename()))
	header.Set("Content-Type", r.ContentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("failed to write resource bytes: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/analyze/video", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &UploadError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UploadError{StatusCode: resp.StatusCode, Detail: serverDetail(respBody)}
	}

	var parsed uploadResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &analysis.ProtocolError{Reason: fmt.Sprintf("malformed upload response: %v", err)}
	}
	if parsed.JobID == "" {
		return "", &analysis.ProtocolError{Reason: "upload response missing job_id"}
	}

	return parsed.JobID, nil
}

// GetJob fetches and validates the current state of a job.
func (c *Client) GetJob(ctx context.Context, jobID string) (*analysis.Result, error) {
	data, err := c.get(ctx, "/jobs/"+url.PathEscape(jobID))
	if err != nil {
		return nil, err
	}
	return analysis.ParseResult(data)
}

// TextAnalysis is the response of the synchronous text endpoint.
type TextAnalysis struct {
	Findings []analysis.Finding
	Summary  analysis.Summary
}

type textRequest struct {
	Text string `json:"text"`
}

type textResponse struct {
	PIIDetected []struct {
		Type       string  `json:"type"`
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
		Start      int     `json:"start"`
		End        int     `json:"end"`
		Model      string  `json:"model"`
	} `json:"pii_detected"`
	Summary struct {
		TotalPIIItems      int            `json:"total_pii_items"`
		PIITypes           map[string]int `json:"pii_types"`
		HasPrivacyConcerns bool           `json:"has_privacy_concerns"`
	} `json:"summary"`
}

// AnalyzeText runs the synchronous text-only analysis endpoint.
func (c *Client) AnalyzeText(ctx context.Context, text string) (*TextAnalysis, error) {
	payload, err := json.Marshal(textRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/analyze/text", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	data, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var parsed textResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, &analysis.ProtocolError{Reason: fmt.Sprintf("malformed text analysis response: %v", err)}
	}

	out := &TextAnalysis{
		Summary: analysis.Summary{
			TotalFindings:    parsed.Summary.TotalPIIItems,
			HasConcerns:      parsed.Summary.HasPrivacyConcerns,
			CountsByCategory: parsed.Summary.PIITypes,
		},
	}
	for _, f := range parsed.PIIDetected {
		out.Findings = append(out.Findings, analysis.Finding{
			Category:    f.Type,
			Text:        f.Text,
			Confidence:  f.Confidence,
			StartOffset: f.Start,
			EndOffset:   f.End,
			SourceModel: f.Model,
		})
	}
	return out, nil
}

// JobListing is one entry of the job index.
type JobListing struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	CompletedAt string `json:"completed_at"`
}

type jobListResponse struct {
	Jobs  []JobListing `json:"jobs"`
	Total int          `json:"total"`
}

// ListJobs returns a page of known jobs, newest first.
func (c *Client) ListJobs(ctx context.Context, limit, offset int) ([]JobListing, int, error) {
	path := fmt.Sprintf("/jobs?limit=%s&offset=%s",
		strconv.Itoa(limit), strconv.Itoa(offset))
	data, err := c.get(ctx, path)
	if err != nil {
		return nil, 0, err
	}

	var parsed jobListResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, 0, &analysis.ProtocolError{Reason: fmt.Sprintf("malformed job list: %v", err)}
	}
	return parsed.Jobs, parsed.Total, nil
}

// DeleteJob removes a job and its results from the service.
func (c *Client) DeleteJob(ctx context.Context, jobID string) error {
	req, err := http.NewRequestWithContext(ctx, "DELETE", c.baseURL+"/jobs/"+url.PathEscape(jobID), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	_, err = c.do(req)
	return err
}

// Health probes the service health endpoint.
func (c *Client) Health(ctx context.Context) error {
	data, err := c.get(ctx, "/health")
	if err != nil {
		return err
	}

	var parsed struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return &analysis.ProtocolError{Reason: fmt.Sprintf("malformed health response: %v", err)}
	}
	if parsed.Status != "healthy" {
		return fmt.Errorf("service reports status %q", parsed.Status)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach analysis service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if detail := serverDetail(body); detail != "" {
			return nil, fmt.Errorf("analysis service returned status %d: %s", resp.StatusCode, detail)
		}
		return nil, fmt.Errorf("analysis service returned status %d", resp.StatusCode)
	}

	return body, nil
}

// serverDetail pulls the service's human-readable error field out of an
// error body, if there is one.
func serverDetail(body []byte) string {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	return parsed.Detail
}

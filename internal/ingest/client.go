package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jersy/ariadne/internal/apperr"
	"github.com/jersy/ariadne/internal/logging"
)

// analyzeRequest is the body posted to the analyzer's bulk/scoped analyze
// endpoint.
type analyzeRequest struct {
	TargetPaths []string `json:"target_paths,omitempty"`
}

// analyzeResponse wraps the analyzer's class records.
type analyzeResponse struct {
	Classes []ClassRecord `json:"classes"`
}

// Client talks to the external bytecode analyzer over HTTP. It is the
// only component that ever dials ARIADNE_ASM_SERVICE_URL.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	bulkTimeout time.Duration
}

// NewClient builds a Client. bulkTimeout bounds a full-codebase analyze
// call (FetchAll) and is also the HTTP client's overall timeout, so it caps
// every call. The timeout argument is not stored; a scoped (incremental)
// analyze call is bounded by the timeout passed to FetchPaths.
func NewClient(baseURL string, timeout, bulkTimeout time.Duration) *Client {
	return &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: bulkTimeout},
		bulkTimeout: bulkTimeout,
	}
}

// FetchAll requests a full analysis of the codebase, used by the shadow
// rebuilder (4.D step 2).
func (c *Client) FetchAll(ctx context.Context) ([]ClassRecord, error) {
	return c.analyze(ctx, nil, c.bulkTimeout)
}

// FetchPaths requests analysis scoped to targetPaths, used by an
// incremental rebuild job.
func (c *Client) FetchPaths(ctx context.Context, targetPaths []string, timeout time.Duration) ([]ClassRecord, error) {
	return c.analyze(ctx, targetPaths, timeout)
}

func (c *Client) analyze(ctx context.Context, targetPaths []string, timeout time.Duration) ([]ClassRecord, error) {
	log := logging.Get(logging.CategoryIngest)

	if _, hasDeadline := ctx.Deadline(); !hasDeadline && timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	body, err := json.Marshal(analyzeRequest{TargetPaths: targetPaths})
	if err != nil {
		return nil, apperr.Wrap(apperr.Fatal, err, "ingest: marshal analyze request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Wrap(apperr.Fatal, err, "ingest: build analyze request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "ingest: analyzer unreachable at %s", c.baseURL)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "ingest: read analyzer response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.New(apperr.Unavailable, "ingest: analyzer returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed analyzeResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, apperr.Wrap(apperr.Fatal, err, "ingest: decode analyzer response")
	}

	log.Infow("analyzer call complete", "classes", len(parsed.Classes), "target_paths", len(targetPaths), "duration_ms", time.Since(start).Milliseconds())
	return parsed.Classes, nil
}

// String implements fmt.Stringer for diagnostic logging.
func (c *Client) String() string {
	return fmt.Sprintf("ingest.Client{baseURL=%s}", c.baseURL)
}

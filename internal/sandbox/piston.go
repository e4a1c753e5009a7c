package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Public Piston instances throttle aggressively; keep at least this much
// space between requests.
const minRequestInterval = 250 * time.Millisecond

// ErrSandboxUnavailable is returned when the execution API cannot be
// reached or rejects the request.
var ErrSandboxUnavailable = errors.New("code execution sandbox is unavailable")

// Client talks to a Piston compatible code execution API.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger

	mu       sync.Mutex
	lastCall time.Time
}

// NewClient creates a sandbox client against the given base URL.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log.With().Str("component", "sandbox").Logger(),
	}
}

// ExecuteRequest describes one program run.
type ExecuteRequest struct {
	Language string `json:"language"`
	Version  string `json:"version"`
	Files    []File `json:"files"`
	Stdin    string `json:"stdin,omitempty"`
}

// File is one source file in an execution request.
type File struct {
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

// ExecuteResult is the outcome of one program run.
type ExecuteResult struct {
	Language string `json:"language"`
	Version  string `json:"version"`
	Run      Stage  `json:"run"`
	Compile  *Stage `json:"compile,omitempty"`
}

// Stage is the output of one execution phase.
type Stage struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Output string `json:"output"`
	Code   int    `json:"code"`
	Signal string `json:"signal,omitempty"`
}

// Runtime is one language runtime the sandbox supports.
type Runtime struct {
	Language string   `json:"language"`
	Version  string   `json:"version"`
	Aliases  []string `json:"aliases,omitempty"`
}

// throttle spaces requests out so a shared Piston instance does not start
// returning 429s under concurrent candidates.
func (c *Client) throttle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if wait := minRequestInterval - time.Since(c.lastCall); wait > 0 {
		time.Sleep(wait)
	}
	c.lastCall = time.Now()
}

// Execute runs a program and returns its output. Results are advisory for
// the candidate; grading never consumes them.
func (c *Client) Execute(ctx context.Context, req *ExecuteRequest) (*ExecuteResult, error) {
	c.throttle()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Warn().Err(err).Str("language", req.Language).Msg("Sandbox request failed")
		return nil, ErrSandboxUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("body", string(raw)).
			Msg("Sandbox rejected execution")
		return nil, ErrSandboxUnavailable
	}

	var result ExecuteResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &result, nil
}

// Runtimes lists the language runtimes the sandbox offers.
func (c *Client) Runtimes(ctx context.Context) ([]Runtime, error) {
	c.throttle()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/runtimes", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, ErrSandboxUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrSandboxUnavailable
	}

	var runtimes []Runtime
	if err := json.NewDecoder(resp.Body).Decode(&runtimes); err != nil {
		return nil, fmt.Errorf("decode runtimes: %w", err)
	}
	return runtimes, nil
}

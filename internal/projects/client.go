package projects

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/stellarlinkco/briefclaw/internal/brief"
	"github.com/stellarlinkco/briefclaw/internal/config"
)

// Status tells how a fetch ended.
type Status int

const (
	StatusOK Status = iota
	StatusNotFound
	StatusTimedOut
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not found"
	case StatusTimedOut:
		return "timed out"
	default:
		return "error"
	}
}

var (
	ErrNotFound = errors.New("project not found")
	ErrTimeout  = errors.New("project fetch timed out")
)

// Project carries the store's identifying attributes of a project.
type Project struct {
	ID          string `json:"id"`
	CaseNumber  string `json:"case_number,omitempty"`
	ProjectType string `json:"project_type,omitempty"`
	Status      string `json:"status,omitempty"`
}

// Result is the outcome of one fetch. Fields is empty unless Status is OK.
type Result struct {
	Status  Status
	Project Project
	Fields  brief.Brief
	Err     error
}

// OK reports whether the fetch produced fields.
func (r Result) OK() bool { return r.Status == StatusOK }

// Fetcher reads a project's stored brief.
type Fetcher interface {
	Fetch(ctx context.Context, projectID string) Result
}

type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg config.StoreConfig, logger *zap.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = config.DefaultStoreTimeout * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		timeout:    timeout,
		httpClient: &http.Client{},
		logger:     logger.Named("projects"),
	}
}

// Fetch reads /api/projects/{id} within the client timeout. Failures are
// reported in the Result and never returned as errors.
func (c *Client) Fetch(ctx context.Context, projectID string) Result {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return Result{Status: StatusError, Err: fmt.Errorf("fetch project: empty project id")}
	}
	if c.baseURL == "" {
		return Result{Status: StatusError, Err: fmt.Errorf("fetch project: store url not configured")}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "/api/projects/" + url.PathEscape(projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{Status: StatusError, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			c.logger.Warn("project fetch timed out", zap.String("project_id", projectID), zap.Duration("timeout", c.timeout))
			return Result{Status: StatusTimedOut, Err: ErrTimeout}
		}
		c.logger.Warn("project fetch failed", zap.String("project_id", projectID), zap.Error(err))
		return Result{Status: StatusError, Err: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return Result{Status: StatusTimedOut, Err: ErrTimeout}
		}
		return Result{Status: StatusError, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode == http.StatusNotFound {
		c.logger.Warn("project not found", zap.String("project_id", projectID))
		return Result{Status: StatusNotFound, Err: ErrNotFound}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("project fetch rejected", zap.String("project_id", projectID), zap.Int("status", resp.StatusCode))
		return Result{Status: StatusError, Err: fmt.Errorf("project store http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	project, fields, err := Translate(body)
	if err != nil {
		return Result{Status: StatusError, Err: fmt.Errorf("decode project: %w", err)}
	}
	c.logger.Debug("project fetched", zap.String("project_id", projectID), zap.Int("fields", len(fields)))
	return Result{Status: StatusOK, Project: project, Fields: fields}
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Package brokerapi implements the poller's HTTP client for the broker
// side-channel. Connect failures collapse into discovery.ErrNoBroker so the
// scan can treat a dead port as simply "no broker here".
package brokerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Strob0t/FeedbackForge/internal/domain/feedback"
	"github.com/Strob0t/FeedbackForge/internal/port/discovery"
)

// Client talks to broker processes on 127.0.0.1. Two HTTP clients carry the
// two timeout budgets: short for poll GETs (a dead port must not stall the
// scan), longer for answer submission.
type Client struct {
	get  *http.Client
	post *http.Client
}

// NewClient creates a Client with the given per-request timeouts.
func NewClient(getTimeout, postTimeout time.Duration) *Client {
	return &Client{
		get:  &http.Client{Timeout: getTimeout},
		post: &http.Client{Timeout: postTimeout},
	}
}

func baseURL(port int) string {
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}

// currentResponse mirrors the broker's rich poll shape.
type currentResponse struct {
	Request        *feedback.Request `json:"request"`
	OwnerWorkspace *string           `json:"ownerWorkspace"`
	StartTime      int64             `json:"startTime"`
}

// FetchCurrent polls one port for its pending request and identity.
func (c *Client) FetchCurrent(ctx context.Context, port int, workspace string, latestStartTime int64) (discovery.Snapshot, error) {
	q := url.Values{}
	q.Set("workspace", workspace)
	q.Set("latestStartTime", strconv.FormatInt(latestStartTime, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		baseURL(port)+"/api/feedback/current?"+q.Encode(), nil)
	if err != nil {
		return discovery.Snapshot{}, err
	}

	resp, err := c.get.Do(req)
	if err != nil {
		return discovery.Snapshot{}, fmt.Errorf("%w %d: %w", discovery.ErrNoBroker, port, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return discovery.Snapshot{}, fmt.Errorf("%w %d: status %d", discovery.ErrNoBroker, port, resp.StatusCode)
	}

	var body currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return discovery.Snapshot{}, fmt.Errorf("%w %d: %w", discovery.ErrNoBroker, port, err)
	}

	snap := discovery.Snapshot{
		Port:      port,
		Request:   body.Request,
		StartTime: body.StartTime,
	}
	if body.OwnerWorkspace != nil {
		snap.OwnerWorkspace = *body.OwnerWorkspace
		snap.OwnerSet = true
	}
	return snap, nil
}

type submitBody struct {
	RequestID string            `json:"requestId"`
	Feedback  feedback.Response `json:"feedback"`
}

// Submit delivers the human's answer to the broker on port.
func (c *Client) Submit(ctx context.Context, port int, answer feedback.Response) error {
	payload, err := json.Marshal(submitBody{RequestID: answer.RequestID, Feedback: answer})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		baseURL(port)+"/api/feedback/submit", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.post.Do(req)
	if err != nil {
		return fmt.Errorf("submit to port %d: %w", port, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return discovery.ErrRequestGone
	default:
		return fmt.Errorf("submit to port %d: status %d", port, resp.StatusCode)
	}

	var result struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("submit to port %d: %w", port, err)
	}
	if !result.Success {
		return fmt.Errorf("submit to port %d: broker rejected the answer", port)
	}
	return nil
}

// Health probes one port for any live broker.
func (c *Client) Health(ctx context.Context, port int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL(port)+"/api/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.get.Do(req)
	if err != nil {
		return fmt.Errorf("%w %d: %w", discovery.ErrNoBroker, port, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w %d: status %d", discovery.ErrNoBroker, port, resp.StatusCode)
	}
	return nil
}

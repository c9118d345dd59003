package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pairplay/sync-server-go/internal/model"
)

const requestTimeout = 10 * time.Second

// Client talks to the authoritative backend, the REST store of record.
// It is secondary to the remote session store for live play: pushes here
// are best-effort and reconciled eventually.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// One resource route per game kind, full snapshot as the body.
func (c *Client) sessionURL(kind model.Kind, id string) string {
	return fmt.Sprintf("%s/v1/%s-sessions/%s", c.baseURL, kind, id)
}

// Put upserts the full session snapshot.
func (c *Client) Put(ctx context.Context, session *model.Session) error {
	body, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.sessionURL(session.Kind, session.ID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("backend put failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("backend put failed with status %d", resp.StatusCode)
	}
	return nil
}

// Get returns the backend's canonical view, or nil when unknown there.
func (c *Client) Get(ctx context.Context, kind model.Kind, id string) (*model.Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.sessionURL(kind, id), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend get failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("backend get failed with status %d", resp.StatusCode)
	}

	var session model.Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode backend session: %w", err)
	}
	if err := session.State.Validate(); err != nil {
		return nil, fmt.Errorf("backend session %s: %w", id, err)
	}
	return &session, nil
}

// Delete discards a session the tie-break rule rejected.
func (c *Client) Delete(ctx context.Context, kind model.Kind, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.sessionURL(kind, id), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("backend delete failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("backend delete failed with status %d", resp.StatusCode)
	}
	return nil
}

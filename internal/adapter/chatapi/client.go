// Package chatapi implements the notification gateway and workspace
// directory over the chat platform's REST API. It is the only package that
// talks to the platform, and the only place retries happen.
package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rzeZenphrix/miku-interviewer/internal/adapter/metrics"
	"github.com/rzeZenphrix/miku-interviewer/internal/domain"
	"github.com/rzeZenphrix/miku-interviewer/internal/platform/retry"
)

const requestTimeout = 10 * time.Second

var defaultPolicy = retry.Policy{
	MaxAttempts:      3,
	InitialBackoff:   250 * time.Millisecond,
	RateLimitBackoff: 2 * time.Second,
	OnRetry: func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Retrying chat API request", "attempt", attempt, "backoff", backoff, "error", err)
	},
}

// Client talks to the chat platform's REST API with bot-token auth.
// It implements domain.NotificationGateway and domain.WorkspaceDirectory.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	policy  retry.Policy
}

func NewClient(baseURL, botToken string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   botToken,
		httpc:   &http.Client{Timeout: requestTimeout},
		policy:  defaultPolicy,
	}
}

// --- NotificationGateway ---

func (c *Client) SendDirectMessage(ctx context.Context, userID, text string) error {
	payload := map[string]string{"content": text}
	return c.call(ctx, "send_dm", http.MethodPost, fmt.Sprintf("/users/%s/messages", userID), payload)
}

func (c *Client) PostToChannel(ctx context.Context, channelID string, content domain.Announcement) error {
	return c.call(ctx, "post_channel", http.MethodPost, fmt.Sprintf("/channels/%s/messages", channelID), renderAnnouncement(content))
}

// --- WorkspaceDirectory ---

func (c *Client) GrantRole(ctx context.Context, guildID, userID, roleID string) error {
	path := fmt.Sprintf("/guilds/%s/members/%s/roles/%s", guildID, userID, roleID)
	return c.call(ctx, "grant_role", http.MethodPut, path, nil)
}

func (c *Client) CreatePrivateChannel(ctx context.Context, guildID string, participantIDs []string) (string, error) {
	payload := map[string]any{
		"type":         "private",
		"participants": participantIDs,
	}

	var resp struct {
		ID string `json:"id"`
	}
	err := c.callInto(ctx, "create_channel", http.MethodPost, fmt.Sprintf("/guilds/%s/channels", guildID), payload, &resp)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) FetchUser(ctx context.Context, userID string) (*domain.UserHandle, error) {
	var user domain.UserHandle
	if err := c.callInto(ctx, "fetch_user", http.MethodGet, "/users/"+userID, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// --- Request plumbing ---

func (c *Client) call(ctx context.Context, endpoint, method, path string, payload any) error {
	return c.callInto(ctx, endpoint, method, path, payload, nil)
}

func (c *Client) callInto(ctx context.Context, endpoint, method, path string, payload, out any) error {
	op := func() (struct{}, error) {
		return struct{}{}, c.doOnce(ctx, endpoint, method, path, payload, out)
	}

	_, err := retry.Do(ctx, c.policy, classify, op)
	if err != nil {
		var perm *retry.PermanentError
		if errors.As(err, &perm) {
			return perm.Err
		}
		return fmt.Errorf("%w: %s: %v", domain.ErrGatewayFailure, endpoint, err)
	}
	return nil
}

func (c *Client) doOnce(ctx context.Context, endpoint, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return &permanentStatus{status: 0, err: fmt.Errorf("failed to marshal payload: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &permanentStatus{status: 0, err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	metrics.ChatAPIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ChatAPIRequestsTotal.WithLabelValues(endpoint, "transport_error").Inc()
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.ChatAPIRequestsTotal.WithLabelValues(endpoint, http.StatusText(resp.StatusCode)).Inc()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return &permanentStatus{status: resp.StatusCode, err: fmt.Errorf("failed to decode response: %w", err)}
			}
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return &permanentStatus{status: resp.StatusCode, err: domain.ErrUserNotFound}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &transientStatus{status: resp.StatusCode, rateLimited: true}
	case resp.StatusCode >= 500:
		return &transientStatus{status: resp.StatusCode}
	default:
		return &permanentStatus{
			status: resp.StatusCode,
			err:    fmt.Errorf("%w: unexpected status %d", domain.ErrGatewayFailure, resp.StatusCode),
		}
	}
}

func classify(err error) retry.Action {
	var perm *permanentStatus
	if errors.As(err, &perm) {
		return retry.Stop
	}

	var trans *transientStatus
	if errors.As(err, &trans) && trans.rateLimited {
		return retry.After
	}
	return retry.Retry
}

type permanentStatus struct {
	status int
	err    error
}

func (e *permanentStatus) Error() string { return e.err.Error() }
func (e *permanentStatus) Unwrap() error { return e.err }

type transientStatus struct {
	status      int
	rateLimited bool
}

func (e *transientStatus) Error() string {
	return fmt.Sprintf("transient status %d", e.status)
}

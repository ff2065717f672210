package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const maxBulkDelete = 100

var (
	ErrRateLimited = errors.New("rate limited")
	ErrForbidden   = errors.New("forbidden")
	ErrNotFound    = errors.New("not found")
)

// APIError is a non-2xx answer from the REST API.
type APIError struct {
	Route  string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s failed: %d %s", e.Route, e.Status, e.Body)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrForbidden:
		return e.Status == fasthttp.StatusForbidden
	case ErrNotFound:
		return e.Status == fasthttp.StatusNotFound
	case ErrRateLimited:
		return e.Status == fasthttp.StatusTooManyRequests
	}
	return false
}

// MemberActions executes moderation calls against the REST API: kick,
// timeout and message deletion. Each call is attempted once.
type MemberActions struct {
	httpPool    *HTTPPool
	rateLimiter *RateLimitMonitor
	baseURL     string
	token       string
	timeout     time.Duration
	logger      *zap.Logger
}

func NewMemberActions(httpPool *HTTPPool, rateLimiter *RateLimitMonitor, baseURL, token string, timeout time.Duration, logger *zap.Logger) *MemberActions {
	return &MemberActions{
		httpPool:    httpPool,
		rateLimiter: rateLimiter,
		baseURL:     baseURL,
		token:       token,
		timeout:     timeout,
		logger:      logger,
	}
}

func (ma *MemberActions) Kick(ctx context.Context, guildID, userID, reason string) error {
	path := fmt.Sprintf("/guilds/%s/members/%s", guildID, userID)
	return ma.do(ctx, "kick", guildID, fasthttp.MethodDelete, path, nil, reason)
}

// Timeout disables communication for the member until the given time.
func (ma *MemberActions) Timeout(ctx context.Context, guildID, userID string, until time.Time, reason string) error {
	body, err := json.Marshal(map[string]string{
		"communication_disabled_until": until.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/guilds/%s/members/%s", guildID, userID)
	return ma.do(ctx, "timeout", guildID, fasthttp.MethodPatch, path, body, reason)
}

// DeleteMessages removes messages from one channel, using bulk delete for two or more ids.
func (ma *MemberActions) DeleteMessages(ctx context.Context, channelID string, messageIDs []string, reason string) error {
	switch len(messageIDs) {
	case 0:
		return nil
	case 1:
		path := fmt.Sprintf("/channels/%s/messages/%s", channelID, messageIDs[0])
		return ma.do(ctx, "delete-message", channelID, fasthttp.MethodDelete, path, nil, reason)
	}

	path := fmt.Sprintf("/channels/%s/messages/bulk-delete", channelID)
	for start := 0; start < len(messageIDs); start += maxBulkDelete {
		end := min(start+maxBulkDelete, len(messageIDs))
		chunk := messageIDs[start:end]

		var err error
		if len(chunk) == 1 {
			err = ma.DeleteMessages(ctx, channelID, chunk, reason)
		} else {
			body, _ := json.Marshal(map[string][]string{"messages": chunk})
			err = ma.do(ctx, "bulk-delete", channelID, fasthttp.MethodPost, path, body, reason)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (ma *MemberActions) do(ctx context.Context, route, scope, method, path string, body []byte, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ma.rateLimiter.CanExecute(route, scope) {
		return fmt.Errorf("%s: %w", route, ErrRateLimited)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(ma.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set("Authorization", "Bot "+ma.token)
	if reason != "" {
		req.Header.Set("X-Audit-Log-Reason", url.PathEscape(reason))
	}
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	deadline := time.Now().Add(ma.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	if err := ma.httpPool.GetClient().DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("%s: %w", route, err)
	}

	ma.rateLimiter.UpdateFromFastHTTPResponse(resp, route, scope)

	status := resp.StatusCode()
	ma.logger.Debug("rest call",
		zap.String("route", route),
		zap.String("scope", scope),
		zap.Int("status", status),
		zap.Duration("took", time.Since(start)))

	if status >= 200 && status < 300 {
		return nil
	}
	return &APIError{Route: route, Status: status, Body: string(resp.Body())}
}

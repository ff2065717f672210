package dispatcher

import (
	"context"
	"encoding/json"
	"net"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"go.uber.org/zap"
)

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Reason string
	Body   []byte
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	respond  func(ctx *fasthttp.RequestCtx)
}

func (f *fakeAPI) handle(ctx *fasthttp.RequestCtx) {
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: string(ctx.Method()),
		Path:   string(ctx.Path()),
		Auth:   string(ctx.Request.Header.Peek("Authorization")),
		Reason: string(ctx.Request.Header.Peek("X-Audit-Log-Reason")),
		Body:   append([]byte(nil), ctx.PostBody()...),
	})
	respond := f.respond
	f.mu.Unlock()

	if respond != nil {
		respond(ctx)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

func (f *fakeAPI) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func newTestActions(t *testing.T) (*MemberActions, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: api.handle}
	go srv.Serve(ln) //nolint:errcheck
	t.Cleanup(func() {
		_ = srv.Shutdown()
	})

	pool := NewHTTPPool(PoolOptions{
		Size:    2,
		Timeout: time.Second,
		Dial: func(string) (net.Conn, error) {
			return ln.Dial()
		},
	})
	actions := NewMemberActions(pool, NewRateLimitMonitor(), "http://discord.test/api/v10", "secret", time.Second, zap.NewNop())
	return actions, api
}

func TestKickSendsDelete(t *testing.T) {
	actions, api := newTestActions(t)

	require.NoError(t, actions.Kick(context.Background(), "G1", "U1", "No avatar"))

	reqs := api.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, fasthttp.MethodDelete, reqs[0].Method)
	assert.Equal(t, "/api/v10/guilds/G1/members/U1", reqs[0].Path)
	assert.Equal(t, "Bot secret", reqs[0].Auth)
	reason, err := url.PathUnescape(reqs[0].Reason)
	require.NoError(t, err)
	assert.Equal(t, "No avatar", reason)
}

func TestTimeoutPatchesMember(t *testing.T) {
	actions, api := newTestActions(t)
	until := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, actions.Timeout(context.Background(), "G1", "U1", until, "spam"))

	reqs := api.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, fasthttp.MethodPatch, reqs[0].Method)

	var body map[string]string
	require.NoError(t, json.Unmarshal(reqs[0].Body, &body))
	assert.Equal(t, "2026-01-02T03:04:05Z", body["communication_disabled_until"])
}

func TestDeleteMessages(t *testing.T) {
	t.Run("bulk", func(t *testing.T) {
		actions, api := newTestActions(t)
		ids := []string{"m1", "m2", "m3", "m4", "m5"}

		require.NoError(t, actions.DeleteMessages(context.Background(), "C1", ids, "spam"))

		reqs := api.recorded()
		require.Len(t, reqs, 1)
		assert.Equal(t, fasthttp.MethodPost, reqs[0].Method)
		assert.Equal(t, "/api/v10/channels/C1/messages/bulk-delete", reqs[0].Path)

		var body map[string][]string
		require.NoError(t, json.Unmarshal(reqs[0].Body, &body))
		assert.Equal(t, ids, body["messages"])
	})

	t.Run("single", func(t *testing.T) {
		actions, api := newTestActions(t)

		require.NoError(t, actions.DeleteMessages(context.Background(), "C1", []string{"m1"}, ""))

		reqs := api.recorded()
		require.Len(t, reqs, 1)
		assert.Equal(t, fasthttp.MethodDelete, reqs[0].Method)
		assert.Equal(t, "/api/v10/channels/C1/messages/m1", reqs[0].Path)
		assert.Empty(t, reqs[0].Reason)
	})

	t.Run("none", func(t *testing.T) {
		actions, api := newTestActions(t)
		require.NoError(t, actions.DeleteMessages(context.Background(), "C1", nil, ""))
		assert.Empty(t, api.recorded())
	})
}

func TestForbiddenIsTyped(t *testing.T) {
	actions, api := newTestActions(t)
	api.respond = func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusForbidden)
		ctx.SetBodyString(`{"message":"Missing Permissions","code":50013}`)
	}

	err := actions.Kick(context.Background(), "G1", "U1", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NotErrorIs(t, err, ErrNotFound)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)
}

func TestRateLimitedRouteIsNotSent(t *testing.T) {
	actions, api := newTestActions(t)
	api.respond = func(ctx *fasthttp.RequestCtx) {
		ctx.Response.Header.Set("Retry-After", "30")
		ctx.SetStatusCode(fasthttp.StatusTooManyRequests)
	}

	err := actions.Kick(context.Background(), "G1", "U1", "")
	assert.ErrorIs(t, err, ErrRateLimited)

	err = actions.Kick(context.Background(), "G1", "U2", "")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Len(t, api.recorded(), 1)

	// other guilds use their own bucket
	api.respond = nil
	assert.NoError(t, actions.Kick(context.Background(), "G2", "U1", ""))
}

func TestCancelledContextSkipsCall(t *testing.T) {
	actions, api := newTestActions(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, actions.Kick(ctx, "G1", "U1", ""), context.Canceled)
	assert.Empty(t, api.recorded())
}

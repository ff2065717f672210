package metrics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

func serve(t *testing.T, s *Server, path string) *fasthttp.RequestCtx {
	t.Helper()
	var ctx fasthttp.RequestCtx
	ctx.Request.SetRequestURI(path)
	s.Handler(&ctx)
	return &ctx
}

func TestHealthzReportsSweeper(t *testing.T) {
	health := NewSweepHealth(time.Minute)
	health.RecordIteration()
	s := NewServer(":0", health, zap.NewNop())

	ctx := serve(t, s, "/healthz")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var report HealthReport
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &report))
	assert.Equal(t, "ok", report.Status)
	assert.Equal(t, uint64(1), report.Sweeps)
	assert.Positive(t, report.GoRoutines)
}

func TestHealthzStalledSweeper(t *testing.T) {
	health := NewSweepHealth(time.Millisecond)
	health.RecordIteration()
	time.Sleep(10 * time.Millisecond)

	ctx := serve(t, NewServer(":0", health, zap.NewNop()), "/healthz")
	assert.Equal(t, fasthttp.StatusServiceUnavailable, ctx.Response.StatusCode())
}

func TestMetricsEndpoint(t *testing.T) {
	HeuristicFlags.Inc()
	ctx := serve(t, NewServer(":0", nil, zap.NewNop()), "/metrics")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "raidguard_heuristic_flags_total")
}

func TestUnknownPath(t *testing.T) {
	ctx := serve(t, NewServer(":0", nil, zap.NewNop()), "/nope")
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

package metrics

import (
	"context"
	"encoding/json"
	"net"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
)

// HealthReport is the /healthz body.
type HealthReport struct {
	Status        string    `json:"status"`
	Uptime        string    `json:"uptime"`
	LastSweep     time.Time `json:"last_sweep,omitempty"`
	Sweeps        uint64    `json:"sweeps"`
	GoRoutines    int       `json:"goroutines"`
	HeapAlloc     uint64    `json:"heap_alloc_bytes"`
	HostUptime    uint64    `json:"host_uptime_seconds,omitempty"`
	MemoryPercent float64   `json:"host_memory_used_percent,omitempty"`
}

// Server exposes /metrics and /healthz on a fasthttp listener.
type Server struct {
	addr    string
	health  *SweepHealth
	logger  *zap.Logger
	started time.Time
	srv     *fasthttp.Server
	metrics fasthttp.RequestHandler
}

func NewServer(addr string, health *SweepHealth, logger *zap.Logger) *Server {
	s := &Server{
		addr:    addr,
		health:  health,
		logger:  logger,
		started: time.Now(),
		metrics: fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()),
	}
	s.srv = &fasthttp.Server{
		Handler:      s.Handler,
		Name:         "raidguard",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/metrics":
		s.metrics(ctx)
	case "/healthz":
		s.serveHealth(ctx)
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

func (s *Server) serveHealth(ctx *fasthttp.RequestCtx) {
	report := s.Health()
	body, err := json.Marshal(report)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	if report.Status != "ok" {
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

// Health gathers process and host stats. Host stats are omitted when unavailable.
func (s *Server) Health() HealthReport {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	report := HealthReport{
		Status:     "ok",
		Uptime:     time.Since(s.started).Round(time.Second).String(),
		GoRoutines: runtime.NumGoroutine(),
		HeapAlloc:  m.HeapAlloc,
	}
	if s.health != nil {
		report.LastSweep = s.health.LastIteration()
		report.Sweeps = s.health.Iterations()
		if !s.health.IsHealthy() {
			report.Status = "sweeper stalled"
		}
	}
	if uptime, err := host.Uptime(); err == nil {
		report.HostUptime = uptime
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		report.MemoryPercent = vm.UsedPercent
	}
	return report
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("ops server listening", zap.String("addr", ln.Addr().String()))
	return s.srv.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.ShutdownWithContext(ctx)
}

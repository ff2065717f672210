package dispatcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"
)

type PoolOptions struct {
	Size    int
	Timeout time.Duration
	// Dial replaces the default TCP dialer; used by tests with an in-memory listener.
	Dial fasthttp.DialFunc
}

// HTTPPool hands out fasthttp clients round-robin.
type HTTPPool struct {
	clients []*fasthttp.Client
	next    atomic.Uint32
}

func NewHTTPPool(opts PoolOptions) *HTTPPool {
	if opts.Size < 1 {
		opts.Size = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ClientSessionCache: tls.NewLRUClientSessionCache(64),
	}

	clients := make([]*fasthttp.Client, opts.Size)
	for i := range clients {
		clients[i] = &fasthttp.Client{
			Name:                "raidguard",
			MaxConnsPerHost:     64,
			MaxIdleConnDuration: 90 * time.Second,
			ReadTimeout:         opts.Timeout,
			WriteTimeout:        opts.Timeout,
			MaxConnWaitTimeout:  time.Second,
			MaxResponseBodySize: 4 * 1024 * 1024,

			// Moderation calls are not idempotent; never retry them.
			MaxIdemponentCallAttempts: 1,
			RetryIf: func(*fasthttp.Request) bool {
				return false
			},

			DialDualStack: true,
			Dial:          opts.Dial,
			TLSConfig:     tlsConfig,
		}
	}

	return &HTTPPool{clients: clients}
}

func (hp *HTTPPool) GetClient() *fasthttp.Client {
	n := hp.next.Add(1) - 1
	return hp.clients[int(n)%len(hp.clients)]
}

// Warmup opens a connection to the API so the first moderation call skips the TLS handshake.
func (hp *HTTPPool) Warmup(ctx context.Context, baseURL string) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(baseURL + "/gateway")
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline := time.Now().Add(2 * time.Second)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := hp.GetClient().DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("warmup: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return fmt.Errorf("warmup: status %d", resp.StatusCode())
	}
	return nil
}

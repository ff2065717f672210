package dispatcher

import (
	"strconv"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
)

type RateLimitBucket struct {
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// RateLimitMonitor remembers Discord's rate limit headers per route and scope
// so a call that would certainly be rejected is not sent.
type RateLimitMonitor struct {
	mu      sync.RWMutex
	buckets map[string]*RateLimitBucket
	now     func() time.Time
}

func NewRateLimitMonitor() *RateLimitMonitor {
	return &RateLimitMonitor{
		buckets: make(map[string]*RateLimitBucket),
		now:     time.Now,
	}
}

func (rlm *RateLimitMonitor) CanExecute(route, scope string) bool {
	key := rlm.getKey(route, scope)

	rlm.mu.RLock()
	bucket, exists := rlm.buckets[key]
	rlm.mu.RUnlock()

	if !exists {
		return true
	}

	if !rlm.now().Before(bucket.ResetAt) {
		return true
	}

	return bucket.Remaining > 0
}

// UpdateFromFastHTTPResponse records the bucket state. A 429 empties the bucket
// until Retry-After has passed.
func (rlm *RateLimitMonitor) UpdateFromFastHTTPResponse(resp *fasthttp.Response, route, scope string) {
	remaining := string(resp.Header.Peek("X-RateLimit-Remaining"))
	limit := string(resp.Header.Peek("X-RateLimit-Limit"))
	resetAfter := string(resp.Header.Peek("X-RateLimit-Reset-After"))

	if resp.StatusCode() == fasthttp.StatusTooManyRequests {
		remaining = "0"
		if retry := string(resp.Header.Peek("Retry-After")); retry != "" {
			resetAfter = retry
		}
	}

	if remaining == "" && resetAfter == "" {
		return
	}

	bucket := &RateLimitBucket{Remaining: 1}
	if remaining != "" {
		bucket.Remaining, _ = strconv.Atoi(remaining)
	}
	if limit != "" {
		bucket.Limit, _ = strconv.Atoi(limit)
	}
	if resetAfter != "" {
		if secs, err := strconv.ParseFloat(resetAfter, 64); err == nil {
			bucket.ResetAt = rlm.now().Add(time.Duration(secs * float64(time.Second)))
		}
	}

	rlm.mu.Lock()
	rlm.buckets[rlm.getKey(route, scope)] = bucket
	rlm.mu.Unlock()
}

func (rlm *RateLimitMonitor) getKey(route, scope string) string {
	return route + ":" + scope
}

func (rlm *RateLimitMonitor) GetBucket(route, scope string) *RateLimitBucket {
	rlm.mu.RLock()
	defer rlm.mu.RUnlock()

	return rlm.buckets[rlm.getKey(route, scope)]
}

package dispatcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
)

func TestRateLimitBucketResets(t *testing.T) {
	now := time.Unix(1000, 0)
	rlm := NewRateLimitMonitor()
	rlm.now = func() time.Time { return now }

	var resp fasthttp.Response
	resp.Header.Set("X-RateLimit-Remaining", "0")
	resp.Header.Set("X-RateLimit-Limit", "5")
	resp.Header.Set("X-RateLimit-Reset-After", "1.5")
	rlm.UpdateFromFastHTTPResponse(&resp, "kick", "G1")

	assert.False(t, rlm.CanExecute("kick", "G1"))
	assert.True(t, rlm.CanExecute("kick", "G2"))
	assert.Equal(t, 5, rlm.GetBucket("kick", "G1").Limit)

	now = now.Add(1500 * time.Millisecond)
	assert.True(t, rlm.CanExecute("kick", "G1"))
}

func TestRateLimitIgnoresResponsesWithoutHeaders(t *testing.T) {
	rlm := NewRateLimitMonitor()
	var resp fasthttp.Response
	resp.SetStatusCode(fasthttp.StatusNoContent)
	rlm.UpdateFromFastHTTPResponse(&resp, "kick", "G1")

	assert.Nil(t, rlm.GetBucket("kick", "G1"))
}

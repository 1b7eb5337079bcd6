package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestTokenBucket_TakeAndRefill(t *testing.T) {
	clock := newFakeClock()
	bucket := newTokenBucket(3, 1.0, clock.Now())

	for i := 0; i < 3; i++ {
		allowed, remaining, _ := bucket.take(clock.Now())
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 2-i, remaining)
	}
	allowed, _, reset := bucket.take(clock.Now())
	assert.False(t, allowed)
	assert.Equal(t, clock.Now().Add(3*time.Second), reset)

	clock.Advance(time.Second)
	allowed, _, _ = bucket.take(clock.Now())
	assert.True(t, allowed)
	allowed, _, _ = bucket.take(clock.Now())
	assert.False(t, allowed)

	clock.Advance(time.Hour)
	_, remaining, _ := bucket.take(clock.Now())
	assert.Equal(t, 2, remaining, "refill caps at capacity")
}

func TestLimiter_DefaultLimit(t *testing.T) {
	clock := newFakeClock()
	limiter := newLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute}, clock.Now)
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/api/interviews/session_1/status", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := limiter.Allow("127.0.0.1", "/api/interviews/session_1/status", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.InDelta(t, 6.0, info.RetryAfter.Seconds(), 0.001)

	allowed, _ = limiter.Allow("10.0.0.2", "/api/interviews/session_1/status", "GET")
	assert.True(t, allowed, "other clients have their own bucket")
}

func TestLimiter_WhitelistBlacklistDisabled(t *testing.T) {
	cfg := NewConfig(Settings{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     []string{"127.0.0.1"},
		Blacklist:     []string{"10.0.0.9, 10.0.0.10"},
	})
	limiter := NewLimiter(cfg)
	defer limiter.Stop()

	for i := 0; i < 50; i++ {
		allowed, _ := limiter.Allow("127.0.0.1", "/x", "GET")
		require.True(t, allowed)
	}
	allowed, _ := limiter.Allow("10.0.0.10", "/x", "GET")
	assert.False(t, allowed)

	off := NewLimiter(NewConfig(Settings{Enabled: false}))
	defer off.Stop()
	for i := 0; i < 50; i++ {
		allowed, _ := off.Allow("1.2.3.4", "/api/interviews", "POST")
		require.True(t, allowed)
	}
}

func TestLimiter_EndpointLimitsShareBucketAcrossSessions(t *testing.T) {
	clock := newFakeClock()
	cfg := NewConfig(Settings{Enabled: true, DefaultLimit: 1000, DefaultWindow: time.Minute})
	limiter := newLimiter(cfg, clock.Now)
	defer limiter.Stop()

	// complete allows a burst of 3 regardless of session id
	for i, id := range []string{"a", "b", "c"} {
		allowed, info := limiter.Allow("1.1.1.1", "/api/interviews/session_"+id+"/complete", "POST")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
	}
	allowed, _ := limiter.Allow("1.1.1.1", "/api/interviews/session_d/complete", "POST")
	assert.False(t, allowed)

	allowed, info := limiter.Allow("1.1.1.1", "/api/interviews/session_d/answers", "POST")
	assert.True(t, allowed)
	assert.Equal(t, 120, info.Limit)
}

func TestLimiter_HealthUnlimited(t *testing.T) {
	limiter := NewLimiter(NewConfig(Settings{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute}))
	defer limiter.Stop()

	for i := 0; i < 20; i++ {
		allowed, info := limiter.Allow("1.1.1.1", "/health", "GET")
		require.True(t, allowed)
		assert.Equal(t, 0, info.Limit)
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	clock := newFakeClock()
	limiter := newLimiter(&Config{Enabled: true, DefaultLimit: 5, DefaultWindow: time.Minute}, clock.Now)
	defer limiter.Stop()

	limiter.Allow("1.1.1.1", "/old", "GET")
	clock.Advance(2 * time.Hour)
	limiter.Allow("1.1.1.1", "/new", "GET")
	require.Equal(t, 2, limiter.Len())

	limiter.cleanup()
	assert.Equal(t, 1, limiter.Len())
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Hour})
	defer limiter.Stop()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if ok, _ := limiter.Allow("client", "/x", "GET"); ok {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	// at most one extra token can refill during the run
	assert.GreaterOrEqual(t, allowed, 100)
	assert.LessOrEqual(t, allowed, 101)
}

func TestLimiter_StopTwice(t *testing.T) {
	limiter := NewLimiter(nil)
	limiter.Stop()
	assert.NotPanics(t, limiter.Stop)
}

func TestMatchEndpoint(t *testing.T) {
	configs := append(DefaultEndpointConfigs(),
		EndpointConfig{Path: "/admin/", Method: "DELETE", Limit: 1, Window: time.Minute})

	tests := []struct {
		name     string
		path     string
		method   string
		wantPath string
		wantNil  bool
	}{
		{name: "exact start", path: "/api/interviews", method: "POST", wantPath: "/api/interviews"},
		{name: "pattern complete", path: "/api/interviews/session_1/complete", method: "POST", wantPath: "/api/interviews/{session_id}/complete"},
		{name: "pattern answers", path: "/api/interviews/session_1/answers", method: "POST", wantPath: "/api/interviews/{session_id}/answers"},
		{name: "wrong method", path: "/api/interviews/session_1/complete", method: "GET", wantNil: true},
		{name: "extra segment", path: "/api/interviews/session_1/complete/now", method: "POST", wantNil: true},
		{name: "empty placeholder", path: "/api/interviews//complete", method: "POST", wantNil: true},
		{name: "prefix", path: "/admin/sessions/1", method: "DELETE", wantPath: "/admin/"},
		{name: "health", path: "/health", method: "GET", wantPath: "/health"},
		{name: "unmatched", path: "/api/interviews/session_1", method: "GET", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantPath, got.Path)
		})
	}
}

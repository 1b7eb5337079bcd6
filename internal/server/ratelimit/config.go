package ratelimit

import (
	"strings"
	"time"
)

// EndpointConfig is the limit for one route. Path is either an exact path, a
// prefix ending in "/", or a pattern with {placeholder} segments.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int           // requests per window; 0 means unlimited
	Window time.Duration
	Burst  int // bucket capacity, Limit when 0
}

// Settings is the user-facing subset of Config.
type Settings struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       []string
	Blacklist       []string
}

// NewConfig builds a Config from settings with the interview endpoint limits.
func NewConfig(s Settings) *Config {
	if !s.Enabled {
		return &Config{Enabled: false}
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    s.DefaultLimit,
		DefaultWindow:   s.DefaultWindow,
		CleanupInterval: s.CleanupInterval,
		Whitelist:       ipSet(s.Whitelist),
		Blacklist:       ipSet(s.Blacklist),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns limits for the routes that call the
// generator. Reads fall through to the default limit.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// one opening call plus a session
		{Path: "/api/interviews", Method: "POST", Limit: 20, Window: time.Hour, Burst: 5},
		// one evaluation call per dimension and one coaching call per weak dimension
		{Path: "/api/interviews/{session_id}/complete", Method: "POST", Limit: 10, Window: time.Hour, Burst: 3},
		{Path: "/api/interviews/{session_id}/answers", Method: "POST", Limit: 120, Window: time.Hour, Burst: 10},
	}
}

func ipSet(list []string) map[string]bool {
	out := make(map[string]bool, len(list))
	for _, ip := range list {
		for _, part := range strings.Split(ip, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out[part] = true
			}
		}
	}
	return out
}

package ratelimit

import (
	"strings"
)

// EndpointConfig overrides the default rate for one endpoint.
type EndpointConfig struct {
	Path      string  // exact path, or a prefix when it ends with "/"
	Method    string  // HTTP method; empty matches any
	PerSecond float64 // sustained rate; zero or less means unlimited
	Burst     int     // burst capacity (defaults to ceil(PerSecond))
}

// Unlimited reports whether the endpoint bypasses rate limiting.
func (e EndpointConfig) Unlimited() bool {
	return e.PerSecond <= 0
}

// DefaultEndpointConfigs returns the built-in endpoint overrides.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Triggers drive the browser; keep them slow.
		{Path: "/messages", Method: "POST", PerSecond: 2, Burst: 5},
		// One stream per client is plenty.
		{Path: "/events", Method: "GET", PerSecond: 0.2, Burst: 2},
	}
}

// ParseIPList parses a comma-separated list of addresses into a set.
func ParseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			result[ip] = true
		}
	}
	return result
}

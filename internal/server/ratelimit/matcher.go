package ratelimit

import "strings"

// exempt lists method and path pairs that are never limited.
var exempt = map[string]bool{
	"GET /health": true,
}

// MatchEndpoint returns the override for method and path, or nil when the
// default rate applies. An exact path wins over a prefix; among prefixes the
// longest wins. An empty Method in a config matches any method.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	if exempt[method+" "+path] {
		return &EndpointConfig{Path: path, Method: method}
	}

	var best *EndpointConfig
	for i := range configs {
		c := &configs[i]
		if c.Method != "" && c.Method != method {
			continue
		}
		if c.Path == path {
			return c
		}
		if strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			if best == nil || len(c.Path) > len(best.Path) {
				best = c
			}
		}
	}
	return best
}

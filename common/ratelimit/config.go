package ratelimit

import "github.com/fnhub/ingest/common/config"

// Policy is a fixed-window limit
type Policy struct {
	Limit         int64 // Requests allowed per window
	WindowSeconds int   // Time window in seconds
}

// DefaultDeployPolicy applies when no configuration is given
var DefaultDeployPolicy = Policy{
	Limit:         60,
	WindowSeconds: 60,
}

// DefaultClientPolicy bounds deploy attempts from one client address
var DefaultClientPolicy = Policy{
	Limit:         300,
	WindowSeconds: 60,
}

// DeployPolicy returns the incoming-deploy policy from configuration,
// falling back to DefaultDeployPolicy for unset values
func DeployPolicy(cfg config.RateLimitConfig) Policy {
	p := DefaultDeployPolicy
	if cfg.DeployLimit > 0 {
		p.Limit = cfg.DeployLimit
	}
	if cfg.WindowSeconds > 0 {
		p.WindowSeconds = cfg.WindowSeconds
	}
	return p
}

// ClientPolicy returns the per-client policy from configuration
func ClientPolicy(cfg config.RateLimitConfig) Policy {
	p := DefaultClientPolicy
	if cfg.ClientLimit > 0 {
		p.Limit = cfg.ClientLimit
	}
	if cfg.WindowSeconds > 0 {
		p.WindowSeconds = cfg.WindowSeconds
	}
	return p
}

package config

import (
	"time"

	"github.com/pairplay/sync-server-go/internal/model"
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Cache ping timeout for health checks
const CachePingTimeout = 5 * time.Second

// Background job intervals
const ExpirySweepInterval = 5 * time.Minute

// Session lifetimes. Daily kinds run out with the day; ladder sessions may
// linger across several days of slow back-and-forth.
const (
	LadderSessionTTL = 72 * time.Hour
	DailySessionTTL  = 24 * time.Hour
)

// SessionTTL returns the lifetime for a new session of the given kind.
func SessionTTL(kind model.Kind) time.Duration {
	if kind == model.KindLadder {
		return LadderSessionTTL
	}
	return DailySessionTTL
}

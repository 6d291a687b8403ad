// Package timeouts provides centralized timeout values for handler
// operations. Handlers wrap their request context with these instead of
// scattering magic durations around the codebase.
//
// Guidelines:
//   - Ping: health checks and connectivity verification
//   - Short: single-document reads or lookups
//   - Medium: list queries and multi-step reads
//   - Long: cascading writes touching multiple collections
package timeouts

import (
	"sync"
	"time"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
)

var (
	mu     sync.RWMutex
	ping   = DefaultPing
	short  = DefaultShort
	medium = DefaultMedium
	long   = DefaultLong
)

// Configure overrides the defaults at startup. Zero values keep the default.
func Configure(pingD, shortD, mediumD, longD time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	if pingD > 0 {
		ping = pingD
	}
	if shortD > 0 {
		short = shortD
	}
	if mediumD > 0 {
		medium = mediumD
	}
	if longD > 0 {
		long = longD
	}
}

func Ping() time.Duration   { mu.RLock(); defer mu.RUnlock(); return ping }
func Short() time.Duration  { mu.RLock(); defer mu.RUnlock(); return short }
func Medium() time.Duration { mu.RLock(); defer mu.RUnlock(); return medium }
func Long() time.Duration   { mu.RLock(); defer mu.RUnlock(); return long }

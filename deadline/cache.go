package deadline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// PreviewCache caches computed previews by request fingerprint. The
// engine is cheap enough to run per keystroke, but identical repeated
// requests (tab focus, re-renders) don't need recomputation at all.
type PreviewCache interface {
	// Get retrieves a cached result, nil on miss or expiry.
	Get(fingerprint string) *PreviewResult

	// Set stores a result under the request fingerprint.
	Set(fingerprint string, result *PreviewResult)

	// Invalidate clears the cache.
	Invalidate()
}

// CacheConfig holds cache tuning.
type CacheConfig struct {
	// TTL is the time-to-live for cached entries. Zero disables
	// expiration (manual invalidation only).
	TTL time.Duration

	// MaxEntries bounds memory; zero means unbounded.
	MaxEntries int
}

// DefaultCacheConfig returns defaults sized for one editing session:
// entries go stale quickly because "now" is part of the fingerprint at
// day granularity only.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:        5 * time.Minute,
		MaxEntries: 256,
	}
}

// Fingerprint derives the cache key for a request: a SHA-256 over its
// canonical JSON with "now" truncated to the calendar day, matching the
// engine's day-granularity classification. A zero Now is keyed on the
// wall clock's day, so entries cached before midnight cannot serve the
// next day's classification. Engines with an injected clock key through
// Engine.Fingerprint instead.
func Fingerprint(req PreviewRequest) string {
	keyed := req
	if req.Now.IsZero() {
		keyed.Now = truncateToDay(time.Now())
	} else {
		keyed.Now = truncateToDay(req.Now)
	}
	raw, err := json.Marshal(keyed)
	if err != nil {
		// PreviewRequest is plain data; marshal cannot fail for real
		// inputs. An empty key just bypasses the cache.
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Fingerprint keys a request on the engine's own clock when the request
// does not pin Now.
func (e *Engine) Fingerprint(req PreviewRequest) string {
	if req.Now.IsZero() {
		req.Now = truncateToDay(e.now())
	}
	return Fingerprint(req)
}

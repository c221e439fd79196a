package ratelimit

import (
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"

	"github.com/xeptore/saavn/config"
)

// NewLimiter returns the limiter shared by every API request of a client.
// A zero RPS disables limiting.
func NewLimiter(conf config.RateLimit) *rate.Limiter {
	if conf.RPS <= 0 {
		return rate.NewLimiter(rate.Inf, conf.Burst)
	}

	return rate.NewLimiter(rate.Limit(conf.RPS), conf.Burst)
}

// SongDownloadPause is slept between consecutive file downloads of a
// batch so the CDN does not see a burst of requests.
func SongDownloadPause() time.Duration {
	const (
		from = 500
		to   = 1500
	)
	millis := rand.IntN(to-from) + from //nolint:gosec

	return time.Duration(millis) * time.Millisecond
}

package service

import (
	"context"
	"errors"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/xeptore/saavn/cache"
	"github.com/xeptore/saavn/saavn/endpoint"
)

var (
	ErrMissingField    = errors.New("response is missing a required field")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Getter sends one API operation and returns the raw JSON body.
// *endpoint.Client implements it.
type Getter interface {
	Get(ctx context.Context, logger zerolog.Logger, name endpoint.OperationName, params url.Values) ([]byte, error)
}

type Service struct {
	api         Getter
	cache       *cache.Cache
	concurrency int
}

// New returns a service sending requests through api. Per-song fetches of
// albums and playlists run at most concurrency at a time.
func New(api Getter, c *cache.Cache, concurrency int) *Service {
	if nil == c {
		c = cache.Disabled()
	}

	return &Service{
		api:         api,
		cache:       c,
		concurrency: max(concurrency, 1),
	}
}

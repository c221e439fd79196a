package saavn

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/xeptore/saavn/cache"
	"github.com/xeptore/saavn/config"
	"github.com/xeptore/saavn/ratelimit"
	"github.com/xeptore/saavn/saavn/download"
	"github.com/xeptore/saavn/saavn/endpoint"
	"github.com/xeptore/saavn/saavn/link"
	"github.com/xeptore/saavn/saavn/media"
	"github.com/xeptore/saavn/saavn/service"
	"github.com/xeptore/saavn/store"
)

// Client bundles the entity services with the resources they share.
type Client struct {
	*service.Service

	conf  *config.Config
	cache *cache.Cache
}

func NewClient(conf *config.Config) (*Client, error) {
	api, err := endpoint.NewClient(conf.Saavn, ratelimit.NewLimiter(conf.Saavn.RateLimit))
	if nil != err {
		return nil, fmt.Errorf("failed to create endpoint client: %v", err)
	}

	c := cache.New(conf.Saavn.Cache)

	return &Client{
		Service: service.New(api, c, conf.Saavn.Concurrency),
		conf:    conf,
		cache:   c,
	}, nil
}

func (c *Client) Close() {
	c.cache.Songs.Stop()
}

// NewDownloader opens the downloads index and returns a downloader using
// it. The returned function closes the index.
func (c *Client) NewDownloader() (*download.Downloader, func() error, error) {
	index, err := store.Open(c.conf.Downloads.IndexPath)
	if nil != err {
		return nil, nil, fmt.Errorf("failed to open downloads index: %v", err)
	}

	return download.New(c.Service, index, c.conf.Saavn, c.conf.Downloads), index.Close, nil
}

const (
	ReasonTransport    = "transport"
	ReasonMalformed    = "malformed"
	ReasonNotFound     = "not_found"
	ReasonInvalidInput = "invalid_input"
	ReasonCanceled     = "canceled"
	ReasonUnknown      = "unknown"
)

// Reason tags err with the kind of failure it represents.
func Reason(err error) string {
	switch {
	case nil == err:
		return ""
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	case errors.Is(err, link.ErrInvalidInput),
		errors.Is(err, link.ErrSegmentNotFound),
		errors.Is(err, link.ErrEmptyToken),
		errors.Is(err, media.ErrUnknownBitrate),
		errors.Is(err, service.ErrInvalidArgument),
		errors.Is(err, endpoint.ErrUnknownOperation):
		return ReasonInvalidInput
	case errors.Is(err, endpoint.ErrNotFound),
		errors.Is(err, store.ErrNotFound):
		return ReasonNotFound
	case errors.Is(err, endpoint.ErrMalformedResponse),
		errors.Is(err, service.ErrMissingField),
		errors.Is(err, download.ErrNotAudio):
		return ReasonMalformed
	case errors.Is(err, endpoint.ErrUnexpectedStatus),
		errors.Is(err, endpoint.ErrTooManyRequests),
		errors.Is(err, endpoint.ErrAPIFailure),
		errors.Is(err, context.DeadlineExceeded),
		isNetworkError(err):
		return ReasonTransport
	default:
		return ReasonUnknown
	}
}

func isNetworkError(err error) bool {
	var (
		urlErr *url.Error
		netErr net.Error
	)

	return errors.As(err, &urlErr) || errors.As(err, &netErr)
}

package cache

import (
	"fmt"
	"time"

	"github.com/karlseguin/ccache/v3"

	"github.com/xeptore/saavn/config"
	"github.com/xeptore/saavn/saavn/types"
)

// Cache de-duplicates entity fetches within one process, e.g. a playlist
// listing the same song twice or an album followed by one of its songs.
type Cache struct {
	Songs SongsCache
}

func New(conf config.Cache) *Cache {
	var songs *ccache.Cache[*types.Song]
	if conf.IsEnabled() {
		songs = ccache.New(
			ccache.Configure[*types.Song]().
				MaxSize(conf.MaxSize).
				GetsPerPromote(3).
				ItemsToPrune(1),
		)
	}

	return &Cache{
		Songs: SongsCache{
			c:   songs,
			ttl: conf.TTL.Duration,
		},
	}
}

// Disabled returns a cache that always calls through.
func Disabled() *Cache {
	return &Cache{Songs: SongsCache{c: nil, ttl: 0}}
}

type SongsCache struct {
	c   *ccache.Cache[*types.Song]
	ttl time.Duration
}

// Fetch returns a copy of the cached song for k, calling fetch on a miss.
// Failed fetches are not cached.
func (c *SongsCache) Fetch(k string, fetch func() (*types.Song, error)) (*types.Song, error) {
	if nil == c.c {
		return fetch()
	}

	item, err := c.c.Fetch(k, c.ttl, fetch)
	if nil != err {
		return nil, fmt.Errorf("fetch song: %w", err)
	}

	return item.Value().Clone(), nil
}

func (c *SongsCache) Stop() {
	if nil != c.c {
		c.c.Stop()
	}
}

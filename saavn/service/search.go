package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/xeptore/saavn/saavn/endpoint"
	"github.com/xeptore/saavn/saavn/types"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
)

func (s *Service) SearchSongs(ctx context.Context, logger zerolog.Logger, query string, page, limit int) (types.Raw, error) {
	return s.search(ctx, logger, endpoint.OpSearchSongs, query, page, limit)
}

func (s *Service) SearchAlbums(ctx context.Context, logger zerolog.Logger, query string, page, limit int) (types.Raw, error) {
	return s.search(ctx, logger, endpoint.OpSearchAlbums, query, page, limit)
}

func (s *Service) SearchArtists(ctx context.Context, logger zerolog.Logger, query string, page, limit int) (types.Raw, error) {
	return s.search(ctx, logger, endpoint.OpSearchArtists, query, page, limit)
}

// SearchAll returns the grouped songs, albums, artists and playlists
// matching query.
func (s *Service) SearchAll(ctx context.Context, logger zerolog.Logger, query string) (types.Raw, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", ErrInvalidArgument)
	}

	return s.passthrough(ctx, logger, endpoint.OpSearchAll, url.Values{"query": {query}})
}

func (s *Service) search(ctx context.Context, logger zerolog.Logger, op endpoint.OperationName, query string, page, limit int) (types.Raw, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", ErrInvalidArgument)
	}

	params := url.Values{
		"q":     {query},
		"page":  {strconv.Itoa(lo.Ternary(page < 1, DefaultPage, page))},
		"limit": {strconv.Itoa(lo.Ternary(limit < 1, DefaultLimit, limit))},
	}

	return s.passthrough(ctx, logger, op, params)
}

func (s *Service) Trending(ctx context.Context, logger zerolog.Logger) (types.Raw, error) {
	return s.passthrough(ctx, logger, endpoint.OpTrending, nil)
}

func (s *Service) Charts(ctx context.Context, logger zerolog.Logger) (types.Raw, error) {
	return s.passthrough(ctx, logger, endpoint.OpCharts, nil)
}

func (s *Service) Home(ctx context.Context, logger zerolog.Logger) (types.Raw, error) {
	return s.passthrough(ctx, logger, endpoint.OpHomeData, nil)
}

// Albums lists new album releases, count per page.
func (s *Service) Albums(ctx context.Context, logger zerolog.Logger, page, count int) (types.Raw, error) {
	params := url.Values{
		"p": {strconv.Itoa(lo.Ternary(page < 1, DefaultPage, page))},
		"n": {strconv.Itoa(lo.Ternary(count < 1, DefaultLimit, count))},
	}

	return s.passthrough(ctx, logger, endpoint.OpAlbums, params)
}

func (s *Service) passthrough(ctx context.Context, logger zerolog.Logger, op endpoint.OperationName, params url.Values) (types.Raw, error) {
	body, err := s.api.Get(ctx, logger, op, params)
	if nil != err {
		return nil, fmt.Errorf("failed to get %s: %w", op, err)
	}

	out, err := stripModules(body)
	if nil != err {
		return nil, fmt.Errorf("%w: %v", endpoint.ErrMalformedResponse, err)
	}

	return out, nil
}

// stripModules removes the page layout description the web API attaches
// under "modules", at the top level or in each element of a top-level
// array.
func stripModules(body []byte) ([]byte, error) {
	var (
		res = gjson.ParseBytes(body)
		err error
	)
	switch {
	case res.IsObject():
		if res.Get("modules").Exists() {
			if body, err = sjson.DeleteBytes(body, "modules"); nil != err {
				return nil, fmt.Errorf("failed to delete modules: %v", err)
			}
		}
	case res.IsArray():
		for i := range len(res.Array()) {
			path := strconv.Itoa(i) + ".modules"
			if !gjson.GetBytes(body, path).Exists() {
				continue
			}

			if body, err = sjson.DeleteBytes(body, path); nil != err {
				return nil, fmt.Errorf("failed to delete modules of element %d: %v", i, err)
			}
		}
	}

	return body, nil
}

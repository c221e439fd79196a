package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/xeptore/saavn/result"
	"github.com/xeptore/saavn/saavn/types"
)

type songFetcher func(ctx context.Context, logger zerolog.Logger, stub types.Song) (*types.Song, error)

// enrichSongs replaces every stub with the record returned by fetch. Stubs
// are fetched concurrently but the output keeps their order. The call fails
// when any stub fails, reporting every failure.
func (s *Service) enrichSongs(ctx context.Context, logger zerolog.Logger, stubs []types.Song, fetch songFetcher) ([]types.Song, error) {
	var (
		wg      errgroup.Group
		results = make([]result.Of[types.Song], len(stubs))
	)
	wg.SetLimit(s.concurrency)
	for i, stub := range stubs {
		logger := logger.With().Int("song_index", i).Str("song_id", stub.ID.String()).Logger()

		wg.Go(func() error {
			song, err := fetch(ctx, logger, stub)
			if nil != err {
				logger.Debug().Err(err).Msg("Failed to fetch song")
				results[i] = result.Err[types.Song](err)
				return nil
			}

			results[i] = result.Ok(*song)
			return nil
		})
	}
	_ = wg.Wait()

	if err := ctx.Err(); nil != err {
		return nil, err
	}

	songs, err := result.Collect(results)
	if nil != err {
		return nil, fmt.Errorf("failed to fetch songs: %w", err)
	}

	return songs, nil
}

// fetchByPermalink fetches the full record of a stub through its permalink.
func (s *Service) fetchByPermalink(ctx context.Context, logger zerolog.Logger, stub types.Song) (*types.Song, error) {
	id, err := SongIdentifier(stub)
	if nil != err {
		return nil, err
	}

	return s.SongDetails(ctx, logger, id)
}

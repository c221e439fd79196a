package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/xeptore/saavn/saavn/endpoint"
	"github.com/xeptore/saavn/saavn/types"
)

// PlaylistDetails fetches a playlist with every song fully resolved. Songs
// of responses to link requests already carry their preview URLs and only
// get their links derived; other songs are fetched one by one.
func (s *Service) PlaylistDetails(ctx context.Context, logger zerolog.Logger, id types.Identifier) (*types.Playlist, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("%w: empty playlist identifier", ErrInvalidArgument)
	}

	logger = logger.With().Str("playlist", id.String()).Logger()

	op := lo.Ternary(id.IsLinkToken(), endpoint.OpPlaylistDetailsByLink, endpoint.OpPlaylistDetails)
	k, v, err := id.Param(types.EntityPlaylist)
	if nil != err {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	body, err := s.api.Get(ctx, logger, op, url.Values{k: {v}})
	if nil != err {
		return nil, fmt.Errorf("failed to get playlist details: %w", err)
	}

	var playlist types.Playlist
	if err := json.Unmarshal(body, &playlist); nil != err {
		return nil, fmt.Errorf("%w: failed to decode playlist: %v", endpoint.ErrMalformedResponse, err)
	}

	fetch := s.fetchByPermalink
	if id.IsLinkToken() {
		fetch = s.fromStubOrPermalink
	}

	songs, err := s.enrichSongs(ctx, logger, playlist.Songs, fetch)
	if nil != err {
		return nil, fmt.Errorf("failed to fetch playlist songs: %w", err)
	}
	playlist.Songs = songs

	return &playlist, nil
}

func (s *Service) fromStubOrPermalink(ctx context.Context, logger zerolog.Logger, stub types.Song) (*types.Song, error) {
	if stub.MediaPreviewURL == "" {
		return s.fetchByPermalink(ctx, logger, stub)
	}

	song := stub.Clone()
	attachLinks(logger, song)

	return song, nil
}

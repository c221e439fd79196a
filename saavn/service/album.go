package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/xeptore/saavn/saavn/endpoint"
	"github.com/xeptore/saavn/saavn/media"
	"github.com/xeptore/saavn/saavn/types"
)

func (s *Service) fetchAlbum(ctx context.Context, logger zerolog.Logger, id types.Identifier) (*types.Album, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("%w: empty album identifier", ErrInvalidArgument)
	}

	op := lo.Ternary(id.IsLinkToken(), endpoint.OpAlbumDetailsByLink, endpoint.OpAlbumDetails)
	k, v, err := id.Param(types.EntityAlbum)
	if nil != err {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	body, err := s.api.Get(ctx, logger, op, url.Values{k: {v}})
	if nil != err {
		return nil, fmt.Errorf("failed to get album details: %w", err)
	}

	var album types.Album
	if err := json.Unmarshal(body, &album); nil != err {
		return nil, fmt.Errorf("%w: failed to decode album: %v", endpoint.ErrMalformedResponse, err)
	}

	return &album, nil
}

// AlbumDetails fetches an album and replaces each of its song stubs with
// the full song record, download links included.
func (s *Service) AlbumDetails(ctx context.Context, logger zerolog.Logger, id types.Identifier) (*types.Album, error) {
	logger = logger.With().Str("album", id.String()).Logger()

	album, err := s.fetchAlbum(ctx, logger, id)
	if nil != err {
		return nil, err
	}

	songs, err := s.enrichSongs(ctx, logger, album.Songs, s.fetchByPermalink)
	if nil != err {
		return nil, fmt.Errorf("failed to fetch album songs: %w", err)
	}
	album.Songs = songs

	return album, nil
}

// AlbumDownloads summarizes an album with per-song download links derived
// from the album response only.
func (s *Service) AlbumDownloads(ctx context.Context, logger zerolog.Logger, id types.Identifier) (*types.AlbumDownloads, error) {
	logger = logger.With().Str("album", id.String()).Logger()

	album, err := s.fetchAlbum(ctx, logger, id)
	if nil != err {
		return nil, err
	}

	songs := lo.Map(album.Songs, func(song types.Song, _ int) types.AlbumSongLinks {
		var links types.DownloadLinks
		if song.MediaPreviewURL != "" {
			links, _ = media.DeriveLinks(song.MediaPreviewURL.String())
		}

		return types.AlbumSongLinks{
			Song:  permalinkSlug(song.PermaURL.String()),
			Image: song.Image,
			Links: links,
		}
	})

	return &types.AlbumDownloads{
		AlbumID:         album.ID,
		AlbumTitle:      album.Title,
		AlbumYear:       album.Year,
		AlbumImage:      album.Image,
		PermaURL:        album.PermaURL,
		PrimaryArtist:   album.PrimaryArtists,
		PrimaryArtistID: album.PrimaryArtistsID,
		Songs:           songs,
	}, nil
}

// permalinkSlug returns the title slug of a song permalink, e.g. "tum-hi-ho"
// for https://www.jiosaavn.com/song/tum-hi-ho/EToxUyFpcwQ.
func permalinkSlug(permaURL string) string {
	rest := permaURL
	if i := strings.LastIndex(permaURL, "/song/"); i != -1 {
		rest = permaURL[i+len("/song/"):]
	}
	slug, _, _ := strings.Cut(rest, "/")

	return slug
}

package service

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"github.com/xeptore/saavn/saavn/endpoint"
	"github.com/xeptore/saavn/saavn/link"
	"github.com/xeptore/saavn/saavn/media"
	"github.com/xeptore/saavn/saavn/types"
)

// SongDetails fetches a song and attaches the download links derived from
// its preview URL. Repeated calls for the same identifier within the cache
// TTL are served from memory.
func (s *Service) SongDetails(ctx context.Context, logger zerolog.Logger, id types.Identifier) (*types.Song, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("%w: empty song identifier", ErrInvalidArgument)
	}

	logger = logger.With().Str("song", id.String()).Logger()

	song, err := s.cache.Songs.Fetch(id.String(), func() (*types.Song, error) {
		return s.fetchSong(ctx, logger, id)
	})
	if nil != err {
		return nil, err
	}

	return song, nil
}

func (s *Service) fetchSong(ctx context.Context, logger zerolog.Logger, id types.Identifier) (*types.Song, error) {
	op := lo.Ternary(id.IsLinkToken(), endpoint.OpSongDetailsByLink, endpoint.OpSongDetails)
	k, v, err := id.Param(types.EntitySong)
	if nil != err {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	body, err := s.api.Get(ctx, logger, op, url.Values{k: {v}})
	if nil != err {
		return nil, fmt.Errorf("failed to get song details: %w", err)
	}

	obj, err := songObject(body, id)
	if nil != err {
		return nil, err
	}

	var song types.Song
	if err := json.Unmarshal([]byte(obj.Raw), &song); nil != err {
		return nil, fmt.Errorf("%w: failed to decode song: %v", endpoint.ErrMalformedResponse, err)
	}
	attachLinks(logger, &song)

	return &song, nil
}

// songObject locates the song record in a details response, which is either
// {"songs": [song, ...]} or an object keyed by song id.
func songObject(body []byte, id types.Identifier) (gjson.Result, error) {
	res := gjson.ParseBytes(body)

	if songs := res.Get("songs"); songs.Exists() {
		if !songs.IsArray() {
			return gjson.Result{}, fmt.Errorf("%w: songs is not an array", endpoint.ErrMalformedResponse)
		}

		first := songs.Get("0")
		if !first.IsObject() {
			return gjson.Result{}, fmt.Errorf("%w: song %s", endpoint.ErrNotFound, id)
		}

		return first, nil
	}

	if v := res.Get(gjson.Escape(id.Value())); v.IsObject() {
		return v, nil
	}

	var found gjson.Result
	res.ForEach(func(_, v gjson.Result) bool {
		if v.IsObject() && v.Get("id").Exists() {
			found = v
			return false
		}

		return true
	})
	if !found.Exists() {
		return gjson.Result{}, fmt.Errorf("%w: song %s", endpoint.ErrNotFound, id)
	}

	return found, nil
}

func attachLinks(logger zerolog.Logger, song *types.Song) {
	if song.MediaPreviewURL == "" {
		return
	}

	links, found := media.DeriveLinks(song.MediaPreviewURL.String())
	if !found {
		logger.Warn().
			Str("song_id", song.ID.String()).
			Str("preview_url", song.MediaPreviewURL.String()).
			Msg("Preview URL has no bitrate marker, download links equal the preview URL")
	}
	song.DownloadLinks = links
}

// SongDownloadLinks returns only the derived download links of a song.
func (s *Service) SongDownloadLinks(ctx context.Context, logger zerolog.Logger, id types.Identifier) (types.DownloadLinks, error) {
	song, err := s.SongDetails(ctx, logger, id)
	if nil != err {
		return nil, err
	}

	if len(song.DownloadLinks) == 0 {
		return nil, fmt.Errorf("%w: song %s has no media_preview_url", ErrMissingField, id)
	}

	return song.DownloadLinks, nil
}

var lineBreakPattern = regexp.MustCompile(`(?i)<br\s*/?>`)

func sanitizeLyrics(s string) string {
	return html.UnescapeString(lineBreakPattern.ReplaceAllString(s, "\n"))
}

func (s *Service) SongLyrics(ctx context.Context, logger zerolog.Logger, id types.Identifier) (string, error) {
	song, err := s.SongDetails(ctx, logger, id)
	if nil != err {
		return "", err
	}

	if song.ID == "" {
		return "", fmt.Errorf("%w: song %s has no id", ErrMissingField, id)
	}

	body, err := s.api.Get(ctx, logger, endpoint.OpLyrics, url.Values{"lyrics_id": {song.ID.String()}})
	if nil != err {
		return "", fmt.Errorf("failed to get song lyrics: %w", err)
	}

	lyrics := gjson.GetBytes(body, "lyrics").String()
	if strings.TrimSpace(lyrics) == "" {
		return "", fmt.Errorf("%w: lyrics of song %s", endpoint.ErrNotFound, song.ID)
	}

	return sanitizeLyrics(lyrics), nil
}

// SongAuthURL asks the API to sign the encrypted media URL of a song for
// the given bitrate.
func (s *Service) SongAuthURL(ctx context.Context, logger zerolog.Logger, id types.Identifier, bitrate types.Bitrate) (*types.SongAuthURL, error) {
	song, err := s.SongDetails(ctx, logger, id)
	if nil != err {
		return nil, err
	}

	if song.EncryptedMediaURL == "" {
		return nil, fmt.Errorf("%w: song %s has no encrypted_media_url", ErrMissingField, id)
	}

	params := url.Values{
		"url":     {song.EncryptedMediaURL.String()},
		"bitrate": {bitrate.Kbps()},
	}
	body, err := s.api.Get(ctx, logger, endpoint.OpSongAuthToken, params)
	if nil != err {
		return nil, fmt.Errorf("failed to generate song auth token: %w", err)
	}

	var out types.SongAuthURL
	if err := json.Unmarshal(body, &out); nil != err {
		return nil, fmt.Errorf("%w: failed to decode auth token response: %v", endpoint.ErrMalformedResponse, err)
	}

	if out.AuthURL == "" {
		return nil, fmt.Errorf("%w: auth_url", ErrMissingField)
	}

	return &out, nil
}

// SongIdentifier picks the identifier a song stub of an album or playlist
// is fetched by: the token of its permalink, else its id.
func SongIdentifier(stub types.Song) (types.Identifier, error) {
	if stub.PermaURL != "" {
		id, err := link.ResolveLink(stub.PermaURL.String(), types.EntitySong)
		if nil == err {
			return id, nil
		}
	}

	if stub.ID != "" {
		return types.ByID(stub.ID.String()), nil
	}

	return types.Identifier{}, fmt.Errorf("%w: song has neither perma_url nor id", ErrMissingField)
}

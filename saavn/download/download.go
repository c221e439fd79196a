package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/xeptore/saavn/config"
	"github.com/xeptore/saavn/httputil"
	"github.com/xeptore/saavn/redact"
	"github.com/xeptore/saavn/saavn/fs"
	"github.com/xeptore/saavn/saavn/types"
	"github.com/xeptore/saavn/store"
)

var (
	ErrNotAudio = errors.New("downloaded file is not audio")
	ErrNoSource = errors.New("song has no downloadable source")
)

// SongSource resolves songs and signed media URLs. *service.Service
// implements it.
type SongSource interface {
	SongDetails(ctx context.Context, logger zerolog.Logger, id types.Identifier) (*types.Song, error)
	SongAuthURL(ctx context.Context, logger zerolog.Logger, id types.Identifier, bitrate types.Bitrate) (*types.SongAuthURL, error)
}

type Downloader struct {
	songs     SongSource
	dir       fs.DownloadDir
	index     *store.Store
	client    *http.Client
	userAgent string
	retries   uint64
}

func New(songs SongSource, index *store.Store, saavnConf config.Saavn, conf config.Downloads) *Downloader {
	return &Downloader{
		songs: songs,
		dir:   fs.DownloadDirFrom(conf.Dir),
		index: index,
		client: &http.Client{ //nolint:exhaustruct
			Timeout: saavnConf.Timeouts.DownloadDuration(),
		},
		userAgent: saavnConf.UserAgent,
		retries:   uint64(conf.Retries), //nolint:gosec
	}
}

// SaveSong downloads the song addressed by id at bitrate into the
// downloads directory and records it in the index. Songs already in the
// index whose file still exists are not downloaded again unless force is
// set.
func (d *Downloader) SaveSong(
	ctx context.Context,
	logger zerolog.Logger,
	id types.Identifier,
	bitrate types.Bitrate,
	force bool,
) (*store.Download, error) {
	logger = logger.With().Str("song", id.String()).Str("bitrate", string(bitrate)).Logger()

	song, err := d.songs.SongDetails(ctx, logger, id)
	if nil != err {
		return nil, fmt.Errorf("failed to get song details: %w", err)
	}

	prev, err := d.existing(song.ID.String(), bitrate)
	if nil != err {
		return nil, err
	}

	if nil != prev && !force {
		logger.Info().Str("path", prev.Path).Msg("Song already downloaded")
		return prev, nil
	}

	srcURL, err := d.sourceURL(ctx, logger, id, song, bitrate)
	if nil != err {
		return nil, err
	}

	if err := d.dir.Ensure(); nil != err {
		return nil, err
	}

	tmp, ext, size, err := d.fetchToTemp(ctx, logger, srcURL)
	if nil != err {
		return nil, err
	}

	target := d.dir.Song(*song, bitrate, ext)
	if err := os.Rename(tmp, target.Path); nil != err {
		err = fmt.Errorf("failed to move downloaded file into place: %v", err)
		if removeErr := os.Remove(tmp); nil != removeErr && !errors.Is(removeErr, os.ErrNotExist) {
			err = errors.Join(err, fmt.Errorf("failed to remove temporary file: %v", removeErr))
		}

		return nil, err
	}

	if err := target.InfoFile.Write(*song); nil != err {
		logger.Warn().Err(err).Msg("Failed to write song info file")
	}

	rec := store.Download{
		SongID:  song.ID.String(),
		Title:   song.Title.String(),
		Bitrate: string(bitrate),
		Path:    target.Path,
		URL:     srcURL,
		Size:    size,
		SavedAt: time.Now().UTC(),
	}
	if err := d.index.Put(rec); nil != err {
		return nil, fmt.Errorf("failed to record download: %v", err)
	}

	if nil != prev && prev.Path != rec.Path {
		if err := fs.SongFileAt(prev.Path).Remove(); nil != err {
			logger.Warn().Err(err).Str("path", prev.Path).Msg("Failed to remove previous song file")
		}
	}

	logger.Info().Str("path", rec.Path).Int64("size", size).Msg("Song downloaded")

	return &rec, nil
}

// Saved returns the index record of a downloaded song together with the
// song details stored next to the file.
func (d *Downloader) Saved(songID string, bitrate types.Bitrate) (*store.Download, *types.Song, error) {
	rec, err := d.index.Get(songID, string(bitrate))
	if nil != err {
		return nil, nil, fmt.Errorf("failed to look up download record: %w", err)
	}

	song, err := fs.SongFileAt(rec.Path).InfoFile.Read()
	if nil != err {
		return nil, nil, fmt.Errorf("failed to read song info: %w", err)
	}

	return rec, song, nil
}

// Remove deletes a downloaded song file with its info file and drops its
// index record. It returns the removed record.
func (d *Downloader) Remove(logger zerolog.Logger, songID string, bitrate types.Bitrate) (*store.Download, error) {
	rec, err := d.index.Get(songID, string(bitrate))
	if nil != err {
		return nil, fmt.Errorf("failed to look up download record: %w", err)
	}

	if err := fs.SongFileAt(rec.Path).Remove(); nil != err {
		return nil, err
	}

	if err := d.index.Delete(songID, string(bitrate)); nil != err {
		return nil, err
	}

	logger.Info().Str("path", rec.Path).Msg("Song removed")

	return rec, nil
}

func (d *Downloader) existing(songID string, bitrate types.Bitrate) (*store.Download, error) {
	rec, err := d.index.Get(songID, string(bitrate))
	if nil != err {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to look up download record: %v", err)
	}

	exists, err := fs.SongFileAt(rec.Path).Exists()
	if nil != err {
		return nil, fmt.Errorf("failed to check downloaded file: %v", err)
	}

	if !exists {
		return nil, nil
	}

	return rec, nil
}

// sourceURL prefers the link derived for bitrate and falls back to a
// signed URL when the song has no preview URL to derive links from.
func (d *Downloader) sourceURL(
	ctx context.Context,
	logger zerolog.Logger,
	id types.Identifier,
	song *types.Song,
	bitrate types.Bitrate,
) (string, error) {
	if u, ok := song.DownloadLinks.Get(bitrate); ok && u != "" {
		return u, nil
	}

	logger.Debug().Msg("Song has no derived download link, requesting auth URL")

	auth, err := d.songs.SongAuthURL(ctx, logger, id, bitrate)
	if nil != err {
		return "", fmt.Errorf("%w: %w", ErrNoSource, err)
	}

	return auth.AuthURL, nil
}

// fetchToTemp downloads srcURL into a temporary file in the downloads
// directory and returns its path, the file extension matching its content
// and its size.
func (d *Downloader) fetchToTemp(ctx context.Context, logger zerolog.Logger, srcURL string) (path string, ext string, size int64, err error) {
	f, err := d.dir.TempFile()
	if nil != err {
		return "", "", 0, err
	}
	defer func() {
		if closeErr := f.Close(); nil != closeErr && !errors.Is(closeErr, os.ErrClosed) {
			err = errors.Join(err, fmt.Errorf("failed to close temporary file: %v", closeErr))
		}

		if nil != err {
			if removeErr := os.Remove(f.Name()); nil != removeErr && !errors.Is(removeErr, os.ErrNotExist) {
				err = errors.Join(err, fmt.Errorf("failed to remove temporary file: %v", removeErr))
			}
		}
	}()

	bo := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(
				backoff.WithInitialInterval(500*time.Millisecond),
				backoff.WithMaxInterval(10*time.Second),
			),
			d.retries,
		),
		ctx,
	)
	attempt := func() error {
		if err := f.Truncate(0); nil != err {
			return backoff.Permanent(fmt.Errorf("failed to truncate temporary file: %v", err))
		}

		if _, err := f.Seek(0, io.SeekStart); nil != err {
			return backoff.Permanent(fmt.Errorf("failed to rewind temporary file: %v", err))
		}

		n, err := d.fetch(ctx, srcURL, f)
		if nil != err {
			return err
		}
		size = n

		return nil
	}
	logger.Debug().Str("source", redact.URL(srcURL)).Msg("Downloading song")
	notify := func(err error, next time.Duration) {
		logger.Warn().Err(err).Str("source", redact.URL(srcURL)).Dur("retry_in", next).Msg("Song download attempt failed")
	}
	if err := backoff.RetryNotify(attempt, bo, notify); nil != err {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", "", 0, context.DeadlineExceeded
		}

		return "", "", 0, fmt.Errorf("failed to download song: %w", err)
	}

	if err := f.Sync(); nil != err {
		return "", "", 0, fmt.Errorf("failed to sync temporary file: %v", err)
	}

	if err := f.Close(); nil != err {
		return "", "", 0, fmt.Errorf("failed to close temporary file: %v", err)
	}

	mime, err := mimetype.DetectFile(f.Name())
	if nil != err {
		return "", "", 0, fmt.Errorf("failed to detect file type: %v", err)
	}

	ext, ok := audioExtension(mime)
	if !ok {
		return "", "", 0, fmt.Errorf("%w: got %s", ErrNotAudio, mime.String())
	}

	return f.Name(), ext, size, nil
}

// audioExtension maps a detected type to the extension the file is saved
// with. MP4 containers served by the CDN only carry audio.
func audioExtension(mime *mimetype.MIME) (string, bool) {
	for m := mime; nil != m; m = m.Parent() {
		switch {
		case m.Is("video/mp4"), m.Is("audio/mp4"):
			return ".m4a", true
		case strings.HasPrefix(m.String(), "audio/"):
			return mime.Extension(), true
		}
	}

	return "", false
}

func (d *Downloader) fetch(ctx context.Context, srcURL string, w io.Writer) (n int64, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if nil != err {
		return 0, backoff.Permanent(fmt.Errorf("failed to create download request: %v", err))
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if nil != err {
		if nil != ctx.Err() {
			return 0, backoff.Permanent(ctx.Err())
		}

		return 0, fmt.Errorf("failed to send download request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("failed to close download response body: %v", closeErr))
		}
	}()

	switch code := resp.StatusCode; {
	case code == http.StatusOK:
	case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		httputil.DrainBody(resp)
		return 0, fmt.Errorf("unexpected download status code %d", code)
	default:
		httputil.DrainBody(resp)
		return 0, backoff.Permanent(fmt.Errorf("unexpected download status code %d", code))
	}

	n, err = io.Copy(w, resp.Body)
	if nil != err {
		return 0, fmt.Errorf("failed to write song file: %w", err)
	}

	return n, nil
}

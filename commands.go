package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"

	"github.com/xeptore/saavn/ratelimit"
	"github.com/xeptore/saavn/render"
	"github.com/xeptore/saavn/saavn"
	"github.com/xeptore/saavn/saavn/download"
	"github.com/xeptore/saavn/saavn/link"
	"github.com/xeptore/saavn/saavn/media"
	"github.com/xeptore/saavn/saavn/service"
	"github.com/xeptore/saavn/saavn/types"
	"github.com/xeptore/saavn/store"
)

var errMissingArgs = errors.New("at least one argument is required")

// eachArg resolves every distinct argument as an identifier of kind and
// runs fn on it.
func eachArg(
	ctx context.Context,
	cmd *cli.Command,
	a *app,
	kind types.EntityKind,
	fn func(ctx context.Context, logger zerolog.Logger, id types.Identifier) error,
) error {
	return eachRawArg(cmd, a, kind.String(), func(logger zerolog.Logger, arg string) error {
		id, err := link.Parse(arg, kind)
		if nil != err {
			return err
		}

		return fn(ctx, logger, id)
	})
}

// eachRawArg runs fn on every distinct non-empty argument. Failures are
// logged and do not stop the remaining arguments.
func eachRawArg(cmd *cli.Command, a *app, what string, fn func(logger zerolog.Logger, arg string) error) error {
	args := lo.Uniq(lo.Compact(lo.Map(cmd.Args().Slice(), func(s string, _ int) string { return strings.TrimSpace(s) })))
	if len(args) == 0 {
		return errMissingArgs
	}

	var failed int
	for _, arg := range args {
		logger := a.logger.With().Str("arg", arg).Logger()

		if err := fn(logger, arg); nil != err {
			if errors.Is(err, context.Canceled) {
				return context.Canceled
			}

			failed++
			logger.Warn().Err(err).Str("reason", saavn.Reason(err)).Msgf("Failed to process %s", what)
		}
	}

	if failed > 0 {
		a.logger.Error().Int("failed", failed).Int("total", len(args)).Msg("Some arguments failed")
		return exitCodeError(1)
	}

	return nil
}

func query(cmd *cli.Command) (string, error) {
	q := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if q == "" {
		return "", errMissingArgs
	}

	return q, nil
}

// commandFailed logs err with its reason and turns it into exit code 1.
func commandFailed(a *app, err error, msg string) error {
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}

	a.logger.Warn().Err(err).Str("reason", saavn.Reason(err)).Msg(msg)

	return exitCodeError(1)
}

func trending(ctx context.Context, _ *cli.Command, a *app) error {
	raw, err := a.client.Trending(ctx, a.logger)
	if nil != err {
		return commandFailed(a, err, "Failed to get trending")
	}

	return a.out.Listing(raw)
}

func charts(ctx context.Context, _ *cli.Command, a *app) error {
	raw, err := a.client.Charts(ctx, a.logger)
	if nil != err {
		return commandFailed(a, err, "Failed to get charts")
	}

	return a.out.Listing(raw)
}

func home(ctx context.Context, _ *cli.Command, a *app) error {
	raw, err := a.client.Home(ctx, a.logger)
	if nil != err {
		return commandFailed(a, err, "Failed to get home data")
	}

	return a.out.JSON(raw)
}

func newAlbums(ctx context.Context, cmd *cli.Command, a *app) error {
	raw, err := a.client.Albums(ctx, a.logger, int(cmd.Int("page")), int(cmd.Int("limit")))
	if nil != err {
		return commandFailed(a, err, "Failed to get new albums")
	}

	return a.out.Listing(raw)
}

func searchSongs(ctx context.Context, cmd *cli.Command, a *app) error {
	q, err := query(cmd)
	if nil != err {
		return err
	}

	raw, err := a.client.SearchSongs(ctx, a.logger, q, int(cmd.Int("page")), int(cmd.Int("limit")))
	if nil != err {
		return commandFailed(a, err, "Failed to search songs")
	}

	if !cmd.Bool("pick") {
		return a.out.Listing(raw)
	}

	if !isatty.IsTerminal(os.Stdin.Fd()) || !isatty.IsTerminal(os.Stderr.Fd()) {
		a.logger.Error().Msg("No TTY detected. --pick needs an interactive terminal.")
		return exitCodeError(1)
	}

	items := render.Items(raw)
	if len(items) == 0 {
		a.logger.Warn().Str("query", q).Msg("No songs found")
		return exitCodeError(1)
	}

	var idx int
	prompt := &survey.Select{ //nolint:exhaustruct
		Message: "Pick a song:",
		Options: lo.Map(items, func(item render.Item, _ int) string {
			return lo.Ternary(item.Subtitle == "", item.Title, item.Title+" - "+item.Subtitle)
		}),
		PageSize: 10,
	}
	askOpts := []survey.AskOpt{
		survey.WithStdio(os.Stdin, os.Stderr, os.Stderr),
		survey.WithShowCursor(true),
	}
	if err := survey.AskOne(prompt, &idx, askOpts...); nil != err {
		return fmt.Errorf("failed to ask for a song: %v", err)
	}

	id, err := pickedSong(items[idx])
	if nil != err {
		return commandFailed(a, err, "Failed to resolve picked song")
	}

	links, err := a.client.SongDownloadLinks(ctx, a.logger, id)
	if nil != err {
		return commandFailed(a, err, "Failed to get song download links")
	}

	return a.out.Links(links)
}

func pickedSong(item render.Item) (types.Identifier, error) {
	if item.PermaURL != "" {
		return link.ResolveLink(item.PermaURL, types.EntitySong)
	}

	if item.ID == "" {
		return types.Identifier{}, fmt.Errorf("%w: search result has no id", link.ErrEmptyToken)
	}

	return types.ByID(item.ID), nil
}

func searchAlbums(ctx context.Context, cmd *cli.Command, a *app) error {
	q, err := query(cmd)
	if nil != err {
		return err
	}

	raw, err := a.client.SearchAlbums(ctx, a.logger, q, int(cmd.Int("page")), int(cmd.Int("limit")))
	if nil != err {
		return commandFailed(a, err, "Failed to search albums")
	}

	return a.out.Listing(raw)
}

func searchArtists(ctx context.Context, cmd *cli.Command, a *app) error {
	q, err := query(cmd)
	if nil != err {
		return err
	}

	raw, err := a.client.SearchArtists(ctx, a.logger, q, int(cmd.Int("page")), int(cmd.Int("limit")))
	if nil != err {
		return commandFailed(a, err, "Failed to search artists")
	}

	return a.out.Listing(raw)
}

func searchAll(ctx context.Context, cmd *cli.Command, a *app) error {
	q, err := query(cmd)
	if nil != err {
		return err
	}

	raw, err := a.client.SearchAll(ctx, a.logger, q)
	if nil != err {
		return commandFailed(a, err, "Failed to search")
	}

	return a.out.Listing(raw)
}

func songDetails(ctx context.Context, cmd *cli.Command, a *app) error {
	return eachArg(ctx, cmd, a, types.EntitySong, func(ctx context.Context, logger zerolog.Logger, id types.Identifier) error {
		song, err := a.client.SongDetails(ctx, logger, id)
		if nil != err {
			return err
		}

		return a.out.Song(song)
	})
}

func songLinks(ctx context.Context, cmd *cli.Command, a *app) error {
	return eachArg(ctx, cmd, a, types.EntitySong, func(ctx context.Context, logger zerolog.Logger, id types.Identifier) error {
		links, err := a.client.SongDownloadLinks(ctx, logger, id)
		if nil != err {
			return err
		}

		return a.out.Links(links)
	})
}

func songLyrics(ctx context.Context, cmd *cli.Command, a *app) error {
	return eachArg(ctx, cmd, a, types.EntitySong, func(ctx context.Context, logger zerolog.Logger, id types.Identifier) error {
		lyrics, err := a.client.SongLyrics(ctx, logger, id)
		if nil != err {
			return err
		}

		return a.out.Lyrics(lyrics)
	})
}

func bitrate(cmd *cli.Command, a *app) (types.Bitrate, error) {
	label := lo.CoalesceOrEmpty(cmd.String("bitrate"), a.conf.Downloads.Bitrate)

	b, err := media.ParseBitrate(label)
	if nil != err {
		return "", fmt.Errorf("invalid --bitrate: %w", err)
	}

	return b, nil
}

func songAuthURL(ctx context.Context, cmd *cli.Command, a *app) error {
	b, err := bitrate(cmd, a)
	if nil != err {
		return err
	}

	return eachArg(ctx, cmd, a, types.EntitySong, func(ctx context.Context, logger zerolog.Logger, id types.Identifier) error {
		auth, err := a.client.SongAuthURL(ctx, logger, id, b)
		if nil != err {
			return err
		}

		return a.out.AuthURL(auth)
	})
}

func withDownloader(a *app, run func(d *download.Downloader) error) (err error) {
	d, closeIndex, err := a.client.NewDownloader()
	if nil != err {
		return err
	}
	defer func() {
		if closeErr := closeIndex(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("failed to close downloads index: %v", closeErr))
		}
	}()

	return run(d)
}

func songSave(ctx context.Context, cmd *cli.Command, a *app) error {
	b, err := bitrate(cmd, a)
	if nil != err {
		return err
	}

	return withDownloader(a, func(d *download.Downloader) error {
		first := true
		return eachArg(ctx, cmd, a, types.EntitySong, func(ctx context.Context, logger zerolog.Logger, id types.Identifier) error {
			if !first {
				if err := pause(ctx); nil != err {
					return err
				}
			}
			first = false

			rec, err := d.SaveSong(ctx, logger, id, b, cmd.Bool("force"))
			if nil != err {
				return err
			}

			return a.out.Download(rec)
		})
	})
}

func pause(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(ratelimit.SongDownloadPause()):
		return nil
	}
}

// saveSongs downloads songs one after another, continuing past failures.
func saveSongs(
	ctx context.Context,
	logger zerolog.Logger,
	d *download.Downloader,
	songs []types.Song,
	b types.Bitrate,
	force bool,
) ([]store.Download, error) {
	var (
		recs []store.Download
		errs []error
	)
	for i, song := range songs {
		if i > 0 {
			if err := pause(ctx); nil != err {
				return nil, err
			}
		}

		logger := logger.With().Int("song_index", i).Str("song_id", song.ID.String()).Logger()

		id, err := service.SongIdentifier(song)
		if nil != err {
			errs = append(errs, fmt.Errorf("song %d: %w", i, err))
			continue
		}

		rec, err := d.SaveSong(ctx, logger, id, b, force)
		if nil != err {
			if errors.Is(err, context.Canceled) {
				return nil, context.Canceled
			}

			logger.Warn().Err(err).Str("reason", saavn.Reason(err)).Msg("Failed to download song")
			errs = append(errs, fmt.Errorf("song %d: %w", i, err))
			continue
		}
		recs = append(recs, *rec)
	}

	return recs, errors.Join(errs...)
}

func albumDetails(ctx context.Context, cmd *cli.Command, a *app) error {
	return eachArg(ctx, cmd, a, types.EntityAlbum, func(ctx context.Context, logger zerolog.Logger, id types.Identifier) error {
		album, err := a.client.AlbumDetails(ctx, logger, id)
		if nil != err {
			return err
		}

		return a.out.Album(album)
	})
}

func albumLinks(ctx context.Context, cmd *cli.Command, a *app) error {
	return eachArg(ctx, cmd, a, types.EntityAlbum, func(ctx context.Context, logger zerolog.Logger, id types.Identifier) error {
		album, err := a.client.AlbumDetails(ctx, logger, id)
		if nil != err {
			return err
		}

		return a.out.SongLinks(lo.Map(album.Songs, func(s types.Song, _ int) render.SongLinks {
			return render.SongLinks{ID: s.ID.String(), Title: s.Title.String(), Links: s.DownloadLinks}
		}))
	})
}

func albumDownloads(ctx context.Context, cmd *cli.Command, a *app) error {
	return eachArg(ctx, cmd, a, types.EntityAlbum, func(ctx context.Context, logger zerolog.Logger, id types.Identifier) error {
		out, err := a.client.AlbumDownloads(ctx, logger, id)
		if nil != err {
			return err
		}

		return a.out.AlbumDownloads(out)
	})
}

func albumSave(ctx context.Context, cmd *cli.Command, a *app) error {
	b, err := bitrate(cmd, a)
	if nil != err {
		return err
	}

	return withDownloader(a, func(d *download.Downloader) error {
		return eachArg(ctx, cmd, a, types.EntityAlbum, func(ctx context.Context, logger zerolog.Logger, id types.Identifier) error {
			album, err := a.client.AlbumDetails(ctx, logger, id)
			if nil != err {
				return err
			}

			recs, err := saveSongs(ctx, logger, d, album.Songs, b, cmd.Bool("force"))
			if renderErr := a.out.Downloads(recs); nil != renderErr {
				return errors.Join(err, renderErr)
			}

			return err
		})
	})
}

func playlistDetails(ctx context.Context, cmd *cli.Command, a *app) error {
	return eachArg(ctx, cmd, a, types.EntityPlaylist, func(ctx context.Context, logger zerolog.Logger, id types.Identifier) error {
		playlist, err := a.client.PlaylistDetails(ctx, logger, id)
		if nil != err {
			return err
		}

		return a.out.Playlist(playlist)
	})
}

func playlistSave(ctx context.Context, cmd *cli.Command, a *app) error {
	b, err := bitrate(cmd, a)
	if nil != err {
		return err
	}

	return withDownloader(a, func(d *download.Downloader) error {
		return eachArg(ctx, cmd, a, types.EntityPlaylist, func(ctx context.Context, logger zerolog.Logger, id types.Identifier) error {
			playlist, err := a.client.PlaylistDetails(ctx, logger, id)
			if nil != err {
				return err
			}

			recs, err := saveSongs(ctx, logger, d, playlist.Songs, b, cmd.Bool("force"))
			if renderErr := a.out.Downloads(recs); nil != renderErr {
				return errors.Join(err, renderErr)
			}

			return err
		})
	})
}

func downloadsShow(_ context.Context, cmd *cli.Command, a *app) error {
	b, err := bitrate(cmd, a)
	if nil != err {
		return err
	}

	return withDownloader(a, func(d *download.Downloader) error {
		return eachRawArg(cmd, a, "download", func(_ zerolog.Logger, songID string) error {
			rec, song, err := d.Saved(songID, b)
			if nil != err {
				return err
			}

			return a.out.SavedSong(rec, song)
		})
	})
}

func downloadsRemove(_ context.Context, cmd *cli.Command, a *app) error {
	b, err := bitrate(cmd, a)
	if nil != err {
		return err
	}

	return withDownloader(a, func(d *download.Downloader) error {
		return eachRawArg(cmd, a, "download", func(logger zerolog.Logger, songID string) error {
			rec, err := d.Remove(logger, songID, b)
			if nil != err {
				return err
			}

			return a.out.Download(rec)
		})
	})
}

func downloadsList(_ context.Context, _ *cli.Command, a *app) (err error) {
	index, err := store.Open(a.conf.Downloads.IndexPath)
	if nil != err {
		return fmt.Errorf("open downloads index: %v", err)
	}
	defer func() {
		if closeErr := index.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("close downloads index: %v", closeErr))
		}
	}()

	recs, err := index.List()
	if nil != err {
		return fmt.Errorf("list downloads: %v", err)
	}

	return a.out.Downloads(lo.Ternary(nil == recs, []store.Download{}, recs))
}

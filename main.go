package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/xeptore/saavn/config"
	"github.com/xeptore/saavn/constant"
	"github.com/xeptore/saavn/log"
	"github.com/xeptore/saavn/render"
	"github.com/xeptore/saavn/saavn"
)

func main() {
	logger := log.NewDefault()

	//nolint:exhaustruct
	app := &cli.Command{
		Name:    "saavn",
		Version: constant.Version,
		Metadata: map[string]any{
			"compiled_at": constant.CompileTime,
		},
		Suggest:                    true,
		Usage:                      "Unofficial JioSaavn client",
		EnableShellCompletion:      true,
		ShellCompletionCommandName: "shell-completion",
		AllowExtFlags:              false,
		Flags: []cli.Flag{
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:     "config",
				Usage:    "Config file path",
				Required: false,
			},
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:  "output",
				Usage: "Output format: auto, json or table",
				Value: string(render.FormatAuto),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "trending",
				Usage:  "Show trending songs, albums and playlists",
				Action: withApp(trending),
			},
			{
				Name:   "charts",
				Usage:  "Show top charts",
				Action: withApp(charts),
			},
			{
				Name:   "home",
				Usage:  "Show home page data",
				Action: withApp(home),
			},
			{
				Name:   "albums",
				Usage:  "List new album releases",
				Flags:  pageFlags(),
				Action: withApp(newAlbums),
			},
			{
				Name:  "search",
				Usage: "Search the catalog",
				Commands: []*cli.Command{
					{
						Name:      "song",
						Usage:     "Search songs",
						ArgsUsage: "<query>",
						Flags: append(
							pageFlags(),
							//nolint:exhaustruct
							&cli.BoolFlag{
								Name:  "pick",
								Usage: "Pick a result interactively and print its download links",
							},
						),
						Action: withApp(searchSongs),
					},
					{
						Name:      "album",
						Usage:     "Search albums",
						ArgsUsage: "<query>",
						Flags:     pageFlags(),
						Action:    withApp(searchAlbums),
					},
					{
						Name:      "artist",
						Usage:     "Search artists",
						ArgsUsage: "<query>",
						Flags:     pageFlags(),
						Action:    withApp(searchArtists),
					},
					{
						Name:      "all",
						Usage:     "Search songs, albums, artists and playlists at once",
						ArgsUsage: "<query>",
						Action:    withApp(searchAll),
					},
				},
			},
			{
				Name:  "song",
				Usage: "Song commands",
				Commands: []*cli.Command{
					{
						Name:      "details",
						Usage:     "Show song details with download links",
						ArgsUsage: "<link-or-id>...",
						Action:    withApp(songDetails),
					},
					{
						Name:      "links",
						Usage:     "Show song download links",
						ArgsUsage: "<link-or-id>...",
						Action:    withApp(songLinks),
					},
					{
						Name:      "lyrics",
						Usage:     "Show song lyrics",
						ArgsUsage: "<link-or-id>...",
						Action:    withApp(songLyrics),
					},
					{
						Name:      "auth-url",
						Usage:     "Show the signed media URL of a song",
						ArgsUsage: "<link-or-id>...",
						Flags:     []cli.Flag{bitrateFlag()},
						Action:    withApp(songAuthURL),
					},
					{
						Name:      "save",
						Usage:     "Download songs into the downloads directory",
						ArgsUsage: "<link-or-id>...",
						Flags:     []cli.Flag{bitrateFlag(), forceFlag()},
						Action:    withApp(songSave),
					},
				},
			},
			{
				Name:  "album",
				Usage: "Album commands",
				Commands: []*cli.Command{
					{
						Name:      "details",
						Usage:     "Show album details with every song resolved",
						ArgsUsage: "<link-or-id>...",
						Action:    withApp(albumDetails),
					},
					{
						Name:      "links",
						Usage:     "Show download links of every album song",
						ArgsUsage: "<link-or-id>...",
						Action:    withApp(albumLinks),
					},
					{
						Name:      "downloads",
						Usage:     "Show the album download summary",
						ArgsUsage: "<link-or-id>...",
						Action:    withApp(albumDownloads),
					},
					{
						Name:      "save",
						Usage:     "Download every album song",
						ArgsUsage: "<link-or-id>...",
						Flags:     []cli.Flag{bitrateFlag(), forceFlag()},
						Action:    withApp(albumSave),
					},
				},
			},
			{
				Name:  "playlist",
				Usage: "Playlist commands",
				Commands: []*cli.Command{
					{
						Name:      "details",
						Usage:     "Show playlist details with every song resolved",
						ArgsUsage: "<link-or-id>...",
						Action:    withApp(playlistDetails),
					},
					{
						Name:      "save",
						Usage:     "Download every playlist song",
						ArgsUsage: "<link-or-id>...",
						Flags:     []cli.Flag{bitrateFlag(), forceFlag()},
						Action:    withApp(playlistSave),
					},
				},
			},
			{
				Name:  "downloads",
				Usage: "Downloads index commands",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List downloaded songs",
						Action: withApp(downloadsList),
					},
					{
						Name:      "show",
						Usage:     "Show the index record and saved details of downloaded songs",
						ArgsUsage: "<song-id>...",
						Flags:     []cli.Flag{bitrateFlag()},
						Action:    withApp(downloadsShow),
					},
					{
						Name:      "remove",
						Usage:     "Delete downloaded songs and their index records",
						ArgsUsage: "<song-id>...",
						Flags:     []cli.Flag{bitrateFlag()},
						Action:    withApp(downloadsRemove),
					},
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); nil != err {
		if errors.Is(err, context.Canceled) {
			logger.Trace().Msg("Application was canceled")
			os.Exit(1)
		}

		var exitCode exitCodeError
		if errors.As(err, &exitCode) {
			os.Exit(int(exitCode))
		}

		logger.Error().Err(err).Msg("Application exited with error")
		os.Exit(10)
	}
}

type exitCodeError int

func (e exitCodeError) Error() string {
	return "error with exit code: " + strconv.Itoa(int(e))
}

func pageFlags() []cli.Flag {
	return []cli.Flag{
		//nolint:exhaustruct
		&cli.IntFlag{
			Name:  "page",
			Usage: "Result page, starting at 1",
			Value: 1,
		},
		//nolint:exhaustruct
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Results per page",
			Value: 20,
		},
	}
}

func bitrateFlag() cli.Flag {
	//nolint:exhaustruct
	return &cli.StringFlag{
		Name:  "bitrate",
		Usage: "Bitrate, one of 12, 48, 96, 160, 320 (defaults to downloads.bitrate)",
	}
}

func forceFlag() cli.Flag {
	//nolint:exhaustruct
	return &cli.BoolFlag{
		Name:  "force",
		Usage: "Download again even if the song is already in the downloads index",
	}
}

type app struct {
	logger zerolog.Logger
	conf   *config.Config
	client *saavn.Client
	out    *render.Renderer
}

type appAction func(ctx context.Context, cmd *cli.Command, a *app) error

func withApp(run appAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(cmd)
		if nil != err {
			return err
		}
		defer a.client.Close()

		return run(ctx, cmd, a)
	}
}

func newApp(cmd *cli.Command) (*app, error) {
	logger := log.NewDefault()

	if err := godotenv.Load(); nil != err {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load .env file: %v", err)
		}
		logger.Debug().Msg(".env file was not found")
	} else {
		logger.Debug().Msg(".env file was loaded")
	}

	format, err := render.ParseFormat(cmd.String("output"))
	if nil != err {
		return nil, err
	}

	conf, err := config.Load(cmd.String("config"))
	if nil != err {
		return nil, fmt.Errorf("load config: %v", err)
	}

	logger = log.FromConfig(conf.Log)

	logger.Debug().Dict("config", conf.ToDict()).Msg("Config loaded")

	client, err := saavn.NewClient(conf)
	if nil != err {
		return nil, fmt.Errorf("create saavn client: %v", err)
	}
	logger.Debug().Msg("Saavn client created")

	return &app{
		logger: logger,
		conf:   conf,
		client: client,
		out:    render.New(os.Stdout, format.Resolve(os.Stdout)),
	}, nil
}

package download_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/saavn/config"
	"github.com/xeptore/saavn/saavn/download"
	"github.com/xeptore/saavn/saavn/media"
	"github.com/xeptore/saavn/saavn/types"
	"github.com/xeptore/saavn/store"
)

// m4aHeader is the start of an MP4 file with the M4A brand.
var m4aHeader = append(
	[]byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'M', '4', 'A', ' ', 0x00, 0x00, 0x00, 0x00, 'M', '4', 'A', ' ', 'i', 's', 'o', 'm'},
	make([]byte, 1000)...,
)

type fakeSongs struct {
	song      types.Song
	authURL   string
	authCalls atomic.Int32
}

func (f *fakeSongs) SongDetails(_ context.Context, _ zerolog.Logger, _ types.Identifier) (*types.Song, error) {
	return f.song.Clone(), nil
}

func (f *fakeSongs) SongAuthURL(_ context.Context, _ zerolog.Logger, _ types.Identifier, _ types.Bitrate) (*types.SongAuthURL, error) {
	f.authCalls.Add(1)
	return &types.SongAuthURL{AuthURL: f.authURL, Type: ".mp4", Status: "success"}, nil
}

type cdn struct {
	URL  string
	hits atomic.Int32
}

func newCDN(t *testing.T, handle func(hit int32, w http.ResponseWriter)) *cdn {
	t.Helper()

	c := new(cdn)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handle(c.hits.Add(1), w)
	}))
	t.Cleanup(srv.Close)
	c.URL = srv.URL

	return c
}

func serveM4A(_ int32, w http.ResponseWriter) {
	_, _ = w.Write(m4aHeader)
}

func newDownloader(t *testing.T, songs download.SongSource) (*download.Downloader, *store.Store, string) {
	t.Helper()

	index, err := store.Open(filepath.Join(t.TempDir(), "downloads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, index.Close()) })

	dir := filepath.Join(t.TempDir(), "downloads")
	saavnConf := config.Saavn{ //nolint:exhaustruct
		UserAgent: "saavn-test",
		Timeouts:  config.SaavnTimeouts{API: 5, Download: 5},
	}
	downloadsConf := config.Downloads{Dir: dir, IndexPath: "", Bitrate: "320kbps", Retries: 2}

	return download.New(songs, index, saavnConf, downloadsConf), index, dir
}

func songServedBy(c *cdn) types.Song {
	links, _ := media.DeriveLinks("https://preview.saavncdn.com/430/abc_96_p.mp4")
	links = lo.Map(links, func(l types.DownloadLink, _ int) types.DownloadLink {
		return types.DownloadLink{Bitrate: l.Bitrate, URL: c.URL + "/" + string(l.Bitrate) + ".mp4"}
	})

	return types.Song{ //nolint:exhaustruct
		ID:             "abc",
		Title:          "Tum Hi Ho",
		PrimaryArtists: "Arijit Singh",
		DownloadLinks:  links,
	}
}

func TestSaveSong(t *testing.T) {
	t.Parallel()

	c := newCDN(t, serveM4A)
	songs := &fakeSongs{song: songServedBy(c)} //nolint:exhaustruct
	d, index, dir := newDownloader(t, songs)

	rec, err := d.SaveSong(t.Context(), zerolog.Nop(), types.ByID("abc"), types.Bitrate320, false)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Arijit Singh - Tum Hi Ho (320kbps).m4a"), rec.Path)
	assert.Equal(t, c.URL+"/320kbps.mp4", rec.URL)
	assert.Equal(t, int64(len(m4aHeader)), rec.Size)

	content, err := os.ReadFile(rec.Path)
	require.NoError(t, err)
	assert.Equal(t, m4aHeader, content)

	stored, err := index.Get("abc", "320kbps")
	require.NoError(t, err)
	assert.Equal(t, rec.Path, stored.Path)

	_, err = os.Stat(rec.Path + ".json")
	require.NoError(t, err)

	again, err := d.SaveSong(t.Context(), zerolog.Nop(), types.ByID("abc"), types.Bitrate320, false)
	require.NoError(t, err)
	assert.Equal(t, rec.Path, again.Path)
	assert.Equal(t, int32(1), c.hits.Load())

	_, err = d.SaveSong(t.Context(), zerolog.Nop(), types.ByID("abc"), types.Bitrate320, true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), c.hits.Load())
	assert.Zero(t, songs.authCalls.Load())
}

func TestSaveSongRedownloadsMissingFile(t *testing.T) {
	t.Parallel()

	c := newCDN(t, serveM4A)
	d, _, _ := newDownloader(t, &fakeSongs{song: songServedBy(c)}) //nolint:exhaustruct

	rec, err := d.SaveSong(t.Context(), zerolog.Nop(), types.ByID("abc"), types.Bitrate96, false)
	require.NoError(t, err)
	require.NoError(t, os.Remove(rec.Path))

	_, err = d.SaveSong(t.Context(), zerolog.Nop(), types.ByID("abc"), types.Bitrate96, false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), c.hits.Load())
}

func TestSaveSongRetriesServerErrors(t *testing.T) {
	t.Parallel()

	c := newCDN(t, func(hit int32, w http.ResponseWriter) {
		if hit == 1 {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("partial"))
			return
		}
		_, _ = w.Write(m4aHeader)
	})
	d, _, _ := newDownloader(t, &fakeSongs{song: songServedBy(c)}) //nolint:exhaustruct

	rec, err := d.SaveSong(t.Context(), zerolog.Nop(), types.ByID("abc"), types.Bitrate160, false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), c.hits.Load())
	assert.Equal(t, int64(len(m4aHeader)), rec.Size)
}

func TestSaveSongRejectsNonAudio(t *testing.T) {
	t.Parallel()

	c := newCDN(t, func(_ int32, w http.ResponseWriter) {
		_, _ = w.Write([]byte("<html><body>Access denied</body></html>"))
	})
	d, index, dir := newDownloader(t, &fakeSongs{song: songServedBy(c)}) //nolint:exhaustruct

	_, err := d.SaveSong(t.Context(), zerolog.Nop(), types.ByID("abc"), types.Bitrate320, false)
	require.ErrorIs(t, err, download.ErrNotAudio)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = index.Get("abc", "320kbps")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSaveSongDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	c := newCDN(t, func(_ int32, w http.ResponseWriter) {
		w.WriteHeader(http.StatusForbidden)
	})
	d, _, _ := newDownloader(t, &fakeSongs{song: songServedBy(c)}) //nolint:exhaustruct

	_, err := d.SaveSong(t.Context(), zerolog.Nop(), types.ByID("abc"), types.Bitrate320, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Equal(t, int32(1), c.hits.Load())
}

func TestSaveSongFallsBackToAuthURL(t *testing.T) {
	t.Parallel()

	c := newCDN(t, serveM4A)
	songs := &fakeSongs{ //nolint:exhaustruct
		song:    types.Song{ID: "xyz", Title: "Kesariya", PrimaryArtists: "Arijit Singh"}, //nolint:exhaustruct
		authURL: c.URL + "/signed.mp4",
	}
	d, _, _ := newDownloader(t, songs)

	rec, err := d.SaveSong(t.Context(), zerolog.Nop(), types.ByID("xyz"), types.Bitrate320, false)
	require.NoError(t, err)
	assert.Equal(t, c.URL+"/signed.mp4", rec.URL)
	assert.Equal(t, int32(1), songs.authCalls.Load())
}

func TestSaveSongForceRemovesPreviousFile(t *testing.T) {
	t.Parallel()

	c := newCDN(t, serveM4A)
	songs := &fakeSongs{song: songServedBy(c)} //nolint:exhaustruct
	d, _, dir := newDownloader(t, songs)

	first, err := d.SaveSong(t.Context(), zerolog.Nop(), types.ByID("abc"), types.Bitrate160, false)
	require.NoError(t, err)

	songs.song.Title = "Tum Hi Ho (Reprise)"
	second, err := d.SaveSong(t.Context(), zerolog.Nop(), types.ByID("abc"), types.Bitrate160, true)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Arijit Singh - Tum Hi Ho (Reprise) (160kbps).m4a"), second.Path)
	assert.FileExists(t, second.Path)
	assert.NoFileExists(t, first.Path)
	assert.NoFileExists(t, first.Path+".json")
}

func TestSavedAndRemove(t *testing.T) {
	t.Parallel()

	c := newCDN(t, serveM4A)
	d, index, _ := newDownloader(t, &fakeSongs{song: songServedBy(c)}) //nolint:exhaustruct

	rec, err := d.SaveSong(t.Context(), zerolog.Nop(), types.ByID("abc"), types.Bitrate320, false)
	require.NoError(t, err)

	saved, song, err := d.Saved("abc", types.Bitrate320)
	require.NoError(t, err)
	assert.Equal(t, rec.Path, saved.Path)
	assert.Equal(t, types.Text("Tum Hi Ho"), song.Title)
	assert.Len(t, song.DownloadLinks, 5)

	removed, err := d.Remove(zerolog.Nop(), "abc", types.Bitrate320)
	require.NoError(t, err)
	assert.Equal(t, rec.Path, removed.Path)
	assert.NoFileExists(t, rec.Path)
	assert.NoFileExists(t, rec.Path+".json")

	_, err = index.Get("abc", "320kbps")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = d.Remove(zerolog.Nop(), "abc", types.Bitrate320)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, _, err = d.Saved("abc", types.Bitrate320)
	require.ErrorIs(t, err, store.ErrNotFound)
}

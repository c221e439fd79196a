package render

import (
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/tidwall/gjson"

	"github.com/xeptore/saavn/saavn/types"
	"github.com/xeptore/saavn/store"
	"github.com/xeptore/saavn/unit"
)

type Format string

const (
	FormatAuto  Format = "auto"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
)

var ErrUnknownFormat = errors.New("unknown output format")

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatAuto, FormatJSON, FormatTable:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q, must be one of auto, json, table", ErrUnknownFormat, s)
	}
}

// Resolve turns auto into table when out is a terminal and JSON otherwise.
func (f Format) Resolve(out *os.File) Format {
	if f != FormatAuto {
		return f
	}

	if isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()) {
		return FormatTable
	}

	return FormatJSON
}

type Renderer struct {
	w      io.Writer
	format Format
}

// New returns a renderer writing to w. format must not be auto.
func New(w io.Writer, format Format) *Renderer {
	return &Renderer{w: w, format: format}
}

func (r *Renderer) JSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if nil != err {
		return fmt.Errorf("failed to encode output: %v", err)
	}

	if _, err := fmt.Fprintln(r.w, string(b)); nil != err {
		return fmt.Errorf("failed to write output: %v", err)
	}

	return nil
}

func (r *Renderer) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetStyle(table.StyleLight)

	return t
}

func (r *Renderer) Song(song *types.Song) error {
	if r.format != FormatTable {
		return r.JSON(song)
	}

	t := r.newTable()
	t.AppendRows([]table.Row{
		{"ID", song.ID},
		{"Title", song.Title},
		{"Artists", song.PrimaryArtists},
		{"Album", song.Album},
		{"Year", song.Year},
		{"Duration", song.Duration},
		{"Language", song.Language},
		{"Link", song.PermaURL},
	})
	t.AppendSeparator()
	for _, l := range song.DownloadLinks {
		t.AppendRow(table.Row{l.Bitrate, l.URL})
	}
	t.Render()

	return nil
}

func (r *Renderer) Links(links types.DownloadLinks) error {
	if r.format != FormatTable {
		return r.JSON(links)
	}

	t := r.newTable()
	t.AppendHeader(table.Row{"Bitrate", "URL"})
	for _, l := range links {
		t.AppendRow(table.Row{l.Bitrate, l.URL})
	}
	t.Render()

	return nil
}

// SongLinks are the download links of one song of a list.
type SongLinks struct {
	ID    string              `json:"id"`
	Title string              `json:"title"`
	Links types.DownloadLinks `json:"links"`
}

// SongLinks renders the links of each song in the given order.
func (r *Renderer) SongLinks(songs []SongLinks) error {
	if r.format != FormatTable {
		return r.JSON(songs)
	}

	t := r.newTable()
	t.AppendHeader(table.Row{"#", "Song", "Bitrate", "URL"})
	for i, s := range songs {
		for _, l := range s.Links {
			t.AppendRow(table.Row{i + 1, s.Title, l.Bitrate, l.URL}, table.RowConfig{AutoMerge: true}) //nolint:exhaustruct
		}
	}
	t.Render()

	return nil
}

func (r *Renderer) songs(songs []types.Song) {
	t := r.newTable()
	t.AppendHeader(table.Row{"#", "ID", "Title", "Artists", "320kbps"})
	for i, s := range songs {
		u, _ := s.DownloadLinks.Get(types.Bitrate320)
		t.AppendRow(table.Row{i + 1, s.ID, s.Title, s.PrimaryArtists, u})
	}
	t.Render()
}

func (r *Renderer) Album(album *types.Album) error {
	if r.format != FormatTable {
		return r.JSON(album)
	}

	if _, err := fmt.Fprintf(r.w, "%s (%s) by %s\n%s\n", album.Title, album.Year, album.PrimaryArtists, album.PermaURL); nil != err {
		return fmt.Errorf("failed to write output: %v", err)
	}
	r.songs(album.Songs)

	return nil
}

func (r *Renderer) AlbumDownloads(album *types.AlbumDownloads) error {
	if r.format != FormatTable {
		return r.JSON(album)
	}

	if _, err := fmt.Fprintf(r.w, "%s (%s) by %s\n", album.AlbumTitle, album.AlbumYear, album.PrimaryArtist); nil != err {
		return fmt.Errorf("failed to write output: %v", err)
	}

	t := r.newTable()
	t.AppendHeader(table.Row{"#", "Song", "Bitrate", "URL"})
	for i, s := range album.Songs {
		for _, l := range s.Links {
			t.AppendRow(table.Row{i + 1, s.Song, l.Bitrate, l.URL}, table.RowConfig{AutoMerge: true}) //nolint:exhaustruct
		}
	}
	t.Render()

	return nil
}

func (r *Renderer) Playlist(playlist *types.Playlist) error {
	if r.format != FormatTable {
		return r.JSON(playlist)
	}

	if _, err := fmt.Fprintf(r.w, "%s by %s, %s songs\n", playlist.Name, playlist.FirstName, playlist.SongCount); nil != err {
		return fmt.Errorf("failed to write output: %v", err)
	}
	r.songs(playlist.Songs)

	return nil
}

func (r *Renderer) AuthURL(auth *types.SongAuthURL) error {
	if r.format != FormatTable {
		return r.JSON(auth)
	}

	if _, err := fmt.Fprintln(r.w, auth.AuthURL); nil != err {
		return fmt.Errorf("failed to write output: %v", err)
	}

	return nil
}

func (r *Renderer) Lyrics(lyrics string) error {
	if r.format != FormatTable {
		return r.JSON(map[string]string{"lyrics": lyrics})
	}

	if _, err := fmt.Fprintln(r.w, lyrics); nil != err {
		return fmt.Errorf("failed to write output: %v", err)
	}

	return nil
}

func (r *Renderer) Download(rec *store.Download) error {
	if r.format != FormatTable {
		return r.JSON(rec)
	}

	t := r.newTable()
	t.AppendRows([]table.Row{
		{"Song", rec.SongID},
		{"Title", rec.Title},
		{"Bitrate", rec.Bitrate},
		{"Path", rec.Path},
		{"Size", unit.Bytes(rec.Size)},
	})
	t.Render()

	return nil
}

func (r *Renderer) SavedSong(rec *store.Download, song *types.Song) error {
	if r.format != FormatTable {
		return r.JSON(struct {
			Download *store.Download `json:"download"`
			Song     *types.Song     `json:"song"`
		}{Download: rec, Song: song})
	}

	if err := r.Download(rec); nil != err {
		return err
	}

	return r.Song(song)
}

func (r *Renderer) Downloads(recs []store.Download) error {
	if r.format != FormatTable {
		return r.JSON(recs)
	}

	t := r.newTable()
	t.AppendHeader(table.Row{"Song", "Title", "Bitrate", "Size", "Saved At", "Path"})
	for _, rec := range recs {
		t.AppendRow(table.Row{rec.SongID, rec.Title, rec.Bitrate, unit.Bytes(rec.Size), rec.SavedAt.Format(time.DateTime), rec.Path})
	}
	t.Render()

	return nil
}

// Listing renders search, trending and chart payloads. Payloads with no
// recognizable list of items are printed as JSON.
func (r *Renderer) Listing(raw types.Raw) error {
	items := Items(raw)
	if r.format != FormatTable || len(items) == 0 {
		return r.JSON(raw)
	}

	t := r.newTable()
	t.AppendHeader(table.Row{"#", "Type", "ID", "Title", "Subtitle", "Link"})
	for i, item := range items {
		t.AppendRow(table.Row{i + 1, item.Type, item.ID, item.Title, item.Subtitle, item.PermaURL})
	}
	t.Render()

	return nil
}

type Item struct {
	ID       string
	Type     string
	Title    string
	Subtitle string
	PermaURL string
}

// Items extracts the entries of a listing payload: a top-level array,
// a "results" array, or the "data" arrays of grouped autocomplete results.
func Items(raw types.Raw) []Item {
	res := gjson.ParseBytes(raw)

	var list []gjson.Result
	switch {
	case res.IsArray():
		list = res.Array()
	case res.Get("results").IsArray():
		list = res.Get("results").Array()
	case res.IsObject():
		res.ForEach(func(_, v gjson.Result) bool {
			if data := v.Get("data"); data.IsArray() {
				list = append(list, data.Array()...)
			}

			return true
		})
	}

	out := make([]Item, 0, len(list))
	for _, v := range list {
		if !v.IsObject() {
			continue
		}

		out = append(out, Item{
			ID:       v.Get("id").String(),
			Type:     v.Get("type").String(),
			Title:    html.UnescapeString(firstOf(v, "title", "song", "name")),
			Subtitle: html.UnescapeString(firstOf(v, "subtitle", "description", "primary_artists")),
			PermaURL: firstOf(v, "perma_url", "url"),
		})
	}

	return out
}

func firstOf(v gjson.Result, keys ...string) string {
	for _, k := range keys {
		if s := v.Get(k).String(); s != "" {
			return s
		}
	}

	return ""
}

package endpoint

import (
	"net/url"
	"slices"
)

type OperationName string

const (
	OpSearchAll             OperationName = "searchAll"
	OpSearchSongs           OperationName = "searchSong"
	OpSearchAlbums          OperationName = "searchAlbum"
	OpSearchArtists         OperationName = "searchArtist"
	OpSongDetails           OperationName = "songDetails"
	OpSongDetailsByLink     OperationName = "songDetailsByLink"
	OpAlbumDetails          OperationName = "albumDetails"
	OpAlbumDetailsByLink    OperationName = "albumDetailsByLink"
	OpPlaylistDetails       OperationName = "playlistDetails"
	OpPlaylistDetailsByLink OperationName = "playlistDetailsByLink"
	OpHomeData              OperationName = "homeData"
	OpCharts                OperationName = "charts"
	OpTrending              OperationName = "trending"
	OpAlbums                OperationName = "albums"
	OpLyrics                OperationName = "lyrics"
	OpSongAuthToken         OperationName = "songAuthToken"
)

// Operation describes how a logical operation is sent to the API: the
// __call value, whether api_version=4 is requested and any fixed extra
// parameters.
type Operation struct {
	Call  string
	V4    bool
	Extra url.Values
}

var operations = map[OperationName]Operation{
	OpSearchAll:             {Call: "autocomplete.get", V4: true, Extra: nil},
	OpSearchSongs:           {Call: "search.getResults", V4: true, Extra: nil},
	OpSearchAlbums:          {Call: "search.getAlbumResults", V4: true, Extra: nil},
	OpSearchArtists:         {Call: "search.getArtistResults", V4: true, Extra: nil},
	OpSongDetails:           {Call: "song.getDetails", V4: false, Extra: nil},
	OpSongDetailsByLink:     {Call: "webapi.get", V4: false, Extra: url.Values{"type": {"song"}}},
	OpAlbumDetails:          {Call: "content.getAlbumDetails", V4: false, Extra: nil},
	OpAlbumDetailsByLink:    {Call: "webapi.get", V4: false, Extra: url.Values{"type": {"album"}}},
	OpPlaylistDetails:       {Call: "playlist.getDetails", V4: false, Extra: nil},
	OpPlaylistDetailsByLink: {Call: "webapi.get", V4: false, Extra: url.Values{"type": {"playlist"}}},
	OpHomeData:              {Call: "webapi.getLaunchData", V4: true, Extra: nil},
	OpCharts:                {Call: "content.getCharts", V4: true, Extra: nil},
	OpTrending:              {Call: "content.getTrending", V4: true, Extra: nil},
	OpAlbums:                {Call: "content.getAlbums", V4: true, Extra: nil},
	OpLyrics:                {Call: "lyrics.getLyrics", V4: true, Extra: nil},
	OpSongAuthToken:         {Call: "song.generateAuthToken", V4: true, Extra: nil},
}

// Lookup returns a copy of the descriptor registered under name.
func Lookup(name OperationName) (Operation, bool) {
	op, ok := operations[name]
	if !ok {
		return Operation{}, false
	}

	if nil != op.Extra {
		extra := make(url.Values, len(op.Extra))
		for k, v := range op.Extra {
			extra[k] = slices.Clone(v)
		}
		op.Extra = extra
	}

	return op, true
}

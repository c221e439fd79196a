package types

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Album is an album record. Fields without a struct field are kept and
// re-encoded as received; Songs replaces the received songs.
type Album struct {
	ID               Text   `json:"albumid,omitempty"`
	Title            Text   `json:"title,omitempty"`
	Year             Text   `json:"year,omitempty"`
	ReleaseDate      Text   `json:"release_date,omitempty"`
	PrimaryArtists   Text   `json:"primary_artists,omitempty"`
	PrimaryArtistsID Text   `json:"primary_artists_id,omitempty"`
	Image            Text   `json:"image,omitempty"`
	PermaURL         Text   `json:"perma_url,omitempty"`
	Songs            []Song `json:"songs,omitempty"`

	raw []byte
}

type albumFields Album

func (a *Album) UnmarshalJSON(b []byte) error {
	var f albumFields
	if err := json.Unmarshal(b, &f); nil != err {
		return fmt.Errorf("failed to decode album: %v", err)
	}

	*a = Album(f)
	a.raw = rawObject(b)

	return nil
}

func (a Album) MarshalJSON() ([]byte, error) {
	typed, err := json.Marshal(albumFields(a))
	if nil != err {
		return nil, fmt.Errorf("failed to encode album: %v", err)
	}

	return overlay(a.raw, typed)
}

// AlbumDownloads summarizes an album with the download links of each of
// its songs, derived from the album response alone.
type AlbumDownloads struct {
	AlbumID         Text             `json:"album_id"`
	AlbumTitle      Text             `json:"album_title"`
	AlbumYear       Text             `json:"album_year"`
	AlbumImage      Text             `json:"album_image"`
	PermaURL        Text             `json:"perma_url"`
	PrimaryArtist   Text             `json:"primary_artist"`
	PrimaryArtistID Text             `json:"primary_artist_id"`
	Songs           []AlbumSongLinks `json:"songs"`
}

type AlbumSongLinks struct {
	Song  string        `json:"song"`
	Image Text          `json:"image"`
	Links DownloadLinks `json:"links"`
}

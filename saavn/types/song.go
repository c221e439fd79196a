package types

import (
	"fmt"
	"slices"

	"github.com/goccy/go-json"
)

// Song is a song record as returned by the details endpoints (API revision
// without api_version=4). DownloadLinks is derived locally. Fields without
// a struct field are kept and re-encoded as received.
type Song struct {
	ID                Text          `json:"id,omitempty"`
	Title             Text          `json:"song,omitempty"`
	Album             Text          `json:"album,omitempty"`
	AlbumID           Text          `json:"albumid,omitempty"`
	AlbumURL          Text          `json:"album_url,omitempty"`
	Year              Text          `json:"year,omitempty"`
	ReleaseDate       Text          `json:"release_date,omitempty"`
	Duration          Text          `json:"duration,omitempty"`
	Language          Text          `json:"language,omitempty"`
	Label             Text          `json:"label,omitempty"`
	PrimaryArtists    Text          `json:"primary_artists,omitempty"`
	PrimaryArtistsID  Text          `json:"primary_artists_id,omitempty"`
	Singers           Text          `json:"singers,omitempty"`
	Image             Text          `json:"image,omitempty"`
	PermaURL          Text          `json:"perma_url,omitempty"`
	MediaPreviewURL   Text          `json:"media_preview_url,omitempty"`
	EncryptedMediaURL Text          `json:"encrypted_media_url,omitempty"`
	HasLyrics         Text          `json:"has_lyrics,omitempty"`
	Has320kbps        Text          `json:"320kbps,omitempty"`
	CopyrightText     Text          `json:"copyright_text,omitempty"`
	DownloadLinks     DownloadLinks `json:"download_links,omitempty"`

	raw []byte
}

type songFields Song

func (s *Song) UnmarshalJSON(b []byte) error {
	var f songFields
	if err := json.Unmarshal(b, &f); nil != err {
		return fmt.Errorf("failed to decode song: %v", err)
	}

	*s = Song(f)
	s.raw = rawObject(b)

	return nil
}

func (s Song) MarshalJSON() ([]byte, error) {
	typed, err := json.Marshal(songFields(s))
	if nil != err {
		return nil, fmt.Errorf("failed to encode song: %v", err)
	}

	return overlay(s.raw, typed)
}

// Clone returns a copy of s that shares no mutable state with it.
func (s *Song) Clone() *Song {
	out := *s
	out.DownloadLinks = slices.Clone(s.DownloadLinks)
	out.raw = slices.Clone(s.raw)

	return &out
}

type SongAuthURL struct {
	AuthURL string `json:"auth_url"`
	Type    string `json:"type"`
	Status  string `json:"status"`
}

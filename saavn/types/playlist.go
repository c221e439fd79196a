package types

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Playlist is a playlist record. Fields without a struct field are kept and
// re-encoded as received; Songs replaces the received songs.
type Playlist struct {
	ID            Text   `json:"listid,omitempty"`
	Name          Text   `json:"listname,omitempty"`
	FirstName     Text   `json:"firstname,omitempty"`
	Username      Text   `json:"username,omitempty"`
	FollowerCount Text   `json:"follower_count,omitempty"`
	SongCount     Text   `json:"list_count,omitempty"`
	LastUpdated   Text   `json:"last_updated,omitempty"`
	Image         Text   `json:"image,omitempty"`
	PermaURL      Text   `json:"perma_url,omitempty"`
	Songs         []Song `json:"songs,omitempty"`

	raw []byte
}

type playlistFields Playlist

func (p *Playlist) UnmarshalJSON(b []byte) error {
	var f playlistFields
	if err := json.Unmarshal(b, &f); nil != err {
		return fmt.Errorf("failed to decode playlist: %v", err)
	}

	*p = Playlist(f)
	p.raw = rawObject(b)

	return nil
}

func (p Playlist) MarshalJSON() ([]byte, error) {
	typed, err := json.Marshal(playlistFields(p))
	if nil != err {
		return nil, fmt.Errorf("failed to encode playlist: %v", err)
	}

	return overlay(p.raw, typed)
}

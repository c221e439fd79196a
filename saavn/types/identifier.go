package types

import (
	"errors"
	"fmt"

	"github.com/xeptore/saavn/must"
)

var ErrNoIDParam = errors.New("entity kind has no id parameter")

type EntityKind int

const (
	EntityNone EntityKind = iota
	EntitySong
	EntityAlbum
	EntityPlaylist
)

func (k EntityKind) String() string {
	switch k {
	case EntitySong:
		return "song"
	case EntityAlbum:
		return "album"
	case EntityPlaylist:
		return "playlist"
	case EntityNone:
		return "none"
	}

	return "unknown"
}

// PathSegments lists the link path segments that introduce an entity of
// kind k. Shared playlists are published under /featured/.
func (k EntityKind) PathSegments() []string {
	switch k {
	case EntitySong:
		return []string{"song"}
	case EntityAlbum:
		return []string{"album"}
	case EntityPlaylist:
		return []string{"playlist", "featured"}
	default:
		return nil
	}
}

// IDParam is the request parameter carrying a numeric or internal id of
// an entity of kind k.
func (k EntityKind) IDParam() (string, error) {
	switch k {
	case EntitySong:
		return "pids", nil
	case EntityAlbum:
		return "albumid", nil
	case EntityPlaylist:
		return "listid", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrNoIDParam, k)
	}
}

type IdentifierKind int

const (
	KindID IdentifierKind = iota + 1
	KindLinkToken
)

func (k IdentifierKind) String() string {
	switch k {
	case KindID:
		return "id"
	case KindLinkToken:
		return "link"
	}

	return "unknown"
}

const TokenParam = "token"

// Identifier addresses a song, album or playlist either by id or by the
// token found in its web link. The zero value is invalid.
type Identifier struct {
	kind  IdentifierKind
	value string
}

func ByID(v string) Identifier {
	must.Be(v != "", "identifier value must not be empty")
	return Identifier{kind: KindID, value: v}
}

func ByLinkToken(v string) Identifier {
	must.Be(v != "", "identifier value must not be empty")
	return Identifier{kind: KindLinkToken, value: v}
}

func (id Identifier) Kind() IdentifierKind {
	return id.kind
}

func (id Identifier) Value() string {
	return id.value
}

func (id Identifier) IsLinkToken() bool {
	return id.kind == KindLinkToken
}

func (id Identifier) IsZero() bool {
	return id.kind == 0
}

// Param returns the request parameter name and value addressing id as an
// entity of kind k.
func (id Identifier) Param(k EntityKind) (string, string, error) {
	name, err := k.IDParam()
	if nil != err {
		return "", "", err
	}

	if id.IsLinkToken() {
		return TokenParam, id.value, nil
	}

	return name, id.value, nil
}

func (id Identifier) String() string {
	return id.kind.String() + ":" + id.value
}

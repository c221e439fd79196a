package link

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/exp/constraints"

	"github.com/xeptore/saavn/saavn/types"
)

var (
	ErrInvalidInput    = errors.New("identifier must be a link string or an integer id")
	ErrSegmentNotFound = errors.New("link does not contain the expected path segment")
	ErrEmptyToken      = errors.New("link does not contain a token")
)

// Resolve turns a link or an integer id into an identifier. For links,
// kind selects the path segment the token follows; EntityNone takes the
// last path segment of the link instead.
func Resolve(input any, kind types.EntityKind) (types.Identifier, error) {
	switch v := input.(type) {
	case string:
		return ResolveLink(v, kind)
	case int:
		return ResolveID(v), nil
	case int8:
		return ResolveID(v), nil
	case int16:
		return ResolveID(v), nil
	case int32:
		return ResolveID(v), nil
	case int64:
		return ResolveID(v), nil
	case uint:
		return ResolveID(v), nil
	case uint8:
		return ResolveID(v), nil
	case uint16:
		return ResolveID(v), nil
	case uint32:
		return ResolveID(v), nil
	case uint64:
		return ResolveID(v), nil
	default:
		return types.Identifier{}, fmt.Errorf("%w, got %T", ErrInvalidInput, input)
	}
}

func ResolveID[T constraints.Integer](id T) types.Identifier {
	return types.ByID(fmt.Sprintf("%d", id))
}

func ResolveLink(raw string, kind types.EntityKind) (types.Identifier, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return types.Identifier{}, ErrEmptyToken
	}

	u, err := url.Parse(raw)
	if nil != err {
		return types.Identifier{}, fmt.Errorf("%w: failed to parse link %q: %v", ErrInvalidInput, raw, err)
	}

	segments := slices.DeleteFunc(strings.Split(u.Path, "/"), func(s string) bool { return s == "" })

	if kind == types.EntityNone {
		if len(segments) == 0 {
			return types.Identifier{}, fmt.Errorf("%w: %s", ErrEmptyToken, raw)
		}

		return types.ByLinkToken(segments[len(segments)-1]), nil
	}

	want := kind.PathSegments()
	idx := slices.IndexFunc(segments, func(s string) bool { return slices.Contains(want, s) })
	if idx == -1 {
		return types.Identifier{}, fmt.Errorf("%w: %s link %s", ErrSegmentNotFound, kind, raw)
	}

	rest := segments[idx+1:]
	if len(rest) == 0 {
		return types.Identifier{}, fmt.Errorf("%w: %s", ErrEmptyToken, raw)
	}

	return types.ByLinkToken(rest[len(rest)-1]), nil
}

// Parse resolves a command line argument: digit-only arguments are ids,
// anything else is a link.
func Parse(arg string, kind types.EntityKind) (types.Identifier, error) {
	arg = strings.TrimSpace(arg)
	if isDigits(arg) {
		return types.ByID(arg), nil
	}

	return ResolveLink(arg, kind)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

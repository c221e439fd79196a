package media

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeptore/saavn/saavn/types"
)

const (
	PreviewHost          = "preview.saavncdn.com"
	DownloadHost         = "aac.saavncdn.com"
	DefaultPreviewMarker = "_96_p"
)

var ErrUnknownBitrate = errors.New("unknown bitrate")

var bitrateMarkers = [...]struct {
	marker  string
	bitrate types.Bitrate
}{
	{marker: "_12", bitrate: types.Bitrate12},
	{marker: "_48", bitrate: types.Bitrate48},
	{marker: "_96", bitrate: types.Bitrate96},
	{marker: "_160", bitrate: types.Bitrate160},
	{marker: "_320", bitrate: types.Bitrate320},
}

func DeriveLinks(previewURL string) (types.DownloadLinks, bool) {
	return DeriveLinksWithMarker(previewURL, DefaultPreviewMarker)
}

// DeriveLinksWithMarker rewrites a preview URL into one URL per bitrate by
// moving it to the download host and replacing marker with each bitrate
// marker. The second result is false when previewURL does not contain
// marker, in which case all links equal the host-substituted input.
func DeriveLinksWithMarker(previewURL, marker string) (types.DownloadLinks, bool) {
	var (
		base  = strings.ReplaceAll(previewURL, PreviewHost, DownloadHost)
		found = marker != "" && strings.Contains(base, marker)
		links = make(types.DownloadLinks, len(bitrateMarkers))
	)
	for i, m := range bitrateMarkers {
		u := base
		if found {
			u = strings.ReplaceAll(base, marker, m.marker)
		}
		links[i] = types.DownloadLink{Bitrate: m.bitrate, URL: u}
	}

	return links, found
}

// ParseBitrate accepts "320", "320k" and "320kbps" style labels.
func ParseBitrate(s string) (types.Bitrate, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "kbps")
	s = strings.TrimSuffix(s, "k")

	for _, b := range types.Bitrates() {
		if b.Kbps() == s {
			return b, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownBitrate, s)
}

package types

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

type Bitrate string

const (
	Bitrate12  Bitrate = "12kbps"
	Bitrate48  Bitrate = "48kbps"
	Bitrate96  Bitrate = "96kbps"
	Bitrate160 Bitrate = "160kbps"
	Bitrate320 Bitrate = "320kbps"
)

// Bitrates in ascending order, which is also the order of every
// DownloadLinks value.
func Bitrates() []Bitrate {
	return []Bitrate{Bitrate12, Bitrate48, Bitrate96, Bitrate160, Bitrate320}
}

// Kbps returns the numeric part of the label, e.g. "320".
func (b Bitrate) Kbps() string {
	return strings.TrimSuffix(string(b), "kbps")
}

type DownloadLink struct {
	Bitrate Bitrate
	URL     string
}

// DownloadLinks is an ordered bitrate to URL mapping. It is encoded as a
// JSON object whose keys keep the slice order.
type DownloadLinks []DownloadLink

func (l DownloadLinks) Get(b Bitrate) (string, bool) {
	for _, v := range l {
		if v.Bitrate == b {
			return v.URL, true
		}
	}

	return "", false
}

func (l DownloadLinks) MarshalJSON() ([]byte, error) {
	if nil == l {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range l {
		if i > 0 {
			buf.WriteByte(',')
		}

		k, err := json.Marshal(string(v.Bitrate))
		if nil != err {
			return nil, fmt.Errorf("failed to encode bitrate: %v", err)
		}
		buf.Write(k)
		buf.WriteByte(':')

		u, err := json.Marshal(v.URL)
		if nil != err {
			return nil, fmt.Errorf("failed to encode download link: %v", err)
		}
		buf.Write(u)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func (l *DownloadLinks) UnmarshalJSON(b []byte) error {
	res := gjson.ParseBytes(b)
	switch {
	case res.Type == gjson.Null:
		*l = nil
		return nil
	case !res.IsObject():
		return errors.New("download links must be a JSON object")
	}

	out := make(DownloadLinks, 0, 5)
	var err error
	res.ForEach(func(k, v gjson.Result) bool {
		if v.Type != gjson.String {
			err = fmt.Errorf("download link for %s is not a string", k.String())
			return false
		}
		out = append(out, DownloadLink{Bitrate: Bitrate(k.String()), URL: v.String()})
		return true
	})
	if nil != err {
		return err
	}

	*l = out

	return nil
}

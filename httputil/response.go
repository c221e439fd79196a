package httputil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

// MaxResponseBodySize bounds API response bodies. Album and playlist
// payloads with a few hundred songs stay well below it.
const MaxResponseBodySize = 16 << 20

var ErrResponseTooLarge = errors.New("response body exceeds size limit")

func ReadResponseBody(resp *http.Response) ([]byte, error) {
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBodySize+1))
	if nil != err {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}

	if len(respBody) > MaxResponseBodySize {
		return nil, ErrResponseTooLarge
	}

	return respBody, nil
}

// DrainBody reads what is left of the body so the connection can be reused.
func DrainBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseBodySize))
}

// IsEmptyPayload reports whether b carries no data: an empty body, null,
// an empty array or an empty object. The API answers unknown identifiers
// this way with a 200 status.
func IsEmptyPayload(b []byte) bool {
	switch string(bytes.TrimSpace(b)) {
	case "", "null", "[]", "{}":
		return true
	default:
		return false
	}
}

// ErrorEnvelope extracts the message of an API failure envelope, either
// {"status": "failure", ...} or {"error": {"code": ..., "msg": ...}}.
func ErrorEnvelope(b []byte) (string, bool) {
	res := gjson.ParseBytes(b)
	if !res.IsObject() {
		return "", false
	}

	if e := res.Get("error"); e.Exists() {
		switch {
		case e.Type == gjson.String:
			return e.String(), true
		case e.Get("msg").Exists():
			return e.Get("code").String() + ": " + e.Get("msg").String(), true
		default:
			return e.Raw, true
		}
	}

	if res.Get("status").String() == "failure" {
		if msg := res.Get("message"); msg.Exists() {
			return msg.String(), true
		}

		return "request failed", true
	}

	return "", false
}

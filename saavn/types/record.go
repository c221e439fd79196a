package types

import (
	"bytes"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// rawObject returns a copy of b when it is a JSON object, nil otherwise.
func rawObject(b []byte) []byte {
	b = bytes.TrimSpace(b)
	if !gjson.ParseBytes(b).IsObject() {
		return nil
	}

	return bytes.Clone(b)
}

// overlay sets every top-level key of typed on raw. Keys of raw that typed
// does not carry are kept as received.
func overlay(raw, typed []byte) ([]byte, error) {
	if len(raw) == 0 {
		return typed, nil
	}

	var (
		out = bytes.Clone(raw)
		err error
	)
	gjson.ParseBytes(typed).ForEach(func(k, v gjson.Result) bool {
		out, err = sjson.SetRawBytes(out, gjson.Escape(k.String()), []byte(v.Raw))
		if nil != err {
			err = fmt.Errorf("failed to set %s: %v", k.String(), err)
			return false
		}

		return true
	})
	if nil != err {
		return nil, err
	}

	return out, nil
}

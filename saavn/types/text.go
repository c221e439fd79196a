package types

import (
	"bytes"
	"fmt"
	"html"

	"github.com/goccy/go-json"
)

// Text is a scalar field whose JSON type the API does not keep stable:
// the same field arrives as a string, a number or a boolean depending on
// the endpoint. HTML entities in string values are decoded.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); nil != err {
			return fmt.Errorf("failed to decode text value: %v", err)
		}
		*t = Text(html.UnescapeString(s))
	case b[0] == '{' || b[0] == '[':
		return fmt.Errorf("unexpected composite value for text field: %s", b)
	default:
		*t = Text(b)
	}

	return nil
}

func (t Text) String() string {
	return string(t)
}

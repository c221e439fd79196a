package redact

import (
	"math"
	"net/url"
	"strings"
)

// String masks the middle half of s.
func String(s string) string {
	l := len(s)

	var flag int
	if l%4 != 0 {
		flag = 1
	}

	return s[0:int(math.Floor(float64(l)*.25))] +
		strings.Repeat("*", int(math.RoundToEven(float64(l)*.5))+(1&flag)) +
		s[int(math.Floor(float64(l)*.75))+(1&flag):]
}

// URL masks every query value of a signed media URL. Values that do not
// parse as URLs are masked as a whole.
func URL(raw string) string {
	u, err := url.Parse(raw)
	if nil != err {
		return String(raw)
	}

	if u.RawQuery == "" {
		return u.String()
	}

	q := u.Query()
	for k, vs := range q {
		for i := range vs {
			vs[i] = String(vs[i])
		}
		q[k] = vs
	}
	u.RawQuery = q.Encode()

	return u.String()
}

package unit

import (
	"strconv"
)

const (
	// https://en.wikipedia.org/wiki/Kilobyte
	Byte     = 1
	Kilobyte = 1000 * Byte
	Megabyte = 1000 * Kilobyte
	Gigabyte = 1000 * Megabyte
)

// Bytes formats n using the largest decimal unit not greater than n, with
// one fractional digit.
func Bytes(n int64) string {
	switch {
	case n >= Gigabyte:
		return strconv.FormatFloat(float64(n)/Gigabyte, 'f', 1, 64) + " GB"
	case n >= Megabyte:
		return strconv.FormatFloat(float64(n)/Megabyte, 'f', 1, 64) + " MB"
	case n >= Kilobyte:
		return strconv.FormatFloat(float64(n)/Kilobyte, 'f', 1, 64) + " kB"
	default:
		return strconv.FormatInt(n, 10) + " B"
	}
}

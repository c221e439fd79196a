package result

import (
	"errors"
	"fmt"
)

// Of holds either a value or the error that prevented producing it.
type Of[T any] struct {
	v   T
	err error
}

func Ok[T any](v T) Of[T] {
	return Of[T]{v: v, err: nil}
}

func Err[T any](err error) Of[T] {
	var zero T
	return Of[T]{v: zero, err: err}
}

// Collect returns the values of rs in order when none of them failed.
// Otherwise it returns every failure joined, each annotated with its index.
func Collect[T any](rs []Of[T]) ([]T, error) {
	var (
		out  = make([]T, len(rs))
		errs []error
	)
	for i, r := range rs {
		if nil != r.err {
			errs = append(errs, fmt.Errorf("item %d: %w", i, r.err))
			continue
		}
		out[i] = r.v
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return out, nil
}

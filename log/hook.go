package log

import (
	"runtime"
	"strings"

	"github.com/rs/zerolog"
)

const maxStackFrames = 16

type stackHook struct{}

func (h *stackHook) Run(e *zerolog.Event, level zerolog.Level, _ string) {
	if level < zerolog.ErrorLevel {
		return
	}

	arr := zerolog.Arr()
	for _, s := range traces(5) {
		arr.Dict(zerolog.Dict().
			Int("line", s.Line).
			Str("file", s.File).
			Str("function", s.Function),
		)
	}
	e.Array("stack", arr)
}

type stackFrame struct {
	Line     int
	File     string
	Function string
}

// traces collects caller frames, dropping zerolog's own frames and the
// runtime's entry frames.
func traces(skip int) []stackFrame {
	var pcs [64]uintptr
	n := runtime.Callers(skip, pcs[:])
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pcs[:n])
	st := make([]stackFrame, 0, maxStackFrames)
	for len(st) < maxStackFrames {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "github.com/rs/zerolog") &&
			!strings.HasPrefix(frame.Function, "runtime.") {
			st = append(st, stackFrame{
				Line:     frame.Line,
				File:     frame.File,
				Function: frame.Function,
			})
		}
		if !more {
			break
		}
	}

	return st
}

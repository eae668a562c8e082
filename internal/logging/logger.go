package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

type prettyHandler struct {
	mu     *sync.Mutex
	out    io.Writer
	level  slog.Leveler
	source bool
	color  bool
	attrs  []slog.Attr
	group  string
}

type Options struct {
	Level     slog.Leveler
	AddSource bool
	Color     bool
}

func NewPrettyHandler(out io.Writer, opts *Options) slog.Handler {
	if out == nil {
		out = os.Stdout
	}
	if opts == nil {
		opts = &Options{}
	}
	return &prettyHandler{
		mu:     &sync.Mutex{},
		out:    out,
		level:  opts.Level,
		source: opts.AddSource,
		color:  opts.Color,
	}
}

// Init installs the pretty handler as the process-wide default logger.
func Init(levelName string, color bool) *slog.Logger {
	handler := NewPrettyHandler(os.Stdout, &Options{
		Level:     ParseLogLevel(levelName),
		AddSource: true,
		Color:     color,
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func (h *prettyHandler) Enabled(_ context.Context, lvl slog.Level) bool {
	if h.level == nil {
		return true
	}
	return lvl >= h.level.Level()
}

func (h *prettyHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.Enabled(ctx, r.Level) {
		return nil
	}

	var buf bytes.Buffer

	// fixed-width timestamp
	fmt.Fprintf(&buf, "%s ", r.Time.Format("2006-01-02 15:04:05.000"))

	level := levelToUpper(r.Level)
	if h.color {
		fmt.Fprintf(&buf, "%s%-5s\033[0m ", colorForLevel(r.Level), level)
	} else {
		fmt.Fprintf(&buf, "%-5s ", level)
	}

	if h.source {
		if file, line := resolveCaller(r.PC); file != "" {
			loc := fmt.Sprintf("%s:%d", filepath.Base(file), line)
			fmt.Fprintf(&buf, "%-25s ", loc)
		}
	}

	buf.WriteString(r.Message)

	var errVal error
	write := func(key string, v slog.Value) {
		if e, ok := v.Any().(error); ok && strings.HasSuffix(strings.ToLower(key), "error") {
			errVal = e
		}
		fmt.Fprintf(&buf, " %s=%v", key, v.Any())
	}
	for _, a := range h.attrs {
		write(a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		write(h.qualify(a.Key), a.Value)
		return true
	})

	buf.WriteByte('\n')

	// stack trace only for real errors, never for warnings carrying one
	if errVal != nil && r.Level >= slog.LevelError {
		fmt.Fprintf(&buf, "ERROR: %v\n", errVal)
		buf.Write(debug.Stack())
		buf.WriteByte('\n')
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf.Bytes())
	return err
}

// WithAttrs qualifies the attrs with the group open at the time of the call.
func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, slog.Attr{Key: h.qualify(a.Key), Value: a.Value})
	}
	return &next
}

func (h *prettyHandler) qualify(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	if h.group != "" {
		next.group = h.group + "." + name
	} else {
		next.group = name
	}
	return &next
}

func levelToUpper(l slog.Level) string {
	switch {
	case l <= slog.LevelDebug:
		return "DEBUG"
	case l == slog.LevelInfo:
		return "INFO"
	case l == slog.LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

func ParseLogLevel(l string) slog.Level {
	switch strings.ToLower(l) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func colorForLevel(l slog.Level) string {
	switch {
	case l <= slog.LevelDebug:
		return "\033[36m" // cyan
	case l == slog.LevelInfo:
		return "\033[32m" // green
	case l == slog.LevelWarn:
		return "\033[33m" // yellow
	default:
		return "\033[31m" // red
	}
}

// resolveCaller prefers the record's PC and falls back to walking the stack
// for the first frame outside internal/logging.
func resolveCaller(pc uintptr) (string, int) {
	if pc != 0 {
		frames := runtime.CallersFrames([]uintptr{pc})
		f, _ := frames.Next()
		if f.File != "" {
			return f.File, f.Line
		}
	}

	const maxDepth = 32
	var pcs [maxDepth]uintptr

	n := runtime.Callers(5, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	sep := string(os.PathSeparator)
	for {
		f, more := frames.Next()
		if !strings.Contains(f.File, sep+"internal"+sep+"logging"+sep) && f.File != "" {
			return f.File, f.Line
		}
		if !more {
			break
		}
	}

	return "", 0
}

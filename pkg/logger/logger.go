package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// Err is the conventional attribute for logging errors.
func Err(err error) slog.Attr {
	return slog.String("err", err.Error())
}

func ContextWithRequestID(ctx context.Context, requestID int64) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) (int64, bool) {
	requestID, ok := ctx.Value(requestIDKey).(int64)
	return requestID, ok
}

type Options struct {
	// Level reports the minimum level to log; lower levels are discarded.
	Level slog.Leveler

	// TimeFormat is the time format.
	TimeFormat string

	// AddSource includes the short source file and line of the log call.
	AddSource bool

	// NoColor disables color, default: false.
	NoColor bool
}

var DefaultOptions = &Options{
	Level:      slog.LevelDebug,
	TimeFormat: time.DateTime,
	AddSource:  true,
}

type Handler struct {
	groups []string
	attrs  []slog.Attr

	opts Options

	mu  *sync.Mutex
	out io.Writer
}

// NewHandler creates a new Handler with the specified options. If opts is nil, uses [DefaultOptions].
func NewHandler(out io.Writer, opts *Options) *Handler {
	h := &Handler{out: out, mu: &sync.Mutex{}}
	if opts == nil {
		h.opts = *DefaultOptions
	} else {
		h.opts = *opts
	}
	return h
}

func (h *Handler) clone() *Handler {
	return &Handler{
		groups: h.groups,
		attrs:  h.attrs,
		opts:   h.opts,
		mu:     h.mu,
		out:    h.out,
	}
}

// Enabled implements slog.Handler.Enabled .
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

// Handle implements slog.Handler.Handle .
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	var b strings.Builder

	if !r.Time.IsZero() {
		b.WriteString(h.paint(color.New(color.Faint), r.Time.Format(h.opts.TimeFormat)))
		b.WriteString(" ")
	}

	if requestID, ok := RequestIDFromContext(ctx); ok {
		b.WriteString(h.paint(color.New(color.FgMagenta), fmt.Sprintf("%d", requestID)))
		b.WriteString(" ")
	}

	b.WriteString(h.levelBadge(r.Level))
	b.WriteString(" ")

	if h.opts.AddSource && r.PC != 0 {
		f, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		b.WriteString(fmt.Sprintf("%s:%d ", filepath.Base(f.File), f.Line))
	}

	b.WriteString(h.paint(color.New(color.FgHiWhite), "| "))
	b.WriteString(r.Message)

	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	for _, a := range attrs {
		key := a.Key
		if len(h.groups) > 0 {
			key = strings.Join(h.groups, ".") + "." + key
		}
		b.WriteString(" ")
		b.WriteString(h.paint(color.New(color.FgCyan), key))
		b.WriteString("=")
		b.WriteString(a.Value.String())
	}
	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *Handler) levelBadge(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return h.paint(color.New(color.BgCyan, color.FgHiWhite), "DEBUG")
	case slog.LevelInfo:
		return h.paint(color.New(color.BgGreen, color.FgHiWhite), "INFO ")
	case slog.LevelWarn:
		return h.paint(color.New(color.BgYellow, color.FgHiWhite), "WARN ")
	case slog.LevelError:
		return h.paint(color.New(color.BgRed, color.FgHiWhite), "ERROR")
	}
	return level.String()
}

func (h *Handler) paint(c *color.Color, s string) string {
	if h.opts.NoColor {
		return s
	}
	return c.Sprint(s)
}

// WithAttrs implements slog.Handler.WithAttrs .
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := h.clone()
	h2.attrs = append(h2.attrs, attrs...)
	return h2
}

// WithGroup implements slog.Handler.WithGroup .
func (h *Handler) WithGroup(name string) slog.Handler {
	h2 := h.clone()
	h2.groups = append(h2.groups, name)
	return h2
}

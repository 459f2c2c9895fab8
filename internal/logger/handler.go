package logger

import (
	"context"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
)

const tagKey = "tag" // slog attribute key carrying the tag of DebugTagf messages

// filteringHandler drops records by tag, package or file before passing
// them to the wrapped handler.
type filteringHandler struct {
	base    slog.Handler
	filters *filters
}

func newFilteringHandler(base slog.Handler, f *filters) *filteringHandler {
	return &filteringHandler{base: base, filters: f}
}

func (h *filteringHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *filteringHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.filters != nil && !h.allowed(r) {
		return nil
	}
	return h.base.Handle(ctx, r)
}

func (h *filteringHandler) allowed(r slog.Record) bool {
	f := h.filters
	if r.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{r.PC})
		frame, _ := frames.Next()
		if frame.File != "" {
			file := strings.ToLower(filepath.Base(frame.File))
			pkg := strings.ToLower(filepath.Base(filepath.Dir(frame.File)))
			if !passes(f.enabledPackages, f.disabledPackages, pkg) || !passes(f.enabledFiles, f.disabledFiles, file) {
				return false
			}
		}
	}

	tag := ""
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == tagKey {
			tag = strings.ToLower(a.Value.String())
			return false
		}
		return true
	})
	if tag == "" {
		return f.enabledTags == nil // untagged messages are dropped when filtering for tags
	}
	return passes(f.enabledTags, f.disabledTags, tag)
}

// passes applies a disabled list (wins) then an enabled list.
func passes(enabled, disabled map[string]struct{}, key string) bool {
	if _, found := disabled[key]; found {
		return false
	}
	if enabled == nil {
		return true
	}
	_, found := enabled[key]
	return found
}

func (h *filteringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return newFilteringHandler(h.base.WithAttrs(attrs), h.filters)
}

func (h *filteringHandler) WithGroup(name string) slog.Handler {
	return newFilteringHandler(h.base.WithGroup(name), h.filters)
}

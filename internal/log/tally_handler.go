package log

import (
	"context"
	"log/slog"
	"sync"
)

// FailureAttrKey is the attribute key scanned for failure kinds.
// Pipeline code attaches the kind of every swallowed failure under this
// key, e.g. slog.String(log.FailureAttrKey, string(kind)).
const FailureAttrKey = "failure"

// TallyHandler wraps an slog.Handler and counts warn-or-worse records that
// carry a failure-kind attribute. It is the diagnostics layer that lets a
// run summary distinguish "the site has no backlinks" from "most fetches
// failed".
//
// Design decision: We use a handler wrapper rather than explicit counters
// threaded through the pipeline because:
//  1. It integrates seamlessly with standard slog APIs
//  2. Failure sites only need to log, which they already do
//  3. It works with any underlying handler (text, JSON, etc.)
type TallyHandler struct {
	// handler is the underlying slog handler that receives all records.
	handler slog.Handler

	// mu guards counts; records can arrive from many goroutines.
	mu     *sync.Mutex
	counts map[string]int

	// attrs are pre-bound attributes from WithAttrs, checked alongside
	// each record's own attributes.
	attrs []slog.Attr
}

// NewTallyHandler creates a TallyHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
func NewTallyHandler(handler slog.Handler) *TallyHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &TallyHandler{
		handler: handler,
		mu:      &sync.Mutex{},
		counts:  make(map[string]int),
	}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *TallyHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle counts the record's failure kind, if any, and passes the record
// to the underlying handler unchanged.
func (h *TallyHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelWarn {
		kind := ""
		for _, a := range h.attrs {
			if a.Key == FailureAttrKey {
				kind = a.Value.String()
			}
		}
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == FailureAttrKey {
				kind = a.Value.String()
				return false
			}
			return true
		})
		if kind != "" {
			h.mu.Lock()
			h.counts[kind]++
			h.mu.Unlock()
		}
	}

	return h.handler.Handle(ctx, r)
}

// WithAttrs returns a new handler with the given attributes added.
// The returned handler shares this handler's tally.
func (h *TallyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &TallyHandler{
		handler: h.handler.WithAttrs(attrs),
		mu:      h.mu,
		counts:  h.counts,
		attrs:   merged,
	}
}

// WithGroup returns a new handler with the given group name.
// The returned handler shares this handler's tally. Grouped failure
// attributes are not counted; pipeline code logs the failure kind at the
// top level.
func (h *TallyHandler) WithGroup(name string) slog.Handler {
	return &TallyHandler{
		handler: h.handler.WithGroup(name),
		mu:      h.mu,
		counts:  h.counts,
		attrs:   h.attrs,
	}
}

// Snapshot returns a copy of the failure counts by kind.
func (h *TallyHandler) Snapshot() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[string]int, len(h.counts))
	for k, v := range h.counts {
		out[k] = v
	}
	return out
}

// Total returns the total number of counted failures.
func (h *TallyHandler) Total() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	var n int
	for _, v := range h.counts {
		n += v
	}
	return n
}

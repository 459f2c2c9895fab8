// Package highlight runs the local highlighter off the main loop.
package highlight

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bethropolis/ebb/internal/highlighter"
	"github.com/bethropolis/ebb/internal/logger"
)

// DebounceHighlightDuration is how long edits settle before a reparse.
const DebounceHighlightDuration = 65 * time.Millisecond

// Update is the outcome of one background run. It describes the buffer
// snapshot it was computed from; the owner applies it only if the buffer
// is still at Version.
type Update struct {
	Path    string
	Version uint64
	Spans   highlighter.Result
	Err     error
}

type snapshot struct {
	path    string
	text    string
	version uint64
}

// Manager handles debounced asynchronous syntax highlighting.
type Manager struct {
	highlighter *highlighter.Highlighter
	debounce    time.Duration
	updates     chan Update

	mu         sync.Mutex // Protects timer and pending state
	timer      *time.Timer
	pending    *snapshot
	cancelFunc context.CancelFunc // Cancels the running task
	closed     bool
}

// NewManager creates a new highlighting manager. A zero debounce uses
// DebounceHighlightDuration.
func NewManager(h *highlighter.Highlighter, debounce time.Duration) *Manager {
	if debounce <= 0 {
		debounce = DebounceHighlightDuration
	}
	return &Manager{
		highlighter: h,
		debounce:    debounce,
		updates:     make(chan Update, 1),
	}
}

// Updates delivers finished runs.
func (m *Manager) Updates() <-chan Update { return m.updates }

// Supports reports whether path has a grammar.
func (m *Manager) Supports(path string) bool { return m.highlighter.Supports(path) }

// Schedule queues a highlight of text, replacing any queued snapshot and
// resetting the debounce timer.
func (m *Manager) Schedule(path, text string, version uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	m.pending = &snapshot{path: path, text: text, version: version}
	if m.timer != nil {
		m.timer.Reset(m.debounce)
		return
	}
	logger.DebugTagf("highlight", "HighlightingManager: Starting debounce timer (%v).", m.debounce)
	m.timer = time.AfterFunc(m.debounce, m.run)
}

// run starts a background task for the latest snapshot, cancelling any
// task still working on an older one.
func (m *Manager) run() {
	m.mu.Lock()
	m.timer = nil
	snap := m.pending
	m.pending = nil
	if snap == nil || m.closed {
		m.mu.Unlock()
		return
	}
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelFunc = cancel
	m.mu.Unlock()

	go func() {
		spans, err := m.highlighter.Highlight(ctx, snap.path, snap.text)
		if err != nil && ctx.Err() != nil {
			logger.DebugTagf("highlight", "HighlightingManager: Highlight task cancelled.")
			return
		}
		if err != nil && !errors.Is(err, highlighter.ErrNoLanguage) {
			logger.Warnf("HighlightingManager: Background highlighting failed: %v", err)
		}

		update := Update{Path: snap.path, Version: snap.version, Spans: spans, Err: err}
		for {
			select {
			case m.updates <- update:
				return
			case <-ctx.Done():
				return
			default:
			}
			// Drop an unread older update rather than block on it.
			select {
			case <-m.updates:
			default:
			}
		}
	}()
}

// Shutdown cancels any pending or running task.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.cancelFunc != nil {
		m.cancelFunc()
		m.cancelFunc = nil
	}
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.pending = nil
}

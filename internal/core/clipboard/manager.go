// Package clipboard stores yanked text, in the system clipboard when enabled
// and available, and in an internal register otherwise.
package clipboard

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/bethropolis/ebb/internal/logger"
)

// Manager handles clipboard operations.
type Manager struct {
	system   bool
	register string
}

// NewManager creates a clipboard manager. With useSystem set and a system
// clipboard available, text goes through it; the register is always kept
// as a fallback.
func NewManager(useSystem bool) *Manager {
	if useSystem && clipboard.Unsupported {
		logger.Infof("Clipboard: system clipboard unsupported, using internal register")
		useSystem = false
	}
	return &Manager{system: useSystem}
}

// System reports whether the system clipboard is in use.
func (m *Manager) System() bool { return m.system }

// Copy stores text. A failing system clipboard still leaves the text in the
// register and reports the error.
func (m *Manager) Copy(text string) error {
	m.register = text
	if !m.system {
		return nil
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("system clipboard write failed: %w", err)
	}
	logger.DebugTagf("clipboard", "Clipboard: copied %d bytes", len(text))
	return nil
}

// Paste returns the current clipboard text.
func (m *Manager) Paste() (string, error) {
	if !m.system {
		return m.register, nil
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		logger.Warnf("Clipboard: system read failed, using register: %v", err)
		return m.register, nil
	}
	return text, nil
}

// Package autosave periodically saves a modified buffer that has a file.
//
// Configured under [plugins.autosave]:
//
//	enabled = true
//	interval = "30s"
package autosave

import (
	"sync"
	"time"

	"github.com/bethropolis/ebb/internal/logger"
	"github.com/bethropolis/ebb/internal/plugin"
)

var _ plugin.Plugin = (*AutoSave)(nil)

const (
	defaultEnabled  = false
	defaultInterval = 1 * time.Minute
)

// AutoSave plugin automatically saves modified buffers. Its timer runs on
// its own goroutine; saving is posted to the main loop.
type AutoSave struct {
	api plugin.API

	enabled  bool
	interval time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a new instance of the AutoSave plugin.
func New() *AutoSave {
	return &AutoSave{
		enabled:  defaultEnabled,
		interval: defaultInterval,
	}
}

// Name returns the unique name of the plugin.
func (p *AutoSave) Name() string {
	return "autosave"
}

// Initialize reads configuration and starts the auto-save loop if enabled.
func (p *AutoSave) Initialize(api plugin.API) error {
	p.api = api
	pluginName := p.Name()

	if enabledVal, ok := api.ConfigValue(pluginName, "enabled"); ok {
		if boolVal, isBool := enabledVal.(bool); isBool {
			p.enabled = boolVal
		} else {
			logger.Warnf("%s: Invalid type for 'enabled' config (%T), using default (%v)", pluginName, enabledVal, p.enabled)
		}
	}

	if intervalVal, ok := api.ConfigValue(pluginName, "interval"); ok {
		strVal, isStr := intervalVal.(string)
		parsed, err := time.ParseDuration(strVal)
		switch {
		case !isStr:
			logger.Warnf("%s: Invalid type for 'interval' config (%T), using default (%v)", pluginName, intervalVal, p.interval)
		case err != nil:
			logger.Warnf("%s: Invalid format for 'interval' config ('%s'): %v. Using default (%v)", pluginName, strVal, err, p.interval)
		case parsed <= 0:
			logger.Warnf("%s: 'interval' config must be positive ('%s'). Using default (%v)", pluginName, strVal, p.interval)
		default:
			p.interval = parsed
		}
	}

	logger.Infof("%s initialized. Enabled: %v, Interval: %v", pluginName, p.enabled, p.interval)
	if p.enabled {
		p.stopChan = make(chan struct{})
		p.wg.Add(1)
		go p.saverLoop(p.interval)
	}
	return nil
}

// Shutdown signals the saver goroutine to stop and waits for it.
func (p *AutoSave) Shutdown() error {
	if p.stopChan != nil {
		close(p.stopChan)
		p.wg.Wait()
		p.stopChan = nil
		logger.Debugf("%s: Saver goroutine stopped.", p.Name())
	}
	return nil
}

func (p *AutoSave) saverLoop(interval time.Duration) {
	defer p.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.api.Post(p.saveIfModified)
		case <-p.stopChan:
			return
		}
	}
}

// saveIfModified runs on the main loop.
func (p *AutoSave) saveIfModified() {
	buf := p.api.Buffer()
	if !buf.IsModified() {
		return
	}
	filePath := buf.FilePath()
	if filePath == "" {
		logger.Debugf("%s: Buffer is modified but has no name, skipping auto-save.", p.Name())
		return
	}
	if err := p.api.SaveBuffer(); err != nil {
		logger.Errorf("%s: Auto-save failed for '%s': %v", p.Name(), filePath, err)
		return
	}
	logger.Debugf("%s: Auto-saved '%s'", p.Name(), filePath)
}

package paginate

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// LimitsConfig holds page size limits per resource name, plus the
// defaults applied to resources without an entry.
//
//	defaults:
//	  default: 25
//	  max: 1000
//	resources:
//	  orders:
//	    default: 50
//	    max: 500
type LimitsConfig struct {
	Defaults  Limits            `yaml:"defaults"`
	Resources map[string]Limits `yaml:"resources"`
}

// For returns the limits for the given resource name.
func (c *LimitsConfig) For(resource string) Limits {
	if c == nil {
		return DefaultLimits
	}
	if l, ok := c.Resources[strings.ToLower(resource)]; ok {
		return l
	}
	if c.Defaults.Default > 0 || c.Defaults.Max > 0 {
		return c.Defaults
	}
	return DefaultLimits
}

// LoadLimits reads a limits configuration file.
func LoadLimits(path string) (*LimitsConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("paginate: reading limits config: %w", err)
	}
	var cfg LimitsConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("paginate: parsing limits config: %w", err)
	}
	lowered := make(map[string]Limits, len(cfg.Resources))
	for name, l := range cfg.Resources {
		lowered[strings.ToLower(name)] = l
	}
	cfg.Resources = lowered
	return &cfg, nil
}

// LimitsWatcher serves a limits configuration and reloads it when the
// file changes on disk. A broken rewrite keeps the last good config.
type LimitsWatcher struct {
	path    string
	cfg     atomic.Pointer[LimitsConfig]
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	done    chan struct{}
}

// WatchLimits loads the configuration and starts watching the file.
// Close must be called to release the watcher.
func WatchLimits(path string, logger *slog.Logger) (*LimitsWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg, err := LoadLimits(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("paginate: watching limits config: %w", err)
	}
	// Watch the directory: editors and config managers replace the file,
	// which drops a watch placed on the file itself.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("paginate: watching limits config: %w", err)
	}
	w := &LimitsWatcher{
		path:    path,
		watcher: fw,
		logger:  logger,
		done:    make(chan struct{}),
	}
	w.cfg.Store(cfg)
	go w.loop()
	return w, nil
}

// For returns the current limits for the given resource name.
func (w *LimitsWatcher) For(resource string) Limits {
	return w.cfg.Load().For(resource)
}

// Close stops watching the configuration file.
func (w *LimitsWatcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *LimitsWatcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			cfg, err := LoadLimits(w.path)
			if err != nil {
				w.logger.Warn("limits config reload failed, keeping previous", "path", w.path, "error", err)
				continue
			}
			w.cfg.Store(cfg)
			w.logger.Info("limits config reloaded", "path", w.path)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("limits config watcher error", "error", err)
		}
	}
}

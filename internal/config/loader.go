package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// DefaultNetwork is used when the config defines neither a builtin nor inline nodes.
const DefaultNetwork = "biodigester"

// Loader reads a YAML config file and watches it for changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *ServiceConfig
	onChange []func(*ServiceConfig) error
	watcher  *fsnotify.Watcher
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Path returns the watched file.
func (l *Loader) Path() string { return l.path }

// Config returns the current (latest) configuration.
func (l *Loader) Config() *ServiceConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
// A callback error rejects the new config: the previous one stays current.
func (l *Loader) OnChange(fn func(*ServiceConfig) error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the config on file changes.
// Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", l.path, err)
	}
	l.watcher = w

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := l.Reload(); err != nil {
						slog.Warn("config reload failed; keeping previous config", "path", l.path, "err", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "err", err)
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

// Reload forces an immediate re-read of the config file and runs the
// OnChange callbacks. The new config becomes current only if every callback succeeds.
func (l *Loader) Reload() (*ServiceConfig, error) {
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.mu.RLock()
	callbacks := make([]func(*ServiceConfig) error, len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.RUnlock()

	var errs []error
	for _, fn := range callbacks {
		if err := fn(cfg); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("apply config %s: %w", l.path, errors.Join(errs...))
	}

	l.mu.Lock()
	l.current = cfg
	l.mu.Unlock()
	return cfg, nil
}

func (l *Loader) load() (*ServiceConfig, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}
	return Parse(data)
}

// Parse decodes a config document and applies defaults.
func Parse(data []byte) (*ServiceConfig, error) {
	var cfg ServiceConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// ApplyDefaults fills every unset tunable.
func ApplyDefaults(cfg *ServiceConfig) {
	if cfg.Version == "" {
		cfg.Version = "v1"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Engine.QueryWorkers == 0 {
		cfg.Engine.QueryWorkers = 8
	}
	if cfg.Engine.QueueDepth == 0 {
		cfg.Engine.QueueDepth = 1000
	}
	if cfg.Engine.QueryTimeoutMs == 0 {
		cfg.Engine.QueryTimeoutMs = 10000
	}
	if cfg.Engine.DefaultSamples == 0 {
		cfg.Engine.DefaultSamples = 10000
	}
	if cfg.Engine.MaxSamples == 0 {
		cfg.Engine.MaxSamples = 1000000
	}
	if cfg.Engine.MaxAttemptFactor == 0 {
		cfg.Engine.MaxAttemptFactor = 100
	}
	if cfg.Engine.SamplerWorkers == 0 {
		cfg.Engine.SamplerWorkers = 4
	}
	if cfg.Engine.DefaultAlgorithm == "" {
		cfg.Engine.DefaultAlgorithm = "likelihood_weighting"
	}
	if cfg.Network.Builtin == "" && len(cfg.Network.Nodes) == 0 {
		cfg.Network.Builtin = DefaultNetwork
	}
}

// LoadNetworkFile reads a standalone YAML network definition
// (the same shape as the network section of the service config).
func LoadNetworkFile(path string) (*NetworkDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read network %s: %w", path, err)
	}
	var def NetworkDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse network %s: %w", path, err)
	}
	return &def, nil
}

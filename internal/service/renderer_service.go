package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"dashboard/internal/engine"
	"dashboard/internal/plugins"
)

// reloadDebounce coalesces the burst of events an editor's save produces.
const reloadDebounce = 300 * time.Millisecond

// RendererService keeps the registry in sync with the renderer template
// directory. A file <dir>/<blockType>.html overrides the built-in renderer
// of that type; deleting it restores the built-in.
type RendererService struct {
	registry *engine.Registry
	dir      string
	emitter  EventEmitter
	logger   *zap.Logger

	mu        sync.Mutex
	fromFiles map[string]bool

	watchCancel context.CancelFunc
	watcher     *fsnotify.Watcher
	watchDone   chan struct{}
}

// NewRendererService creates a RendererService over registry, which should
// already hold the built-in renderers.
func NewRendererService(registry *engine.Registry, dir string, emitter EventEmitter, logger *zap.Logger) *RendererService {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RendererService{
		registry:  registry,
		dir:       dir,
		emitter:   emitter,
		logger:    logger,
		fromFiles: make(map[string]bool),
	}
}

// Load registers every renderer file in the directory.
func (s *RendererService) Load(ctx context.Context) error {
	if s.dir == "" {
		return nil
	}
	renderers, err := plugins.LoadDir(ctx, s.dir, s.logger)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for blockType, fn := range renderers {
		if err := s.registry.Register(blockType, fn); err != nil {
			return fmt.Errorf("register renderer %s: %w", blockType, err)
		}
		s.fromFiles[blockType] = true
	}
	s.logger.Info("renderers: loaded files", zap.String("dir", s.dir), zap.Int("count", len(renderers)))
	return nil
}

// FileTypes reports the block types currently rendered from files.
func (s *RendererService) FileTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.fromFiles))
	for k := range s.fromFiles {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ReloadFile re-reads one renderer file, or drops its override when the
// file is gone.
func (s *RendererService) ReloadFile(ctx context.Context, path string) {
	blockType, ok := plugins.BlockTypeFromFile(path)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if !s.fromFiles[blockType] {
			return
		}
		delete(s.fromFiles, blockType)
		if builtin, ok := plugins.Builtins()[blockType]; ok {
			s.registry.MustRegister(blockType, builtin)
		} else {
			s.registry.Unregister(blockType)
		}
		s.logger.Info("renderers: file removed", zap.String("blockType", blockType))
		s.emitter.Emit(ctx, EventRenderersReloaded, []string{blockType})
		return
	}

	_, fn, err := plugins.LoadFile(path)
	if fn == nil {
		s.logger.Warn("renderers: read file", zap.String("file", path), zap.Error(err))
		return
	}
	if err != nil {
		s.logger.Warn("renderers: template does not parse", zap.String("file", path), zap.Error(err))
	}
	s.registry.MustRegister(blockType, fn)
	s.fromFiles[blockType] = true
	s.logger.Info("renderers: reloaded", zap.String("blockType", blockType))
	s.emitter.Emit(ctx, EventRenderersReloaded, []string{blockType})
}

// Watch reloads renderer files as they change until Stop is called.
func (s *RendererService) Watch(ctx context.Context) error {
	s.Stop()
	if s.dir == "" {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create renderers dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.mu.Lock()
	s.watcher = watcher
	s.watchCancel = cancel
	s.watchDone = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		var (
			timersMu sync.Mutex
			timers   = make(map[string]*time.Timer)
		)
		defer func() {
			timersMu.Lock()
			for _, t := range timers {
				t.Stop()
			}
			timersMu.Unlock()
		}()
		for {
			select {
			case <-watchCtx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				path := filepath.Clean(event.Name)
				if _, ok := plugins.BlockTypeFromFile(path); !ok {
					continue
				}
				timersMu.Lock()
				if t, exists := timers[path]; exists {
					t.Stop()
				}
				timers[path] = time.AfterFunc(reloadDebounce, func() {
					if watchCtx.Err() != nil {
						return
					}
					s.ReloadFile(watchCtx, path)
				})
				timersMu.Unlock()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("renderers: watcher error", zap.Error(err))
			}
		}
	}()

	s.logger.Info("renderers: watching", zap.String("dir", s.dir))
	return nil
}

// Stop ends watching.
func (s *RendererService) Stop() {
	s.mu.Lock()
	cancel, watcher, done := s.watchCancel, s.watcher, s.watchDone
	s.watchCancel, s.watcher, s.watchDone = nil, nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if watcher != nil {
		watcher.Close()
	}
	if done != nil {
		<-done
	}
}

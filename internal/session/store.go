package session

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"product-mockup-studio/internal/history"
)

const DefaultTTL = 2 * time.Hour

type StoreOptions struct {
	Deps         Deps
	TTL          time.Duration
	HistoryLimit int
	// HistoryDir enables per-session history files when non-empty.
	HistoryDir string
	Language   string
}

// Store keeps workspaces in memory and evicts them after TTL of inactivity.
type Store struct {
	opts   StoreOptions
	logger *slog.Logger
	cache  *cache.Cache
	mu     sync.Mutex
}

func NewStore(opts StoreOptions) *Store {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	logger := opts.Deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := cache.New(opts.TTL, opts.TTL/2)
	c.OnEvicted(func(id string, v any) {
		if ws, ok := v.(*Workspace); ok {
			ws.Close()
			logger.Debug("session evicted", "session", id)
		}
	})

	return &Store{opts: opts, logger: logger, cache: c}
}

// Create starts a workspace under a fresh random id.
func (s *Store) Create() *Workspace {
	return s.GetOrCreate(uuid.NewString())
}

// Get returns the workspace and extends its lifetime.
func (s *Store) Get(id string) (*Workspace, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id)
}

func (s *Store) getLocked(id string) (*Workspace, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	ws := v.(*Workspace)
	s.cache.SetDefault(id, ws)
	return ws, true
}

// GetOrCreate is used by front ends that own their session keys, such as a
// chat id.
func (s *Store) GetOrCreate(id string) *Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ws, ok := s.getLocked(id); ok {
		return ws
	}

	var persister history.Persister
	if s.opts.HistoryDir != "" {
		persister = history.NewFilePersister(s.opts.HistoryDir, id)
	}
	ws := NewWorkspace(WorkspaceOptions{
		ID:   id,
		Deps: s.opts.Deps,
		History: history.New(history.Options{
			Limit:     s.opts.HistoryLimit,
			Persister: persister,
			Logger:    s.logger.With("session", id),
		}),
		Language: s.opts.Language,
	})
	s.cache.SetDefault(id, ws)
	s.logger.Debug("session created", "session", id)
	return ws
}

func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}

func (s *Store) Len() int {
	return s.cache.ItemCount()
}

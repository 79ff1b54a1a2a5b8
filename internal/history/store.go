package history

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"product-mockup-studio/internal/imagedata"
)

const DefaultLimit = 20

type Entry struct {
	ID        string          `json:"id"`
	Image     imagedata.Image `json:"image"`
	Source    string          `json:"source"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Persister stores the entry list somewhere durable.
type Persister interface {
	Load() ([]Entry, error)
	Save(entries []Entry) error
	Clear() error
}

type Options struct {
	Limit     int
	Persister Persister
	Logger    *slog.Logger
}

// Store keeps generated images, most recent first, capped at Limit.
// Persistence failures are logged and the store carries on in memory.
type Store struct {
	mu      sync.Mutex
	entries []Entry
	limit   int
	persist Persister
	logger  *slog.Logger
}

func New(opts Options) *Store {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Store{limit: limit, persist: opts.Persister, logger: logger}
	if s.persist != nil {
		entries, err := s.persist.Load()
		if err != nil {
			logger.Warn("history load failed", "err", err)
		}
		if len(entries) > limit {
			entries = entries[:limit]
		}
		s.entries = entries
	}
	return s
}

func (s *Store) Append(img imagedata.Image, source string) Entry {
	entry := Entry{
		ID:        uuid.NewString(),
		Image:     img,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append([]Entry{entry}, s.entries...)
	if len(s.entries) > s.limit {
		s.entries = s.entries[:s.limit]
	}
	s.saveLocked()
	return entry
}

func (s *Store) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Store) Get(id string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	if s.persist == nil {
		return
	}
	if err := s.persist.Clear(); err != nil {
		s.logger.Warn("history clear failed", "err", err)
	}
}

func (s *Store) saveLocked() {
	if s.persist == nil {
		return
	}
	if err := s.persist.Save(s.entries); err != nil {
		s.logger.Warn("history save failed", "err", err)
	}
}

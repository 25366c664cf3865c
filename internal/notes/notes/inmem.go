package notes

import (
	"sync"

	"github.com/google/uuid"
)

// InmemStore provides an in-memory implementation of the notes store
type InmemStore struct {
	mu        sync.RWMutex
	notes     []Note
	observers []Observer
}

// Option configures an InmemStore
type Option func(*InmemStore)

// WithObserver registers fn to be told about every committed change
func WithObserver(fn Observer) Option {
	return func(s *InmemStore) {
		if fn != nil {
			s.observers = append(s.observers, fn)
		}
	}
}

// NewInmem creates a new, empty in-memory notes store
func NewInmem(opts ...Option) *InmemStore {
	s := &InmemStore{notes: make([]Note, 0)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns a copy of all notes in insertion order
func (s *InmemStore) List() []Note {
	var out []Note
	s.View(func(list []Note) { out = list })
	return out
}

// View calls fn with a snapshot while holding the read lock, so no change is
// committed (and no observer fires) until fn returns
func (s *InmemStore) View(fn func([]Note)) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Note, len(s.notes))
	copy(out, s.notes)
	fn(out)
}

// Create appends a note with a freshly generated id
func (s *InmemStore) Create(text string) Note {
	note := Note{ID: uuid.New(), Text: text}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.notes = append(s.notes, note)
	s.notify(Change{Kind: Created, Note: note})
	return note
}

// Delete removes the note with the given id and reports whether one was removed
func (s *InmemStore) Delete(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.notes[:0]
	var removed []Note
	for _, n := range s.notes {
		if n.ID == id {
			removed = append(removed, n)
			continue
		}
		kept = append(kept, n)
	}
	// 清掉尾部残留，避免持有已删除文本
	clear(s.notes[len(kept):])
	s.notes = kept

	for _, n := range removed {
		s.notify(Change{Kind: Deleted, Note: n})
	}
	return len(removed) > 0
}

// Len returns the number of notes currently held
func (s *InmemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}

// notify must be called with the write lock held
func (s *InmemStore) notify(c Change) {
	for _, fn := range s.observers {
		fn(c)
	}
}

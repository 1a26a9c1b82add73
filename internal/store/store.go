package store

import (
	"sync"
	"time"

	"voicereminder/internal/model"
)

// Store is the authoritative in-memory mapping from reminder id to record.
// All state is lost on process exit; nothing is re-armed on restart.
type Store struct {
	mu     sync.Mutex
	nextID uint
	order  []uint
	byID   map[uint]*model.Reminder
}

// New creates an empty store. Ids start at 1 and are never reused.
func New() *Store {
	return &Store{
		nextID: 1,
		byID:   make(map[uint]*model.Reminder),
	}
}

// Insert assigns the next sequential id to the record, stores it, and
// returns the id. Insertion order is preserved for later scans.
func (s *Store) Insert(r *model.Reminder) uint {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = s.nextID
	s.nextID++
	s.byID[r.ID] = r
	s.order = append(s.order, r.ID)
	return r.ID
}

// FindConflict scans stored non-daily reminders in insertion order and
// returns the id of the first one firing at runAt. Daily reminders are
// never part of the scan, on either side of the comparison.
func (s *Store) FindConflict(runAt time.Time) (uint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order {
		r := s.byID[id]
		if r.Daily {
			continue
		}
		if r.RunAt.Equal(runAt) {
			return id, true
		}
	}
	return 0, false
}

// Get returns the record for id, if present.
func (s *Store) Get(id uint) (*model.Reminder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	return r, ok
}

// List returns a snapshot of all records in insertion order.
func (s *Store) List() []*model.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Reminder, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Len returns the number of stored reminders.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

package store

import (
	"sync"

	"github.com/pairpad/pairpad/internal/room"
)

// Memory is the default room.Store: a process-wide map with no persistence.
// The outer lock only guards the map itself; each entry carries its own
// mutex so concurrent updates to unrelated rooms never serialize.
type Memory struct {
	mu    sync.RWMutex
	rooms map[string]*entry
}

type entry struct {
	mu          sync.Mutex
	code        string
	language    string
	lastUpdated int64
}

func NewMemory() *Memory {
	return &Memory{rooms: make(map[string]*entry)}
}

func (s *Memory) Create(id string, code, language *string) (room.Room, error) {
	s.mu.Lock()
	e, ok := s.rooms[id]
	if !ok {
		e = &entry{
			code:        room.DefaultCode,
			language:    room.DefaultLanguage,
			lastUpdated: room.Now(),
		}
		if code != nil {
			e.code = *code
		}
		if language != nil {
			e.language = *language
		}
		s.rooms[id] = e
	}
	s.mu.Unlock()

	// Existing rooms are returned unchanged: implicit creation must be
	// idempotent.
	return e.snapshot(id), nil
}

func (s *Memory) Get(id string) (room.Room, error) {
	s.mu.RLock()
	e, ok := s.rooms[id]
	s.mu.RUnlock()

	if !ok {
		return room.Room{}, room.ErrNotFound
	}
	return e.snapshot(id), nil
}

func (s *Memory) Upsert(id string, code, language *string) (room.Room, error) {
	s.mu.RLock()
	e, ok := s.rooms[id]
	s.mu.RUnlock()

	if !ok {
		return room.Room{}, room.ErrNotFound
	}

	e.mu.Lock()
	if code != nil {
		e.code = *code
	}
	if language != nil {
		e.language = *language
	}
	if now := room.Now(); now > e.lastUpdated {
		e.lastUpdated = now
	}
	r := room.Room{ID: id, Code: e.code, Language: e.language, LastUpdated: e.lastUpdated}
	e.mu.Unlock()

	return r, nil
}

// Len reports how many rooms exist. Used by stats.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

func (e *entry) snapshot(id string) room.Room {
	e.mu.Lock()
	defer e.mu.Unlock()
	return room.Room{ID: id, Code: e.code, Language: e.language, LastUpdated: e.lastUpdated}
}

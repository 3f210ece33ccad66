package room

import (
	"errors"
	"fmt"
)

// Machine encodes the room lifecycle rules independent of transport:
// what joining does, what counts as a valid update, and how conflicting
// writes resolve (last write wins, per field).
type Machine struct {
	store Store
}

func NewMachine(store Store) *Machine {
	return &Machine{store: store}
}

// Delta carries the sanitized field values resulting from an applied
// update. These are what get broadcast, never the raw client input.
type Delta struct {
	Code     string
	Language string
}

// Join returns the current snapshot for roomID, creating the room with
// defaults first if it does not exist yet. Joining is idempotent.
func (m *Machine) Join(roomID string) (Room, error) {
	if roomID == "" {
		return Room{}, errors.New("empty room id")
	}

	r, err := m.store.Get(roomID)
	if errors.Is(err, ErrNotFound) {
		return m.store.Create(roomID, nil, nil)
	}
	if err != nil {
		return Room{}, fmt.Errorf("join %s: %w", roomID, err)
	}
	return r, nil
}

// ApplyUpdate validates the candidate fields and applies them to the room.
// A nil candidate keeps the room's current value for that field; defaults
// never apply here. Reports false for an empty or unknown roomID, in which
// case nothing was mutated and nothing should be broadcast.
func (m *Machine) ApplyUpdate(roomID string, code, language *string) (Delta, bool) {
	if roomID == "" {
		return Delta{}, false
	}

	r, err := m.store.Upsert(roomID, code, language)
	if err != nil {
		return Delta{}, false
	}

	return Delta{Code: r.Code, Language: r.Language}, true
}

// Lookup returns the snapshot for roomID without side effects.
func (m *Machine) Lookup(roomID string) (Room, error) {
	return m.store.Get(roomID)
}

// CreateNew mints a room under a fresh unique id. Used by the out-of-band
// creation path, where collisions cannot occur.
func (m *Machine) CreateNew(id string, code, language *string) (Room, error) {
	return m.store.Create(id, code, language)
}

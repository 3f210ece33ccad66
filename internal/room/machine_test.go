package room

import (
	"errors"
	"testing"
)

// In-memory fake implementing Store, enough to exercise Machine logic.
type fakeStore struct {
	rooms map[string]Room
}

func newFakeStore() *fakeStore {
	return &fakeStore{rooms: make(map[string]Room)}
}

func (f *fakeStore) Create(id string, code, language *string) (Room, error) {
	if r, ok := f.rooms[id]; ok {
		return r, nil
	}
	r := Room{ID: id, Code: DefaultCode, Language: DefaultLanguage, LastUpdated: Now()}
	if code != nil {
		r.Code = *code
	}
	if language != nil {
		r.Language = *language
	}
	f.rooms[id] = r
	return r, nil
}

func (f *fakeStore) Get(id string) (Room, error) {
	r, ok := f.rooms[id]
	if !ok {
		return Room{}, ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) Upsert(id string, code, language *string) (Room, error) {
	r, ok := f.rooms[id]
	if !ok {
		return Room{}, ErrNotFound
	}
	if code != nil {
		r.Code = *code
	}
	if language != nil {
		r.Language = *language
	}
	r.LastUpdated = Now()
	f.rooms[id] = r
	return r, nil
}

func strPtr(s string) *string { return &s }

func TestJoinCreatesWithDefaults(t *testing.T) {
	m := NewMachine(newFakeStore())

	r, err := m.Join("abc123")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	if r.Code != DefaultCode {
		t.Errorf("Expected default code, got %q", r.Code)
	}
	if r.Language != DefaultLanguage {
		t.Errorf("Expected language %q, got %q", DefaultLanguage, r.Language)
	}
}

func TestJoinIdempotent(t *testing.T) {
	m := NewMachine(newFakeStore())

	first, err := m.Join("abc123")
	if err != nil {
		t.Fatalf("First join failed: %v", err)
	}

	second, err := m.Join("abc123")
	if err != nil {
		t.Fatalf("Second join failed: %v", err)
	}

	if first.Code != second.Code || first.Language != second.Language {
		t.Error("Repeated join should return the same snapshot")
	}
}

func TestJoinEmptyID(t *testing.T) {
	m := NewMachine(newFakeStore())

	if _, err := m.Join(""); err == nil {
		t.Error("Join with empty id should fail")
	}
}

func TestJoinDoesNotOverwriteExisting(t *testing.T) {
	store := newFakeStore()
	m := NewMachine(store)

	store.Create("kept", strPtr("custom code"), strPtr("python"))

	r, err := m.Join("kept")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if r.Code != "custom code" || r.Language != "python" {
		t.Errorf("Join must not touch existing state, got %q/%q", r.Code, r.Language)
	}
}

func TestApplyUpdateFieldIndependence(t *testing.T) {
	store := newFakeStore()
	m := NewMachine(store)
	store.Create("r1", strPtr("A"), strPtr("js"))

	tests := []struct {
		name         string
		code         *string
		language     *string
		wantCode     string
		wantLanguage string
	}{
		{"code only", strPtr("B"), nil, "B", "js"},
		{"language only", nil, strPtr("python"), "B", "python"},
		{"both", strPtr("C"), strPtr("cpp"), "C", "cpp"},
		{"neither", nil, nil, "C", "cpp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delta, ok := m.ApplyUpdate("r1", tt.code, tt.language)
			if !ok {
				t.Fatal("ApplyUpdate should succeed")
			}
			if delta.Code != tt.wantCode {
				t.Errorf("Expected code %q, got %q", tt.wantCode, delta.Code)
			}
			if delta.Language != tt.wantLanguage {
				t.Errorf("Expected language %q, got %q", tt.wantLanguage, delta.Language)
			}
		})
	}
}

func TestApplyUpdateNeverSubstitutesDefaults(t *testing.T) {
	store := newFakeStore()
	m := NewMachine(store)
	store.Create("r1", strPtr("mine"), strPtr("python"))

	delta, ok := m.ApplyUpdate("r1", nil, nil)
	if !ok {
		t.Fatal("ApplyUpdate should succeed")
	}
	if delta.Code == DefaultCode || delta.Language == DefaultLanguage {
		t.Error("Missing candidates must keep the current value, not the defaults")
	}
}

func TestApplyUpdateUnknownRoom(t *testing.T) {
	store := newFakeStore()
	m := NewMachine(store)

	if _, ok := m.ApplyUpdate("ghost", strPtr("B"), nil); ok {
		t.Error("Update against an unknown room must be a no-op")
	}
	if _, err := store.Get("ghost"); !errors.Is(err, ErrNotFound) {
		t.Error("Update must not create the room")
	}
}

func TestApplyUpdateEmptyID(t *testing.T) {
	m := NewMachine(newFakeStore())

	if _, ok := m.ApplyUpdate("", strPtr("B"), nil); ok {
		t.Error("Update with empty id must be a no-op")
	}
}

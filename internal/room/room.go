package room

import (
	"errors"
	"time"
)

// Substituted whenever a creation request carries no usable code or language.
const (
	DefaultLanguage = "javascript"

	DefaultCode = `// Sample function used for interview practice
function greet(name) {
  return 'Hello, ' + name + '!';
}

console.log(greet('World'));`
)

// Returned by stores for lookups and updates against an unknown room ID.
var ErrNotFound = errors.New("room not found")

// The unit of collaboration: shared code text plus a language tag
type Room struct {
	ID          string
	Code        string
	Language    string
	LastUpdated int64 // unix milliseconds
}

// Store is the authoritative keeper of Room records. A nil code or language
// pointer means "no usable candidate": Create substitutes the defaults,
// Upsert keeps the existing field value. Implementations must apply
// mutations to the same room atomically.
type Store interface {
	// Create inserts a room, substituting defaults for nil fields.
	// Creating an already-occupied ID returns the existing room unchanged.
	Create(id string, code, language *string) (Room, error)

	// Get returns the current snapshot, or ErrNotFound.
	Get(id string) (Room, error)

	// Upsert applies a last-write-wins field-level update and refreshes
	// LastUpdated. Nil fields keep their previous value. Returns
	// ErrNotFound when the room does not exist.
	Upsert(id string, code, language *string) (Room, error)
}

// Now returns the wall clock in unix milliseconds, the resolution rooms
// track LastUpdated at.
func Now() int64 {
	return time.Now().UnixMilli()
}

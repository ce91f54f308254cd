// Package idx mints the bridge's identifiers: bare ULIDs for OAuth clients
// and request ids, prefixed ULIDs for sessions.
package idx

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns a lexicographically sortable ULID for the current UTC time.
// IDs minted within the same millisecond still sort in creation order.
func New() string {
	mu.Lock()
	defer mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), entropy).String()
}

// NewPrefixed returns "<prefix>_<ulid>", e.g. "sess_01J9...".
func NewPrefixed(prefix string) string {
	return prefix + "_" + New()
}

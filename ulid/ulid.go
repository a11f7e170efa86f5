// Package ulid generates the identifiers of registry records.
package ulid

import (
	cryptorand "crypto/rand"
	"sync"
	"time"

	oklid "github.com/oklog/ulid/v2"
)

// ULID is re-exported so callers don't need to import oklog/ulid.
type ULID = oklid.ULID

var (
	mu      sync.Mutex
	entropy = oklid.Monotonic(cryptorand.Reader, 0)
)

// Make returns a new ULID for t. IDs made within the same millisecond are
// strictly increasing.
func Make(t time.Time) (ULID, error) {
	mu.Lock()
	defer mu.Unlock()

	return oklid.New(oklid.Timestamp(t), entropy)
}

// Parse parses the canonical string form of a ULID.
func Parse(s string) (ULID, error) {
	return oklid.ParseStrict(s)
}

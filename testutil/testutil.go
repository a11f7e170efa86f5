// Package testutil has helpers shared by integration tests.
package testutil

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/auraprotocol/diamond/regdb"
)

// TestDB represents a test database connection with utilities
type TestDB struct {
	*pgxpool.Pool
	queries *regdb.Queries
	ctx     context.Context
}

// NewTestDB connects to TEST_DATABASE_URL, creates the registry tables and
// empties them. The test is skipped when the variable is unset.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	if err := regdb.Migrate(ctx, pool); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	tdb := &TestDB{
		Pool:    pool,
		queries: regdb.New(pool),
		ctx:     ctx,
	}
	tdb.CleanupTestData(t)
	t.Cleanup(tdb.Close)

	return tdb
}

// Close closes the database connection
func (tdb *TestDB) Close() {
	tdb.Pool.Close()
}

// Queries returns the regdb queries instance
func (tdb *TestDB) Queries() *regdb.Queries {
	return tdb.queries
}

// Context returns the test context
func (tdb *TestDB) Context() context.Context {
	return tdb.ctx
}

// CleanupTestData removes all registry rows
func (tdb *TestDB) CleanupTestData(t *testing.T) {
	for _, table := range []string{"diamond_cuts", "diamond_routes", "diamond_state"} {
		if _, err := tdb.Exec(tdb.ctx, "DELETE FROM "+table); err != nil {
			t.Logf("Error cleaning up table %s: %v", table, err)
		}
	}
}

// TimeController allows controlling time in tests
type TimeController struct {
	mu      sync.Mutex
	frozen  bool
	current time.Time
	offset  time.Duration
}

// NewTimeController creates a new time controller
func NewTimeController() *TimeController {
	return &TimeController{current: time.Now()}
}

// Freeze freezes time at the current moment
func (tc *TimeController) Freeze() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.frozen = true
	tc.current = time.Now().Add(tc.offset)
}

// SetTime sets the current time
func (tc *TimeController) SetTime(t time.Time) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.current = t
	tc.offset = -time.Until(t)
	tc.frozen = true
}

// Advance advances time by the given duration
func (tc *TimeController) Advance(d time.Duration) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.frozen {
		tc.current = tc.current.Add(d)
	} else {
		tc.offset += d
	}
}

// Now returns the current controlled time. It can be passed to
// diamond.WithClock.
func (tc *TimeController) Now() time.Time {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.frozen {
		return tc.current
	}
	return time.Now().Add(tc.offset)
}

// NewTestLogger returns a debug level text logger writing to stdout
func NewTestLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

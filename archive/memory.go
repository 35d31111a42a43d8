package archive

import "testing"

// OpenMemory opens an in-memory archive for testing. MaxOpenConns is pinned
// to 1 because every new connection to ":memory:" is a fresh database.
// Closing is registered via t.Cleanup.
func OpenMemory(t testing.TB) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("archive.OpenMemory: %v", err)
	}
	s.db.SetMaxOpenConns(1)
	t.Cleanup(func() { s.Close() })
	return s
}

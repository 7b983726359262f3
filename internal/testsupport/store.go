package testsupport

import (
	"testing"

	"playlet/internal/config"
	"playlet/internal/jobs"
)

// MustOpenStore opens the job store for cfg and fails the test on error. The
// store is closed when the test finishes.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("open job store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close job store: %v", err)
		}
	})
	return store
}

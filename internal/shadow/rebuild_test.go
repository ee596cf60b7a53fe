package shadow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jersy/ariadne/internal/graphstore"
	"github.com/jersy/ariadne/internal/ingest"
)

func newAnalyzerStub(t *testing.T, classes []map[string]any) *ingest.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"classes": classes})
	}))
	t.Cleanup(srv.Close)
	return ingest.NewClient(srv.URL, 60*time.Second, 600*time.Second)
}

func TestRebuildFull_SwapsInNewDatabaseAtomically(t *testing.T) {
	dir := t.TempDir()
	currentPath := filepath.Join(dir, "ariadne.db")

	seed, err := graphstore.Open(currentPath)
	require.NoError(t, err)
	require.NoError(t, seed.Close())

	analyzer := newAnalyzerStub(t, []map[string]any{
		{"fqn": "a.Foo", "methods": []map[string]any{{"fqn": "a.Foo#m"}}},
	})

	r := New(currentPath, analyzer, 3)
	stats, err := r.RebuildFull(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, stats.SymbolCount) // class + method

	_, err = os.Stat(currentPath)
	require.NoError(t, err)
	_, err = os.Stat(stats.BackupPath)
	require.NoError(t, err)

	store, err := graphstore.Open(currentPath)
	require.NoError(t, err)
	defer store.Close()
	n, err := store.SymbolCount()
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestRebuildFull_EmptyAnalyzerResultFailsVerification(t *testing.T) {
	dir := t.TempDir()
	currentPath := filepath.Join(dir, "ariadne.db")

	seed, err := graphstore.Open(currentPath)
	require.NoError(t, err)
	require.NoError(t, seed.Close())

	analyzer := newAnalyzerStub(t, nil)

	r := New(currentPath, analyzer, 3)
	_, err = r.RebuildFull(context.Background())
	require.Error(t, err)

	// Original database must be untouched.
	_, statErr := os.Stat(currentPath)
	require.NoError(t, statErr)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.NotContains(t, e.Name(), "_new_")
	}
}

func TestCleanupOldBackups_KeepsOnlyMostRecent(t *testing.T) {
	dir := t.TempDir()
	currentPath := filepath.Join(dir, "ariadne.db")

	for i := 0; i < 5; i++ {
		ts := time.Now().Add(time.Duration(i) * time.Minute)
		path := backupPathFor(currentPath, ts)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}

	require.NoError(t, CleanupOldBackups(currentPath, 3))

	backups, err := listBackups(currentPath)
	require.NoError(t, err)
	require.Len(t, backups, 3)
}

func TestRecoverIncompleteSwap_RestoresMostRecentBackupWhenCurrentMissing(t *testing.T) {
	dir := t.TempDir()
	currentPath := filepath.Join(dir, "ariadne.db")

	backupPath := backupPathFor(currentPath, time.Now())
	require.NoError(t, os.WriteFile(backupPath, []byte("restored"), 0o644))

	require.NoError(t, RecoverIncompleteSwap(currentPath))

	data, err := os.ReadFile(currentPath)
	require.NoError(t, err)
	require.Equal(t, "restored", string(data))
}

func TestRecoverIncompleteSwap_NoOpWhenCurrentIsHealthy(t *testing.T) {
	dir := t.TempDir()
	currentPath := filepath.Join(dir, "ariadne.db")
	require.NoError(t, os.WriteFile(currentPath, []byte("healthy"), 0o644))

	backupPath := backupPathFor(currentPath, time.Now())
	require.NoError(t, os.WriteFile(backupPath, []byte("old"), 0o644))

	require.NoError(t, RecoverIncompleteSwap(currentPath))

	data, err := os.ReadFile(currentPath)
	require.NoError(t, err)
	require.Equal(t, "healthy", string(data))
}

package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruteri/token-governance/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// exerciseBackend runs the keyed store contract shared by every local backend.
func exerciseBackend(t *testing.T, backend interfaces.StorageBackend) {
	t.Helper()
	ctx := context.Background()

	assert.True(t, backend.Available(ctx))

	_, err := backend.Fetch(ctx, interfaces.SnapshotKey)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)

	first := []byte(`{"seq":1}`)
	id, err := backend.Store(ctx, interfaces.SnapshotKey, first)
	require.NoError(t, err)
	assert.Equal(t, interfaces.ComputeID(first), id)

	got, err := backend.Fetch(ctx, interfaces.SnapshotKey)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	// Store overwrites
	second := []byte(`{"seq":2}`)
	_, err = backend.Store(ctx, interfaces.SnapshotKey, second)
	require.NoError(t, err)
	got, err = backend.Fetch(ctx, interfaces.SnapshotKey)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	// keys are independent
	_, err = backend.Store(ctx, "other/key", []byte("x"))
	require.NoError(t, err)
	got, err = backend.Fetch(ctx, interfaces.SnapshotKey)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestFileBackend(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir, testLogger())
	require.NoError(t, err)

	exerciseBackend(t, backend)

	assert.Equal(t, "file://"+dir, backend.LocationURI())
	_, err = os.Stat(filepath.Join(dir, "snapshot", "latest"))
	assert.NoError(t, err)

	// no temporary files are left behind
	entries, err := os.ReadDir(filepath.Join(dir, "snapshot"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileBackend_RejectsEscapingKeys(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err)

	for _, key := range []interfaces.StorageKey{"../escape", "/abs/path", "", "a/../../b"} {
		_, err := backend.Store(context.Background(), key, []byte("x"))
		assert.Error(t, err, key)
		_, err = backend.Fetch(context.Background(), key)
		assert.Error(t, err, key)
	}
}

func TestLevelDBBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "governance.db")
	backend, err := NewLevelDBBackend(path, testLogger())
	require.NoError(t, err)

	exerciseBackend(t, backend)
	require.NoError(t, backend.Close())
	assert.False(t, backend.Available(context.Background()))

	// data survives a reopen
	reopened, err := NewLevelDBBackend(path, testLogger())
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Fetch(context.Background(), interfaces.SnapshotKey)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"seq":2}`), got)
}

func TestStorageBackendFactory(t *testing.T) {
	dir := t.TempDir()
	factory := NewStorageBackendFactory(testLogger())

	fileLoc, err := interfaces.NewStorageBackendLocation("file://" + filepath.Join(dir, "files"))
	require.NoError(t, err)
	fileBackend, err := factory.StorageBackendFor(fileLoc)
	require.NoError(t, err)
	assert.IsType(t, &FileBackend{}, fileBackend)

	ldbLoc, err := interfaces.NewStorageBackendLocation("leveldb://" + filepath.Join(dir, "ldb"))
	require.NoError(t, err)
	ldbBackend, err := factory.StorageBackendFor(ldbLoc)
	require.NoError(t, err)
	assert.IsType(t, &LevelDBBackend{}, ldbBackend)
	require.NoError(t, ldbBackend.(*LevelDBBackend).Close())

	s3Loc, err := interfaces.NewStorageBackendLocation("s3://AKID:SECRET@bucket/governance?region=eu-west-1&endpoint=http://localhost:9000")
	require.NoError(t, err)
	s3Backend, err := factory.StorageBackendFor(s3Loc)
	require.NoError(t, err)
	assert.Equal(t, "s3-bucket", s3Backend.Name())
	assert.NotContains(t, s3Backend.LocationURI(), "SECRET")

	vaultLoc, err := interfaces.NewStorageBackendLocation("vault://127.0.0.1:8200/secret/governance?token=root&insecure=true")
	require.NoError(t, err)
	vaultBackend, err := factory.StorageBackendFor(vaultLoc)
	require.NoError(t, err)
	assert.Equal(t, "vault-secret-governance", vaultBackend.Name())

	_, err = factory.StorageBackendFor(interfaces.StorageBackendLocation{Raw: "ipfs://x", Scheme: "ipfs"})
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
}

func TestStorageBackendFactory_CreateMultiBackend(t *testing.T) {
	dir := t.TempDir()
	factory := NewStorageBackendFactory(testLogger())

	a, err := interfaces.NewStorageBackendLocation("file://" + filepath.Join(dir, "a"))
	require.NoError(t, err)
	b, err := interfaces.NewStorageBackendLocation("leveldb://" + filepath.Join(dir, "b"))
	require.NoError(t, err)

	backend, err := factory.CreateMultiBackend([]interfaces.StorageBackendLocation{a, b, {Scheme: "bogus"}})
	require.NoError(t, err)
	multi, ok := backend.(*MultiStorageBackend)
	require.True(t, ok)
	defer multi.Close()

	_, err = multi.Store(context.Background(), interfaces.SnapshotKey, []byte("both"))
	require.NoError(t, err)

	// both backends received the write
	for _, inner := range multi.backends {
		got, err := inner.Fetch(context.Background(), interfaces.SnapshotKey)
		require.NoError(t, err)
		assert.Equal(t, []byte("both"), got)
	}

	_, err = factory.CreateMultiBackend([]interfaces.StorageBackendLocation{{Scheme: "bogus"}})
	assert.Error(t, err)
}

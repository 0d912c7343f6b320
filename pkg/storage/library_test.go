package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osudl/pkg/beatmap"
	errs "osudl/pkg/errors"
	"osudl/pkg/logger"
)

func newTestLibrary(t *testing.T) (*Library, *logger.TestLogger) {
	t.Helper()
	log := logger.NewTestLogger()
	lib, err := NewLibrary(t.TempDir(), log)
	require.NoError(t, err)
	return lib, log
}

func TestNewLibraryCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Songs", "nested")

	lib, err := NewLibrary(root, logger.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, root, lib.Root())

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestPaths(t *testing.T) {
	lib, _ := newTestLibrary(t)
	s := beatmap.New(42, "AC/DC", "Thunder?")

	assert.Equal(t, filepath.Join(lib.Root(), "42 AC_DC - Thunder_"), lib.DirPath(s))
	assert.Equal(t, filepath.Join(lib.Root(), "42 AC_DC - Thunder_.osz"), lib.ArchivePath(s))
}

func TestExists(t *testing.T) {
	lib, _ := newTestLibrary(t)

	extracted := beatmap.New(1, "a", "dir")
	archived := beatmap.New(2, "b", "file")
	missing := beatmap.New(3, "c", "none")
	wrongKind := beatmap.New(4, "d", "swapped")

	require.NoError(t, os.Mkdir(lib.DirPath(extracted), 0755))
	require.NoError(t, os.WriteFile(lib.ArchivePath(archived), []byte("PK"), 0644))
	// a directory named like the archive does not count as an archive
	require.NoError(t, os.Mkdir(lib.ArchivePath(wrongKind), 0755))

	assert.True(t, lib.Exists(extracted))
	assert.True(t, lib.Exists(archived))
	assert.False(t, lib.Exists(missing))
	assert.False(t, lib.Exists(wrongKind))
}

func TestFilterExisting(t *testing.T) {
	lib, log := newTestLibrary(t)

	have := beatmap.New(10, "x", "have")
	want := beatmap.New(20, "y", "want")
	require.NoError(t, os.WriteFile(lib.ArchivePath(have), []byte("PK"), 0644))

	pending := beatmap.NewPendingSet(have, want)
	filtered := lib.FilterExisting(pending)

	assert.Equal(t, 1, filtered.Len())
	assert.True(t, filtered.Contains(20))
	assert.Equal(t, 2, pending.Len(), "input must not be mutated")

	skipped := log.GetMessagesByLevel("INFO")
	require.Len(t, skipped, 1)
	assert.Equal(t, "Beatmap set already downloaded", skipped[0].Message)
	assert.Equal(t, have.String(), skipped[0].Field("beatmapset"))

	// idempotent
	again := lib.FilterExisting(filtered)
	assert.Equal(t, filtered.Sets(), again.Sets())
}

func TestSaveArchive(t *testing.T) {
	lib, _ := newTestLibrary(t)
	s := beatmap.New(5, "artist", "title")
	data := []byte("PK\x03\x04 archive bytes")

	n, err := lib.SaveArchive(s, bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)

	content, err := os.ReadFile(lib.ArchivePath(s))
	require.NoError(t, err)
	assert.Equal(t, data, content)
	assert.True(t, lib.Exists(s))

	entries, err := os.ReadDir(lib.Root())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must not be left behind")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestSaveArchiveFailureIsTypedAndLeavesNothing(t *testing.T) {
	lib, _ := newTestLibrary(t)
	s := beatmap.New(6, "a", "b")

	_, err := lib.SaveArchive(s, failingReader{})
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeIO))
	assert.Contains(t, err.Error(), "connection reset by peer")

	assert.False(t, lib.Exists(s))
	entries, err := os.ReadDir(lib.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

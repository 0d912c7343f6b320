package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"osudl/pkg/beatmap"
	errs "osudl/pkg/errors"
	"osudl/pkg/logger"
)

// Library is the local beatmap collection rooted at one directory. An
// entry for a set is either an extracted directory named after the set or
// a downloaded archive with the same name plus ".osz".
type Library struct {
	root string
	log  logger.Logger
}

// NewLibrary opens the library at root, creating the directory if needed
func NewLibrary(root string, log logger.Logger) (*Library, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeIO, "failed to create library directory", err)
	}
	return &Library{root: root, log: log}, nil
}

// Root returns the library directory
func (l *Library) Root() string {
	return l.root
}

// DirPath returns the path of the extracted entry for s
func (l *Library) DirPath(s beatmap.Set) string {
	return filepath.Join(l.root, s.String())
}

// ArchivePath returns the path of the archive entry for s
func (l *Library) ArchivePath(s beatmap.Set) string {
	return filepath.Join(l.root, s.ArchiveName())
}

// Exists reports whether s is already present in either form
func (l *Library) Exists(s beatmap.Set) bool {
	if info, err := os.Stat(l.DirPath(s)); err == nil && info.IsDir() {
		return true
	}
	if info, err := os.Stat(l.ArchivePath(s)); err == nil && info.Mode().IsRegular() {
		return true
	}
	return false
}

// FilterExisting returns the sets of pending that are not yet in the
// library. pending itself is left untouched.
func (l *Library) FilterExisting(pending *beatmap.PendingSet) *beatmap.PendingSet {
	return pending.Filter(func(s beatmap.Set) bool {
		if l.Exists(s) {
			l.log.WithField("beatmapset", s.String()).Info("Beatmap set already downloaded")
			return false
		}
		return true
	})
}

// SaveArchive writes r to the archive path of s and returns the number of
// bytes written. The data lands in a temporary file first and is renamed
// into place, so a failed write never leaves a partial archive that Exists
// would report.
func (l *Library) SaveArchive(s beatmap.Set, r io.Reader) (int64, error) {
	filename := l.ArchivePath(s)
	l.log.WithField("path", filename).Debug("Writing archive")

	out, err := os.CreateTemp(l.root, ".osudl-*.tmp")
	if err != nil {
		return 0, errs.Wrap(errs.ErrorTypeIO, "failed to create temporary file", err)
	}
	tempFile := out.Name()

	n, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return n, errs.Wrap(errs.ErrorTypeIO, fmt.Sprintf("failed to write archive %s", s.ArchiveName()), err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return n, errs.Wrap(errs.ErrorTypeIO, "failed to close file", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return n, errs.Wrap(errs.ErrorTypeIO, "failed to rename temporary file", err)
	}

	return n, nil
}

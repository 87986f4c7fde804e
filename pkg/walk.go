package dupscan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ErrUnsupportedFileType is returned when the walk meets a device, socket or
// FIFO entry. The walk refuses to reason about these and stops; wandering
// into somewhere like /dev is a configuration mistake, not a condition to
// skip past.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// walker performs the depth-first traversal and feeds regular files into the
// duplicate index. Any failure is terminal: an unreadable directory, a failed
// stat or an unreadable file during hashing aborts the whole walk.
type walker struct {
	index       *DuplicateIndex
	onDuplicate func(duplicate, original *FileRecord)
	stats       WalkStats
}

// WalkStats holds counters for one traversal.
type WalkStats struct {
	Directories     int `json:"directories"`
	FilesConsidered int `json:"files_considered"`
	EmptySkipped    int `json:"empty_skipped"`
	SymlinksSkipped int `json:"symlinks_skipped"`
}

// walkDir recursively scans dir. Directory entries are processed in name
// order (os.ReadDir sorts them), so repeated scans of the same tree pick the
// same originals regardless of filesystem enumeration order.
func (w *walker) walkDir(dir string) error {
	VerboseLog(1, "directory: %s", dir)
	w.stats.Directories++

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		// Link-aware stat so a symlink classifies as a symlink rather than
		// as its target.
		var st unix.Stat_t
		if err := unix.Lstat(path, &st); err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}

		switch st.Mode & unix.S_IFMT {
		case unix.S_IFREG:
			if st.Size == 0 {
				// Zero-length files cannot be interesting duplicates.
				w.stats.EmptySkipped++
				if IsDebugEnabled("walk") {
					VerboseLog(3, "walk: skipping empty file %s", path)
				}
				continue
			}
			if err := w.regularFile(path, &st); err != nil {
				return err
			}

		case unix.S_IFDIR:
			if err := w.walkDir(path); err != nil {
				return err
			}

		case unix.S_IFLNK:
			w.stats.SymlinksSkipped++
			VerboseLog(1, "ignoring symlink: %s", path)

		default:
			return fmt.Errorf("%w: %s (mode %#o)", ErrUnsupportedFileType, path, st.Mode&unix.S_IFMT)
		}
	}

	return nil
}

// regularFile submits one non-empty regular file to the index and reports the
// verdict.
func (w *walker) regularFile(path string, st *unix.Stat_t) error {
	record := NewFileRecord(path, st)
	w.stats.FilesConsidered++
	VerboseLog(2, "regular file: %s, size: %d, nlink: %d", record.Path, record.Size, record.Nlink)

	original, err := w.index.LookupOrInsert(record)
	if err != nil {
		return err
	}
	if original != nil && w.onDuplicate != nil {
		w.onDuplicate(record, original)
	}
	return nil
}

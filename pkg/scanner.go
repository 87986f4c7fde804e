package dupscan

import (
	"fmt"
)

// DefaultHashAlgorithm is used when neither the caller nor the config names
// one.
const DefaultHashAlgorithm = "sha256"

// Options controls one scan.
type Options struct {
	// Algorithm names the digest algorithm (sha1, sha256, sha512). Empty
	// means DefaultHashAlgorithm.
	Algorithm string

	// DryRun is accepted and threaded through for a future
	// replace-duplicate-with-link action. The scan never mutates the tree in
	// any mode today.
	DryRun bool

	// OnDuplicate, if set, is called for each duplicate as it is found,
	// before the scan moves on. Both records are valid for the duration of
	// the callback; the original stays recorded, the duplicate is discarded.
	OnDuplicate func(duplicate, original *FileRecord)
}

// DuplicatePair identifies one duplicate file and the original it matches.
type DuplicatePair struct {
	Duplicate string `json:"duplicate"`
	Original  string `json:"original"`
	Size      uint64 `json:"size"`
}

// ScanStats combines walker and index counters for one scan.
type ScanStats struct {
	WalkStats
	IndexStats
}

// Result is the outcome of one complete scan.
type Result struct {
	Pairs []DuplicatePair `json:"duplicates"`
	Stats ScanStats       `json:"stats"`
}

// Scan walks the tree rooted at root and returns every (duplicate, original)
// pair found. Each call owns its DuplicateIndex, so concurrent or repeated
// scans in one process are independent of each other.
//
// Scan fails on the first error: unreadable directory, failed stat,
// unreadable file during hashing, or an entry type the walk refuses
// (ErrUnsupportedFileType). A failed scan's partial results are not returned.
func Scan(root string, opts Options) (*Result, error) {
	name := opts.Algorithm
	if name == "" {
		name = DefaultHashAlgorithm
	}
	algorithm, err := GetHashAlgorithm(name)
	if err != nil {
		return nil, err
	}

	if opts.DryRun {
		VerboseLog(1, "dry-run: reporting only, nothing will be modified")
	}

	result := &Result{}
	w := &walker{
		index: NewDuplicateIndex(algorithm),
		onDuplicate: func(duplicate, original *FileRecord) {
			result.Pairs = append(result.Pairs, DuplicatePair{
				Duplicate: duplicate.Path,
				Original:  original.Path,
				Size:      duplicate.Size,
			})
			if opts.OnDuplicate != nil {
				opts.OnDuplicate(duplicate, original)
			}
		},
	}

	if err := w.walkDir(root); err != nil {
		return nil, fmt.Errorf("scan of %s failed: %w", root, err)
	}

	result.Stats = ScanStats{
		WalkStats:  w.stats,
		IndexStats: w.index.Stats(),
	}
	return result, nil
}

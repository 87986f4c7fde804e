package dupscan

import (
	"bytes"
	"fmt"
)

// BucketCount is the fixed size of the bucket table. A prime spreads sizes
// across chains; the table is never resized.
const BucketCount = 1049

// IndexStats holds counters accumulated over the lifetime of one index.
type IndexStats struct {
	Originals       int    `json:"originals"`
	Duplicates      int    `json:"duplicates"`
	SizeCollisions  int    `json:"size_collisions"`
	DigestsComputed int    `json:"digests_computed"`
	DuplicateBytes  uint64 `json:"duplicate_bytes"`
}

// DuplicateIndex records every original file seen so far, bucketed by
// size mod BucketCount. Each bucket chain is kept sorted by ascending size so
// a lookup can stop as soon as the chain sizes exceed the candidate's.
//
// The index is single-writer, single-reader; it must not be shared across
// goroutines.
type DuplicateIndex struct {
	algorithm *HashAlgorithm
	buckets   [BucketCount][]*FileRecord
	stats     IndexStats

	// hashFile is swapped out by tests to observe or fake digest computation.
	hashFile func(path string, algorithm *HashAlgorithm) ([]byte, error)
}

// NewDuplicateIndex creates an empty index that digests files with the given
// algorithm.
func NewDuplicateIndex(algorithm *HashAlgorithm) *DuplicateIndex {
	return &DuplicateIndex{
		algorithm: algorithm,
		hashFile:  HashFile,
	}
}

// LookupOrInsert decides whether an identical original already exists for the
// candidate. If so it returns the original and the candidate is not recorded;
// otherwise the candidate is inserted as a new original and the result is
// nil. Records inserted here are retained for the life of the index.
//
// Digests are computed lazily: only when the candidate's size matches an
// existing chain entry, and at most once per record. Two files of equal size
// whose digests differ both stay in the chain.
func (ix *DuplicateIndex) LookupOrInsert(candidate *FileRecord) (*FileRecord, error) {
	if candidate.Size == 0 {
		return nil, fmt.Errorf("refusing zero-length record: %s", candidate.Path)
	}

	bucket := candidate.Size % BucketCount
	chain := ix.buckets[bucket]
	if IsDebugEnabled("index") {
		VerboseLog(3, "index: %s size=%d bucket=%d chain=%d",
			candidate.Path, candidate.Size, bucket, len(chain))
	}

	// Cheapest case: empty chain, or every entry is already larger than the
	// candidate. Insert at the head, no hashing needed.
	if len(chain) == 0 || chain[0].Size > candidate.Size {
		ix.buckets[bucket] = append([]*FileRecord{candidate}, chain...)
		ix.stats.Originals++
		return nil, nil
	}

	pos := 0
	for i := 0; i < len(chain) && chain[i].Size <= candidate.Size; i++ {
		entry := chain[i]
		if entry.Size == candidate.Size {
			ix.stats.SizeCollisions++
			VerboseLog(2, "size match: %s vs %s (%d bytes)",
				candidate.Path, entry.Path, candidate.Size)
			if err := ix.ensureDigest(candidate); err != nil {
				return nil, err
			}
			if err := ix.ensureDigest(entry); err != nil {
				return nil, err
			}
			if bytes.Equal(entry.digest, candidate.digest) {
				VerboseLog(2, "digest match: %s is a duplicate of %s",
					candidate.Path, entry.Path)
				ix.stats.Duplicates++
				ix.stats.DuplicateBytes += candidate.Size
				return entry, nil
			}
			// Same size, different contents. Both records stay.
		}
		pos = i + 1
	}

	// No match. Splice the candidate in after the last visited entry,
	// preserving ascending-size order.
	chain = append(chain, nil)
	copy(chain[pos+1:], chain[pos:])
	chain[pos] = candidate
	ix.buckets[bucket] = chain
	ix.stats.Originals++
	return nil, nil
}

// ensureDigest computes and caches the record's digest if it is still unset.
func (ix *DuplicateIndex) ensureDigest(r *FileRecord) error {
	if r.digest != nil {
		return nil
	}
	digest, err := ix.hashFile(r.Path, ix.algorithm)
	if err != nil {
		return err
	}
	r.digest = digest
	ix.stats.DigestsComputed++
	if IsDebugEnabled("index") {
		VerboseLog(3, "index: digest %s = %s", r.Path, r.DigestHex())
	}
	return nil
}

// Stats returns a copy of the index counters.
func (ix *DuplicateIndex) Stats() IndexStats {
	return ix.stats
}

// Len returns the number of originals currently recorded.
func (ix *DuplicateIndex) Len() int {
	return ix.stats.Originals
}

// chain exposes one bucket's records in order, for tests and diagnostics.
func (ix *DuplicateIndex) chain(bucket uint64) []*FileRecord {
	return ix.buckets[bucket%BucketCount]
}

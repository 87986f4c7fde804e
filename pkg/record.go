package dupscan

import (
	"encoding/hex"

	"golang.org/x/sys/unix"
)

// FileRecord represents one filesystem entry considered for deduplication.
// Dev, Ino and Nlink are captured for a future hard-link check; they take
// part in no comparison today.
type FileRecord struct {
	Path  string
	Size  uint64
	Dev   uint64
	Ino   uint64
	Nlink uint64

	// digest is computed at most once, and only after the record's size has
	// collided with another record in the index.
	digest []byte
}

// NewFileRecord builds a record from a link-aware stat result. The caller is
// expected to have already excluded zero-length and non-regular entries.
func NewFileRecord(path string, st *unix.Stat_t) *FileRecord {
	return &FileRecord{
		Path:  path,
		Size:  uint64(st.Size),
		Dev:   uint64(st.Dev),
		Ino:   uint64(st.Ino),
		Nlink: uint64(st.Nlink),
	}
}

// HasDigest reports whether the record's digest has been computed. A record
// without a digest has never been compared against a size-matching peer.
func (r *FileRecord) HasDigest() bool {
	return r.digest != nil
}

// DigestHex returns the cached digest as a hex string, or "" if the digest
// has not been computed.
func (r *FileRecord) DigestHex() string {
	if r.digest == nil {
		return ""
	}
	return hex.EncodeToString(r.digest)
}

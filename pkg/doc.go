// Package dupscan provides duplicate-file detection for a directory tree.
//
// # Core API
//
// The main entry point is Scan, which walks a directory and reports every
// file whose contents match a file seen earlier in the walk:
//
//	result, err := dupscan.Scan("/path/to/dir", dupscan.Options{})
//	for _, pair := range result.Pairs {
//		fmt.Printf("%s duplicates %s\n", pair.Duplicate, pair.Original)
//	}
//
// Detection uses file size as a first-pass discriminator: files are only
// hashed once at least two of them share a size, so a tree with no size
// collisions is never read beyond its directory entries. Each scan owns its
// DuplicateIndex, so independent scans can run in the same process.
//
// # Configuration
//
// Enable narration on stderr:
//
//	dupscan.SetVerboseLevel(2)
//	dupscan.SetDebugFlags("walk,index")
//
// # Note on Internal API
//
// DuplicateIndex and FileRecord are exported for callers that want to feed
// records from their own traversal, but most consumers should use Scan and
// the Result types.
package dupscan

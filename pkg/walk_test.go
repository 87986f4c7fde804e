package dupscan

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"golang.org/x/sys/unix"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create parent dirs for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

func TestScanReportsDuplicate(t *testing.T) {
	tempDir := t.TempDir()
	aPath := writeFile(t, tempDir, "a.txt", "hello")
	bPath := writeFile(t, tempDir, "b.txt", "hello")
	writeFile(t, tempDir, "c.txt", "world!")

	result, err := Scan(tempDir, Options{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(result.Pairs) != 1 {
		t.Fatalf("Expected 1 duplicate pair, got %d", len(result.Pairs))
	}
	pair := result.Pairs[0]
	if pair.Duplicate != bPath || pair.Original != aPath {
		t.Errorf("Expected (%s, %s), got (%s, %s)", bPath, aPath, pair.Duplicate, pair.Original)
	}
	if pair.Size != 5 {
		t.Errorf("Expected size 5, got %d", pair.Size)
	}
	if result.Stats.Originals != 2 {
		t.Errorf("Expected 2 originals, got %d", result.Stats.Originals)
	}
}

func TestScanSameSizeDifferentContent(t *testing.T) {
	tempDir := t.TempDir()
	writeFile(t, tempDir, "one.dat", "aaaaa")
	writeFile(t, tempDir, "two.dat", "bbbbb")

	result, err := Scan(tempDir, Options{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(result.Pairs) != 0 {
		t.Errorf("Expected no duplicates, got %d", len(result.Pairs))
	}
	if result.Stats.Originals != 2 {
		t.Errorf("Expected 2 originals, got %d", result.Stats.Originals)
	}
	// The equal sizes collide, so exactly one digest per file.
	if result.Stats.DigestsComputed != 2 {
		t.Errorf("Expected 2 digests computed, got %d", result.Stats.DigestsComputed)
	}
}

func TestScanSkipsEmptyFiles(t *testing.T) {
	tempDir := t.TempDir()
	writeFile(t, tempDir, "empty1.txt", "")
	writeFile(t, tempDir, "empty2.txt", "")

	result, err := Scan(tempDir, Options{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(result.Pairs) != 0 {
		t.Errorf("Empty files must never be reported, got %d pairs", len(result.Pairs))
	}
	if result.Stats.Originals != 0 {
		t.Errorf("Empty files must never be recorded, got %d originals", result.Stats.Originals)
	}
	if result.Stats.EmptySkipped != 2 {
		t.Errorf("Expected 2 empty files skipped, got %d", result.Stats.EmptySkipped)
	}
	if result.Stats.DigestsComputed != 0 {
		t.Errorf("Expected no digests for empty files, got %d", result.Stats.DigestsComputed)
	}
}

func TestScanSkipsSymlinks(t *testing.T) {
	tempDir := t.TempDir()
	target := writeFile(t, tempDir, "big.bin", "some sizeable content here")
	if err := os.Symlink(target, filepath.Join(tempDir, "link.bin")); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	result, err := Scan(tempDir, Options{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(result.Pairs) != 0 {
		t.Errorf("Symlink must not be reported as a duplicate of its target, got %d pairs", len(result.Pairs))
	}
	if result.Stats.SymlinksSkipped != 1 {
		t.Errorf("Expected 1 symlink skipped, got %d", result.Stats.SymlinksSkipped)
	}
	if result.Stats.DigestsComputed != 0 {
		t.Errorf("Expected no digest computation for the link or its target, got %d", result.Stats.DigestsComputed)
	}
}

func TestScanRecursesIntoSubdirectories(t *testing.T) {
	tempDir := t.TempDir()
	origPath := writeFile(t, tempDir, "a/deep/nested/orig.txt", "identical payload")
	dupPath := writeFile(t, tempDir, "z/copy.txt", "identical payload")

	result, err := Scan(tempDir, Options{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(result.Pairs) != 1 {
		t.Fatalf("Expected 1 duplicate pair, got %d", len(result.Pairs))
	}
	if result.Pairs[0].Original != origPath || result.Pairs[0].Duplicate != dupPath {
		t.Errorf("Expected (%s, %s), got (%s, %s)",
			dupPath, origPath, result.Pairs[0].Duplicate, result.Pairs[0].Original)
	}
	if result.Stats.Directories != 5 {
		t.Errorf("Expected 5 directories visited, got %d", result.Stats.Directories)
	}
}

func TestScanAbortsOnFifo(t *testing.T) {
	tempDir := t.TempDir()
	writeFile(t, tempDir, "normal.txt", "content")
	if err := unix.Mkfifo(filepath.Join(tempDir, "pipe"), 0o644); err != nil {
		t.Skipf("Cannot create FIFO on this filesystem: %v", err)
	}

	_, err := Scan(tempDir, Options{})
	if err == nil {
		t.Fatal("Expected scan to abort on FIFO entry")
	}
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Errorf("Expected ErrUnsupportedFileType, got %v", err)
	}
}

func TestScanFailsOnMissingRoot(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "does-not-exist"), Options{})
	if err == nil {
		t.Fatal("Expected error for missing root directory")
	}
}

func TestScanFailsOnUnknownAlgorithm(t *testing.T) {
	_, err := Scan(t.TempDir(), Options{Algorithm: "crc32"})
	if err == nil {
		t.Fatal("Expected error for unsupported hash algorithm")
	}
}

func TestScanIsIdempotent(t *testing.T) {
	tempDir := t.TempDir()
	writeFile(t, tempDir, "x/a.txt", "hello")
	writeFile(t, tempDir, "x/b.txt", "hello")
	writeFile(t, tempDir, "y/c.txt", "hello")
	writeFile(t, tempDir, "other.txt", "hello world")

	first, err := Scan(tempDir, Options{})
	if err != nil {
		t.Fatalf("First scan failed: %v", err)
	}
	second, err := Scan(tempDir, Options{})
	if err != nil {
		t.Fatalf("Second scan failed: %v", err)
	}

	if !reflect.DeepEqual(first.Pairs, second.Pairs) {
		t.Errorf("Re-scan of unmodified tree changed the report:\nfirst:  %v\nsecond: %v",
			first.Pairs, second.Pairs)
	}
}

func TestScanDryRunChangesNothing(t *testing.T) {
	tempDir := t.TempDir()
	writeFile(t, tempDir, "a.txt", "hello")
	dupPath := writeFile(t, tempDir, "b.txt", "hello")

	result, err := Scan(tempDir, Options{DryRun: true})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(result.Pairs) != 1 {
		t.Fatalf("Expected 1 duplicate pair, got %d", len(result.Pairs))
	}

	// The duplicate file is reported but untouched.
	content, err := os.ReadFile(dupPath)
	if err != nil {
		t.Fatalf("Failed to re-read duplicate: %v", err)
	}
	if string(content) != "hello" {
		t.Errorf("Duplicate file was modified: %q", content)
	}
}

func TestScanStreamsDuplicatesViaCallback(t *testing.T) {
	tempDir := t.TempDir()
	writeFile(t, tempDir, "a.txt", "hello")
	bPath := writeFile(t, tempDir, "b.txt", "hello")

	var streamed []string
	_, err := Scan(tempDir, Options{
		OnDuplicate: func(duplicate, original *FileRecord) {
			streamed = append(streamed, duplicate.Path)
		},
	})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(streamed) != 1 || streamed[0] != bPath {
		t.Errorf("Expected callback for %s, got %v", bPath, streamed)
	}
}

package walker

import (
	"os"
	"path/filepath"
	"testing"

	"fwdiff/internal/compare"
	"fwdiff/internal/hash"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		fullPath := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}
}

func scanTree(t *testing.T, root string) map[string]string {
	t.Helper()
	walkResult, err := Walk(root, []string{})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	digests, err := HashFiles(walkResult.Files, 4, nil)
	if err != nil {
		t.Fatalf("HashFiles failed: %v", err)
	}
	return digests
}

func TestPipeline_ModifiedAndAdded(t *testing.T) {
	oldRoot := t.TempDir()
	newRoot := t.TempDir()

	writeTree(t, oldRoot, map[string]string{
		"a.bin": "1",
		"b.bin": "2",
	})
	writeTree(t, newRoot, map[string]string{
		"a.bin": "1",
		"b.bin": "3",
		"c.bin": "4",
	})

	result := compare.Compare(scanTree(t, oldRoot), scanTree(t, newRoot), false)

	if len(result.Modified) != 1 || result.Modified[0].Path != "b.bin" {
		t.Errorf("Expected b.bin modified, got %+v", result.Modified)
	} else {
		mod := result.Modified[0]
		if mod.OldDigest == "" || mod.NewDigest == "" || mod.OldDigest == mod.NewDigest {
			t.Errorf("Modified record should carry two distinct digests, got %+v", mod)
		}
	}

	if len(result.Added) != 1 || result.Added[0].Path != "c.bin" {
		t.Errorf("Expected c.bin added, got %+v", result.Added)
	} else if result.Added[0].OldDigest != "" {
		t.Errorf("Added record must have no old digest, got %+v", result.Added[0])
	}

	if len(result.Removed) != 0 {
		t.Errorf("Expected nothing removed, got %+v", result.Removed)
	}

	// a.bin is identical in both trees and must not appear
	for _, bucket := range [][]compare.Change{result.Added, result.Removed, result.Modified} {
		for _, change := range bucket {
			if change.Path == "a.bin" {
				t.Errorf("Unchanged a.bin should be omitted, found in %+v", change)
			}
		}
	}
}

func TestPipeline_EmptyOldTree(t *testing.T) {
	oldRoot := t.TempDir()
	newRoot := t.TempDir()

	writeTree(t, newRoot, map[string]string{"x.bin": "payload"})

	result := compare.Compare(scanTree(t, oldRoot), scanTree(t, newRoot), false)

	if len(result.Added) != 1 || result.Added[0].Path != "x.bin" {
		t.Errorf("Expected exactly one Added record for x.bin, got %+v", result)
	}
	if len(result.Removed) != 0 || len(result.Modified) != 0 {
		t.Errorf("Expected no other records, got %+v", result)
	}
}

func TestPipeline_SymlinkContributesNothing(t *testing.T) {
	oldRoot := t.TempDir()
	newRoot := t.TempDir()

	writeTree(t, oldRoot, map[string]string{filepath.Join("dir", "real"): "content"})
	writeTree(t, newRoot, map[string]string{filepath.Join("dir", "real"): "content"})

	// Old tree additionally carries a symlink next to the real file
	link := filepath.Join(oldRoot, "dir", "link")
	if err := os.Symlink(filepath.Join(oldRoot, "dir", "real"), link); err != nil {
		t.Skipf("Cannot create symlinks on this system: %v", err)
	}

	oldDigests := scanTree(t, oldRoot)
	if len(oldDigests) != 1 {
		t.Errorf("Symlink must contribute zero digest entries, got %d", len(oldDigests))
	}

	result := compare.Compare(oldDigests, scanTree(t, newRoot), false)

	if result.HasChanges() {
		t.Errorf("Trees differing only by a symlink should compare clean, got %+v", result)
	}
}

func TestPipeline_DigestsMatchHasher(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"fw.bin": "image-bytes"})

	digests := scanTree(t, root)

	expected, err := hash.HashFile(filepath.Join(root, "fw.bin"))
	if err != nil {
		t.Fatalf("HashFile failed: %v", err)
	}

	if digests["fw.bin"] != expected {
		t.Errorf("Pipeline digest %q differs from direct hash %q", digests["fw.bin"], expected)
	}
}

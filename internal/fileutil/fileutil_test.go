package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestScratchDirLifecycle(t *testing.T) {
	root := filepath.Join(t.TempDir(), "scratch")
	scratch, err := NewScratchDir(root, "vid1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(scratch.Path()), "vid1-") {
		t.Errorf("path = %q, want vid1- prefix", scratch.Path())
	}

	file := scratch.File("audio.wav")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := scratch.Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(scratch.Path()); !os.IsNotExist(err) {
		t.Errorf("scratch dir still exists after remove")
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("root not empty: %d entries", len(entries))
	}
}

func TestScratchDirsAreUnique(t *testing.T) {
	root := t.TempDir()
	a, err := NewScratchDir(root, "vid1")
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	b, err := NewScratchDir(root, "vid1")
	if err != nil {
		t.Fatalf("create b: %v", err)
	}
	if a.Path() == b.Path() {
		t.Error("two scratch dirs share a path")
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("copy: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read dst: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("dst = %q", got)
	}
}

func TestRemoveNilScratchDir(t *testing.T) {
	var scratch *ScratchDir
	if err := scratch.Remove(); err != nil {
		t.Errorf("nil remove: %v", err)
	}
}

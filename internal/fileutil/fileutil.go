// Package fileutil provides scratch-file helpers for pipeline invocations.
package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ScratchDir is a per-invocation working directory. All files created inside it
// are removed together when the invocation ends.
type ScratchDir struct {
	path string
}

// NewScratchDir creates a unique scratch directory under root.
func NewScratchDir(root, label string) (*ScratchDir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("ensure scratch root: %w", err)
	}
	path, err := os.MkdirTemp(root, label+"-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &ScratchDir{path: path}, nil
}

// Path returns the scratch directory path.
func (s *ScratchDir) Path() string {
	return s.path
}

// File returns the path of a file inside the scratch directory.
func (s *ScratchDir) File(name string) string {
	return filepath.Join(s.path, name)
}

// Remove deletes the scratch directory and everything inside it.
func (s *ScratchDir) Remove() error {
	if s == nil || s.path == "" {
		return nil
	}
	return os.RemoveAll(s.path)
}

// CopyFile streams src to dst using io.Copy with default permissions (0o644).
func CopyFile(src, dst string) error {
	return CopyFileMode(src, dst, 0o644)
}

// CopyFileMode streams src to dst, setting the given file mode on dst.
func CopyFileMode(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"teamzones/internal/fileutil"
)

// DirClient implements Client over a local directory tree. It backs tests and
// single-host deployments where running an object store is overkill.
type DirClient struct {
	root string
}

// NewDirClient creates a directory-backed client rooted at root.
func NewDirClient(root string) (*DirClient, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("object store root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("ensure object store root: %w", err)
	}
	return &DirClient{root: root}, nil
}

// Root returns the directory tree holding all buckets.
func (d *DirClient) Root() string {
	return d.root
}

func (d *DirClient) localPath(bucket, objectPath string) string {
	return filepath.Join(d.root, bucket, filepath.FromSlash(objectPath))
}

// Download copies an object file into destFile.
func (d *DirClient) Download(ctx context.Context, bucket, objectPath, destFile string) error {
	if err := ctx.Err(); err != nil {
		return wrapErr("download", bucket, objectPath, err)
	}
	src := d.localPath(bucket, objectPath)
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return wrapErr("download", bucket, objectPath, errors.New("object does not exist"))
		}
		return wrapErr("download", bucket, objectPath, err)
	}
	if err := fileutil.CopyFile(src, destFile); err != nil {
		return wrapErr("download", bucket, objectPath, err)
	}
	return nil
}

// Upload copies srcFile under the bucket directory at objectPath.
func (d *DirClient) Upload(ctx context.Context, bucket, objectPath, srcFile, contentType string) error {
	if err := ctx.Err(); err != nil {
		return wrapErr("upload", bucket, objectPath, err)
	}
	dest := d.localPath(bucket, objectPath)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return wrapErr("upload", bucket, objectPath, err)
	}
	if err := fileutil.CopyFile(srcFile, dest); err != nil {
		return wrapErr("upload", bucket, objectPath, err)
	}
	return nil
}

// SignedURL returns a file URL for the object. Expiry is not enforced for
// local files.
func (d *DirClient) SignedURL(ctx context.Context, bucket, objectPath string, expiry time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", wrapErr("sign url", bucket, objectPath, err)
	}
	path := d.localPath(bucket, objectPath)
	if _, err := os.Stat(path); err != nil {
		return "", wrapErr("sign url", bucket, objectPath, err)
	}
	return "file://" + filepath.ToSlash(path), nil
}

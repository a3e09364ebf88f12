// Package localwr provides a local filesystem implementation of the filestore.FileStore interface.
package localwr

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/code19m/errx"
	"github.com/rise-and-shine/quote3d/internal/filestore"
)

const (
	kindLocal  = "local"
	dirPerm    = 0o755
	tmpPattern = ".upload-*"
)

// Client implements the filestore.FileStore interface on a local directory.
type Client struct {
	dir string
}

// New creates a local filestore rooted at cfg.Dir, creating the directory if needed.
func New(cfg Config) (*Client, error) {
	if err := os.MkdirAll(cfg.Dir, dirPerm); err != nil {
		return nil, errx.Wrap(err, errx.WithCode(filestore.CodeStorageWrite))
	}
	return &Client{dir: cfg.Dir}, nil
}

// Upload writes the file under the given path atomically: content is
// written to a temporary file in the same directory and renamed into
// place, so a concurrent Get never observes a partial object.
func (c *Client) Upload(ctx context.Context, path string, reader io.Reader) (*filestore.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, errx.Wrap(err, errx.WithCode(filestore.CodeStorageWrite))
	}

	tmp, err := os.CreateTemp(c.dir, tmpPattern)
	if err != nil {
		return nil, errx.Wrap(err, errx.WithCode(filestore.CodeStorageWrite))
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	// Sniff the content type from the first bytes while streaming the rest.
	head := make([]byte, 512)
	n, err := io.ReadFull(reader, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		_ = tmp.Close()
		return nil, errx.Wrap(err, errx.WithCode(filestore.CodeStorageWrite))
	}
	head = head[:n]
	contentType := http.DetectContentType(head)

	written, err := io.Copy(tmp, io.MultiReader(bytes.NewReader(head), reader))
	if err != nil {
		_ = tmp.Close()
		return nil, errx.Wrap(err, errx.WithCode(filestore.CodeStorageWrite))
	}
	if err := tmp.Close(); err != nil {
		return nil, errx.Wrap(err, errx.WithCode(filestore.CodeStorageWrite))
	}

	dst := filepath.Join(c.dir, path)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return nil, errx.Wrap(err, errx.WithCode(filestore.CodeStorageWrite))
	}

	return &filestore.FileInfo{
		Path:         path,
		Size:         written,
		ContentType:  contentType,
		LastModified: time.Now(),
	}, nil
}

// Get opens a stored file and returns its content and metadata.
func (c *Client) Get(ctx context.Context, path string) (*filestore.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, errx.Wrap(err)
	}

	f, err := os.Open(filepath.Join(c.dir, path))
	if os.IsNotExist(err) {
		return nil, errx.New("file not found", errx.WithCode(filestore.CodeFileNotFound), errx.WithType(errx.T_NotFound))
	}
	if err != nil {
		return nil, errx.Wrap(err)
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errx.Wrap(err)
	}

	return &filestore.File{
		Content: f,
		Info: filestore.FileInfo{
			Path:         path,
			Size:         stat.Size(),
			ContentType:  filestore.FormatContentType(filestore.NormalizeFormat(path)),
			LastModified: stat.ModTime(),
		},
	}, nil
}

// Delete removes a stored file. Deleting an absent path is not an error.
func (c *Client) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return errx.Wrap(err)
	}

	err := os.Remove(filepath.Join(c.dir, path))
	if err != nil && !os.IsNotExist(err) {
		return errx.Wrap(err)
	}
	return nil
}

// Exists checks if a file exists at the specified path.
func (c *Client) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, errx.Wrap(err)
	}

	_, err := os.Stat(filepath.Join(c.dir, path))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errx.Wrap(err)
	}
	return true, nil
}

// ListOlderThan returns the paths of files whose modification time is older
// than the given age. In-flight temporary files are skipped.
func (c *Client) ListOlderThan(ctx context.Context, age time.Duration) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errx.Wrap(err)
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	cutoff := time.Now().Add(-age)
	paths := make([]string, 0)

	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".upload-") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// The file may have been swept concurrently.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, errx.Wrap(err)
		}

		if info.ModTime().Before(cutoff) {
			paths = append(paths, entry.Name())
		}
	}

	return paths, nil
}

// Kind reports the backend kind.
func (c *Client) Kind() string {
	return kindLocal
}

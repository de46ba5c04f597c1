package extract

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// UploadedFile is a request-scoped file on temporary storage.
// The request that created it must call Release on every exit path.
type UploadedFile struct {
	Path        string
	ContentType string
	Filename    string
	Size        int64
}

// SaveUpload copies src into a new file under dir named upload-<uuid>.
// On failure nothing is left behind.
func SaveUpload(dir string, src io.Reader, filename, contentType string) (*UploadedFile, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create upload dir: %w", ErrIO, err)
	}
	path := filepath.Join(dir, "upload-"+uuid.NewString())
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("%w: create upload file: %w", ErrIO, err)
	}
	n, err := io.Copy(f, src)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: write upload file: %w", ErrIO, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: close upload file: %w", ErrIO, err)
	}
	return &UploadedFile{
		Path:        path,
		ContentType: contentType,
		Filename:    filename,
		Size:        n,
	}, nil
}

// Kind sniffs the file's format from its declared metadata.
func (u *UploadedFile) Kind() FormatKind {
	return Sniff(u.ContentType, u.Filename)
}

// Release deletes the file. Calling it more than once is safe.
func (u *UploadedFile) Release() error {
	if err := os.Remove(u.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove upload file: %w", ErrIO, err)
	}
	return nil
}

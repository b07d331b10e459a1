// Package uploads turns uploaded image files into stable /uploads/...
// references on local disk.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	MaxFileSize  = 5 << 20
	MaxFiles     = 5
	URLPrefix    = "/uploads/"
	sniffLimit   = 3072
	errImageOnly = "only images (jpeg, jpg, png, webp) are allowed"
)

var (
	ErrNotImage = errors.New(errImageOnly)
	ErrTooLarge = fmt.Errorf("file exceeds %d MB", MaxFileSize>>20)

	allowedExt  = map[string]bool{".jpeg": true, ".jpg": true, ".png": true, ".webp": true}
	allowedMIME = map[string]bool{"image/jpeg": true, "image/png": true, "image/webp": true}
)

// LocalStorage keeps images in one directory served under URLPrefix.
type LocalStorage struct {
	dir string
}

func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStorage{dir: dir}, nil
}

func (s *LocalStorage) Dir() string { return s.dir }

// Save validates the file (extension, sniffed content type, size) and
// stores it under a random name. It returns the public reference.
func (s *LocalStorage) Save(fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExt[ext] {
		return "", ErrNotImage
	}
	if fh.Size > MaxFileSize {
		return "", ErrTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(io.LimitReader(src, sniffLimit))
	if err != nil {
		return "", fmt.Errorf("detect content type: %w", err)
	}
	if !allowedMIME[mtype.String()] {
		return "", ErrNotImage
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	name := uuid.NewString() + ext
	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	written, err := io.Copy(dst, io.LimitReader(src, MaxFileSize+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && written > MaxFileSize {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(filepath.Join(s.dir, name))
		return "", err
	}
	return URLPrefix + name, nil
}

// Remove deletes the file behind ref. Unknown or foreign references are
// ignored.
func (s *LocalStorage) Remove(ref string) error {
	if !strings.HasPrefix(ref, URLPrefix) {
		return nil
	}
	name := path.Base(ref)
	if name == "." || name == "/" || name == ".." {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

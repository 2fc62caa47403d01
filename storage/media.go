package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	MaxUploadSize = 5 * 1024 * 1024
	PostsDir      = "posts"
)

var (
	ErrTooLarge    = errors.New("file is too large, the maximum size is 5MB")
	ErrInvalidType = errors.New("invalid file type, only JPEG, PNG and GIF are allowed")
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// Local keeps uploaded media under Root and hands out paths relative to it.
type Local struct {
	Root string
}

func NewLocal(root string) *Local {
	return &Local{Root: root}
}

// SavePostImage stores an uploaded post image and returns its relative path,
// e.g. "posts/<uuid>.gif". The content type is sniffed, the client header is ignored.
func (s *Local) SavePostImage(fh *multipart.FileHeader) (string, error) {
	if fh.Size > MaxUploadSize {
		return "", ErrTooLarge
	}
	file, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()
	return s.Save(PostsDir, fh.Filename, file)
}

func (s *Local) Save(dir, filename string, r io.Reader) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	ext, ok := allowedImageTypes[http.DetectContentType(head)]
	if !ok {
		return "", ErrInvalidType
	}
	if orig := strings.ToLower(filepath.Ext(filename)); orig == ".jpeg" || orig == ext {
		ext = orig
	}

	target := filepath.Join(s.Root, dir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory %s: %w", target, err)
	}

	name := uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(target, name))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	limited := io.LimitReader(r, MaxUploadSize-int64(len(head))+1)
	if _, err := dst.Write(head); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	written, err := io.Copy(dst, limited)
	if err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	if int64(len(head))+written > MaxUploadSize {
		dst.Close()
		os.Remove(dst.Name())
		return "", ErrTooLarge
	}
	return dir + "/" + name, nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *Local) Delete(rel string) error {
	if rel == "" {
		return nil
	}
	clean := filepath.Clean("/" + rel)
	err := os.Remove(filepath.Join(s.Root, clean))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", rel, err)
	}
	return nil
}

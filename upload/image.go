package upload

import (
	"bytes"
	"fmt"
	"io"
	"os"

	apperrors "github.com/jrsteele09/go-profile-uploader/internal/errors"
)

// Image is a source of picture bytes. Permission to read it is the caller's concern.
type Image interface {
	Open() (io.ReadCloser, error)
}

// FileImage reads a picture from the local filesystem
type FileImage string

func (f FileImage) Open() (io.ReadCloser, error) {
	return os.Open(string(f))
}

// BytesImage is an in-memory picture
type BytesImage []byte

func (b BytesImage) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b)), nil
}

func readImage(img Image) ([]byte, error) {
	if img == nil {
		return nil, apperrors.ErrEmptyImage
	}
	rc, err := img.Open()
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, apperrors.ErrEmptyImage
	}
	return data, nil
}

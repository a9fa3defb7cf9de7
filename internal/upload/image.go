// Package upload validates uploaded images and stores them on disk or in S3.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/redmonkez12/places-api/internal/apperror"
)

// ErrNoImage is returned by ReadImage when the request carries no file in
// the field.
var ErrNoImage = errors.New("no image uploaded")

var extensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
}

// Image is a validated upload held in memory.
type Image struct {
	Data        []byte
	ContentType string
}

// Key returns a fresh unique object name for the image.
func (img *Image) Key() string {
	return uuid.NewString() + "." + extensions[img.ContentType]
}

// Store persists image bytes and returns the reference saved on records.
type Store interface {
	Save(ctx context.Context, key string, img *Image) (string, error)
	Delete(ctx context.Context, ref string) error
}

// ReadImage reads the multipart file in field and checks that it is a png or
// jpeg of at most maxBytes. The content type is sniffed from the bytes; the
// client-sent header is ignored.
func ReadImage(r *http.Request, field string, maxBytes int64) (*Image, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, ErrNoImage
		}
		return nil, invalidImage(field, maxBytes)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 || int64(len(data)) > maxBytes {
		return nil, invalidImage(field, maxBytes)
	}

	contentType := http.DetectContentType(data)
	if _, ok := extensions[contentType]; !ok {
		return nil, invalidImage(field, maxBytes)
	}

	return &Image{Data: data, ContentType: contentType}, nil
}

func invalidImage(field string, maxBytes int64) error {
	return apperror.Validation(map[string][]string{
		field: {fmt.Sprintf("must be a png or jpeg image of at most %d KB", maxBytes/1024)},
	})
}

func (img *Image) reader() io.Reader {
	return bytes.NewReader(img.Data)
}

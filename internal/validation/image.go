package validation

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

// MaxImageBytes is the largest accepted announcement image (decoded size)
const MaxImageBytes = 2 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var (
	ErrImageTooLarge   = fmt.Errorf("image exceeds %d bytes", MaxImageBytes)
	ErrImageType       = errors.New("image must be JPEG, PNG, GIF or WebP")
	ErrImageCorrupt    = errors.New("image could not be decoded")
	ErrImageEncoding   = errors.New("image is not valid base64")
	ErrImageEmptyBytes = errors.New("image is empty")
)

// ValidateImage checks size, sniffed type and decodability and returns the MIME type
func ValidateImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrImageEmptyBytes
	}
	if len(data) > MaxImageBytes {
		return "", ErrImageTooLarge
	}

	mt := mimetype.Detect(data).String()
	if !allowedImageTypes[mt] {
		return "", ErrImageType
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageCorrupt, err)
	}
	return mt, nil
}

// DecodeImageBase64 accepts raw base64 or a data URL ("data:image/png;base64,...")
func DecodeImageBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 || !strings.Contains(s[:comma], ";base64") {
			return nil, ErrImageEncoding
		}
		s = s[comma+1:]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrImageEncoding
	}
	return data, nil
}

// ValidateImageBase64 decodes and validates an embedded image
func ValidateImageBase64(s string) error {
	data, err := DecodeImageBase64(s)
	if err != nil {
		return err
	}
	_, err = ValidateImage(data)
	return err
}

// EncodeImage returns data as a data URL of its sniffed type
func EncodeImage(data []byte) (string, error) {
	mt, err := ValidateImage(data)
	if err != nil {
		return "", err
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

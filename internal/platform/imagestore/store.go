// Package imagestore keeps uploaded images on local disk under content-addressed names.
package imagestore

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
)

// Width is the width images are resized to; height keeps the aspect ratio.
const Width = 800

var (
	// ErrUnsupportedType is returned for extensions other than .jpg, .jpeg and .png.
	ErrUnsupportedType = errors.New("invalid file type. Only JPEG, JPG, and PNG images are allowed")
	// ErrInvalidImage is returned when the data cannot be decoded as an image.
	ErrInvalidImage = errors.New("invalid image")
)

var encoders = map[string]func(w io.Writer, img image.Image) error{
	".jpeg": encodeJPEG,
	".jpg":  encodeJPEG,
	".png":  png.Encode,
}

func encodeJPEG(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, nil)
}

// Store writes images into Dir.
type Store struct {
	Dir string
}

// New creates a store rooted at dir. The directory is created on first save.
func New(dir string) *Store {
	return &Store{Dir: dir}
}

// Hash calculates the SHA256 hash of the image data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Extension returns the lower-cased extension of filename, or ErrUnsupportedType.
func Extension(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := encoders[ext]; !ok {
		return "", ErrUnsupportedType
	}
	return ext, nil
}

// Save decodes, resizes and re-encodes data, and returns the stored file name.
// Identical uploads map to the same file.
func (s *Store) Save(data []byte, ext string) (string, error) {
	encode, ok := encoders[ext]
	if !ok {
		return "", ErrUnsupportedType
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	img = resize.Resize(Width, 0, img, resize.Lanczos3)

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create images directory: %w", err)
	}

	name := Hash(data) + ext
	if err := s.write(name, img, encode); err != nil {
		return "", err
	}
	return name, nil
}

// write encodes img into a temp file and renames it over name, so a failed or
// concurrent encode never leaves a partial file at the final path.
func (s *Store) write(name string, img image.Image, encode func(io.Writer, image.Image) error) error {
	tmp, err := os.CreateTemp(s.Dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.Dir, name)); err != nil {
		return fmt.Errorf("failed to store image file: %w", err)
	}
	return nil
}

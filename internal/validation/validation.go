// Package validation checks database inputs before they are read into
// memory: path sanity, content type detection and size limits.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// Resource limits (CWE-400).
const (
	// MaxImageSize bounds a database image, compressed or not (1 GiB).
	MaxImageSize = 1 << 30
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Validation errors.
var (
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrTooLarge         = errors.New("input exceeds size limit")
)

// ValidatePath rejects empty and overlong paths and paths containing NUL
// or other control characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// FileType is a content type recognized by its leading bytes.
type FileType string

const (
	FileTypeDatabase FileType = "database"
	FileTypeXZ       FileType = "xz"
	FileTypeGzip     FileType = "gzip"
	FileTypeZip      FileType = "zip"
	FileTypeUnknown  FileType = "unknown"
)

var magicBytes = []struct {
	fileType FileType
	magic    []byte
}{
	{FileTypeDatabase, []byte("SQLite format 3\x00")},
	{FileTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{FileTypeGzip, []byte{0x1f, 0x8b}},
	{FileTypeZip, []byte{0x50, 0x4b, 0x03, 0x04}},
}

// DetectFileType identifies buf by its magic bytes.
func DetectFileType(buf []byte) FileType {
	for _, sig := range magicBytes {
		if bytes.HasPrefix(buf, sig.magic) {
			return sig.fileType
		}
	}
	return FileTypeUnknown
}

// ReadLimited reads r to the end, failing with ErrTooLarge once more than
// limit bytes have been produced. It guards decompression as well as plain
// reads.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}

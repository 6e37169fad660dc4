package pager

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/FocuswithJustin/litescan/core/errors"
)

// File format constants
const (
	// HeaderSize is the size of the database file header at the start of page 1.
	HeaderSize = 100

	// MinPageSize is the smallest legal page size.
	MinPageSize = 512

	// MaxPageSize is the largest legal page size, stored on disk as 1.
	MaxPageSize = 65536

	// Magic is the 16-byte string every database file starts with.
	Magic = "SQLite format 3\x00"
)

// Header byte offsets
const (
	offsetPageSize        = 16
	offsetReservedSpace   = 20
	offsetChangeCounter   = 24
	offsetDatabaseSize    = 28
	offsetSchemaCookie    = 40
	offsetSchemaFormat    = 44
	offsetTextEncoding    = 56
	offsetUserVersion     = 60
	offsetApplicationID   = 68
	offsetVersionValidFor = 92
	offsetSQLiteVersion   = 96
)

// Text encodings
const (
	EncodingUTF8    = 1
	EncodingUTF16LE = 2
	EncodingUTF16BE = 3
)

// Header is the parsed database file header.
type Header struct {
	PageSize      int    // Bytes per page
	ReservedSpace int    // Unused bytes at the end of each page
	ChangeCounter uint32
	PageCount     uint32 // In-header database size; 0 when stale
	SchemaCookie  uint32
	SchemaFormat  uint32
	TextEncoding  uint32
	UserVersion   uint32
	ApplicationID uint32
	SQLiteVersion uint32 // Library version that last wrote the file, e.g. 3045001
}

// UsableSize is the page size minus the reserved region.
func (h *Header) UsableSize() int {
	return h.PageSize - h.ReservedSpace
}

// ParseHeader parses the first 100 bytes of a database file.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, errors.NewParse("file header", "", fmt.Sprintf("have %d bytes, need %d", len(data), HeaderSize))
	}
	if !bytes.Equal(data[:len(Magic)], []byte(Magic)) {
		return nil, errors.NewParse("file header", "", "not a database file (bad magic)")
	}

	be := binary.BigEndian
	h := &Header{
		PageSize:      int(be.Uint16(data[offsetPageSize:])),
		ReservedSpace: int(data[offsetReservedSpace]),
		ChangeCounter: be.Uint32(data[offsetChangeCounter:]),
		PageCount:     be.Uint32(data[offsetDatabaseSize:]),
		SchemaCookie:  be.Uint32(data[offsetSchemaCookie:]),
		SchemaFormat:  be.Uint32(data[offsetSchemaFormat:]),
		TextEncoding:  be.Uint32(data[offsetTextEncoding:]),
		UserVersion:   be.Uint32(data[offsetUserVersion:]),
		ApplicationID: be.Uint32(data[offsetApplicationID:]),
		SQLiteVersion: be.Uint32(data[offsetSQLiteVersion:]),
	}
	if h.PageSize == 1 {
		h.PageSize = MaxPageSize
	}
	if h.PageSize < MinPageSize || h.PageSize&(h.PageSize-1) != 0 {
		return nil, errors.NewParse("file header", "", fmt.Sprintf("invalid page size %d", h.PageSize))
	}
	if h.UsableSize() < 480 {
		return nil, errors.NewParse("file header", "", fmt.Sprintf("usable size %d below 480", h.UsableSize()))
	}
	// The in-header size is only trusted when written by a library that
	// also bumped version-valid-for.
	if be.Uint32(data[offsetVersionValidFor:]) != h.ChangeCounter {
		h.PageCount = 0
	}

	switch h.TextEncoding {
	case 0, EncodingUTF8:
		// An empty database has not chosen an encoding yet.
	case EncodingUTF16LE, EncodingUTF16BE:
		return nil, errors.NewUnsupported("text encoding", fmt.Sprintf("UTF-16 (%d)", h.TextEncoding))
	default:
		return nil, errors.NewParse("file header", "", fmt.Sprintf("unknown text encoding %d", h.TextEncoding))
	}
	return h, nil
}

// VersionString renders SQLiteVersion as major.minor.patch.
func (h *Header) VersionString() string {
	v := h.SQLiteVersion
	return fmt.Sprintf("%d.%d.%d", v/1000000, v/1000%1000, v%1000)
}

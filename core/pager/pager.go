// Package pager reads database file images and walks their table b-trees.
//
// The whole image is held in memory. Cells handed to ScanTable callbacks
// point into that image unless their payload spilled onto overflow pages,
// in which case they are reassembled into a fresh buffer.
package pager

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/litescan/core/errors"
	"github.com/FocuswithJustin/litescan/core/varint"
	"github.com/FocuswithJustin/litescan/internal/validation"
)

// Page types
const (
	PageInteriorIndex = 0x02
	PageInteriorTable = 0x05
	PageLeafIndex     = 0x0a
	PageLeafTable     = 0x0d
)

// Pager serves pages from an in-memory database image.
type Pager struct {
	data   []byte
	header *Header
	pages  uint32
}

// Open reads a database file. Files compressed with xz are decompressed
// transparently. Images larger than validation.MaxImageSize are rejected.
func Open(path string) (*Pager, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()

	data, err := validation.ReadLimited(f, validation.MaxImageSize)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}

	switch validation.DetectFileType(data) {
	case validation.FileTypeXZ:
		xzr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.NewIO("decompress", path, err)
		}
		data, err = validation.ReadLimited(xzr, validation.MaxImageSize)
		if err != nil {
			return nil, errors.NewIO("decompress", path, err)
		}
	case validation.FileTypeGzip, validation.FileTypeZip:
		return nil, errors.NewUnsupported("compression", "only xz-compressed images can be read")
	}

	p, err := FromBytes(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return p, nil
}

// FromBytes wraps an in-memory database image. The image must not be
// modified while the pager or any payload it produced is in use.
func FromBytes(data []byte) (*Pager, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	pages := uint32(len(data) / h.PageSize)
	if h.PageCount != 0 && h.PageCount < pages {
		pages = h.PageCount
	}
	if pages == 0 {
		return nil, errors.NewParse("file header", "", "image is smaller than one page")
	}
	return &Pager{data: data, header: h, pages: pages}, nil
}

// Header returns the parsed file header.
func (p *Pager) Header() *Header {
	return p.header
}

// PageCount returns the number of pages available in the image.
func (p *Pager) PageCount() uint32 {
	return p.pages
}

// Page returns the bytes of page n, counting from 1.
func (p *Pager) Page(n uint32) ([]byte, error) {
	if n < 1 || n > p.pages {
		return nil, errors.NewNotFound("page", fmt.Sprintf("%d of %d", n, p.pages))
	}
	size := p.header.PageSize
	off := int(n-1) * size
	return p.data[off : off+size : off+size], nil
}

// ScanTable walks the table b-tree rooted at root in rowid order and calls
// fn with each leaf cell's rowid and complete payload. A non-nil error from
// fn stops the walk and is returned.
func (p *Pager) ScanTable(root uint32, fn func(rowid int64, payload []byte) error) error {
	w := &walker{p: p, fn: fn, visited: make(map[uint32]bool)}
	return w.walk(root)
}

type walker struct {
	p       *Pager
	fn      func(int64, []byte) error
	visited map[uint32]bool
}

func (w *walker) walk(pgno uint32) error {
	if w.visited[pgno] {
		return errors.NewParse("b-tree page", fmt.Sprint(pgno), "page visited twice")
	}
	w.visited[pgno] = true

	page, err := w.p.Page(pgno)
	if err != nil {
		return err
	}
	hdr := 0
	if pgno == 1 {
		hdr = HeaderSize
	}

	kind := page[hdr]
	switch kind {
	case PageLeafTable, PageInteriorTable:
	default:
		return errors.NewParse("b-tree page", fmt.Sprint(pgno), fmt.Sprintf("page type 0x%02x is not a table page", kind))
	}

	ncells := int(binary.BigEndian.Uint16(page[hdr+3:]))
	ptrs := hdr + 8
	if kind == PageInteriorTable {
		ptrs = hdr + 12
	}
	if ptrs+2*ncells > len(page) {
		return errors.NewParse("b-tree page", fmt.Sprint(pgno), fmt.Sprintf("%d cell pointers overflow the page", ncells))
	}

	for i := 0; i < ncells; i++ {
		off := int(binary.BigEndian.Uint16(page[ptrs+2*i:]))
		if off < ptrs+2*ncells || off >= w.p.header.UsableSize() {
			return errors.NewParse("b-tree page", fmt.Sprint(pgno), fmt.Sprintf("cell %d offset %d out of range", i, off))
		}
		cell := page[off:w.p.header.UsableSize()]

		if kind == PageInteriorTable {
			if len(cell) < 4 {
				return errors.NewParse("b-tree page", fmt.Sprint(pgno), "truncated interior cell")
			}
			if err := w.walk(binary.BigEndian.Uint32(cell)); err != nil {
				return err
			}
			continue
		}

		rowid, payload, err := w.leafCell(cell)
		if err != nil {
			return errors.Wrapf(err, "page %d cell %d", pgno, i)
		}
		if err := w.fn(rowid, payload); err != nil {
			return err
		}
	}

	if kind == PageInteriorTable {
		return w.walk(binary.BigEndian.Uint32(page[hdr+8:]))
	}
	return nil
}

// leafCell decodes a table leaf cell: payload size, rowid, local payload
// and, when the payload spills, the first overflow page number.
func (w *walker) leafCell(cell []byte) (int64, []byte, error) {
	size, n, err := varint.Decode(cell)
	if err != nil {
		return 0, nil, err
	}
	key, m, err := varint.Decode(cell[n:])
	if err != nil {
		return 0, nil, err
	}
	cell = cell[n+m:]

	usable := uint64(w.p.header.UsableSize())
	local := localSize(size, usable)
	if uint64(len(cell)) < local {
		return 0, nil, errors.NewDecode("cell payload", n+m, errors.ErrPayloadTooShort)
	}
	if local == size {
		return int64(key), cell[:local:local], nil
	}

	if size > uint64(len(w.p.data)) {
		return 0, nil, errors.NewDecode("payload size", 0, errors.ErrPayloadTooShort)
	}
	if uint64(len(cell)) < local+4 {
		return 0, nil, errors.NewDecode("overflow pointer", n+m+int(local), errors.ErrPayloadTooShort)
	}
	payload := make([]byte, 0, size)
	payload = append(payload, cell[:local]...)
	next := binary.BigEndian.Uint32(cell[local:])

	seen := make(map[uint32]bool)
	for uint64(len(payload)) < size {
		if next == 0 || seen[next] {
			return 0, nil, errors.NewParse("overflow chain", fmt.Sprint(next), "chain ends before payload is complete")
		}
		seen[next] = true
		page, err := w.p.Page(next)
		if err != nil {
			return 0, nil, err
		}
		chunk := page[4:usable]
		if rest := size - uint64(len(payload)); uint64(len(chunk)) > rest {
			chunk = chunk[:rest]
		}
		payload = append(payload, chunk...)
		next = binary.BigEndian.Uint32(page)
	}
	return int64(key), payload, nil
}

// localSize is the number of payload bytes stored on a table leaf page.
// Anything beyond it lives on overflow pages.
func localSize(size, usable uint64) uint64 {
	maxLocal := usable - 35
	if size <= maxLocal {
		return size
	}
	minLocal := (usable-12)*32/255 - 23
	k := minLocal + (size-minLocal)%(usable-4)
	if k <= maxLocal {
		return k
	}
	return minLocal
}

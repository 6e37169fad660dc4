// Package record decodes the self-describing row format used in table
// b-tree cells.
//
// A record consists of:
//  1. Header: varint header size (counting itself), then one varint serial
//     type code per column
//  2. Body: the column values in header order, each occupying the number of
//     bytes its serial type declares
//
// Decoding is zero-copy for blob and text columns; see Value.
package record

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/FocuswithJustin/litescan/core/errors"
	"github.com/FocuswithJustin/litescan/core/varint"
)

// Record is one decoded table row. RowID is the b-tree key supplied by the
// page layer; it is not necessarily repeated among Values.
type Record struct {
	RowID  int64
	Values []Value
}

// Len returns the number of columns in the record.
func (r *Record) Len() int {
	return len(r.Values)
}

// Decode parses payload, which must be the complete (overflow-assembled)
// record. Blob and text values in the result borrow payload.
func Decode(rowid int64, payload []byte) (*Record, error) {
	types, cursor, err := decodeHeader(payload)
	if err != nil {
		return nil, err
	}

	values := make([]Value, len(types))
	for i, st := range types {
		if st.Size > len(payload)-cursor {
			return nil, errors.NewDecode(fmt.Sprintf("column %d (%s)", i, st), cursor, errors.ErrPayloadTooShort)
		}
		values[i] = decodeValue(st, payload[cursor:cursor+st.Size:cursor+st.Size])
		cursor += st.Size
	}

	return &Record{RowID: rowid, Values: values}, nil
}

// SerialTypes decodes only the record header and returns the column types.
func SerialTypes(payload []byte) ([]SerialType, error) {
	types, _, err := decodeHeader(payload)
	return types, err
}

// decodeHeader returns the column types and the offset where the body starts.
func decodeHeader(payload []byte) ([]SerialType, int, error) {
	headerSize, n, err := varint.Decode(payload)
	if err != nil {
		return nil, 0, errors.NewDecode("header size", 0, errors.ErrTruncatedVarint)
	}
	if headerSize > uint64(len(payload)) {
		return nil, 0, errors.NewDecode("header size", 0, errors.ErrTruncatedHeader)
	}

	cursor := n
	remaining := int(headerSize) - n
	if remaining < 0 {
		return nil, 0, errors.NewDecode("header size", 0, errors.ErrTruncatedHeader)
	}

	var types []SerialType
	for remaining > 0 {
		code, n, err := varint.Decode(payload[cursor:])
		if err != nil {
			return nil, 0, errors.NewDecode("serial type", cursor, errors.ErrTruncatedVarint)
		}
		remaining -= n
		if remaining < 0 {
			return nil, 0, errors.NewDecode("serial type", cursor, errors.ErrTruncatedHeader)
		}
		st, err := Classify(code)
		if err != nil {
			return nil, 0, errors.NewDecode("serial type", cursor, err)
		}
		types = append(types, st)
		cursor += n
	}

	return types, cursor, nil
}

// decodeValue decodes b, which holds exactly st.Size bytes.
func decodeValue(st SerialType, b []byte) Value {
	switch st.Class {
	case ClassInt:
		return Value{Class: ClassInt, Width: st.Size, Int: signExtend(b)}
	case ClassFloat:
		return Value{Class: ClassFloat, Float: math.Float64frombits(binary.BigEndian.Uint64(b))}
	case ClassBlob, ClassText:
		return Value{Class: st.Class, Bytes: b}
	default:
		// NULL and the two constants occupy no body bytes.
		return Value{Class: st.Class}
	}
}

// signExtend reads b as a big-endian two's-complement integer of len(b)*8
// bits. The sign bit is the top bit of b[0], not bit 63.
func signExtend(b []byte) int64 {
	var u uint64
	for _, c := range b {
		u = u<<8 | uint64(c)
	}
	shift := 64 - 8*uint(len(b))
	return int64(u<<shift) >> shift
}

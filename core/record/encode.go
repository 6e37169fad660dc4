package record

import (
	"encoding/binary"
	"math"

	"github.com/FocuswithJustin/litescan/core/varint"
)

// SerialTypeFor returns the serial type code that Encode uses for v.
func SerialTypeFor(v Value) uint64 {
	switch v.Class {
	case ClassInt:
		switch width := v.Width; {
		case width == 0:
			return SerialTypeFor(Int(v.Int))
		case width == 6:
			return 5
		case width == 8:
			return 6
		default:
			return uint64(width)
		}
	case ClassFloat:
		return 7
	case ClassZero:
		return 8
	case ClassOne:
		return 9
	case ClassBlob:
		return 12 + 2*uint64(len(v.Bytes))
	case ClassText:
		return 13 + 2*uint64(len(v.Bytes))
	default:
		return 0
	}
}

// Encode builds a record payload from values. Integers keep the width they
// carry; a zero Width selects the narrowest encoding.
func Encode(values []Value) []byte {
	codes := make([]uint64, len(values))
	typesSize, bodySize := 0, 0
	for i, v := range values {
		codes[i] = SerialTypeFor(v)
		typesSize += varint.Len(codes[i])
		st, _ := Classify(codes[i])
		bodySize += st.Size
	}

	// The header size counts its own varint, so iterate until stable.
	headerSize := typesSize + 1
	for {
		next := varint.Len(uint64(headerSize)) + typesSize
		if next == headerSize {
			break
		}
		headerSize = next
	}

	buf := make([]byte, 0, headerSize+bodySize)
	buf = varint.Append(buf, uint64(headerSize))
	for _, code := range codes {
		buf = varint.Append(buf, code)
	}
	for i, v := range values {
		buf = appendValue(buf, v, codes[i])
	}
	return buf
}

// appendValue appends the body bytes of v under serial type code.
func appendValue(buf []byte, v Value, code uint64) []byte {
	switch code {
	case 0, 8, 9:
		return buf
	case 7:
		return binary.BigEndian.AppendUint64(buf, math.Float64bits(v.Float))
	case 1, 2, 3, 4, 5, 6:
		width := intWidths[code]
		u := uint64(v.Int)
		for shift := 8 * (width - 1); shift >= 0; shift -= 8 {
			buf = append(buf, byte(u>>uint(shift)))
		}
		return buf
	default:
		return append(buf, v.Bytes...)
	}
}

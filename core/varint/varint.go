// Package varint implements the database file format's variable-length integers.
//
// A varint is one to nine bytes, most significant group first. Each of the
// first eight bytes carries seven bits of the value and uses the high bit as
// a continuation flag. If eight bytes have all been continued, the ninth byte
// contributes all eight of its bits and always terminates the value.
package varint

import (
	"github.com/FocuswithJustin/litescan/core/errors"
)

// MaxLen is the longest encoding of a 64-bit value.
const MaxLen = 9

// Decode reads a varint from the start of b and returns the value and the
// number of bytes consumed. It fails with errors.ErrTruncatedVarint if b ends
// before the varint terminates.
func Decode(b []byte) (uint64, int, error) {
	// Fast path for 1-byte case
	if len(b) > 0 && b[0] < 0x80 {
		return uint64(b[0]), 1, nil
	}

	var v uint64
	for i := 0; i < MaxLen; i++ {
		if i >= len(b) {
			return 0, 0, errors.NewDecode("varint", i, errors.ErrTruncatedVarint)
		}
		c := b[i]
		if i == MaxLen-1 {
			// 9th byte: all 8 bits, no continuation bit
			return v<<8 | uint64(c), MaxLen, nil
		}
		v = v<<7 | uint64(c&0x7f)
		if c&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	panic("unreachable")
}

// Put writes v to p and returns the number of bytes written. p must have
// room for Len(v) bytes.
func Put(p []byte, v uint64) int {
	if v <= 0x7f {
		p[0] = byte(v)
		return 1
	}

	if v&(uint64(0xff000000)<<32) != 0 {
		// 9-byte case: all 8 bits of the 9th byte are used
		p[8] = byte(v)
		v >>= 8
		for i := 7; i >= 0; i-- {
			p[i] = byte(v&0x7f) | 0x80
			v >>= 7
		}
		return MaxLen
	}

	n := Len(v)
	for i := n - 1; i >= 0; i-- {
		b := byte(v & 0x7f)
		if i < n-1 {
			b |= 0x80
		}
		p[i] = b
		v >>= 7
	}
	return n
}

// Append appends the encoding of v to buf.
func Append(buf []byte, v uint64) []byte {
	var tmp [MaxLen]byte
	n := Put(tmp[:], v)
	return append(buf, tmp[:n]...)
}

// Len returns the number of bytes required to encode v.
func Len(v uint64) int {
	switch {
	case v <= 0x7f:
		return 1
	case v <= 0x3fff:
		return 2
	case v <= 0x1fffff:
		return 3
	case v <= 0xfffffff:
		return 4
	case v <= 0x7ffffffff:
		return 5
	case v <= 0x3ffffffffff:
		return 6
	case v <= 0x1ffffffffffff:
		return 7
	case v <= 0xffffffffffffff:
		return 8
	default:
		return 9
	}
}

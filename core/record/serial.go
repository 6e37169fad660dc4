package record

import (
	"fmt"

	"github.com/FocuswithJustin/litescan/core/errors"
)

// Serial type codes:
//
//	0: NULL
//	1: 8-bit signed integer
//	2: 16-bit big-endian signed integer
//	3: 24-bit big-endian signed integer
//	4: 32-bit big-endian signed integer
//	5: 48-bit big-endian signed integer
//	6: 64-bit big-endian signed integer
//	7: IEEE 754 float64 (big-endian)
//	8: integer constant 0 (no data stored)
//	9: integer constant 1 (no data stored)
//	10,11: reserved, invalid in a database file
//	N>=12 (even): BLOB of (N-12)/2 bytes
//	N>=13 (odd): TEXT of (N-13)/2 bytes

// Class is the storage class of a column value.
type Class uint8

const (
	ClassNull Class = iota
	ClassInt
	ClassFloat
	ClassZero
	ClassOne
	ClassBlob
	ClassText
)

var classNames = [...]string{
	ClassNull:  "null",
	ClassInt:   "int",
	ClassFloat: "float64",
	ClassZero:  "zero",
	ClassOne:   "one",
	ClassBlob:  "blob",
	ClassText:  "text",
}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// intWidths maps serial codes 1..6 to their byte widths.
var intWidths = [...]int{1: 1, 2: 2, 3: 3, 4: 4, 5: 6, 6: 8}

// SerialType is a classified serial type code.
type SerialType struct {
	Code  uint64
	Class Class
	// Size is the number of body bytes the value occupies: the integer width,
	// 8 for a float, the declared length of a blob or text, 0 otherwise.
	Size int
}

// Classify maps a serial type code to its storage class and body size.
// Codes 10 and 11 fail with errors.ErrInvalidSerialType.
func Classify(code uint64) (SerialType, error) {
	st := SerialType{Code: code}
	switch {
	case code == 0:
		st.Class = ClassNull
	case code <= 6:
		st.Class = ClassInt
		st.Size = intWidths[code]
	case code == 7:
		st.Class = ClassFloat
		st.Size = 8
	case code == 8:
		st.Class = ClassZero
	case code == 9:
		st.Class = ClassOne
	case code == 10, code == 11:
		return SerialType{}, fmt.Errorf("serial type %d: %w", code, errors.ErrInvalidSerialType)
	case code%2 == 0:
		st.Class = ClassBlob
		st.Size = int((code - 12) / 2)
	default:
		st.Class = ClassText
		st.Size = int((code - 13) / 2)
	}
	return st, nil
}

// String returns a short description such as "int24", "float64" or "text(5)".
func (st SerialType) String() string {
	switch st.Class {
	case ClassInt:
		return fmt.Sprintf("int%d", st.Size*8)
	case ClassBlob, ClassText:
		return fmt.Sprintf("%s(%d)", st.Class, st.Size)
	default:
		return st.Class.String()
	}
}

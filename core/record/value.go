package record

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Value is a single decoded column.
//
// Blob and text values do not own their bytes: Bytes is a view into the
// payload the record was decoded from, so the payload must stay valid and
// unmodified for as long as the value is in use.
type Value struct {
	Class Class
	Width int     // Byte width the integer was stored with (1, 2, 3, 4, 6 or 8)
	Int   int64   // ClassInt
	Float float64 // ClassFloat
	Bytes []byte  // ClassBlob, ClassText
}

// IsNull reports whether the value is NULL.
func (v Value) IsNull() bool {
	return v.Class == ClassNull
}

// IsNumber reports whether the value is an integer, a float or one of the
// two integer constants.
func (v Value) IsNumber() bool {
	switch v.Class {
	case ClassInt, ClassFloat, ClassZero, ClassOne:
		return true
	default:
		return false
	}
}

// Int64 coerces a numeric value to an integer. Floats are truncated toward
// zero. ok is false for NULL, blob and text values.
func (v Value) Int64() (n int64, ok bool) {
	switch v.Class {
	case ClassInt:
		return v.Int, true
	case ClassFloat:
		return int64(v.Float), true
	case ClassZero:
		return 0, true
	case ClassOne:
		return 1, true
	default:
		return 0, false
	}
}

// Float64 coerces a numeric value to a float. ok is false for NULL, blob
// and text values.
func (v Value) Float64() (f float64, ok bool) {
	if v.Class == ClassFloat {
		return v.Float, true
	}
	n, ok := v.Int64()
	return float64(n), ok
}

// Text returns the value's bytes as a string, replacing invalid UTF-8
// sequences with U+FFFD. The result is a copy and may outlive the payload.
func (v Value) Text() string {
	if utf8.Valid(v.Bytes) {
		return string(v.Bytes)
	}
	return strings.ToValidUTF8(string(v.Bytes), "�")
}

// String returns the display form of the value.
func (v Value) String() string {
	switch v.Class {
	case ClassNull:
		return "NULL"
	case ClassInt:
		return strconv.FormatInt(v.Int, 10)
	case ClassFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case ClassZero:
		return "0"
	case ClassOne:
		return "1"
	case ClassBlob:
		return "<BLOB " + strconv.Itoa(len(v.Bytes)) + " bytes>"
	case ClassText:
		return v.Text()
	default:
		return "?"
	}
}

// Null returns a NULL value.
func Null() Value {
	return Value{Class: ClassNull}
}

// Int returns an integer value stored with the narrowest encoding that
// holds n, using the constant classes for 0 and 1.
func Int(n int64) Value {
	switch n {
	case 0:
		return Value{Class: ClassZero}
	case 1:
		return Value{Class: ClassOne}
	}
	return Value{Class: ClassInt, Width: intWidth(n), Int: n}
}

// Float returns a float value.
func Float(f float64) Value {
	return Value{Class: ClassFloat, Float: f}
}

// Text returns a text value holding s.
func Text(s string) Value {
	return Value{Class: ClassText, Bytes: []byte(s)}
}

// Blob returns a blob value viewing b.
func Blob(b []byte) Value {
	return Value{Class: ClassBlob, Bytes: b}
}

// intWidth returns the smallest serial integer width holding n.
func intWidth(n int64) int {
	switch {
	case n >= -128 && n <= 127:
		return 1
	case n >= -32768 && n <= 32767:
		return 2
	case n >= -8388608 && n <= 8388607:
		return 3
	case n >= -2147483648 && n <= 2147483647:
		return 4
	case n >= -140737488355328 && n <= 140737488355327:
		return 6
	default:
		return 8
	}
}

// Package errors provides standardized error types and helpers for litescan.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = errors.New("unsupported")
)

// Decode errors. They abort decoding of a single cell; the caller decides
// whether to skip the cell or abandon the scan.
var (
	// ErrTruncatedVarint indicates the input ended before a varint terminated
	ErrTruncatedVarint = errors.New("truncated varint")
	// ErrInvalidSerialType indicates one of the reserved serial type codes 10 or 11
	ErrInvalidSerialType = errors.New("invalid serial type")
	// ErrTruncatedHeader indicates a record header that overruns its declared size
	ErrTruncatedHeader = errors.New("truncated record header")
	// ErrPayloadTooShort indicates a column value extends past the payload
	ErrPayloadTooShort = errors.New("payload too short")
)

// Catalog errors. ErrSchemaParse and ErrOrphanIndex abort catalog construction.
var (
	// ErrInvalidSchemaShape indicates a schema row with a wrongly typed column
	ErrInvalidSchemaShape = errors.New("invalid schema row shape")
	// ErrSchemaParse indicates DDL text that failed to parse
	ErrSchemaParse = errors.New("schema parse error")
	// ErrOrphanIndex indicates an index whose table is not in the catalog
	ErrOrphanIndex = errors.New("orphan index")
)

// DecodeError reports where in a payload decoding failed.
type DecodeError struct {
	Op     string // Stage that failed (e.g., "header size", "serial type", "column 3")
	Offset int    // Byte offset into the payload
	Err    error  // One of the decode sentinels
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s at offset %d: %v", e.Op, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ShapeError reports a schema row column that does not have the required type.
type ShapeError struct {
	Field   string // Schema column name ("kind", "name", "tbl_name", "rootpage", "sql")
	Message string // What was found instead
}

func (e *ShapeError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("invalid schema %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid schema %s", e.Field)
}

func (e *ShapeError) Unwrap() error {
	return ErrInvalidSchemaShape
}

// SchemaParseError reports a table or index whose DDL could not be parsed.
type SchemaParseError struct {
	Kind string // Schema row kind ("table" or "index")
	Name string // Schema row name
	Err  error  // Underlying parser error
}

func (e *SchemaParseError) Error() string {
	return fmt.Sprintf("failed to parse %s %s: %v", e.Kind, e.Name, e.Err)
}

func (e *SchemaParseError) Is(target error) bool {
	return target == ErrSchemaParse
}

func (e *SchemaParseError) Unwrap() error {
	return e.Err
}

// OrphanIndexError reports an index that names a table absent from the catalog.
type OrphanIndexError struct {
	Index string
	Table string
}

func (e *OrphanIndexError) Error() string {
	return fmt.Sprintf("index %s references unknown table %s", e.Index, e.Table)
}

func (e *OrphanIndexError) Unwrap() error {
	return ErrOrphanIndex
}

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "table", "column", "page")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "decompress")
	Path      string // File path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a parsing error
type ParseError struct {
	Format  string // Format being parsed (e.g., "DDL", "file header", "b-tree page")
	Path    string // File path or identifier, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// UnsupportedError represents an unsupported feature or format
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// Helper functions for creating common errors

// NewDecode creates a DecodeError
func NewDecode(op string, offset int, err error) *DecodeError {
	return &DecodeError{
		Op:     op,
		Offset: offset,
		Err:    err,
	}
}

// NewShape creates a ShapeError
func NewShape(field, message string) *ShapeError {
	return &ShapeError{
		Field:   field,
		Message: message,
	}
}

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

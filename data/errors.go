package data

import "fmt"

// ErrWrongWireType indicates a protobuf field was encoded with a wire type
// other than the one its field number requires.
type ErrWrongWireType struct {
	Module   string
	Field    string
	Expected uint8
	Actual   uint8
}

func (e ErrWrongWireType) Error() string {
	return fmt.Sprintf("protobuf: (%s) invalid wire type for field %s: expected %d, got %d", e.Module, e.Field, e.Expected, e.Actual)
}

// ErrMalformedWire indicates the protobuf byte stream could not be parsed
// at all (a truncated varint, an unterminated length-delimited field, etc).
type ErrMalformedWire struct {
	Module string
	Reason string
}

func (e ErrMalformedWire) Error() string {
	return fmt.Sprintf("protobuf: (%s) malformed: %s", e.Module, e.Reason)
}

// ErrWrongNodeType indicates a UnixFS node was decoded with a DataType
// different than the one the caller expected.
type ErrWrongNodeType struct {
	Expected int64
	Actual   int64
}

func (e ErrWrongNodeType) Error() string {
	return fmt.Sprintf("unixfs: expected node type %s, got %s", fsTypeName(e.Expected), fsTypeName(e.Actual))
}

// ErrInvalidDataType indicates a UnixFS DataType field held a value outside
// the enum defined in the spec.
type ErrInvalidDataType struct {
	DataType int64
}

func (e ErrInvalidDataType) Error() string {
	return fmt.Sprintf("unixfs: %d is not a valid node type", e.DataType)
}

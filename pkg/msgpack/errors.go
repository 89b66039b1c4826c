package msgpack

import (
	"fmt"
	"reflect"

	"github.com/cockroachdb/errors"
)

type UnsupportedTypeError struct {
	Type reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	return "msgpack: unsupported type: " + e.Type.String()
}

func IsUnsupportedTypeError(err error) (*UnsupportedTypeError, bool) {
	switch x := errors.UnwrapAll(err).(type) {
	case *UnsupportedTypeError:
		return x, true
	default:
		return nil, false
	}
}

type InsufficientDataError struct {
	Offset int
	Need   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("msgpack: need %d more bytes at offset %d", e.Need, e.Offset)
}

func IsInsufficientDataError(err error) (*InsufficientDataError, bool) {
	switch x := errors.UnwrapAll(err).(type) {
	case *InsufficientDataError:
		return x, true
	default:
		return nil, false
	}
}

type InvalidStringError struct {
	Offset int
}

func (e *InvalidStringError) Error() string {
	return fmt.Sprintf("msgpack: invalid utf-8 string at offset %d", e.Offset)
}

func IsInvalidStringError(err error) (*InvalidStringError, bool) {
	switch x := errors.UnwrapAll(err).(type) {
	case *InvalidStringError:
		return x, true
	default:
		return nil, false
	}
}

// ReservedCodeError reports a prefix byte the wire format reserves (0xc1) or
// an ext type code in the reserved negative range.
type ReservedCodeError struct {
	Offset int
	Code   byte
	Ext    bool
}

func (e *ReservedCodeError) Error() string {
	if e.Ext {
		return fmt.Sprintf("msgpack: reserved ext type %d at offset %d", int8(e.Code), e.Offset)
	}
	return fmt.Sprintf("msgpack: reserved code 0x%02x at offset %d", e.Code, e.Offset)
}

func IsReservedCodeError(err error) (*ReservedCodeError, bool) {
	switch x := errors.UnwrapAll(err).(type) {
	case *ReservedCodeError:
		return x, true
	default:
		return nil, false
	}
}

type UnhashableKeyError struct {
	Offset int
	Key    any
}

func (e *UnhashableKeyError) Error() string {
	return fmt.Sprintf("msgpack: unhashable map key %v at offset %d", e.Key, e.Offset)
}

func IsUnhashableKeyError(err error) (*UnhashableKeyError, bool) {
	switch x := errors.UnwrapAll(err).(type) {
	case *UnhashableKeyError:
		return x, true
	default:
		return nil, false
	}
}

type DuplicateKeyError struct {
	Offset int
	Key    any
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("msgpack: duplicate map key %v at offset %d", e.Key, e.Offset)
}

func IsDuplicateKeyError(err error) (*DuplicateKeyError, bool) {
	switch x := errors.UnwrapAll(err).(type) {
	case *DuplicateKeyError:
		return x, true
	default:
		return nil, false
	}
}

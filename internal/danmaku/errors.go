package danmaku

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedRecord       = errors.New("malformed danmaku record")
	ErrUnsupportedMotionType = errors.New("unsupported motion type")
	ErrUnknownStyle          = errors.New("no style declared for size class")
	ErrInvalidConfig         = errors.New("invalid conversion config")
)

// a raw record that does not parse into typed fields
type MalformedRecordError struct {
	// position of the record in its source, -1 when unknown
	Index int
	Field string
	Value string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	where := ""
	if e.Index >= 0 {
		where = fmt.Sprintf(" #%d", e.Index)
	}
	if e.Field == "" {
		return fmt.Sprintf("malformed record%s: %v", where, e.Err)
	}
	return fmt.Sprintf("malformed record%s: field %s=%q: %v", where, e.Field, e.Value, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// a special or unknown motion type reached the allocator
type UnsupportedMotionTypeError struct {
	Type MotionType
}

func (e *UnsupportedMotionTypeError) Error() string {
	return fmt.Sprintf("danmaku type %d not supported", int(e.Type))
}

func (e *UnsupportedMotionTypeError) Is(target error) bool {
	return target == ErrUnsupportedMotionType
}

// a size class without a declared style
type UnknownStyleError struct {
	Size SizeClass
}

func (e *UnknownStyleError) Error() string {
	return fmt.Sprintf("no style declared for size class %s", e.Size)
}

func (e *UnknownStyleError) Is(target error) bool {
	return target == ErrUnknownStyle
}

type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Package gigaerr defines the stable error-code taxonomy shared by every
// layer of the backend (§7). The numeric values mirror the original
// GIGA_error C enum bit-for-bit since the taxonomy is part of the ABI: do
// not renumber existing entries, only append.
package gigaerr

import "github.com/pkg/errors"

// Code is a stable, ABI-shaped error code.
type Code uint32

// Error codes. Values match the reference C header's GIGA_error enum.
const (
	Success                        Code = 0x0000
	UnknownError                   Code = 0x0001
	IncorrectParameter             Code = 0x0002
	OutOfHostMemory                Code = 0x0003
	OutOfDeviceMemory              Code = 0x0004
	InconsistentTensorSizes        Code = 0x0005
	InconsistentNumberOfDimensions Code = 0x0006
	UnimplementedType              Code = 0x0007
	UnknownTensor                  Code = 0x0008
	InconsistentTensorTypes        Code = 0x0009
	BadAlloc                       Code = 0x000A
	DeviceNotInitialized           Code = 0x000B
	BadMemoryAlignment             Code = 0x000C
	NotImplemented                 Code = 0x000D
	DeviceError                    Code = 0x000E
	InconsistentDevice             Code = 0x000F
	ProcessMappedTensor            Code = 0x0010
	MemoryAlignmentError           Code = 0x0011
	MemoryLayoutError              Code = 0x0012
)

var names = map[Code]string{
	Success:                        "Success",
	UnknownError:                   "UnknownError",
	IncorrectParameter:             "IncorrectParameter",
	OutOfHostMemory:                "OutOfHostMemory",
	OutOfDeviceMemory:              "OutOfDeviceMemory",
	InconsistentTensorSizes:        "InconsistentTensorSizes",
	InconsistentNumberOfDimensions: "InconsistentNumberOfDimensions",
	UnimplementedType:              "UnimplementedType",
	UnknownTensor:                  "UnknownTensor",
	InconsistentTensorTypes:        "InconsistentTensorTypes",
	BadAlloc:                       "BadAlloc",
	DeviceNotInitialized:           "DeviceNotInitialized",
	BadMemoryAlignment:             "BadMemoryAlignment",
	NotImplemented:                 "NotImplemented",
	DeviceError:                    "DeviceError",
	InconsistentDevice:             "InconsistentDevice",
	ProcessMappedTensor:            "ProcessMappedTensor",
	MemoryAlignmentError:           "MemoryAlignmentError",
	MemoryLayoutError:              "MemoryLayoutError",
}

// String returns the stable short identifier for the code, or
// "UnknownError" if the code isn't recognized.
func (c Code) String() string {
	if s, ok := names[c]; ok {
		return s
	}
	return "UnknownError"
}

// Error wraps a Code with an optional underlying cause. It implements the
// standard error interface so internal packages can propagate it with
// errors.Wrap/errors.Is/errors.As like any other error.
type Error struct {
	Code  Code
	Cause error
}

// New returns an *Error with no attached cause.
func New(code Code) *Error {
	return &Error{Code: code}
}

// Wrap attaches cause to code, wrapping it with a stack trace via
// pkg/errors.WithStack (a new one is recorded even if cause already
// carries one).
func Wrap(code Code, cause error) *Error {
	if cause == nil {
		return New(code)
	}
	return &Error{Code: code, Cause: errors.WithStack(cause)}
}

// Wrapf is Wrap with a formatted cause message.
func Wrapf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Cause: errors.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Code.String() + ": " + e.Cause.Error()
	}
	return e.Code.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// CodeOf extracts the Code carried by err, if any, defaulting to
// UnknownError for a non-nil err that isn't a *Error, and Success for a
// nil err.
func CodeOf(err error) Code {
	if err == nil {
		return Success
	}
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return UnknownError
}

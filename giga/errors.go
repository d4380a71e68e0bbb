// Package giga is the stable, synchronous, opaque-handle operation surface
// of §6: allocate/view/reshape/release tensors in device-managed zones,
// stage data with copy_to_tensor/copy_from_tensor, and dispatch the fixed
// kernel set (conv2d, dense, add, softmax, upsample) across the element
// type matrix of §3. Every entry point returns an ErrorCode instead of a
// Go error so callers modeled on the reference C ABI can check a single
// return value; RegisterErrorCallback additionally observes failures
// out-of-band the way the reference "CPU_USE_EXCEPTION" hook does.
package giga

import "github.com/giga-project/giga/internal/gigaerr"

// ErrorCode mirrors gigaerr.Code at the public boundary (§7). The values
// are numerically identical; this package doesn't renumber them.
type ErrorCode uint32

// Error codes, stable per §7's taxonomy.
const (
	Success                        ErrorCode = ErrorCode(gigaerr.Success)
	UnknownError                   ErrorCode = ErrorCode(gigaerr.UnknownError)
	IncorrectParameter             ErrorCode = ErrorCode(gigaerr.IncorrectParameter)
	OutOfHostMemory                ErrorCode = ErrorCode(gigaerr.OutOfHostMemory)
	OutOfDeviceMemory              ErrorCode = ErrorCode(gigaerr.OutOfDeviceMemory)
	InconsistentTensorSizes        ErrorCode = ErrorCode(gigaerr.InconsistentTensorSizes)
	InconsistentNumberOfDimensions ErrorCode = ErrorCode(gigaerr.InconsistentNumberOfDimensions)
	UnimplementedType              ErrorCode = ErrorCode(gigaerr.UnimplementedType)
	UnknownTensor                  ErrorCode = ErrorCode(gigaerr.UnknownTensor)
	InconsistentTensorTypes        ErrorCode = ErrorCode(gigaerr.InconsistentTensorTypes)
	BadAlloc                       ErrorCode = ErrorCode(gigaerr.BadAlloc)
	DeviceNotInitialized           ErrorCode = ErrorCode(gigaerr.DeviceNotInitialized)
	BadMemoryAlignment             ErrorCode = ErrorCode(gigaerr.BadMemoryAlignment)
	NotImplemented                 ErrorCode = ErrorCode(gigaerr.NotImplemented)
	DeviceError                    ErrorCode = ErrorCode(gigaerr.DeviceError)
	InconsistentDevice             ErrorCode = ErrorCode(gigaerr.InconsistentDevice)
	ProcessMappedTensor            ErrorCode = ErrorCode(gigaerr.ProcessMappedTensor)
	MemoryAlignmentError           ErrorCode = ErrorCode(gigaerr.MemoryAlignmentError)
	MemoryLayoutError              ErrorCode = ErrorCode(gigaerr.MemoryLayoutError)
)

// String returns the stable short identifier for the code.
func (c ErrorCode) String() string {
	return gigaerr.Code(c).String()
}

// ErrorToString implements §6's error_to_string entry point.
func ErrorToString(c ErrorCode) string {
	return c.String()
}

// codeOf converts an internal error into the public ErrorCode, additionally
// invoking any registered error callback (the "CPU_USE_EXCEPTION"-style
// out-of-band observation hook of §6).
func codeOf(err error) ErrorCode {
	code := ErrorCode(gigaerr.CodeOf(err))
	if code != Success {
		notifyErrorCallback(code, err)
	}
	return code
}

var errorCallback func(ErrorCode, error)

// RegisterErrorCallback implements §6's register_error_callback: fn is
// invoked synchronously, inline, whenever an entry point in this package
// returns a non-Success code. Passing nil clears the callback.
func RegisterErrorCallback(fn func(code ErrorCode, err error)) {
	errorCallback = fn
}

func notifyErrorCallback(code ErrorCode, err error) {
	if errorCallback != nil {
		errorCallback(code, err)
	}
}

// fail notifies the registered error callback (if any) about a failure
// that originates as a plain ErrorCode rather than an internal error
// value, and returns it unchanged -- the counterpart to codeOf for the
// handful of checks (device lookup, handle resolution) that never touch
// the internal packages' error type.
func fail(code ErrorCode) ErrorCode {
	if code != Success {
		notifyErrorCallback(code, nil)
	}
	return code
}

package giga

// Callback implements §6's callback / §5's trivial completion model: fn is
// invoked inline, synchronously, since every operation above already runs
// to completion before returning.
func Callback(fn func()) ErrorCode {
	if fn != nil {
		fn()
	}
	return Success
}

// Flush implements §6's flush: a no-op, since there is no pending
// asynchronous work to drain (§5).
func Flush(DeviceID) ErrorCode {
	return Success
}

// WaitForCompletion implements §6's wait_for_completion: a no-op for the
// same reason as Flush.
func WaitForCompletion(DeviceID) ErrorCode {
	return Success
}

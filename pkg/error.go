package pkg

import "errors"

// Driver errors.
var (
	// ErrNotImplemented indicates a reserved operation with no implementation.
	ErrNotImplemented = errors.New("not implemented")

	// ErrAborted indicates the device failed a send or receive operation.
	ErrAborted = errors.New("operation aborted")

	// ErrInvalidState indicates the driver cannot perform the operation in
	// its current state, e.g. after a failed startup.
	ErrInvalidState = errors.New("invalid driver state")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInitFailed indicates the device could not be initialized.
	ErrInitFailed = errors.New("device initialization failed")

	// ErrNoDevice indicates no Ethernet device was found on the controller.
	ErrNoDevice = errors.New("device not present")

	// ErrNotInitialized indicates the device has not been initialized.
	ErrNotInitialized = errors.New("device not initialized")

	// ErrFrameTooLarge indicates a frame exceeds the slot capacity.
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrBufferTooSmall indicates the provided buffer is too small.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrOutOfRange indicates an offset or index outside a shared region.
	ErrOutOfRange = errors.New("out of range")

	// ErrMisaligned indicates a shared region is not suitably aligned.
	ErrMisaligned = errors.New("misaligned region")

	// ErrMailbox indicates a firmware property request failed.
	ErrMailbox = errors.New("mailbox request failed")

	// ErrAcknowledge indicates an interrupt line could not be acknowledged.
	ErrAcknowledge = errors.New("interrupt acknowledge failed")

	// ErrNotSupported indicates an unsupported operation or variant.
	ErrNotSupported = errors.New("not supported")

	// ErrAlreadyRunning indicates the driver is already running.
	ErrAlreadyRunning = errors.New("already running")

	// ErrClosed indicates the resource has been closed.
	ErrClosed = errors.New("closed")

	// ErrProtocol indicates a malformed control message.
	ErrProtocol = errors.New("protocol error")
)

// Status is the result code of a control operation as seen by an
// out-of-process caller.
type Status uint8

// Status values.
const (
	StatusSuccess          Status = iota // Operation completed
	StatusGeneric                        // Unclassified failure
	StatusAborted                        // Device operation failed
	StatusNotImplemented                 // Reserved operation
	StatusInvalidParameter               // Bad argument
	StatusInvalidState                   // Driver not ready or failed at startup
)

// String returns a string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusGeneric:
		return "generic"
	case StatusAborted:
		return "aborted"
	case StatusNotImplemented:
		return "not implemented"
	case StatusInvalidParameter:
		return "invalid parameter"
	case StatusInvalidState:
		return "invalid state"
	default:
		return "unknown"
	}
}

// Error returns the corresponding error for the status.
func (s Status) Error() error {
	switch s {
	case StatusSuccess:
		return nil
	case StatusAborted:
		return ErrAborted
	case StatusNotImplemented:
		return ErrNotImplemented
	case StatusInvalidParameter:
		return ErrInvalidParameter
	case StatusInvalidState:
		return ErrInvalidState
	default:
		return ErrProtocol
	}
}

// StatusOf maps an error returned by a control operation onto a Status.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrAborted):
		return StatusAborted
	case errors.Is(err, ErrNotImplemented):
		return StatusNotImplemented
	case errors.Is(err, ErrInvalidParameter), errors.Is(err, ErrOutOfRange):
		return StatusInvalidParameter
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrNotInitialized):
		return StatusInvalidState
	default:
		return StatusGeneric
	}
}

package pkg

import (
	"errors"
	"fmt"
	"testing"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusSuccess, "success"},
		{StatusGeneric, "generic"},
		{StatusAborted, "aborted"},
		{StatusNotImplemented, "not implemented"},
		{StatusInvalidParameter, "invalid parameter"},
		{StatusInvalidState, "invalid state"},
		{Status(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.status.String(); got != tt.want {
				t.Errorf("Status.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatus_Error(t *testing.T) {
	tests := []struct {
		status  Status
		wantErr error
	}{
		{StatusSuccess, nil},
		{StatusAborted, ErrAborted},
		{StatusNotImplemented, ErrNotImplemented},
		{StatusInvalidParameter, ErrInvalidParameter},
		{StatusInvalidState, ErrInvalidState},
		{StatusGeneric, ErrProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			err := tt.status.Error()
			if tt.wantErr == nil && err != nil {
				t.Errorf("Status.Error() = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Status.Error() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Status
	}{
		{"nil", nil, StatusSuccess},
		{"aborted", ErrAborted, StatusAborted},
		{"wrapped aborted", fmt.Errorf("send: %w", ErrAborted), StatusAborted},
		{"not implemented", ErrNotImplemented, StatusNotImplemented},
		{"invalid parameter", ErrInvalidParameter, StatusInvalidParameter},
		{"out of range", ErrOutOfRange, StatusInvalidParameter},
		{"invalid state", ErrInvalidState, StatusInvalidState},
		{"not initialized", ErrNotInitialized, StatusInvalidState},
		{"other", errors.New("boom"), StatusGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusOf(tt.err); got != tt.want {
				t.Errorf("StatusOf(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestSentinelErrors(t *testing.T) {
	// Verify all sentinel errors are distinct
	errs := []error{
		ErrNotImplemented,
		ErrAborted,
		ErrInvalidState,
		ErrInvalidParameter,
		ErrInitFailed,
		ErrNoDevice,
		ErrNotInitialized,
		ErrFrameTooLarge,
		ErrBufferTooSmall,
		ErrOutOfRange,
		ErrMisaligned,
		ErrMailbox,
		ErrAcknowledge,
		ErrNotSupported,
		ErrAlreadyRunning,
		ErrClosed,
		ErrProtocol,
	}

	for i, a := range errs {
		for j, b := range errs {
			if i != j && errors.Is(a, b) {
				t.Errorf("errors %d (%v) and %d (%v) should be distinct", i, a, j, b)
			}
		}
	}
}

package xerrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDeriveKeepsSentinelIdentity(t *testing.T) {
	cause := errors.New("strconv: bad float")
	err := ErrInvalidRecord.Derive(cause).WithContext("line", 3)

	if !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("derived error should match its sentinel")
	}
	if errors.Is(err, ErrUnknownFrame) {
		t.Errorf("derived error must not match an unrelated sentinel")
	}
	if !errors.Is(err, cause) {
		t.Errorf("derived error should unwrap to its cause")
	}
	if len(ErrInvalidRecord.Context) != 0 {
		t.Errorf("sentinel was mutated: %v", ErrInvalidRecord.Context)
	}
	if len(err.Stack) == 0 {
		t.Errorf("expected captured stack")
	}
}

func TestWrapPreservesType(t *testing.T) {
	inner := ErrOutOfRange.Derive(nil)
	wrapped := Wrap(fmt.Errorf("line 7: %w", inner), ErrInternal, "convert failed")

	if wrapped.Type != ErrInvalidArg || wrapped.Code != ErrOutOfRange.Code {
		t.Errorf("Wrap should keep type and code of inner *Error, got %v/%d", wrapped.Type, wrapped.Code)
	}
	if Wrap(nil, ErrInternal, "x") != nil {
		t.Errorf("Wrap(nil) should be nil")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errors.New("plain"), 1},
		{ErrUnknownFrame.Derive(nil), 2},
		{fmt.Errorf("wrapped: %w", ErrBatchCanceled.Derive(nil)), 130},
		{Internal("boom", nil), 1},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestErrorString(t *testing.T) {
	e := InvalidArg("bad lng")
	if got, want := e.Error(), "[InvalidArg] 400: bad lng"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got := ErrorType(99).String(); got != "ErrorType(99)" {
		t.Errorf("String() = %q", got)
	}
}

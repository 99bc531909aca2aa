package types

import (
	"errors"
	"testing"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("root")
	err := NewError(ErrRemoteSubmission, "provider rejected task").
		WithCause(root).
		WithHTTPStatus(502).
		WithRetryable(true).
		WithProvider("tripo3d")

	if GetErrorCode(err) != ErrRemoteSubmission {
		t.Fatalf("expected code %s, got %s", ErrRemoteSubmission, GetErrorCode(err))
	}
	if !IsRetryable(err) {
		t.Fatalf("expected retryable")
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is unwrap to root")
	}
	if got := err.Error(); got == "" {
		t.Fatalf("expected non-empty error string")
	}
}

func TestError_IsLocal(t *testing.T) {
	t.Parallel()

	local := []ErrorCode{ErrValidation, ErrInsufficientCredit, ErrNotFound, ErrStorage, ErrNotImplemented}
	for _, code := range local {
		if !IsLocal(NewError(code, "x")) {
			t.Fatalf("expected %s to be local", code)
		}
	}

	remote := []ErrorCode{ErrRemoteSubmission, ErrRemoteFailure, ErrPollTimeout, ErrUpstreamError}
	for _, code := range remote {
		if IsLocal(NewError(code, "x")) {
			t.Fatalf("expected %s to be remote", code)
		}
	}

	if IsLocal(errors.New("plain")) {
		t.Fatalf("plain errors are not local by definition")
	}
}

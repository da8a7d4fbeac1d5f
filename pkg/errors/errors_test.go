package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := map[Code]struct {
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		CodeValidation:    {status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		CodeUnauthorized:  {status: http.StatusUnauthorized, publicMsg: "authentication required"},
		CodeForbidden:     {status: http.StatusForbidden, publicMsg: "access denied"},
		CodeNotFound:      {status: http.StatusNotFound, publicMsg: "resource not found"},
		CodeConflict:      {status: http.StatusConflict, publicMsg: "conflict detected"},
		CodeStateConflict: {status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		CodeIdempotency:   {status: http.StatusConflict, publicMsg: "idempotency key reused", detailsOK: true},
		CodeRateLimit:     {status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded"},
		CodeUpstream:      {status: http.StatusBadGateway, publicMsg: "upstream provider error", retryable: true, detailsOK: true},
		CodeInternal:      {status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		CodeDependency:    {status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for code, want := range tests {
		meta := MetadataFor(code)
		if meta.HTTPStatus != want.status {
			t.Fatalf("code %s expected status %d got %d", code, want.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != want.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", code, want.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != want.retryable {
			t.Fatalf("code %s expected retryable %v got %v", code, want.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != want.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", code, want.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("ARTWORK_ON_FIRE")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
	if !meta.Retryable {
		t.Fatalf("unknown codes should inherit the internal retry policy")
	}
}

func TestNewCarriesCodeAndMessage(t *testing.T) {
	err := New(CodeValidation, "order must contain at least one item")
	if err.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", err.Code())
	}
	if err.Message() != "order must contain at least one item" {
		t.Fatalf("unexpected message %q", err.Message())
	}
	if err.Details() != nil {
		t.Fatalf("details should be nil until set")
	}

	err.WithDetails(map[string]any{"field": "items"})
	if err.Details() == nil {
		t.Fatalf("details should be preserved")
	}
}

func TestWrapPreservesCauseChain(t *testing.T) {
	cause := stdErrors.New("connection reset")
	wrapped := Wrap(CodeDependency, cause, "charge gateway")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}

	rewrapped := Wrap(CodeUpstream, fmt.Errorf("verify: %w", wrapped), "gateway verify")
	if !stdErrors.Is(rewrapped, cause) {
		t.Fatalf("cause lost through a second wrap")
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "only the order owner may check out")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(stdErrors.New("plain")) != nil {
		t.Fatalf("As should reject untyped errors")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

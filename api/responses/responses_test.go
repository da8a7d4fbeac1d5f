package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/damilareakin/artmarket-backend/pkg/errors"
)

func TestWriteSuccessEnvelope(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteSuccessStatus(rec, http.StatusCreated, map[string]string{"id": "abc"})

	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var envelope SuccessEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.StatusCode != http.StatusCreated {
		t.Fatalf("statusCode mismatch: %d", envelope.StatusCode)
	}
	data, ok := envelope.Data.(map[string]any)
	if !ok || data["id"] != "abc" {
		t.Fatalf("unexpected data %+v", envelope.Data)
	}
}

func TestWriteErrorMapsTypedCodes(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var envelope ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Message != "order not found" || envelope.Code != string(pkgerrors.CodeNotFound) {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
	if envelope.StatusCode != http.StatusNotFound {
		t.Fatalf("statusCode mismatch: %d", envelope.StatusCode)
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, errors.New("pq: connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var envelope ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Message != "internal server error" {
		t.Fatalf("internal detail leaked: %q", envelope.Message)
	}
}

func TestWriteErrorKeepsValidationDetails(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
		WithDetails(map[string]string{"title": "is required"})
	WriteError(context.Background(), nil, rec, err)

	var envelope ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	details, ok := envelope.Details.(map[string]any)
	if !ok || details["title"] != "is required" {
		t.Fatalf("expected details, got %+v", envelope.Details)
	}
}

package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	t.Parallel()

	if meta := MetadataFor(CodeValidation); meta.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("unexpected validation status: %d", meta.HTTPStatus)
	}
	if meta := MetadataFor(CodeIntegrity); meta.HTTPStatus != http.StatusConflict || meta.Retryable {
		t.Fatalf("unexpected integrity metadata: %+v", meta)
	}
	if meta := MetadataFor(Code("BOGUS")); meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown code should map to internal, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := stdErrors.New("boom")
	err := Wrap(CodeDependency, cause, "calling collaborator")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable")
	}
	if typed := As(err); typed == nil || typed.Code() != CodeDependency {
		t.Fatalf("unexpected typed error: %v", typed)
	}
}

func TestDumpCollectsChain(t *testing.T) {
	t.Parallel()

	cause := stdErrors.New("socket closed")
	err := Wrap(CodeDependency, cause, "release seats")

	dump := Dump(err)
	if dump.Code != string(CodeDependency) {
		t.Fatalf("unexpected code: %s", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected 2 chain entries, got %d", len(dump.Chain))
	}
}

func TestNilErrorAccessors(t *testing.T) {
	t.Parallel()

	var err *Error
	if err.Code() != CodeInternal {
		t.Fatal("nil error should report internal code")
	}
	if err.Message() != "" || err.Details() != nil {
		t.Fatal("nil error should have empty payload")
	}
}

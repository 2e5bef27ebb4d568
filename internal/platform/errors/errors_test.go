package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeStatusAndName(t *testing.T) {
	cases := []struct {
		code   ErrorCode
		status int
		name   string
	}{
		{ErrorCodeUnknown, http.StatusInternalServerError, "unknown"},
		{ErrorCodePanic, http.StatusInternalServerError, "panic"},
		{ErrorCodeUnavailable, http.StatusServiceUnavailable, "unavailable"},
		{ErrorCodeConflict, http.StatusConflict, "conflict"},
		{ErrorCodeUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{ErrorCodeForbidden, http.StatusForbidden, "forbidden"},
		{ErrorCodeInvalidArgument, http.StatusUnprocessableEntity, "invalid_argument"},
		{ErrorCodeValidation, http.StatusBadRequest, "validation"},
		{ErrorCodeJSON, http.StatusBadRequest, "json"},
		{ErrorCodeNotFound, http.StatusNotFound, "not_found"},
		{ErrorCodeNetwork, http.StatusBadGateway, "network"},
		{ErrorCodeTimeout, http.StatusGatewayTimeout, "timeout"},
		{ErrorCodeUpstream, http.StatusBadGateway, "upstream"},
		{ErrorCode(999), http.StatusInternalServerError, "code(999)"},
	}
	for _, c := range cases {
		if got := c.code.Status(); got != c.status {
			t.Fatalf("%v.Status() = %d, want %d", c.code, got, c.status)
		}
		if got := c.code.String(); got != c.name {
			t.Fatalf("String() = %q, want %q", got, c.name)
		}
	}
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := stderrs.New("dial tcp: refused")
	err := Wrap(cause, ErrorCodeNetwork, "fetch stats")
	if err.Error() != "fetch stats: dial tcp: refused" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if !stderrs.Is(err, cause) {
		t.Fatalf("cause must be reachable through errors.Is")
	}
	if Root(fmt.Errorf("outer: %w", err)) != cause {
		t.Fatalf("Root should return the innermost cause")
	}
	if Root(nil) != nil {
		t.Fatalf("Root(nil) should be nil")
	}
	var nilErr *Error
	if nilErr.Error() != "<nil>" {
		t.Fatalf("nil receiver should not panic")
	}
}

func TestCodeOfThroughWrapping(t *testing.T) {
	err := fmt.Errorf("view intensity: %w", NotFoundf("topic %q", "rust"))
	if CodeOf(err) != ErrorCodeNotFound || !IsCode(err, ErrorCodeNotFound) {
		t.Fatalf("code should survive fmt wrapping, got %v", CodeOf(err))
	}
	if HTTPStatus(err) != http.StatusNotFound {
		t.Fatalf("status = %d", HTTPStatus(err))
	}
	if HTTPStatus(nil) != http.StatusOK {
		t.Fatalf("nil error maps to 200")
	}
	if CodeOf(stderrs.New("plain")) != ErrorCodeUnknown {
		t.Fatalf("foreign errors are unknown")
	}
}

func TestWithFieldAndOpCopy(t *testing.T) {
	base := Validationf("min_year must be at least 1970")
	tagged := WithOp(WithField(base, "min_year"), "filters.set")

	e, ok := As(tagged)
	if !ok {
		t.Fatalf("expected *Error")
	}
	if e.Field() != "min_year" || e.Op() != "filters.set" || e.Code() != ErrorCodeValidation {
		t.Fatalf("got field=%q op=%q code=%v", e.Field(), e.Op(), e.Code())
	}
	orig, _ := As(base)
	if orig.Field() != "" || orig.Op() != "" {
		t.Fatalf("the original must not be mutated")
	}

	plain := stderrs.New("x")
	if WithField(plain, "f") != plain || WithOp(plain, "op") != plain {
		t.Fatalf("foreign errors pass through")
	}
}

func TestWireFrom(t *testing.T) {
	if w := WireFrom(nil); w != (Wire{}) {
		t.Fatalf("nil => %+v", w)
	}
	w := WireFrom(WithField(InvalidArgf("limit too large"), "limit"))
	if w.Code != ErrorCodeInvalidArgument || w.Message != "limit too large" || w.Field != "limit" {
		t.Fatalf("wire = %+v", w)
	}
	// the cause stays out of the client message
	w = WireFrom(Wrapf(stderrs.New("secret dsn"), ErrorCodeUpstream, "data api %d", 502))
	if w.Message != "data api 502" {
		t.Fatalf("message leaked cause: %q", w.Message)
	}
	w = WireFrom(stderrs.New("boom"))
	if w.Code != ErrorCodeUnknown || w.Message != "boom" {
		t.Fatalf("foreign wire = %+v", w)
	}
}

func TestShorthandConstructors(t *testing.T) {
	cases := []struct {
		fn   func(string, ...any) error
		code ErrorCode
	}{
		{NotFoundf, ErrorCodeNotFound},
		{InvalidArgf, ErrorCodeInvalidArgument},
		{Validationf, ErrorCodeValidation},
		{JSONErrf, ErrorCodeJSON},
		{PanicErrf, ErrorCodePanic},
		{Unauthorizedf, ErrorCodeUnauthorized},
		{Forbiddenf, ErrorCodeForbidden},
		{Conflictf, ErrorCodeConflict},
		{Unavailablef, ErrorCodeUnavailable},
		{Networkf, ErrorCodeNetwork},
		{Timeoutf, ErrorCodeTimeout},
		{Upstreamf, ErrorCodeUpstream},
	}
	for _, c := range cases {
		err := c.fn("n=%d", 3)
		if CodeOf(err) != c.code || err.Error() != "n=3" {
			t.Fatalf("%v: got %v %q", c.code, CodeOf(err), err.Error())
		}
	}
	if New(ErrorCodeConflict, "no history").Error() != "no history" {
		t.Fatalf("New message")
	}
}

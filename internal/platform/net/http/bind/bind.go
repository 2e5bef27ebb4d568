// Package bind decodes request bodies and validates them with go-playground/validator
package bind

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	perr "insightboard/internal/platform/errors"
	"insightboard/internal/platform/logger"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entrans "github.com/go-playground/validator/v10/translations/en"
)

// StructLevel is the argument of a struct level rule
type StructLevel = validator.StructLevel

// messages replaces the default english text for tags we report often
// {0} is the json field name and {1} the tag parameter
var messages = map[string]string{
	"min":     "{0} must be at least {1}",
	"max":     "{0} must be at most {1}",
	"oneof":   "{0} must be one of [{1}]",
	"ordered": "{0} must not be greater than {1}",
}

var (
	setup sync.Once
	check *validator.Validate
	trans ut.Translator
)

func instance() *validator.Validate {
	setup.Do(func() {
		loc := en.New()
		trans, _ = ut.New(loc, loc).GetTranslator("en")

		check = validator.New(validator.WithRequiredStructEnabled())
		check.RegisterTagNameFunc(jsonName)
		_ = entrans.RegisterDefaultTranslations(check, trans)

		for tag, text := range messages {
			tag, text := tag, text
			_ = check.RegisterTranslation(tag, trans,
				func(t ut.Translator) error { return t.Add(tag, text, true) },
				func(t ut.Translator, fe validator.FieldError) string {
					msg, _ := t.T(tag, fe.Field(), fe.Param())
					return msg
				},
			)
		}
	})
	return check
}

// jsonName makes messages and fields use the wire name
func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

// RegisterStructValidation adds a rule that sees the whole value of each given type
func RegisterStructValidation(fn validator.StructLevelFunc, types ...any) {
	instance().RegisterStructValidation(fn, types...)
}

// Struct validates v; the first failure becomes a validation error naming its field
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var fails validator.ValidationErrors
	if !errors.As(err, &fails) || len(fails) == 0 {
		logger.Get().Error().Err(err).Msg("validator misuse")
		return perr.JSONErrf("validation error")
	}
	fe := fails[0]
	return perr.WithField(perr.New(perr.ErrorCodeValidation, fe.Translate(trans)), fe.Field())
}

// JSONOptions tunes ParseJSON
type JSONOptions struct {
	// MaxBytes caps the body; 0 means no cap
	MaxBytes int64
	// DisallowUnknown rejects fields the target does not declare
	DisallowUnknown bool
	// AllowEmptyBody yields the zero value for an empty body on any method
	AllowEmptyBody bool
}

var defaults = JSONOptions{MaxBytes: 1 << 20, DisallowUnknown: true}

// ParseJSON decodes one JSON value into T and validates it
// without AllowEmptyBody an empty body is only accepted on GET, HEAD, DELETE and OPTIONS
func ParseJSON[T any](r *http.Request, opts ...JSONOptions) (T, error) {
	var zero T
	o := defaults
	if len(opts) > 0 {
		o = opts[0]
	}
	defer func() { _ = r.Body.Close() }()

	var body io.Reader = r.Body
	if o.MaxBytes > 0 {
		body = io.LimitReader(body, o.MaxBytes)
	}
	br := bufio.NewReader(body)
	if _, err := br.Peek(1); errors.Is(err, io.EOF) {
		if o.AllowEmptyBody || bodyOptional(r.Method) {
			return zero, nil
		}
		return zero, perr.JSONErrf("empty body")
	}

	dec := json.NewDecoder(br)
	if o.DisallowUnknown {
		dec.DisallowUnknownFields()
	}
	var out T
	if err := dec.Decode(&out); err != nil {
		return zero, perr.JSONErrf("invalid JSON: %v", err)
	}
	if dec.More() {
		return zero, perr.JSONErrf("unexpected trailing data")
	}
	if err := Struct(out); err != nil {
		return zero, err
	}
	return out, nil
}

func bodyOptional(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}

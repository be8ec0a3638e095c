// Package validation checks user request bodies against the create and
// update schemas and reports the first violated rule.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/actuallystonmai/users-service/internal/domain"
	"github.com/go-playground/validator/v10"
)

// fieldOrder is the order rules are checked in; the first failure wins.
var fieldOrder = []string{"firstName", "secondName", "age", "city"}

// typedInput holds the fields that decoded to the right JSON type. A field
// that was absent, null or mistyped stays nil.
type typedInput struct {
	FirstName  *string  `json:"firstName"`
	SecondName *string  `json:"secondName"`
	Age        *float64 `json:"age"`
	City       *string  `json:"city"`
}

// createRules and updateRules share typedInput's layout so it converts to
// either one directly.
type createRules struct {
	FirstName  *string  `json:"firstName" validate:"required,min=1"`
	SecondName *string  `json:"secondName" validate:"required,min=1"`
	Age        *float64 `json:"age" validate:"required,min=0,max=150"`
	City       *string  `json:"city" validate:"omitempty,min=1"`
}

type updateRules struct {
	FirstName  *string  `json:"firstName" validate:"required,min=1"`
	SecondName *string  `json:"secondName" validate:"required,min=1"`
	Age        *float64 `json:"age" validate:"required,min=0,max=150"`
	City       *string  `json:"city" validate:"required,min=1"`
}

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Create validates a body for POST /api/users and returns the user it
// describes. City is optional.
func (v *Validator) Create(in domain.UserInput) (domain.User, error) {
	t, typeErrs := parse(in)
	return v.check(in, t, typeErrs, createRules(t))
}

// Update validates a body for PUT /api/users/{id}. Every field is required.
func (v *Validator) Update(in domain.UserInput) (domain.User, error) {
	t, typeErrs := parse(in)
	return v.check(in, t, typeErrs, updateRules(t))
}

func (v *Validator) check(in domain.UserInput, t typedInput, typeErrs map[string]string, rules any) (domain.User, error) {
	ruleErrs := make(map[string]string)
	if err := v.v.Struct(rules); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return domain.User{}, fmt.Errorf("validate user: %w", err)
		}
		for _, fe := range verrs {
			if _, seen := ruleErrs[fe.Field()]; !seen {
				ruleErrs[fe.Field()] = message(fe)
			}
		}
	}

	// A mistyped field is nil in t, so its type error outranks the
	// "required" the rules report for it.
	for _, field := range fieldOrder {
		if msg, ok := typeErrs[field]; ok {
			return domain.User{}, domain.NewValidationError(msg)
		}
		if msg, ok := ruleErrs[field]; ok {
			return domain.User{}, domain.NewValidationError(msg)
		}
	}
	if len(in.Unknown) > 0 {
		return domain.User{}, domain.NewValidationError(fmt.Sprintf("%q is not allowed", in.Unknown[0]))
	}

	return t.toUser(), nil
}

// Decode reads one JSON object into dst without interpreting field values.
// Malformed JSON, trailing data and non-object bodies come back as
// *domain.ValidationError. An empty body decodes as an empty object so the
// schema reports the missing fields.
func Decode(r io.Reader, dst *domain.UserInput) error {
	dec := json.NewDecoder(r)

	var body json.RawMessage
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return domain.NewValidationError("invalid JSON body")
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return domain.NewValidationError("invalid JSON body")
	}

	var fields map[string]json.RawMessage
	if isNull(body) || json.Unmarshal(body, &fields) != nil {
		return domain.NewValidationError(`"value" must be of type object`)
	}

	*dst = domain.UserInput{}
	for key, val := range fields {
		switch key {
		case "firstName":
			dst.FirstName = val
		case "secondName":
			dst.SecondName = val
		case "age":
			dst.Age = val
		case "city":
			dst.City = val
		default:
			dst.Unknown = append(dst.Unknown, key)
		}
	}
	sort.Strings(dst.Unknown)
	return nil
}

func parse(in domain.UserInput) (typedInput, map[string]string) {
	var t typedInput
	typeErrs := make(map[string]string)
	t.FirstName = parseField[string](in.FirstName, "firstName", typeErrs)
	t.SecondName = parseField[string](in.SecondName, "secondName", typeErrs)
	t.Age = parseField[float64](in.Age, "age", typeErrs)
	t.City = parseField[string](in.City, "city", typeErrs)
	return t, typeErrs
}

// parseField returns nil for an absent field, and records a type error for
// null or a value of the wrong JSON type.
func parseField[T string | float64](raw json.RawMessage, field string, typeErrs map[string]string) *T {
	if raw == nil {
		return nil
	}
	var v T
	if isNull(raw) || json.Unmarshal(raw, &v) != nil {
		typeErrs[field] = typeMessage[T](field)
		return nil
	}
	return &v
}

func typeMessage[T string | float64](field string) string {
	var zero T
	if _, ok := any(zero).(float64); ok {
		return fmt.Sprintf("%q must be a number", field)
	}
	return fmt.Sprintf("%q must be a string", field)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func (t typedInput) toUser() domain.User {
	var u domain.User
	if t.FirstName != nil {
		u.FirstName = *t.FirstName
	}
	if t.SecondName != nil {
		u.SecondName = *t.SecondName
	}
	if t.Age != nil {
		u.Age = *t.Age
	}
	if t.City != nil {
		u.City = *t.City
	}
	return u
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", field)
	case "min":
		if s, ok := stringValue(fe.Value()); ok {
			if s == "" {
				return fmt.Sprintf("%q is not allowed to be empty", field)
			}
			return fmt.Sprintf("%q length must be at least %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%q must be greater than or equal to %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%q must be less than or equal to %s", field, fe.Param())
	}
	return fmt.Sprintf("%q is invalid", field)
}

func stringValue(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case *string:
		if s != nil {
			return *s, true
		}
	}
	return "", false
}

package bapi

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// Validator can be implemented by record types for checks that struct tags can not express.
// Returning a [*ValidationError] reports specific fields, any other error is reported for
// the record as a whole.
type Validator interface {
	Validate() error
}

// NewValidate inits the struct validator records are checked with. Fields are named after
// their json tag so error locations match the wire format.
func NewValidate() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(jsonFieldName)

	return val
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	default:
		return name
	}
}

// decodeRecord constructs a record of type B from a decoded mapping. The mapping is re-encoded
// as JSON so the json tags of B decide how keys map onto fields.
func decodeRecord[B any](val *validator.Validate, data map[string]any) (*B, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, newBadRequest(MessageBadRequest, errors.Wrap(err, "re-encode body"))
	}

	body := new(B)
	if err := json.Unmarshal(raw, body); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, newValidationFailure([]FieldError{typeFieldError(typeErr)}, err)
		}

		return nil, newBadRequest(MessageBadRequest, errors.Wrap(err, "decode body"))
	}

	if err := validateRecord(val, body); err != nil {
		return nil, err
	}

	return body, nil
}

// validateRecord runs the struct tag validation and then the Validate method, if any.
func validateRecord(val *validator.Validate, rec any) error {
	if reflect.Indirect(reflect.ValueOf(rec)).Kind() == reflect.Struct {
		if err := val.Struct(rec); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				return newValidationFailure(fieldErrors(verrs), err)
			}

			return errors.Wrap(err, "validate record")
		}
	}

	custom, ok := rec.(Validator)
	if !ok {
		return nil
	}

	if err := custom.Validate(); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return newValidationFailure(verr.Errors, err)
		}

		return newValidationFailure([]FieldError{{
			Loc:  []string{"__root__"},
			Msg:  err.Error(),
			Type: "value_error",
		}}, err)
	}

	return nil
}

func typeFieldError(typeErr *json.UnmarshalTypeError) FieldError {
	name := "value"
	if typeErr.Type != nil {
		switch typeErr.Type.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			name = "integer"
		case reflect.Float32, reflect.Float64:
			name = "float"
		case reflect.String:
			name = "str"
		case reflect.Bool:
			name = "bool"
		case reflect.Slice, reflect.Array:
			name = "list"
		case reflect.Map, reflect.Struct:
			name = "dict"
		}
	}

	loc := []string{"__root__"}
	if typeErr.Field != "" {
		loc = strings.Split(typeErr.Field, ".")
	}

	return FieldError{
		Loc:  loc,
		Msg:  "value is not a valid " + name,
		Type: "type_error." + name,
	}
}

// fieldErrors converts the errors of the struct validator. Locations leave out the name of the
// root type and split indexes into their own element: "User.tags[1]" becomes ["tags", "1"].
func fieldErrors(verrs validator.ValidationErrors) []FieldError {
	errs := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		var loc []string
		parts := strings.Split(fe.Namespace(), ".")
		for _, part := range parts[1:] {
			name, idx, found := strings.Cut(part, "[")
			loc = append(loc, name)
			if found {
				loc = append(loc, strings.TrimSuffix(idx, "]"))
			}
		}

		fieldErr := FieldError{Loc: loc, Msg: validationMessage(fe), Type: "value_error." + fe.Tag()}
		if fe.Tag() == "required" {
			fieldErr.Type = "value_error.missing"
		}

		errs = append(errs, fieldErr)
	}

	return errs
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "min":
		return fmt.Sprintf("must be at least %s%s", fe.Param(), lengthUnit(fe.Kind()))
	case "max":
		return fmt.Sprintf("must be at most %s%s", fe.Param(), lengthUnit(fe.Kind()))
	case "len":
		if unit := lengthUnit(fe.Kind()); unit != "" {
			return fmt.Sprintf("must be exactly %s%s", fe.Param(), unit)
		}
		return fmt.Sprintf("must equal %s", fe.Param())
	case "eq":
		return fmt.Sprintf("must equal %s", fe.Param())
	case "ne":
		return fmt.Sprintf("must not equal %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// lengthUnit is what the length rules count for a kind of value. Numbers are compared by value.
func lengthUnit(k reflect.Kind) string {
	switch k {
	case reflect.String:
		return " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		return " items"
	default:
		return ""
	}
}

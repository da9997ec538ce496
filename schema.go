package bapi

import (
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
	"github.com/google/uuid"
)

// kindSchema returns the schema for a parameter kind.
func kindSchema(k Kind) (*openapi3.Schema, error) {
	switch k {
	case String:
		return openapi3.NewStringSchema(), nil
	case UUID:
		return openapi3.NewStringSchema().WithFormat("uuid"), nil
	case Int:
		return openapi3.NewIntegerSchema(), nil
	case Number:
		return openapi3.NewFloat64Schema(), nil
	case Bool:
		return openapi3.NewBoolSchema(), nil
	case StringList:
		return openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()), nil
	default:
		return nil, errors.Newf("parameter without a type: %s", k)
	}
}

// newSchemaGenerator inits the generator that reflects record types into schemas. Besides the
// json tags it understands: `validate:"required"` to mark required fields, `doc:"..."` for
// descriptions and `default:"..."` for defaults.
func newSchemaGenerator() *openapi3gen.Generator {
	return openapi3gen.NewGenerator(openapi3gen.SchemaCustomizer(customizeSchema))
}

var uuidType = reflect.TypeFor[uuid.UUID]()

func customizeSchema(_ string, t reflect.Type, tag reflect.StructTag, schema *openapi3.Schema) error {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == uuidType {
		*schema = *openapi3.NewStringSchema().WithFormat("uuid")
	}

	if doc := tag.Get("doc"); doc != "" {
		schema.Description = doc
	}

	if def, ok := tag.Lookup("default"); ok {
		val, err := parseDefault(schema, def)
		if err != nil {
			return errors.Wrapf(err, "default of %s", t)
		}

		schema.Default = val
	}

	if t.Kind() == reflect.Struct && t != uuidType {
		for _, name := range requiredFields(t) {
			if !slices.Contains(schema.Required, name) {
				schema.Required = append(schema.Required, name)
			}
		}
	}

	return nil
}

// requiredFields lists the json names of the fields of t that validate as required, fields of
// embedded structs included.
func requiredFields(t reflect.Type) (names []string) {
	for i := range t.NumField() {
		fld := t.Field(i)
		if !fld.IsExported() {
			continue
		}

		name := jsonFieldName(fld)
		if name == "" {
			continue
		}

		if fld.Anonymous && fld.Tag.Get("json") == "" {
			ft := fld.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}

			if ft.Kind() == reflect.Struct {
				names = append(names, requiredFields(ft)...)
				continue
			}
		}

		rules := strings.Split(fld.Tag.Get("validate"), ",")
		if slices.Contains(rules, "required") {
			names = append(names, name)
		}
	}

	return names
}

func parseDefault(schema *openapi3.Schema, raw string) (any, error) {
	switch {
	case schema.Type.Is(openapi3.TypeInteger):
		return strconv.Atoi(raw)
	case schema.Type.Is(openapi3.TypeNumber):
		return strconv.ParseFloat(raw, 64)
	case schema.Type.Is(openapi3.TypeBoolean):
		return strconv.ParseBool(raw)
	default:
		return raw, nil
	}
}

// recordSchema reflects a record type into a schema.
func recordSchema(gen *openapi3gen.Generator, t reflect.Type) (*openapi3.Schema, error) {
	ref, err := gen.GenerateSchemaRef(t)
	if err != nil {
		return nil, errors.Wrapf(err, "generate schema for %s", t)
	}

	return ref.Value, nil
}

// schemaName is the name a record type is listed under in the document components.
func schemaName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t.Name()
}

package mcp

import (
	"reflect"
	"strings"
)

// SchemaGenerator generates JSON schemas from Go types using reflection
type SchemaGenerator struct {
	visited map[reflect.Type]bool
}

// NewSchemaGenerator creates a new schema generator
func NewSchemaGenerator() *SchemaGenerator {
	return &SchemaGenerator{
		visited: make(map[reflect.Type]bool),
	}
}

// SchemaFor generates the schema of T
func SchemaFor[T any]() JSONSchema {
	return NewSchemaGenerator().GenerateFromType(reflect.TypeOf((*T)(nil)).Elem())
}

// GenerateFromType generates a JSON schema from a Go type
func (sg *SchemaGenerator) GenerateFromType(t reflect.Type) JSONSchema {
	sg.visited = make(map[reflect.Type]bool)
	return sg.generateSchema(t)
}

func (sg *SchemaGenerator) generateSchema(t reflect.Type) JSONSchema {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	// Avoid infinite recursion
	if sg.visited[t] {
		return JSONSchema{Type: "object"}
	}
	sg.visited[t] = true
	defer func() { sg.visited[t] = false }()

	switch t.Kind() {
	case reflect.String:
		return JSONSchema{Type: "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return JSONSchema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return JSONSchema{Type: "number"}
	case reflect.Bool:
		return JSONSchema{Type: "boolean"}
	case reflect.Slice, reflect.Array:
		items := sg.generateSchema(t.Elem())
		return JSONSchema{Type: "array", Items: &items}
	case reflect.Map:
		return JSONSchema{Type: "object"}
	case reflect.Struct:
		return sg.generateStructSchema(t)
	case reflect.Interface:
		return JSONSchema{}
	default:
		return JSONSchema{Type: "object"}
	}
}

func (sg *SchemaGenerator) generateStructSchema(t reflect.Type) JSONSchema {
	schema := JSONSchema{
		Type:       "object",
		Properties: make(map[string]JSONSchema),
		Required:   []string{},
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		fieldName := sg.getFieldName(field, jsonTag)
		fieldSchema := sg.generateSchema(field.Type)

		if desc := field.Tag.Get("description"); desc != "" {
			fieldSchema.Description = desc
		}

		if enum := field.Tag.Get("enum"); enum != "" {
			values := strings.Split(enum, ",")
			fieldSchema.Enum = make([]interface{}, len(values))
			for i, v := range values {
				fieldSchema.Enum[i] = strings.TrimSpace(v)
			}
		}

		schema.Properties[fieldName] = fieldSchema

		if sg.isRequired(field, jsonTag) {
			schema.Required = append(schema.Required, fieldName)
		}
	}

	return schema
}

func (sg *SchemaGenerator) getFieldName(field reflect.StructField, jsonTag string) string {
	name, _, _ := strings.Cut(jsonTag, ",")
	if name == "" {
		return strings.ToLower(field.Name)
	}
	return name
}

// isRequired treats pointer and omitempty fields as optional unless the
// field carries required:"true"
func (sg *SchemaGenerator) isRequired(field reflect.StructField, jsonTag string) bool {
	if field.Tag.Get("required") == "true" {
		return true
	}
	if field.Type.Kind() == reflect.Ptr {
		return false
	}
	if strings.Contains(jsonTag, "omitempty") {
		return false
	}
	return true
}

// Package validation validates gateway request bodies against JSON schemas.
// Upstream API responses are deliberately not validated; they are accessed
// defensively with zero-value fallbacks at the call sites.
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Validator holds a compiled schema for one request shape.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles a JSON schema document.
func NewValidator(schemaJSON string) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// MustValidator compiles a schema or panics. Used for package-level schema
// literals that are covered by tests.
func MustValidator(schemaJSON string) *Validator {
	v, err := NewValidator(schemaJSON)
	if err != nil {
		panic(err)
	}
	return v
}

// ValidateBytes checks a raw JSON body against the schema.
func (v *Validator) ValidateBytes(body []byte) *ValidationResult {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{
				{Field: "(body)", Message: "invalid JSON: " + err.Error()},
			},
		}
	}

	if result.Valid() {
		return &ValidationResult{Valid: true}
	}

	out := &ValidationResult{Valid: false}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return out
}

// Validate checks an already-decoded document against the schema.
func (v *Validator) Validate(doc interface{}) *ValidationResult {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{
				{Field: "(body)", Message: err.Error()},
			},
		}
	}

	if result.Valid() {
		return &ValidationResult{Valid: true}
	}

	out := &ValidationResult{Valid: false}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return out
}

// Package schema validates stored prompt documents against the prompt JSON Schema.
package schema

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed prompt.schema.json
var promptSchema string

// ValidationError lists every schema violation of one document.
type ValidationError struct {
	Errors []string
}

// Error implements error.
func (e *ValidationError) Error() string {
	return "schema: " + strings.Join(e.Errors, "; ")
}

// Validator checks documents against the compiled prompt schema. Safe for concurrent use.
type Validator struct {
	schema *gojsonschema.Schema
}

// New compiles the embedded prompt schema.
func New() (*Validator, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(promptSchema))
	if err != nil {
		return nil, fmt.Errorf("schema: compile prompt schema: %w", err)
	}
	return &Validator{schema: s}, nil
}

// MustNew is New that panics; the schema is embedded so failure is a build defect.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// ValidateJSON validates raw JSON bytes.
func (v *Validator) ValidateJSON(data []byte) error {
	return v.validate(gojsonschema.NewBytesLoader(data))
}

// ValidateValue validates a Go value (struct, map) as its JSON encoding.
func (v *Validator) ValidateValue(doc any) error {
	return v.validate(gojsonschema.NewGoLoader(doc))
}

func (v *Validator) validate(doc gojsonschema.JSONLoader) error {
	result, err := v.schema.Validate(doc)
	if err != nil {
		return fmt.Errorf("schema: validate: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var msgs []string
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return &ValidationError{Errors: msgs}
}

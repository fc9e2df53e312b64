package promptreg

import (
	"errors"
	"fmt"
)

// Sentinel errors for prompt and registry operations.
// All use prefix "promptreg:" for identification. Callers should use errors.Is/errors.As.
var (
	ErrInvalidID       = errors.New("promptreg: invalid prompt id")
	ErrPromptNotFound  = errors.New("promptreg: prompt not found")
	ErrPromptExists    = errors.New("promptreg: prompt already exists")
	ErrMissingVariable = errors.New("promptreg: required template variable not provided")
	ErrInvalidPrompt   = errors.New("promptreg: prompt document is malformed")
)

// VariableError wraps a sentinel error with variable and prompt context.
// Use errors.Is(err, ErrMissingVariable) and errors.As(err, &variableErr) to inspect.
type VariableError struct {
	Variable string
	Prompt   string
	Err      error
}

// Error implements error.
func (e *VariableError) Error() string {
	return fmt.Sprintf("promptreg: variable %q in prompt %q: %v", e.Variable, e.Prompt, e.Err)
}

// Unwrap returns the wrapped error for errors.Is/errors.As.
func (e *VariableError) Unwrap() error { return e.Err }

// Compile-time check that VariableError implements error.
var _ error = (*VariableError)(nil)

// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration matches errors caused by bad or missing user-supplied
	// configuration: a nonexistent explicit answers file, a malformed answers
	// document, a sample file that would be overwritten, an invalid format name.
	ErrConfiguration = errors.New("configuration error")

	// ErrEnvironment matches fatal errors raised when managed-platform
	// detection fires but the expected environment values are absent.
	ErrEnvironment = errors.New("environment error")

	// ErrIO matches errors writing or copying files on behalf of the caller.
	ErrIO = errors.New("i/o error")

	// ErrEngine matches errors propagated from the descriptor engine or a
	// provider plugin. They are never retried or rewritten by this layer.
	ErrEngine = errors.New("engine error")
)

type (
	// Kind classifies an ActionableError into one of the failure families the
	// lifecycle layer distinguishes. The zero value leaves the error unclassified.
	Kind int

	// ActionableError is an error with context for user-facing error messages.
	// It provides structured information about what operation failed, what
	// resource was involved, and suggestions for how to fix the issue.
	//
	// Use the ErrorContext builder for convenient construction:
	//
	//	err := issue.NewErrorContext().
	//		WithKind(issue.KindConfiguration).
	//		WithOperation("load answers file").
	//		WithResource("./answers.conf").
	//		WithSuggestion("Run 'bundlectl genanswers' to create one").
	//		Wrap(originalErr).
	//		Build()
	ActionableError struct {
		// Kind is the failure family (configuration, environment, io, engine).
		Kind Kind

		// Operation describes what was being attempted (e.g., "resolve answers file").
		Operation string

		// Resource identifies the file, path, image, or provider involved (optional).
		Resource string

		// Suggestions provides hints on how to fix the issue (optional).
		Suggestions []string

		// Cause is the underlying error that triggered this error (optional).
		Cause error
	}

	// ErrorContext is a builder for constructing ActionableError instances.
	// It provides a fluent API for setting error context incrementally.
	ErrorContext struct {
		kind        Kind
		operation   string
		resource    string
		suggestions []string
		cause       error
	}
)

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindEnvironment
	KindIO
	KindEngine
)

// sentinel maps a Kind to the sentinel error it satisfies via errors.Is.
func (k Kind) sentinel() error {
	switch k {
	case KindConfiguration:
		return ErrConfiguration
	case KindEnvironment:
		return ErrEnvironment
	case KindIO:
		return ErrIO
	case KindEngine:
		return ErrEngine
	default:
		return nil
	}
}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindEnvironment:
		return "environment"
	case KindIO:
		return "io"
	case KindEngine:
		return "engine"
	default:
		return "unknown"
	}
}

// --- Constructors ---

// NewErrorContext creates a new ErrorContext builder.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// WrapWithOperation wraps an error with a kind and operation context.
// This is a shorthand for the most common wrapping pattern.
func WrapWithOperation(err error, kind Kind, operation string) *ActionableError {
	if err == nil {
		return nil
	}
	return &ActionableError{
		Kind:      kind,
		Operation: operation,
		Cause:     err,
	}
}

// --- ActionableError Methods ---

// Error implements the error interface.
// Returns a concise message suitable for default (non-verbose) output.
func (e *ActionableError) Error() string {
	var msg strings.Builder

	msg.WriteString("failed to ")
	msg.WriteString(e.Operation)

	if e.Resource != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Resource)
	}

	if e.Cause != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Cause.Error())
	}

	return msg.String()
}

// Unwrap returns the underlying cause error for use with errors.Is/As.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Is reports whether the error matches one of the kind sentinels, so callers
// can write errors.Is(err, issue.ErrConfiguration) without knowing the
// concrete type.
func (e *ActionableError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// Format returns a formatted error message with optional verbosity.
//
// When verbose is false:
//
//	failed to <operation>: <resource>: <cause message>
//	  • <suggestion 1>
//
// When verbose is true, additionally includes the full error chain.
func (e *ActionableError) Format(verbose bool) string {
	var msg strings.Builder

	msg.WriteString(e.Error())

	if len(e.Suggestions) > 0 {
		msg.WriteString("\n")
		for _, suggestion := range e.Suggestions {
			msg.WriteString("\n  • ")
			msg.WriteString(suggestion)
		}
	}

	if verbose && e.Cause != nil {
		msg.WriteString("\n\nError chain:")
		err := e.Cause
		depth := 1
		for err != nil {
			fmt.Fprintf(&msg, "\n  %d. %s", depth, err.Error())
			err = errors.Unwrap(err)
			depth++
		}
	}

	return msg.String()
}

// HasSuggestions returns true if the error has any suggestions.
func (e *ActionableError) HasSuggestions() bool {
	return len(e.Suggestions) > 0
}

// --- ErrorContext Methods ---

// WithKind sets the failure family for the error being built.
func (c *ErrorContext) WithKind(k Kind) *ErrorContext {
	c.kind = k
	return c
}

// WithOperation sets the operation being performed.
// The operation should be a verb phrase like "resolve answers file".
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.operation = op
	return c
}

// WithResource sets the resource (file, path, image, provider) involved.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.resource = res
	return c
}

// WithSuggestion adds a suggestion for how to fix the issue.
// Can be called multiple times to add multiple suggestions.
func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	c.suggestions = append(c.suggestions, sug)
	return c
}

// Wrap wraps an underlying error as the cause.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.cause = err
	return c
}

// Build creates an ActionableError from the context.
// Returns nil if no operation is set (operation is required).
func (c *ErrorContext) Build() *ActionableError {
	if c.operation == "" {
		return nil
	}

	return &ActionableError{
		Kind:        c.kind,
		Operation:   c.operation,
		Resource:    c.resource,
		Suggestions: c.suggestions,
		Cause:       c.cause,
	}
}

// BuildError creates an ActionableError and returns it as an error interface.
// This is a convenience method for direct use in return statements.
// Returns nil if no operation is set.
func (c *ErrorContext) BuildError() error {
	ae := c.Build()
	if ae == nil {
		return nil
	}
	return ae
}

// Package errors defines the error kinds surfaced by apicurio-sync.
// Every failure a command can report is one of the typed errors below, and
// each supports errors.Is against the sentinels for programmatic checks.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// New is the standard library errors.New, re-exported for convenience.
var New = errors.New

// Is and As are re-exported so callers importing this package need not alias
// the standard library one.
var (
	Is = errors.Is
	As = errors.As
)

// Sentinel errors.
var (
	// ErrNotFound indicates the registry has no such group, artifact or version.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates missing, rejected or expired credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrServer indicates the registry answered with a 5xx status.
	ErrServer = errors.New("registry unavailable")

	// ErrInvalidInput indicates a malformed configuration, lockfile or context file.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIncompletePlan indicates a plan entry is missing a field required to apply it.
	ErrIncompletePlan = errors.New("incomplete plan entry")

	// ErrNotConfigured indicates no registry could be selected.
	ErrNotConfigured = errors.New("registry not configured")

	// ErrNotImplemented is returned by providers that do not support an operation.
	ErrNotImplemented = errors.New("not implemented")
)

// TransportError is a failed registry request: either no response at all or
// a non-success status.
type TransportError struct {
	Operation  string
	URL        string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: %s returned %d: %s", e.Operation, e.URL, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s returned %d", e.Operation, e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Operation, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Operation, e.URL, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is maps HTTP status classes onto sentinels.
func (e *TransportError) Is(target error) bool {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return target == ErrNotFound
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return target == ErrUnauthorized
	case e.StatusCode >= 500:
		return target == ErrServer
	}
	return false
}

// IOError is a local filesystem failure.
type IOError struct {
	Operation string
	Path      string
	Err       error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Operation, e.Path, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError is malformed YAML or JSON, or a document whose content breaks
// its own rules.
type ParseError struct {
	Format  string
	File    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.File != "" {
		return fmt.Sprintf("parsing %s %s: %s", e.Format, e.File, msg)
	}
	return fmt.Sprintf("parsing %s: %s", e.Format, msg)
}

// Unwrap implements errors.Unwrap.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidInput
}

// SetupError is a failure to assemble what a command needs before it runs:
// a missing context, a client that cannot be built, an unusable directory.
type SetupError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *SetupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Component, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *SetupError) Unwrap() error {
	return e.Err
}

// AuthError is a credential problem detected locally.
type AuthError struct {
	Method  string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("%s authentication: %s", e.Method, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *AuthError) Is(target error) bool {
	return target == ErrUnauthorized
}

// PlanError reports a plan entry that lacks a field needed to apply it.
type PlanError struct {
	Direction string
	Path      string
	Field     string
}

// Error implements the error interface.
func (e *PlanError) Error() string {
	return fmt.Sprintf("%s %s: %s is not set", e.Direction, e.Path, e.Field)
}

// Is implements errors.Is support.
func (e *PlanError) Is(target error) bool {
	return target == ErrIncompletePlan
}

// WrapIO wraps a filesystem error. It returns nil for a nil error.
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Err: err}
}

// WrapParse wraps a decode error. It returns nil for a nil error.
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, File: file, Err: err}
}

// NewSetupError creates a SetupError.
func NewSetupError(component, message string, err error) *SetupError {
	return &SetupError{Component: component, Message: message, Err: err}
}

// NewAuthError creates an AuthError.
func NewAuthError(method, message string) *AuthError {
	return &AuthError{Method: method, Message: message}
}

// IsNotFound reports whether err is a registry not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized reports whether err is an authentication failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

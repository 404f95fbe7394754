package runtime

import (
	"errors"
	"fmt"
)

// ErrGroupNotFound signals that a delegation group name had no exact match
// among the groups visible to the authenticated user.
var ErrGroupNotFound = errors.New("group not found")

// ValidationError reports a malformed or missing declaration field.
// It is fatal for the whole run and is raised before any network call.
type ValidationError struct {
	Command string // command name, empty for file-level problems
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation: command %q: %s: %s", e.Command, e.Field, e.Message)
}

// AuthError reports a login or delegation failure. Fatal for the single
// operation that required the credential, never for the run.
type AuthError struct {
	Stage string // "login" or "delegate"
	User  string
	Err   error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth: %s failed for %q: %v", e.Stage, e.User, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransportError reports a network-level failure talking to a remote service.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServiceError reports an application-level failure returned by a remote
// service on an otherwise successful transport exchange.
type ServiceError struct {
	Operation string
	Messages  []string
}

func (e *ServiceError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("service: operation %q rejected", e.Operation)
	}
	return fmt.Sprintf("service: operation %q rejected: %s", e.Operation, e.Messages[0])
}

// SubstitutionWarning records an unresolved reference. It is not an error:
// the literal text is passed through and the run continues.
type SubstitutionWarning struct {
	Parameter string
	Reference string
}

func (w SubstitutionWarning) String() string {
	return fmt.Sprintf("parameter %q: unresolved reference %q, literal kept", w.Parameter, w.Reference)
}

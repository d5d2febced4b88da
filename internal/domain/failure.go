package domain

import (
	"errors"
	"strings"
)

// Fixed user-facing failure messages.
const (
	ConnectivityMessage   = "No se pudo conectar con el servidor"
	DefaultServiceMessage = "Ha ocurrido un error"
	UnknownErrorMessage   = "Error desconocido"
)

// FailureKind classifies a normalized remote-call failure.
type FailureKind int

const (
	// FailureLocal is anything that went wrong before the request was dispatched.
	FailureLocal FailureKind = iota
	// FailureTransport means no response was received.
	FailureTransport
	// FailureService means the service answered with a non-success status.
	FailureService
)

func (k FailureKind) String() string {
	switch k {
	case FailureTransport:
		return "transport"
	case FailureService:
		return "service"
	default:
		return "local"
	}
}

// Failure is the uniform shape every remote-call failure is converted into.
// HTTPStatus is 0 unless the service responded.
type Failure struct {
	Kind       FailureKind
	HTTPStatus int
	Message    string
	Details    []string
	ErrorCode  string // the service's short error label, e.g. "Not Found"
	Path       string
	// Accepted is set when the service took the request but its answer could
	// not be read, so a write may have been applied.
	Accepted bool
	Err      error
}

// NewServiceFailure builds the failure for a non-success response.
func NewServiceFailure(status int, message string, details []string) *Failure {
	return &Failure{
		Kind:       FailureService,
		HTTPStatus: status,
		Message:    ServiceMessage(message, details),
		Details:    details,
	}
}

// NewTransportFailure builds the failure for a request that got no response.
func NewTransportFailure(err error) *Failure {
	return &Failure{
		Kind:    FailureTransport,
		Message: ConnectivityMessage,
		Err:     err,
	}
}

// NewLocalFailure builds the failure for an error raised before dispatch.
func NewLocalFailure(err error) *Failure {
	msg := UnknownErrorMessage
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &Failure{
		Kind:    FailureLocal,
		Message: msg,
		Err:     err,
	}
}

// NewUnreadableResponseFailure builds the local failure for a success response
// whose body could not be decoded.
func NewUnreadableResponseFailure(err error) *Failure {
	f := NewLocalFailure(err)
	f.Accepted = true
	return f
}

// WasAccepted reports whether err still means the service applied the request.
func WasAccepted(err error) bool {
	var f *Failure
	return errors.As(err, &f) && f.Accepted
}

// ServiceMessage joins the server message with its details: "message: d1, d2".
func ServiceMessage(message string, details []string) string {
	if message == "" {
		message = DefaultServiceMessage
	}
	if len(details) > 0 {
		message += ": " + strings.Join(details, ", ")
	}
	return message
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Is matches the kind sentinels ErrTransportFailure, ErrServiceFailure and ErrLocalFailure.
func (f *Failure) Is(target error) bool {
	switch target {
	case ErrTransportFailure:
		return f.Kind == FailureTransport
	case ErrServiceFailure:
		return f.Kind == FailureService
	case ErrLocalFailure:
		return f.Kind == FailureLocal
	}
	return false
}

// AsFailure normalizes any error into a *Failure. Errors that are not
// already failures are treated as local.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return NewLocalFailure(err)
}

// NotificationMessage returns the single user-visible message for err.
func NotificationMessage(err error) string {
	if err == nil {
		return ""
	}
	return AsFailure(err).Message
}

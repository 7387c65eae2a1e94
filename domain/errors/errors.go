// Package errors provides the error types of the protocol runtime.
// All error types support unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/mavrogato/othones/domain/entities"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// Sentinel causes reported by transports.
var (
	// ErrAlreadyRegistered is returned when an object already has a listener.
	ErrAlreadyRegistered = stdErrors.New("object already has a listener")

	// ErrUnknownObject is returned when an id is not live on the connection.
	ErrUnknownObject = stdErrors.New("unknown object")

	// ErrConnectionClosed is the cause of a TransportError after the
	// connection has been closed by either side.
	ErrConnectionClosed = stdErrors.New("connection closed")
)

// DetailedError is implemented by errors that can flatten themselves into an
// ErrorDetail. New error types only need to implement it.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts any error into an ErrorDetail.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
	}
}

// RegistrationError reports that the transport refused to attach a listener
// block to an object. The object is not owned by any proxy afterwards.
type RegistrationError struct {
	Err       error
	Interface string
	Object    entities.ObjectID
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register listener for %s@%d: %v", e.Interface, e.Object, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *RegistrationError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail("registration", e.Error()).WithObject(e.Object, e.Interface)
}

// UseAfterReleaseError reports access to a proxy that was moved from or
// released.
type UseAfterReleaseError struct {
	Interface string
	Operation string
}

func (e *UseAfterReleaseError) Error() string {
	return fmt.Sprintf("%s on released %s proxy", e.Operation, e.Interface)
}

// ToErrorDetail implements DetailedError.
func (e *UseAfterReleaseError) ToErrorDetail() *entities.ErrorDetail {
	d := entities.NewErrorDetail("lifecycle", e.Error())
	d.Operation = e.Operation
	d.Interface = e.Interface
	return d
}

// TransportError reports a failure of the connection itself. It is terminal
// for the dispatch loop.
type TransportError struct {
	Err       error
	Operation string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Closed reports whether the error stems from an orderly or remote close.
func (e *TransportError) Closed() bool {
	return stdErrors.Is(e.Err, ErrConnectionClosed)
}

// ToErrorDetail implements DetailedError.
func (e *TransportError) ToErrorDetail() *entities.ErrorDetail {
	d := entities.NewErrorDetail("transport", e.Error())
	d.Operation = e.Operation
	d.Terminal = true
	return d
}

// ProtocolError is a fatal error reported by the server about one object.
type ProtocolError struct {
	Interface string
	Message   string
	Object    entities.ObjectID
	Code      uint32
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error on %s@%d (code %d): %s", e.Interface, e.Object, e.Code, e.Message)
}

// ToErrorDetail implements DetailedError.
func (e *ProtocolError) ToErrorDetail() *entities.ErrorDetail {
	d := entities.NewErrorDetail("protocol", e.Message).WithObject(e.Object, e.Interface)
	d.Code = e.Code
	d.Terminal = true
	return d
}

// DecodeError reports a message whose arguments did not match the signature
// expected for it.
type DecodeError struct {
	Err       error
	Interface string
	Message   string
	Object    entities.ObjectID
	Opcode    uint16
}

func (e *DecodeError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("decode %s.%s on @%d: %v", e.Interface, e.Message, e.Object, e.Err)
	}
	return fmt.Sprintf("decode opcode %d on @%d: %v", e.Opcode, e.Object, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *DecodeError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail("decode", e.Error()).WithObject(e.Object, e.Interface)
}

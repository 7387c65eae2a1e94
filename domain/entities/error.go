package entities

import "fmt"

// ErrorDetail is the flattened, loggable form of any runtime error.
// Types: "registration", "lifecycle", "transport", "protocol", "decode", "internal".
type ErrorDetail struct {
	// Wrapped is the detail of the underlying cause, if any.
	Wrapped *ErrorDetail `json:"wrapped,omitempty"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// Type categorizes the error.
	Type string `json:"type"`

	// Operation names what was being attempted (e.g., "construct", "bind").
	Operation string `json:"operation,omitempty"`

	// Interface is the capability kind involved, if known.
	Interface string `json:"interface,omitempty"`

	// Code is the protocol error code for server-reported errors.
	Code uint32 `json:"code,omitempty"`

	// Object is the object involved, if any.
	Object ObjectID `json:"object,omitempty"`

	// Terminal marks errors after which the connection is unusable.
	Terminal bool `json:"terminal,omitempty"`
}

// Error implements the error interface.
func (e *ErrorDetail) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if e.Type != "" && e.Type != "internal" {
		msg = fmt.Sprintf("%s: %s", e.Type, msg)
	}
	if e.Interface != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Interface)
	}
	if e.Wrapped != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Wrapped.Error())
	}
	return msg
}

// NewErrorDetail creates a new ErrorDetail with the given type and message.
func NewErrorDetail(errorType, message string) *ErrorDetail {
	return &ErrorDetail{
		Type:    errorType,
		Message: message,
	}
}

// WithObject attaches the object and its interface name.
func (e *ErrorDetail) WithObject(id ObjectID, iface string) *ErrorDetail {
	e.Object = id
	e.Interface = iface
	return e
}

// Package entities provides the core domain types of the protocol runtime.
// They carry no behavior beyond validation and formatting and are shared by
// the proxy layer, the wire codec and the transports.
package entities

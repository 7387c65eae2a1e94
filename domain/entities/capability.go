package entities

import "fmt"

// ObjectID identifies a remote object on one connection. Zero is the null object.
type ObjectID uint32

// DisplayID is the id of the connection's root object, fixed by the protocol.
const DisplayID ObjectID = 1

// IsNull reports whether id is the null object.
func (id ObjectID) IsNull() bool {
	return id == 0
}

// Interface is the identity of a capability kind on the wire.
type Interface struct {
	// Name is the protocol interface name (e.g., "wl_seat").
	Name string `json:"name" validate:"required"`

	// Version is the highest version this client implements.
	Version uint32 `json:"version" validate:"min=1"`
}

// String returns the interface in "name@vN" format.
func (i Interface) String() string {
	return fmt.Sprintf("%s@v%d", i.Name, i.Version)
}

// Clamp returns the lower of the advertised version and the implemented one.
func (i Interface) Clamp(advertised uint32) uint32 {
	if advertised < i.Version {
		return advertised
	}
	return i.Version
}

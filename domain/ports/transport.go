package ports

import (
	"context"

	"github.com/mavrogato/othones/domain/entities"
)

// Trampoline is the fixed-signature adapter a transport invokes for one event
// slot. ctx is the listener block registered with the object; args are the
// event's arguments decoded according to the slot's signature.
type Trampoline func(ctx any, args []entities.Arg) error

// EventSlot is one entry of a kind's event table, indexed by opcode.
type EventSlot struct {
	Trampoline Trampoline
	Name       string
	Signature  string
}

// Transport is the connection a proxy lives on. Implementations deliver
// events synchronously from Pump and are not safe for concurrent use.
type Transport interface {
	// NewID allocates a client-side object id for an object of iface.
	NewID(iface entities.Interface) entities.ObjectID

	// Register routes events for id to the slots, passing ctx to each
	// trampoline. It fails if id already has a listener.
	Register(id entities.ObjectID, slots []EventSlot, ctx any) error

	// Unregister removes the routing entry for id. Events that arrive for
	// id afterwards are dropped.
	Unregister(id entities.ObjectID)

	// Send queues a request. Requests are written on Flush or Pump.
	Send(msg entities.Message) error

	// Flush writes queued requests.
	Flush() error

	// Pump flushes, reads at least one message and dispatches everything
	// read. It returns a *errors.TransportError once the connection is gone.
	Pump(ctx context.Context) error

	// Close shuts the connection down.
	Close() error
}

package proxy

import (
	"fmt"
	"sync"

	"github.com/mavrogato/othones/domain/entities"
	"github.com/mavrogato/othones/domain/ports"
	"github.com/mavrogato/othones/wireformat"
	"golang.org/x/sys/unix"
)

// Kind is satisfied by capability kinds. Descriptor must work on the zero
// value and always return the same descriptor.
type Kind[K any] interface {
	Descriptor() *Descriptor[K]
}

// ReleaseFunc gives up the object id on the connection. It is called at
// most once per object.
type ReleaseFunc func(t ports.Transport, id entities.ObjectID) error

// Descriptor is the static description of a capability kind.
type Descriptor[K any] struct {
	Interface entities.Interface

	// Release is the kind's destructor. Nil behaves like Forget.
	Release ReleaseFunc

	// Events are indexed by opcode.
	Events []Event[K]

	once  sync.Once
	slots []ports.EventSlot
}

// Slots returns the kind's trampoline table, built on first use.
func (d *Descriptor[K]) Slots() []ports.EventSlot {
	d.once.Do(func() {
		d.slots = make([]ports.EventSlot, len(d.Events))
		for i, ev := range d.Events {
			d.slots[i] = ports.EventSlot{
				Trampoline: ev.trampoline,
				Name:       ev.Name,
				Signature:  ev.Signature,
			}
		}
	})
	return d.slots
}

// Opcode returns the opcode of the named event.
func (d *Descriptor[K]) Opcode(name string) (uint16, bool) {
	for i, ev := range d.Events {
		if ev.Name == name {
			return uint16(i), true
		}
	}
	return 0, false
}

// Models lists the kind's events for introspection.
func (d *Descriptor[K]) Models() []ports.EventModel {
	models := make([]ports.EventModel, len(d.Events))
	for i, ev := range d.Events {
		models[i] = ports.EventModel{Model: ev.Model, Name: ev.Name, Signature: ev.Signature}
	}
	return models
}

func (d *Descriptor[K]) release(t ports.Transport, id entities.ObjectID) error {
	if d.Release == nil {
		return nil
	}
	return d.Release(t, id)
}

// Event is one entry of a kind's event table.
type Event[K any] struct {
	// Model is the zero value of the event's struct.
	Model any

	Name      string
	Signature string

	trampoline ports.Trampoline
}

// NewEvent declares an event whose arguments decode into E. slot selects
// the callback field of the listener block; it is evaluated on every
// delivery, so a callback installed between two events sees the second.
func NewEvent[K, E any](name string, slot func(*K) func(E)) Event[K] {
	var zero E
	return Event[K]{
		Model:     zero,
		Name:      name,
		Signature: wireformat.SignatureOf[E](),
		trampoline: func(ctx any, args []entities.Arg) error {
			block, ok := ctx.(*K)
			if !ok {
				return fmt.Errorf("proxy: event %s delivered with %T, want %T", name, ctx, block)
			}
			fn := slot(block)
			if fn == nil {
				// Nobody takes ownership of the descriptors.
				closeFDs(args)
				return nil
			}
			var ev E
			if err := wireformat.Unpack(args, &ev); err != nil {
				return fmt.Errorf("proxy: event %s: %w", name, err)
			}
			fn(ev)
			return nil
		},
	}
}

func closeFDs(args []entities.Arg) {
	for _, fd := range (entities.Message{Args: args}).FDs() {
		_ = unix.Close(fd)
	}
}

// DestroyRequest returns a release op that sends the kind's destructor
// request, which carries no arguments.
func DestroyRequest(opcode uint16) ReleaseFunc {
	return func(t ports.Transport, id entities.ObjectID) error {
		return t.Send(entities.Message{Sender: id, Opcode: opcode})
	}
}

// Forget is the release op of kinds the client cannot destroy, such as
// objects that the server destroys on its own. Only local state is dropped.
func Forget(ports.Transport, entities.ObjectID) error {
	return nil
}

// DescriptorOf returns the descriptor of kind K.
func DescriptorOf[K Kind[K]]() *Descriptor[K] {
	var k K
	return k.Descriptor()
}

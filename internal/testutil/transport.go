package testutil

import (
	"context"
	"fmt"

	"github.com/mavrogato/othones/domain/entities"
	"github.com/mavrogato/othones/domain/errors"
	"github.com/mavrogato/othones/domain/ports"
	"github.com/mavrogato/othones/wireformat"
)

type route struct {
	ctx   any
	slots []ports.EventSlot
}

type queuedEvent struct {
	args   []entities.Arg
	target entities.ObjectID
	opcode uint16
}

// FakeTransport is an in-memory ports.Transport. It records registrations
// and requests and delivers events injected by the test.
type FakeTransport struct {
	// RegisterErr, when set, is returned by every Register call.
	RegisterErr error

	// SendErr, when set, is returned by every Send call.
	SendErr error

	// Sent holds every request in order.
	Sent []entities.Message

	// Unregistered holds every id passed to Unregister, in order.
	Unregistered []entities.ObjectID

	// Dropped counts events addressed to ids without a route.
	Dropped int

	// OnSend, when set, observes every request after it is recorded. It may
	// queue replies.
	OnSend func(msg entities.Message)

	routes map[entities.ObjectID]route
	queue  []queuedEvent
	nextID entities.ObjectID
	closed bool
}

var _ ports.Transport = (*FakeTransport)(nil)

// NewFakeTransport returns an empty fake. Allocated ids start at 2.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{
		routes: make(map[entities.ObjectID]route),
		nextID: entities.DisplayID,
	}
}

// NewID implements ports.Transport.
func (f *FakeTransport) NewID(entities.Interface) entities.ObjectID {
	f.nextID++
	return f.nextID
}

// Register implements ports.Transport.
func (f *FakeTransport) Register(id entities.ObjectID, slots []ports.EventSlot, ctx any) error {
	if f.RegisterErr != nil {
		return f.RegisterErr
	}
	if _, ok := f.routes[id]; ok {
		return errors.ErrAlreadyRegistered
	}
	f.routes[id] = route{ctx: ctx, slots: slots}
	return nil
}

// Unregister implements ports.Transport.
func (f *FakeTransport) Unregister(id entities.ObjectID) {
	delete(f.routes, id)
	f.Unregistered = append(f.Unregistered, id)
}

// Send implements ports.Transport.
func (f *FakeTransport) Send(msg entities.Message) error {
	if f.closed {
		return &errors.TransportError{Operation: "send", Err: errors.ErrConnectionClosed}
	}
	if f.SendErr != nil {
		return f.SendErr
	}
	f.Sent = append(f.Sent, msg)
	if f.OnSend != nil {
		f.OnSend(msg)
	}
	return nil
}

// callbackDone mirrors wl_callback.done.
type callbackDone struct {
	Data uint32
}

// AnswerSync makes the fake answer every wl_display.sync with a queued
// wl_callback.done, so roundtrips complete on the next Pump. A previously
// installed OnSend keeps running first.
func (f *FakeTransport) AnswerSync() {
	prev := f.OnSend
	f.OnSend = func(msg entities.Message) {
		if prev != nil {
			prev(msg)
		}
		if msg.Sender != entities.DisplayID || msg.Opcode != 0 || len(msg.Args) == 0 {
			return
		}
		_ = f.Queue(entities.ObjectID(msg.Args[0].Uint), 0, callbackDone{})
	}
}

// Flush implements ports.Transport.
func (f *FakeTransport) Flush() error {
	return nil
}

// Pump delivers every queued event, in order.
func (f *FakeTransport) Pump(ctx context.Context) error {
	if f.closed {
		return &errors.TransportError{Operation: "pump", Err: errors.ErrConnectionClosed}
	}
	for len(f.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev := f.queue[0]
		f.queue = f.queue[1:]
		if err := f.deliver(ev); err != nil {
			return err
		}
	}
	return nil
}

// Close implements ports.Transport.
func (f *FakeTransport) Close() error {
	f.closed = true
	return nil
}

// Registered reports whether id currently has a route.
func (f *FakeTransport) Registered(id entities.ObjectID) bool {
	_, ok := f.routes[id]
	return ok
}

// Context returns the listener context registered for id.
func (f *FakeTransport) Context(id entities.ObjectID) any {
	return f.routes[id].ctx
}

// SentTo returns the requests sent on id.
func (f *FakeTransport) SentTo(id entities.ObjectID) []entities.Message {
	var out []entities.Message
	for _, m := range f.Sent {
		if m.Sender == id {
			out = append(out, m)
		}
	}
	return out
}

// Count returns how many requests with opcode were sent on id.
func (f *FakeTransport) Count(id entities.ObjectID, opcode uint16) int {
	n := 0
	for _, m := range f.Sent {
		if m.Sender == id && m.Opcode == opcode {
			n++
		}
	}
	return n
}

// Created returns the new_id of the last request with opcode sent on id.
func (f *FakeTransport) Created(id entities.ObjectID, opcode uint16) (entities.ObjectID, bool) {
	for i := len(f.Sent) - 1; i >= 0; i-- {
		m := f.Sent[i]
		if m.Sender != id || m.Opcode != opcode {
			continue
		}
		for _, a := range m.Args {
			if a.Type == entities.ArgNewID {
				return entities.ObjectID(a.Uint), true
			}
		}
	}
	return 0, false
}

// Emit delivers event to id immediately. event is an event struct packed
// with wireformat.Pack.
func (f *FakeTransport) Emit(id entities.ObjectID, opcode uint16, event any) error {
	args, err := wireformat.Pack(event)
	if err != nil {
		return err
	}
	return f.deliver(queuedEvent{target: id, opcode: opcode, args: args})
}

// Queue stores event for the next Pump.
func (f *FakeTransport) Queue(id entities.ObjectID, opcode uint16, event any) error {
	args, err := wireformat.Pack(event)
	if err != nil {
		return err
	}
	f.queue = append(f.queue, queuedEvent{target: id, opcode: opcode, args: args})
	return nil
}

func (f *FakeTransport) deliver(ev queuedEvent) error {
	r, ok := f.routes[ev.target]
	if !ok {
		f.Dropped++
		return nil
	}
	if int(ev.opcode) >= len(r.slots) {
		return fmt.Errorf("testutil: object %d has no event %d", ev.target, ev.opcode)
	}
	return r.slots[ev.opcode].Trampoline(r.ctx, ev.args)
}

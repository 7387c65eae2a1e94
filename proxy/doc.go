// Package proxy owns remote objects and routes their events.
//
// A capability kind is a Go struct type whose fields are the kind's event
// callbacks. The same struct doubles as the per-object listener block:
//
//	type Seat struct {
//		Capabilities func(SeatCapabilities)
//		Name         func(SeatName)
//	}
//
//	func (Seat) Descriptor() *proxy.Descriptor[Seat] { return seatDescriptor }
//
// Proxy[K] holds exactly one object id and releases it exactly once. Events
// addressed to the object are decoded into their typed structs and handed to
// whatever closure currently occupies the slot; a nil slot ignores the event.
package proxy

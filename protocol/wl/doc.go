// Package wl declares the core Wayland capability kinds.
//
// Each kind type is also the listener block for its objects: assign a
// field through proxy.Proxy.Listen to receive that event. Requests are
// plain functions taking the target proxy; requests that create objects
// return the new owning proxy.
package wl

package wl

import (
	"github.com/mavrogato/othones/domain/entities"
	"github.com/mavrogato/othones/proxy"
)

// wl_compositor requests.
const (
	compositorCreateSurface = 0
	compositorCreateRegion  = 1
)

// Compositor creates surfaces and regions.
type Compositor struct{}

var compositorDescriptor = &proxy.Descriptor[Compositor]{
	Interface: entities.Interface{Name: "wl_compositor", Version: 4},
	Release:   proxy.Forget,
}

func (Compositor) Descriptor() *proxy.Descriptor[Compositor] { return compositorDescriptor }

// CreateSurface creates a new surface.
func CreateSurface(c *proxy.Proxy[Compositor]) (*proxy.Proxy[Surface], error) {
	return proxy.NewChild[Surface](c, compositorCreateSurface)
}

// CreateRegion creates a new region.
func CreateRegion(c *proxy.Proxy[Compositor]) (*proxy.Proxy[Region], error) {
	return proxy.NewChild[Region](c, compositorCreateRegion)
}

// wl_surface requests.
const (
	surfaceDestroy         = 0
	surfaceAttach          = 1
	surfaceDamage          = 2
	surfaceFrame           = 3
	surfaceSetOpaqueRegion = 4
	surfaceSetInputRegion  = 5
	surfaceCommit          = 6
	surfaceSetBufferScale  = 8
	surfaceDamageBuffer    = 9
)

// SurfaceEnter reports that the surface became visible on an output.
type SurfaceEnter struct {
	Output entities.ObjectID
}

// SurfaceLeave reports that the surface left an output.
type SurfaceLeave struct {
	Output entities.ObjectID
}

// SurfacePreferredBufferScale suggests a buffer scale.
type SurfacePreferredBufferScale struct {
	Factor int32
}

// SurfacePreferredBufferTransform suggests a buffer transform.
type SurfacePreferredBufferTransform struct {
	Transform uint32
}

// Surface is a rectangular area that displays a buffer.
type Surface struct {
	Enter                    func(SurfaceEnter)
	Leave                    func(SurfaceLeave)
	PreferredBufferScale     func(SurfacePreferredBufferScale)
	PreferredBufferTransform func(SurfacePreferredBufferTransform)
}

var surfaceDescriptor = &proxy.Descriptor[Surface]{
	Interface: entities.Interface{Name: "wl_surface", Version: 6},
	Release:   proxy.DestroyRequest(surfaceDestroy),
	Events: []proxy.Event[Surface]{
		proxy.NewEvent("enter", func(l *Surface) func(SurfaceEnter) { return l.Enter }),
		proxy.NewEvent("leave", func(l *Surface) func(SurfaceLeave) { return l.Leave }),
		proxy.NewEvent("preferred_buffer_scale", func(l *Surface) func(SurfacePreferredBufferScale) { return l.PreferredBufferScale }),
		proxy.NewEvent("preferred_buffer_transform", func(l *Surface) func(SurfacePreferredBufferTransform) { return l.PreferredBufferTransform }),
	},
}

func (Surface) Descriptor() *proxy.Descriptor[Surface] { return surfaceDescriptor }

// Attach sets the surface's pending buffer. A nil buffer detaches.
func Attach(s *proxy.Proxy[Surface], b *proxy.Proxy[Buffer], x, y int32) error {
	return s.Send(surfaceAttach, proxy.NullableArg(b), entities.Int(x), entities.Int(y))
}

// Damage marks a region of the surface, in surface coordinates, as changed.
func Damage(s *proxy.Proxy[Surface], x, y, width, height int32) error {
	return s.Send(surfaceDamage, entities.Int(x), entities.Int(y), entities.Int(width), entities.Int(height))
}

// DamageBuffer marks a region of the surface, in buffer coordinates, as
// changed. Requires version 4.
func DamageBuffer(s *proxy.Proxy[Surface], x, y, width, height int32) error {
	return s.Send(surfaceDamageBuffer, entities.Int(x), entities.Int(y), entities.Int(width), entities.Int(height))
}

// Frame requests a callback for the next frame.
func Frame(s *proxy.Proxy[Surface]) (*proxy.Proxy[Callback], error) {
	return proxy.NewChild[Callback](s, surfaceFrame)
}

// SetOpaqueRegion sets the opaque region. A nil region clears it.
func SetOpaqueRegion(s *proxy.Proxy[Surface], r *proxy.Proxy[Region]) error {
	return s.Send(surfaceSetOpaqueRegion, proxy.NullableArg(r))
}

// SetInputRegion sets the input region. A nil region means the whole
// surface.
func SetInputRegion(s *proxy.Proxy[Surface], r *proxy.Proxy[Region]) error {
	return s.Send(surfaceSetInputRegion, proxy.NullableArg(r))
}

// SetBufferScale sets the buffer scale. Requires version 3.
func SetBufferScale(s *proxy.Proxy[Surface], scale int32) error {
	return s.Send(surfaceSetBufferScale, entities.Int(scale))
}

// Commit applies the pending state.
func Commit(s *proxy.Proxy[Surface]) error {
	return s.Send(surfaceCommit)
}

// wl_region requests.
const (
	regionDestroy  = 0
	regionAdd      = 1
	regionSubtract = 2
)

// Region is a set of rectangles.
type Region struct{}

var regionDescriptor = &proxy.Descriptor[Region]{
	Interface: entities.Interface{Name: "wl_region", Version: 1},
	Release:   proxy.DestroyRequest(regionDestroy),
}

func (Region) Descriptor() *proxy.Descriptor[Region] { return regionDescriptor }

// Add adds a rectangle to the region.
func Add(r *proxy.Proxy[Region], x, y, width, height int32) error {
	return r.Send(regionAdd, entities.Int(x), entities.Int(y), entities.Int(width), entities.Int(height))
}

// Subtract removes a rectangle from the region.
func Subtract(r *proxy.Proxy[Region], x, y, width, height int32) error {
	return r.Send(regionSubtract, entities.Int(x), entities.Int(y), entities.Int(width), entities.Int(height))
}

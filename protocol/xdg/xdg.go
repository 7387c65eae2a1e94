// Package xdg declares the xdg-shell capability kinds used to turn a
// wl_surface into a desktop window.
package xdg

import (
	"github.com/mavrogato/othones/domain/entities"
	"github.com/mavrogato/othones/domain/ports"
	"github.com/mavrogato/othones/protocol/wl"
	"github.com/mavrogato/othones/proxy"
)

// xdg_wm_base requests.
const (
	wmBaseDestroy       = 0
	wmBaseGetXdgSurface = 2
	wmBasePong          = 3
)

// WmBasePing must be answered with Pong.
type WmBasePing struct {
	Serial uint32
}

// WmBase is the xdg-shell global.
type WmBase struct {
	Ping func(WmBasePing)
}

var wmBaseDescriptor = &proxy.Descriptor[WmBase]{
	Interface: entities.Interface{Name: "xdg_wm_base", Version: 5},
	Release:   proxy.DestroyRequest(wmBaseDestroy),
	Events: []proxy.Event[WmBase]{
		proxy.NewEvent("ping", func(l *WmBase) func(WmBasePing) { return l.Ping }),
	},
}

func (WmBase) Descriptor() *proxy.Descriptor[WmBase] { return wmBaseDescriptor }

// Pong answers a ping.
func Pong(w *proxy.Proxy[WmBase], serial uint32) error {
	return w.Send(wmBasePong, entities.Uint(serial))
}

// GetXdgSurface assigns the xdg_surface role data to s.
func GetXdgSurface(w *proxy.Proxy[WmBase], s *proxy.Proxy[wl.Surface]) (*proxy.Proxy[Surface], error) {
	arg, err := proxy.ObjectArg(s)
	if err != nil {
		return nil, err
	}
	return proxy.NewChild[Surface](w, wmBaseGetXdgSurface, arg)
}

// xdg_surface requests.
const (
	surfaceDestroy           = 0
	surfaceGetToplevel       = 1
	surfaceSetWindowGeometry = 3
	surfaceAckConfigure      = 4
)

// SurfaceConfigure ends a configure sequence; it must be acknowledged.
type SurfaceConfigure struct {
	Serial uint32
}

// Surface is the desktop-window part of a wl_surface.
type Surface struct {
	Configure func(SurfaceConfigure)
}

var surfaceDescriptor = &proxy.Descriptor[Surface]{
	Interface: entities.Interface{Name: "xdg_surface", Version: 5},
	Release:   proxy.DestroyRequest(surfaceDestroy),
	Events: []proxy.Event[Surface]{
		proxy.NewEvent("configure", func(l *Surface) func(SurfaceConfigure) { return l.Configure }),
	},
}

func (Surface) Descriptor() *proxy.Descriptor[Surface] { return surfaceDescriptor }

// GetToplevel gives the surface the toplevel role.
func GetToplevel(s *proxy.Proxy[Surface]) (*proxy.Proxy[Toplevel], error) {
	return proxy.NewChild[Toplevel](s, surfaceGetToplevel)
}

// AckConfigure acknowledges a configure event.
func AckConfigure(s *proxy.Proxy[Surface], serial uint32) error {
	return s.Send(surfaceAckConfigure, entities.Uint(serial))
}

// SetWindowGeometry sets the visible bounds of the window.
func SetWindowGeometry(s *proxy.Proxy[Surface], x, y, width, height int32) error {
	return s.Send(surfaceSetWindowGeometry, entities.Int(x), entities.Int(y), entities.Int(width), entities.Int(height))
}

// xdg_toplevel requests.
const (
	toplevelDestroy     = 0
	toplevelSetTitle    = 2
	toplevelSetAppID    = 3
	toplevelSetMaxSize  = 7
	toplevelSetMinSize  = 8
	toplevelSetMaximize = 9
	toplevelUnsetMax    = 10
	toplevelSetMinimize = 13
)

// ToplevelState is one entry of the configure state array.
type ToplevelState uint32

const (
	ToplevelStateMaximized  ToplevelState = 1
	ToplevelStateFullscreen ToplevelState = 2
	ToplevelStateResizing   ToplevelState = 3
	ToplevelStateActivated  ToplevelState = 4
)

// ToplevelConfigure suggests a size. Zero width or height leaves the choice
// to the client.
type ToplevelConfigure struct {
	Width  int32
	Height int32
	States []uint32
}

// Has reports whether the configure carries state s.
func (c ToplevelConfigure) Has(s ToplevelState) bool {
	for _, v := range c.States {
		if ToplevelState(v) == s {
			return true
		}
	}
	return false
}

// ToplevelClose asks the client to close the window.
type ToplevelClose struct{}

// ToplevelConfigureBounds suggests the largest size the toplevel should use.
type ToplevelConfigureBounds struct {
	Width  int32
	Height int32
}

// ToplevelWmCapabilities lists the window management actions the compositor supports.
type ToplevelWmCapabilities struct {
	Capabilities []uint32
}

// Toplevel is a regular desktop window.
type Toplevel struct {
	Configure       func(ToplevelConfigure)
	Close           func(ToplevelClose)
	ConfigureBounds func(ToplevelConfigureBounds)
	WmCapabilities  func(ToplevelWmCapabilities)
}

var toplevelDescriptor = &proxy.Descriptor[Toplevel]{
	Interface: entities.Interface{Name: "xdg_toplevel", Version: 5},
	Release:   proxy.DestroyRequest(toplevelDestroy),
	Events: []proxy.Event[Toplevel]{
		proxy.NewEvent("configure", func(l *Toplevel) func(ToplevelConfigure) { return l.Configure }),
		proxy.NewEvent("close", func(l *Toplevel) func(ToplevelClose) { return l.Close }),
		proxy.NewEvent("configure_bounds", func(l *Toplevel) func(ToplevelConfigureBounds) { return l.ConfigureBounds }),
		proxy.NewEvent("wm_capabilities", func(l *Toplevel) func(ToplevelWmCapabilities) { return l.WmCapabilities }),
	},
}

func (Toplevel) Descriptor() *proxy.Descriptor[Toplevel] { return toplevelDescriptor }

// SetTitle sets the window title.
func SetTitle(t *proxy.Proxy[Toplevel], title string) error {
	return t.Send(toplevelSetTitle, entities.String(title))
}

// SetAppID sets the application id.
func SetAppID(t *proxy.Proxy[Toplevel], appID string) error {
	return t.Send(toplevelSetAppID, entities.String(appID))
}

// SetMinSize sets the minimum window size. Zero means unlimited.
func SetMinSize(t *proxy.Proxy[Toplevel], width, height int32) error {
	return t.Send(toplevelSetMinSize, entities.Int(width), entities.Int(height))
}

// SetMaxSize sets the maximum window size. Zero means unlimited.
func SetMaxSize(t *proxy.Proxy[Toplevel], width, height int32) error {
	return t.Send(toplevelSetMaxSize, entities.Int(width), entities.Int(height))
}

// SetMaximized asks the compositor to maximize the window.
func SetMaximized(t *proxy.Proxy[Toplevel]) error {
	return t.Send(toplevelSetMaximize)
}

// UnsetMaximized restores a maximized window.
func UnsetMaximized(t *proxy.Proxy[Toplevel]) error {
	return t.Send(toplevelUnsetMax)
}

// SetMinimized asks the compositor to minimize the window.
func SetMinimized(t *proxy.Proxy[Toplevel]) error {
	return t.Send(toplevelSetMinimize)
}

// Describe adds the xdg-shell kinds to cat.
func Describe(cat ports.KindCatalog) error {
	for _, describe := range []func(ports.KindCatalog) error{
		proxy.Describe[WmBase],
		proxy.Describe[Surface],
		proxy.Describe[Toplevel],
	} {
		if err := describe(cat); err != nil {
			return err
		}
	}
	return nil
}

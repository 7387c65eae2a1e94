// Package window runs one xdg toplevel drawn from shared memory. It binds
// the compositor's globals as they are advertised, keeps the seat's input
// devices in step with its capabilities and answers the shell's ping and
// configure traffic.
package window

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mavrogato/othones/domain/ports"
	"github.com/mavrogato/othones/infrastructure/shm"
	"github.com/mavrogato/othones/protocol/wl"
	"github.com/mavrogato/othones/protocol/xdg"
	"github.com/mavrogato/othones/proxy"
	"golang.org/x/sys/unix"
)

// ErrMissingGlobal is returned by Setup when a required global is not
// advertised.
var ErrMissingGlobal = errors.New("compositor does not advertise required global")

const (
	// keyEscape is the evdev code of the Escape key.
	keyEscape = 1

	defaultWidth  = 640
	defaultHeight = 480
)

type config struct {
	logger  *slog.Logger
	title   string
	appID   string
	shmOpts []shm.Option
	width   int32
	height  int32
	color   uint32
}

// Option configures an App.
type Option func(*config)

// WithTitle sets the toplevel title.
func WithTitle(title string) Option {
	return func(c *config) {
		c.title = title
	}
}

// WithAppID sets the toplevel application id.
func WithAppID(appID string) Option {
	return func(c *config) {
		c.appID = appID
	}
}

// WithSize fixes the initial size. Zero dimensions use a quarter of the
// smallest output mode.
func WithSize(width, height int32) Option {
	return func(c *config) {
		c.width, c.height = width, height
	}
}

// WithColor sets the XRGB8888 fill color.
func WithColor(color uint32) Option {
	return func(c *config) {
		c.color = color
	}
}

// WithLogger sets the logger. It defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithShmOptions passes options to every buffer allocation.
func WithShmOptions(opts ...shm.Option) Option {
	return func(c *config) {
		c.shmOpts = append(c.shmOpts, opts...)
	}
}

// App owns every object of the window. Proxies held by value are empty
// until the matching global shows up.
type App struct {
	transport ports.Transport
	log       *slog.Logger
	globals   *Globals
	cfg       config
	err       error

	display    *proxy.Proxy[wl.Display]
	registry   *proxy.Proxy[wl.Registry]
	compositor proxy.Proxy[wl.Compositor]
	shmGlobal  proxy.Proxy[wl.Shm]
	seat       proxy.Proxy[wl.Seat]
	pointer    proxy.Proxy[wl.Pointer]
	keyboard   proxy.Proxy[wl.Keyboard]
	touch      proxy.Proxy[wl.Touch]
	wmBase     proxy.Proxy[xdg.WmBase]
	outputs    map[uint32]*proxy.Proxy[wl.Output]

	surface  *proxy.Proxy[wl.Surface]
	xsurface *proxy.Proxy[xdg.Surface]
	toplevel *proxy.Proxy[xdg.Toplevel]
	frame    proxy.Proxy[wl.Callback]
	buffer   *shm.Buffer

	last     time.Time
	frames   uint64
	seatName uint32

	width, height int32
	pendingW      int32
	pendingH      int32
	modeW, modeH  int32
	configured    bool
	frameDone     bool
	redraw        bool
	quit          bool
}

// New prepares an App on t. Nothing is sent until Setup.
func New(t ports.Transport, opts ...Option) *App {
	cfg := config{title: "othones", appID: "othones", color: 0xff000000}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &App{
		transport: t,
		cfg:       cfg,
		log:       cfg.logger,
		globals:   NewGlobals(),
		outputs:   make(map[uint32]*proxy.Proxy[wl.Output]),
	}
}

// Globals returns the globals advertised so far.
func (a *App) Globals() *Globals {
	return a.globals
}

// Size is the current buffer size.
func (a *App) Size() (width, height int32) {
	return a.width, a.height
}

// Frames is the number of frames committed.
func (a *App) Frames() uint64 {
	return a.frames
}

// Done reports whether the user or the compositor asked to quit.
func (a *App) Done() bool {
	return a.quit
}

// Discover connects the registry and waits until the initial globals and
// their first events have arrived.
func (a *App) Discover(ctx context.Context) error {
	display, err := wl.NewDisplay(a.transport)
	if err != nil {
		return fmt.Errorf("window: wrap display: %w", err)
	}
	a.display = display

	registry, err := wl.GetRegistry(display)
	if err != nil {
		return fmt.Errorf("window: get registry: %w", err)
	}
	a.registry = registry
	if err := registry.Listen(func(l *wl.Registry) {
		l.Global = a.onGlobal
		l.GlobalRemove = a.onGlobalRemove
	}); err != nil {
		return err
	}

	// The first roundtrip collects globals, the second the events of the
	// objects bound in response.
	for range 2 {
		if err := wl.Roundtrip(ctx, display); err != nil {
			return fmt.Errorf("window: roundtrip: %w", err)
		}
		if a.err != nil {
			return a.err
		}
	}
	return nil
}

// Setup discovers globals and maps the window. It fails with
// ErrMissingGlobal when the compositor lacks wl_compositor, wl_shm or
// xdg_wm_base.
func (a *App) Setup(ctx context.Context) error {
	if err := a.Discover(ctx); err != nil {
		return err
	}
	for _, iface := range []string{nameOf[wl.Compositor](), nameOf[wl.Shm](), nameOf[xdg.WmBase]()} {
		if _, err := a.globals.Require(iface); err != nil {
			return fmt.Errorf("window: %w", err)
		}
	}

	a.width, a.height = a.initialSize()

	surface, err := wl.CreateSurface(&a.compositor)
	if err != nil {
		return fmt.Errorf("window: create surface: %w", err)
	}
	a.surface = surface

	xsurface, err := xdg.GetXdgSurface(&a.wmBase, surface)
	if err != nil {
		return fmt.Errorf("window: get xdg_surface: %w", err)
	}
	a.xsurface = xsurface
	if err := xsurface.Listen(func(l *xdg.Surface) {
		l.Configure = a.onSurfaceConfigure
	}); err != nil {
		return err
	}

	buffer, err := shm.Allocate(&a.shmGlobal, a.width, a.height, wl.ShmFormatXRGB8888, a.cfg.shmOpts...)
	if err != nil {
		return fmt.Errorf("window: allocate buffer: %w", err)
	}
	a.buffer = buffer

	toplevel, err := xdg.GetToplevel(xsurface)
	if err != nil {
		return fmt.Errorf("window: get toplevel: %w", err)
	}
	a.toplevel = toplevel
	if err := toplevel.Listen(func(l *xdg.Toplevel) {
		l.Configure = a.onToplevelConfigure
		l.Close = func(xdg.ToplevelClose) {
			a.log.Info("window: closed by compositor")
			a.quit = true
		}
	}); err != nil {
		return err
	}
	if err := xdg.SetTitle(toplevel, a.cfg.title); err != nil {
		return err
	}
	if a.cfg.appID != "" {
		if err := xdg.SetAppID(toplevel, a.cfg.appID); err != nil {
			return err
		}
	}

	// The initial commit carries no buffer; the compositor answers with
	// the first configure.
	if err := wl.Commit(surface); err != nil {
		return err
	}
	a.log.Info("window: mapped", "surface", surface.String(), "width", a.width, "height", a.height)
	return a.transport.Flush()
}

// Run dispatches events and redraws on every frame callback until the
// window is closed, ctx is done or the connection fails.
func (a *App) Run(ctx context.Context) error {
	a.last = time.Now()
	for {
		if a.err != nil {
			return a.err
		}
		if a.quit {
			return nil
		}
		if a.frameDone {
			a.frame.Close()
			a.frameDone = false
			a.redraw = true
		}
		if a.configured && a.redraw && a.frame.Empty() {
			if err := a.draw(); err != nil {
				return err
			}
		}
		if err := a.transport.Pump(ctx); err != nil {
			return err
		}
	}
}

// Close releases every object in reverse order of creation. The
// connection itself stays open.
func (a *App) Close() {
	a.frame.Close()
	if a.buffer != nil {
		a.buffer.Close()
		a.buffer = nil
	}
	a.toplevel.Close()
	a.xsurface.Close()
	a.surface.Close()
	for name, out := range a.outputs {
		out.Close()
		delete(a.outputs, name)
	}
	a.touch.Close()
	a.keyboard.Close()
	a.pointer.Close()
	a.seat.Close()
	a.wmBase.Close()
	a.shmGlobal.Close()
	a.compositor.Close()
	a.registry.Close()
	a.display.Close()
}

func (a *App) draw() error {
	if a.buffer.Busy() {
		// Redrawn once the compositor releases it.
		return nil
	}
	fill(a.buffer.Pixels(), a.cfg.color)

	frame, err := wl.Frame(a.surface)
	if err != nil {
		return err
	}
	a.frame.Take(frame)
	if err := a.frame.Listen(func(l *wl.Callback) {
		l.Done = func(wl.CallbackDone) { a.frameDone = true }
	}); err != nil {
		return err
	}

	if err := a.buffer.Attach(a.surface); err != nil {
		return err
	}
	if err := a.damage(); err != nil {
		return err
	}
	if err := wl.Commit(a.surface); err != nil {
		return err
	}
	a.redraw = false
	a.frames++

	now := time.Now()
	if elapsed := now.Sub(a.last); elapsed > 0 {
		a.log.Debug("window: frame", "n", a.frames, "fps", 1/elapsed.Seconds())
	}
	a.last = now
	return a.transport.Flush()
}

// damage marks the whole buffer dirty. damage_buffer needs wl_surface v4.
func (a *App) damage() error {
	if a.surface.Version() >= 4 {
		return wl.DamageBuffer(a.surface, 0, 0, a.width, a.height)
	}
	return wl.Damage(a.surface, 0, 0, a.width, a.height)
}

// fill paints every pixel with color.
func fill(pixels []uint32, color uint32) {
	for i := range pixels {
		pixels[i] = color
	}
}

func (a *App) initialSize() (int32, int32) {
	w, h := a.cfg.width, a.cfg.height
	if w > 0 && h > 0 {
		return w, h
	}
	if a.modeW > 0 && a.modeH > 0 {
		return max(a.modeW/4, 1), max(a.modeH/4, 1)
	}
	return defaultWidth, defaultHeight
}

func (a *App) resize(width, height int32) error {
	if width == a.width && height == a.height {
		return nil
	}
	buffer, err := shm.Allocate(&a.shmGlobal, width, height, wl.ShmFormatXRGB8888, a.cfg.shmOpts...)
	if err != nil {
		return fmt.Errorf("window: resize to %dx%d: %w", width, height, err)
	}
	a.buffer.Close()
	a.buffer = buffer
	a.width, a.height = width, height
	a.log.Debug("window: resized", "width", width, "height", height)
	return nil
}

// fail records the first error raised inside a listener; Run returns it.
func (a *App) fail(err error) {
	if err != nil && a.err == nil {
		a.err = err
	}
}

func (a *App) onGlobal(g wl.RegistryGlobal) {
	if err := a.globals.Add(g.Entity()); err != nil {
		a.log.Warn("window: ignoring global", "error", err)
		return
	}
	var err error
	switch g.Interface {
	case nameOf[wl.Compositor]():
		err = bindInto(a, &a.compositor, g)
	case nameOf[wl.Shm]():
		err = bindInto(a, &a.shmGlobal, g)
	case nameOf[wl.Seat]():
		if err = bindInto(a, &a.seat, g); err == nil {
			a.seatName = g.Name
			err = a.seat.Listen(func(l *wl.Seat) {
				l.Capabilities = a.onCapabilities
			})
		}
	case nameOf[xdg.WmBase]():
		if err = bindInto(a, &a.wmBase, g); err == nil {
			err = a.wmBase.Listen(func(l *xdg.WmBase) {
				l.Ping = func(p xdg.WmBasePing) { a.fail(xdg.Pong(&a.wmBase, p.Serial)) }
			})
		}
	case nameOf[wl.Output]():
		err = a.bindOutput(g)
	}
	a.fail(err)
}

func (a *App) onGlobalRemove(r wl.RegistryGlobalRemove) {
	g, ok := a.globals.Remove(r.Name)
	if !ok {
		return
	}
	a.log.Debug("window: global removed", "name", g.Name, "interface", g.Interface)
	if out, ok := a.outputs[r.Name]; ok {
		out.Close()
		delete(a.outputs, r.Name)
	}
	if g.Interface == nameOf[wl.Seat]() && r.Name == a.seatName {
		a.touch.Close()
		a.keyboard.Close()
		a.pointer.Close()
		a.seat.Close()
	}
}

func (a *App) bindOutput(g wl.RegistryGlobal) error {
	out, err := wl.Bind[wl.Output](a.registry, g)
	if err != nil {
		return err
	}
	if prev, ok := a.outputs[g.Name]; ok {
		prev.Close()
	}
	a.outputs[g.Name] = out
	return out.Listen(func(l *wl.Output) {
		l.Mode = func(m wl.OutputMode) {
			if m.Flags&wl.OutputModeCurrent == 0 {
				return
			}
			if a.modeW == 0 || m.Width < a.modeW {
				a.modeW = m.Width
			}
			if a.modeH == 0 || m.Height < a.modeH {
				a.modeH = m.Height
			}
		}
	})
}

func (a *App) onCapabilities(c wl.SeatCapabilities) {
	a.log.Debug("window: seat capabilities", "seat", a.seat.String(), "capabilities", uint32(c.Capabilities))

	if c.Capabilities.Has(wl.SeatCapabilityKeyboard) {
		if a.keyboard.Empty() {
			kb, err := wl.GetKeyboard(&a.seat)
			if err != nil {
				a.fail(err)
				return
			}
			a.keyboard.Take(kb)
			a.fail(a.keyboard.Listen(func(l *wl.Keyboard) {
				l.Keymap = func(k wl.KeyboardKeymap) { _ = unix.Close(int(k.FD)) }
				l.Key = a.onKey
			}))
		}
	} else {
		a.keyboard.Close()
	}

	if c.Capabilities.Has(wl.SeatCapabilityPointer) {
		if a.pointer.Empty() {
			p, err := wl.GetPointer(&a.seat)
			if err != nil {
				a.fail(err)
				return
			}
			a.pointer.Take(p)
		}
	} else {
		a.pointer.Close()
	}

	if c.Capabilities.Has(wl.SeatCapabilityTouch) {
		if a.touch.Empty() {
			t, err := wl.GetTouch(&a.seat)
			if err != nil {
				a.fail(err)
				return
			}
			a.touch.Take(t)
		}
	} else {
		a.touch.Close()
	}
}

func (a *App) onKey(k wl.KeyboardKey) {
	if k.Key == keyEscape && k.State == wl.KeyPressed {
		a.log.Info("window: escape pressed")
		a.quit = true
	}
}

func (a *App) onToplevelConfigure(c xdg.ToplevelConfigure) {
	a.pendingW, a.pendingH = c.Width, c.Height
}

func (a *App) onSurfaceConfigure(c xdg.SurfaceConfigure) {
	if a.pendingW > 0 && a.pendingH > 0 {
		if err := a.resize(a.pendingW, a.pendingH); err != nil {
			a.fail(err)
			return
		}
	}
	a.pendingW, a.pendingH = 0, 0
	a.fail(xdg.AckConfigure(a.xsurface, c.Serial))
	a.configured = true
	a.redraw = true
}

func bindInto[K proxy.Kind[K]](a *App, dst *proxy.Proxy[K], g wl.RegistryGlobal) error {
	p, err := wl.Bind[K](a.registry, g)
	if err != nil {
		return err
	}
	dst.Take(p)
	a.log.Debug("window: bound global", "object", dst.String(), "name", g.Name, "version", dst.Version())
	return nil
}

func nameOf[K proxy.Kind[K]]() string {
	return proxy.DescriptorOf[K]().Interface.Name
}

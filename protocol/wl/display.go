package wl

import (
	"context"

	"github.com/mavrogato/othones/domain/entities"
	"github.com/mavrogato/othones/domain/ports"
	"github.com/mavrogato/othones/proxy"
)

// wl_display requests.
const (
	displaySync        = 0
	displayGetRegistry = 1
)

// DisplayError is a fatal error reported by the compositor.
type DisplayError struct {
	ObjectID entities.ObjectID
	Code     uint32
	Message  string
}

// DisplayDeleteID confirms that a client id may be reused.
type DisplayDeleteID struct {
	ID uint32
}

// Display is the connection's root object. The transport handles both
// events itself; listeners here only observe them.
type Display struct {
	Error    func(DisplayError)
	DeleteID func(DisplayDeleteID)
}

var displayDescriptor = &proxy.Descriptor[Display]{
	Interface: entities.Interface{Name: "wl_display", Version: 1},
	Release:   proxy.Forget,
	Events: []proxy.Event[Display]{
		proxy.NewEvent("error", func(l *Display) func(DisplayError) { return l.Error }),
		proxy.NewEvent("delete_id", func(l *Display) func(DisplayDeleteID) { return l.DeleteID }),
	},
}

func (Display) Descriptor() *proxy.Descriptor[Display] { return displayDescriptor }

// NewDisplay wraps the root object of t.
func NewDisplay(t ports.Transport) (*proxy.Proxy[Display], error) {
	return proxy.New[Display](t, entities.DisplayID)
}

// GetRegistry creates the registry object.
func GetRegistry(d *proxy.Proxy[Display]) (*proxy.Proxy[Registry], error) {
	return proxy.NewChild[Registry](d, displayGetRegistry)
}

// Sync asks for a callback that fires once all earlier requests have been
// processed.
func Sync(d *proxy.Proxy[Display]) (*proxy.Proxy[Callback], error) {
	return proxy.NewChild[Callback](d, displaySync)
}

// Roundtrip blocks until the compositor has processed every request sent
// so far, dispatching events in the meantime.
func Roundtrip(ctx context.Context, d *proxy.Proxy[Display]) error {
	t := d.Transport()
	cb, err := Sync(d)
	if err != nil {
		return err
	}
	defer cb.Close()

	done := false
	if err := cb.Listen(func(l *Callback) {
		l.Done = func(CallbackDone) { done = true }
	}); err != nil {
		return err
	}
	for !done {
		if err := t.Pump(ctx); err != nil {
			return err
		}
	}
	return nil
}

// CallbackDone carries the callback's payload, such as a frame timestamp.
type CallbackDone struct {
	Data uint32
}

// Callback is a one-shot notification. The compositor destroys it after
// done.
type Callback struct {
	Done func(CallbackDone)
}

var callbackDescriptor = &proxy.Descriptor[Callback]{
	Interface: entities.Interface{Name: "wl_callback", Version: 1},
	Release:   proxy.Forget,
	Events: []proxy.Event[Callback]{
		proxy.NewEvent("done", func(l *Callback) func(CallbackDone) { return l.Done }),
	},
}

func (Callback) Descriptor() *proxy.Descriptor[Callback] { return callbackDescriptor }

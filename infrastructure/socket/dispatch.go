package socket

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/mavrogato/othones/domain/entities"
	"github.com/mavrogato/othones/domain/ports"
)

// Event is one decoded event on its way to a listener.
type Event struct {
	Args      []entities.Arg
	Interface string
	Name      string
	Signature string
	Object    entities.ObjectID
	Opcode    uint16

	listener   any
	trampoline ports.Trampoline
}

// String formats the event as interface@id.name(args).
func (e *Event) String() string {
	return fmt.Sprintf("%s@%d.%s(%s)", e.Interface, e.Object, e.Name, entities.FormatArgs(e.Args))
}

// DispatchFunc delivers one event.
type DispatchFunc func(ctx context.Context, ev *Event) error

// Middleware wraps a DispatchFunc to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
//
// Example usage:
//
//	countingMiddleware := func(next socket.DispatchFunc) socket.DispatchFunc {
//	    return func(ctx context.Context, ev *socket.Event) error {
//	        count[ev.Interface]++
//	        return next(ctx, ev)
//	    }
//	}
type Middleware func(next DispatchFunc) DispatchFunc

// invoke is the innermost DispatchFunc: it runs the registered trampoline.
func invoke(_ context.Context, ev *Event) error {
	return ev.trampoline(ev.listener, ev.Args)
}

// chain applies mw around base so that mw[0] is outermost.
func chain(base DispatchFunc, mw []Middleware) DispatchFunc {
	wrapped := base
	for i := len(mw) - 1; i >= 0; i-- {
		wrapped = mw[i](wrapped)
	}
	return wrapped
}

// PanicError is returned by PanicRecoveryMiddleware when a listener panics.
type PanicError struct {
	Value any
	Event string
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("socket: listener for %s panicked: %v", e.Event, e.Value)
}

// PanicRecoveryMiddleware returns a middleware that turns a panicking
// listener into a *PanicError returned from Pump.
func PanicRecoveryMiddleware() Middleware {
	return func(next DispatchFunc) DispatchFunc {
		return func(ctx context.Context, ev *Event) (err error) {
			defer func() {
				if r := recover(); r != nil {
					perr := &PanicError{Value: r, Event: ev.Interface + "." + ev.Name, Stack: debug.Stack()}
					slog.ErrorContext(ctx, "socket: listener panicked", "event", perr.Event, "panic", r)
					err = perr
				}
			}()
			return next(ctx, ev)
		}
	}
}

// LoggingMiddleware returns a middleware that logs each delivered event at
// debug level, and failures at warn level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next DispatchFunc) DispatchFunc {
		return func(ctx context.Context, ev *Event) error {
			logger.DebugContext(ctx, "socket: event", "object", ev.Object, "interface", ev.Interface, "event", ev.Name)
			err := next(ctx, ev)
			if err != nil {
				logger.WarnContext(ctx, "socket: event handler failed", "event", ev.String(), "error", err)
			}
			return err
		}
	}
}

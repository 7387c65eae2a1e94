package socket

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/mavrogato/othones/domain/entities"
	"github.com/mavrogato/othones/domain/errors"
	"github.com/mavrogato/othones/domain/ports"
	"github.com/mavrogato/othones/wireformat"
	"golang.org/x/sys/unix"
)

const (
	// maxFDs bounds the descriptors carried by one sendmsg or recvmsg.
	maxFDs = 28

	// bufferSize is the read chunk and the size at which queued requests
	// are flushed early.
	bufferSize = 4 * wireformat.MaxMessageSize
)

// wl_display events, handled by the connection itself.
const (
	displayError    = 0
	displayDeleteID = 1
)

type route struct {
	listener any
	slots    []ports.EventSlot
}

// Conn is a client connection to a compositor. It is not safe for
// concurrent use; all calls, including listener callbacks, happen on the
// goroutine that calls Pump.
type Conn struct {
	sock     *net.UnixConn
	ids      *idAllocator
	dispatch DispatchFunc

	middleware []Middleware

	ifaces  map[entities.ObjectID]string
	routes  map[entities.ObjectID]route
	zombies map[entities.ObjectID][]ports.EventSlot
	deleted map[entities.ObjectID]bool

	out    []byte
	outFDs []int
	in     []byte
	inFDs  []int
	rbuf   []byte
	oob    []byte

	err    error
	closed bool
}

var _ ports.Transport = (*Conn)(nil)

// Option configures a Conn.
type Option func(*Conn)

// WithMiddleware adds dispatch middleware.
// Middleware executes in FIFO order (first added wraps first).
func WithMiddleware(mw ...Middleware) Option {
	return func(c *Conn) {
		c.middleware = append(c.middleware, mw...)
	}
}

// Dial connects to the compositor. A socket inherited through
// $WAYLAND_SOCKET takes precedence over cfg.
func Dial(ctx context.Context, cfg Config, opts ...Option) (*Conn, error) {
	fd, inherited, err := inheritedSocket()
	if err != nil {
		return nil, err
	}
	if inherited {
		f := os.NewFile(uintptr(fd), "wayland-socket")
		defer f.Close()
		fc, err := net.FileConn(f)
		if err != nil {
			return nil, &errors.TransportError{Operation: "dial", Err: err}
		}
		uc, ok := fc.(*net.UnixConn)
		if !ok {
			fc.Close()
			return nil, &errors.TransportError{Operation: "dial", Err: fmt.Errorf("WAYLAND_SOCKET is not a unix socket")}
		}
		slog.DebugContext(ctx, "socket: using inherited connection", "fd", fd)
		return NewConn(uc, opts...), nil
	}

	path, err := Address(cfg)
	if err != nil {
		return nil, err
	}
	var d net.Dialer
	nc, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, &errors.TransportError{Operation: "dial", Err: err}
	}
	slog.DebugContext(ctx, "socket: connected", "path", path)
	return NewConn(nc.(*net.UnixConn), opts...), nil
}

// NewConn wraps an established connection.
func NewConn(sock *net.UnixConn, opts ...Option) *Conn {
	c := &Conn{
		sock:    sock,
		ids:     newIDAllocator(),
		ifaces:  map[entities.ObjectID]string{entities.DisplayID: "wl_display"},
		routes:  make(map[entities.ObjectID]route),
		zombies: make(map[entities.ObjectID][]ports.EventSlot),
		deleted: make(map[entities.ObjectID]bool),
		rbuf:    make([]byte, bufferSize),
		oob:     make([]byte, unix.CmsgSpace(maxFDs*4)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.dispatch = chain(invoke, c.middleware)
	return c
}

// NewID implements ports.Transport. It returns the null id once the id
// space is exhausted.
func (c *Conn) NewID(iface entities.Interface) entities.ObjectID {
	id := c.ids.alloc()
	if id.IsNull() {
		slog.Error("socket: object ids exhausted", "interface", iface.Name)
		return 0
	}
	c.ifaces[id] = iface.Name
	return id
}

// Interface returns the interface name of a live id.
func (c *Conn) Interface(id entities.ObjectID) string {
	return c.ifaces[id]
}

// Register implements ports.Transport.
func (c *Conn) Register(id entities.ObjectID, slots []ports.EventSlot, listener any) error {
	if id.IsNull() {
		return fmt.Errorf("%w: null id", errors.ErrUnknownObject)
	}
	if _, ok := c.routes[id]; ok {
		return errors.ErrAlreadyRegistered
	}
	delete(c.zombies, id)
	c.routes[id] = route{listener: listener, slots: slots}
	return nil
}

// Unregister implements ports.Transport. The slots are kept until the
// server confirms deletion so late events can still be parsed and their
// descriptors closed.
func (c *Conn) Unregister(id entities.ObjectID) {
	r, ok := c.routes[id]
	if !ok {
		return
	}
	delete(c.routes, id)
	if c.deleted[id] {
		delete(c.deleted, id)
		c.free(id)
		return
	}
	c.zombies[id] = r.slots
}

// Send implements ports.Transport. Descriptors in msg are duplicated, so
// the caller may close its copies as soon as Send returns.
func (c *Conn) Send(msg entities.Message) error {
	if c.err != nil {
		return c.err
	}
	buf, fds, err := wireformat.Encode(msg)
	if err != nil {
		return fmt.Errorf("socket: encode %s: %w", msg, err)
	}
	if len(c.out)+len(buf) > bufferSize || len(c.outFDs)+len(fds) > maxFDs {
		if err := c.Flush(); err != nil {
			return err
		}
	}

	dups := make([]int, 0, len(fds))
	for _, fd := range fds {
		d, err := unix.FcntlInt(uintptr(fd), unix.F_DUPFD_CLOEXEC, 0)
		if err != nil {
			closeFDs(dups)
			return fmt.Errorf("socket: dup fd %d: %w", fd, err)
		}
		dups = append(dups, d)
	}
	c.out = append(c.out, buf...)
	c.outFDs = append(c.outFDs, dups...)
	return nil
}

// Flush implements ports.Transport.
func (c *Conn) Flush() error {
	if c.err != nil {
		return c.err
	}
	if len(c.out) == 0 {
		return nil
	}
	var oob []byte
	if len(c.outFDs) > 0 {
		oob = unix.UnixRights(c.outFDs...)
	}
	for len(c.out) > 0 {
		n, _, err := c.sock.WriteMsgUnix(c.out, oob, nil)
		if err != nil {
			return c.fail("flush", err)
		}
		c.out = c.out[n:]
		oob = nil
	}
	closeFDs(c.outFDs)
	c.outFDs = c.outFDs[:0]
	c.out = nil
	return nil
}

// Pump implements ports.Transport. It flushes, blocks until at least one
// complete message is buffered or ctx is done, and dispatches every
// complete message. A listener error stops dispatching; the remaining
// messages are delivered by the next Pump.
func (c *Conn) Pump(ctx context.Context) error {
	if c.err != nil {
		return c.err
	}
	if err := c.Flush(); err != nil {
		return err
	}
	for !c.buffered() {
		if err := c.read(ctx); err != nil {
			return err
		}
	}
	return c.dispatchBuffered(ctx)
}

// Close implements ports.Transport. Queued requests are discarded.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.err == nil {
		c.err = &errors.TransportError{Operation: "close", Err: errors.ErrConnectionClosed}
	}
	closeFDs(c.inFDs)
	closeFDs(c.outFDs)
	c.inFDs, c.outFDs = nil, nil
	return c.sock.Close()
}

func (c *Conn) buffered() bool {
	if len(c.in) < wireformat.HeaderSize {
		return false
	}
	h, err := wireformat.DecodeHeader(c.in)
	if err != nil {
		return true
	}
	return int(h.Size) <= len(c.in)
}

func (c *Conn) read(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline, _ := ctx.Deadline()
	if err := c.sock.SetReadDeadline(deadline); err != nil {
		return c.fail("read", err)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.sock.SetReadDeadline(time.Unix(1, 0))
	})
	defer stop()

	var n int
	for {
		var oobn int
		var err error
		n, oobn, _, _, err = c.sock.ReadMsgUnix(c.rbuf, c.oob)
		if oobn > 0 {
			c.inFDs = append(c.inFDs, parseRights(c.oob[:oobn])...)
		}
		if err == nil {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !stdErrors.Is(err, os.ErrDeadlineExceeded) {
			return c.fail("read", err)
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return context.DeadlineExceeded
		}
		// A cancellation from an earlier Pump fired late; rearm and retry.
		if err := c.sock.SetReadDeadline(deadline); err != nil {
			return c.fail("read", err)
		}
	}
	if n == 0 {
		return c.fail("read", io.EOF)
	}
	c.in = append(c.in, c.rbuf[:n]...)
	return nil
}

func (c *Conn) dispatchBuffered(ctx context.Context) error {
	for len(c.in) >= wireformat.HeaderSize {
		h, err := wireformat.DecodeHeader(c.in)
		if err != nil {
			return c.fail("decode", err)
		}
		if int(h.Size) > len(c.in) {
			break
		}
		body := c.in[wireformat.HeaderSize:h.Size]
		c.in = c.in[h.Size:]
		if err := c.deliver(ctx, h, body); err != nil {
			return err
		}
	}
	if len(c.in) == 0 {
		c.in = nil
	}
	return nil
}

func (c *Conn) deliver(ctx context.Context, h wireformat.Header, body []byte) error {
	if h.Sender == entities.DisplayID {
		if err := c.handleDisplay(h, body); err != nil {
			return err
		}
	}

	r, ok := c.routes[h.Sender]
	if !ok {
		if slots, zombie := c.zombies[h.Sender]; zombie {
			c.discard(h, body, slots)
			return nil
		}
		if h.Sender == entities.DisplayID {
			return nil
		}
		// Without a signature there is no telling which of the pending
		// descriptors the event carried.
		if len(c.inFDs) > 0 {
			return c.fail("decode", &errors.DecodeError{
				Err:       fmt.Errorf("event for unknown object with descriptors pending"),
				Interface: c.ifaces[h.Sender],
				Object:    h.Sender,
				Opcode:    h.Opcode,
			})
		}
		slog.DebugContext(ctx, "socket: event for unknown object dropped", "object", h.Sender, "opcode", h.Opcode)
		return nil
	}

	iface := c.ifaces[h.Sender]
	if int(h.Opcode) >= len(r.slots) {
		return c.fail("decode", &errors.DecodeError{
			Err:       fmt.Errorf("unknown event opcode"),
			Interface: iface,
			Object:    h.Sender,
			Opcode:    h.Opcode,
		})
	}
	slot := r.slots[h.Opcode]
	args, err := wireformat.Decode(body, slot.Signature, &c.inFDs)
	if err != nil {
		return c.fail("decode", &errors.DecodeError{
			Err:       err,
			Interface: iface,
			Message:   slot.Name,
			Object:    h.Sender,
			Opcode:    h.Opcode,
		})
	}

	return c.dispatch(ctx, &Event{
		Args:       args,
		Interface:  iface,
		Name:       slot.Name,
		Signature:  slot.Signature,
		Object:     h.Sender,
		Opcode:     h.Opcode,
		listener:   r.listener,
		trampoline: slot.Trampoline,
	})
}

func (c *Conn) handleDisplay(h wireformat.Header, body []byte) error {
	switch h.Opcode {
	case displayError:
		args, err := wireformat.Decode(body, "ous", nil)
		if err != nil {
			return c.fail("decode", &errors.DecodeError{Err: err, Interface: "wl_display", Message: "error", Object: h.Sender})
		}
		obj := args[0].ObjectID()
		perr := &errors.ProtocolError{
			Interface: c.ifaces[obj],
			Message:   args[2].Str,
			Object:    obj,
			Code:      args[1].Uint,
		}
		slog.Error("socket: protocol error", "object", obj, "interface", perr.Interface, "code", perr.Code, "message", perr.Message)
		c.err = perr
		return perr
	case displayDeleteID:
		args, err := wireformat.Decode(body, "u", nil)
		if err != nil {
			return c.fail("decode", &errors.DecodeError{Err: err, Interface: "wl_display", Message: "delete_id", Object: h.Sender})
		}
		c.deleteID(entities.ObjectID(args[0].Uint))
	}
	return nil
}

// deleteID handles the server's confirmation that id is gone. If a proxy
// still holds the id, it is recycled when that proxy lets go.
func (c *Conn) deleteID(id entities.ObjectID) {
	delete(c.zombies, id)
	if _, live := c.routes[id]; live {
		c.deleted[id] = true
		return
	}
	c.free(id)
}

func (c *Conn) free(id entities.ObjectID) {
	delete(c.ifaces, id)
	c.ids.release(id)
}

// discard parses an event for a released object only to close the
// descriptors it carries.
func (c *Conn) discard(h wireformat.Header, body []byte, slots []ports.EventSlot) {
	if int(h.Opcode) >= len(slots) {
		return
	}
	args, err := wireformat.Decode(body, slots[h.Opcode].Signature, &c.inFDs)
	if err != nil {
		slog.Warn("socket: malformed event for released object", "object", h.Sender, "error", err)
		return
	}
	closeFDs(entities.Message{Args: args}.FDs())
}

func (c *Conn) fail(op string, err error) error {
	if c.err != nil {
		return c.err
	}
	if stdErrors.Is(err, io.EOF) || stdErrors.Is(err, net.ErrClosed) ||
		stdErrors.Is(err, syscall.EPIPE) || stdErrors.Is(err, syscall.ECONNRESET) {
		err = fmt.Errorf("%w: %w", errors.ErrConnectionClosed, err)
	}
	c.err = &errors.TransportError{Operation: op, Err: err}
	return c.err
}

func parseRights(oob []byte) []int {
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		slog.Warn("socket: malformed control message", "error", err)
		return nil
	}
	var fds []int
	for i := range msgs {
		rights, err := unix.ParseUnixRights(&msgs[i])
		if err != nil {
			continue
		}
		fds = append(fds, rights...)
	}
	return fds
}

func closeFDs(fds []int) {
	for _, fd := range fds {
		_ = unix.Close(fd)
	}
}

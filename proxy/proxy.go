package proxy

import (
	"fmt"
	"log/slog"

	"github.com/mavrogato/othones/domain/entities"
	"github.com/mavrogato/othones/domain/errors"
	"github.com/mavrogato/othones/domain/ports"
)

// noCopy makes go vet's copylocks check flag proxies passed by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Proxy is the single owner of one remote object of kind K.
//
// A Proxy is either live (it holds an id) or empty. Proxies must be used by
// pointer; ownership moves with Move and Take. Proxies are not safe for
// concurrent use.
type Proxy[K Kind[K]] struct {
	_ noCopy

	transport ports.Transport
	listener  *K
	id        entities.ObjectID
	version   uint32
}

// New takes ownership of id. If K has events, a listener block is
// registered for id before New returns. When registration fails the error is
// a *errors.RegistrationError and id stays with the caller.
func New[K Kind[K]](t ports.Transport, id entities.ObjectID) (*Proxy[K], error) {
	d := DescriptorOf[K]()
	return newProxy[K](d, t, id, d.Interface.Version)
}

func newProxy[K Kind[K]](d *Descriptor[K], t ports.Transport, id entities.ObjectID, version uint32) (*Proxy[K], error) {
	if id.IsNull() {
		return nil, &errors.RegistrationError{
			Err:       fmt.Errorf("null object id"),
			Interface: d.Interface.Name,
			Object:    id,
		}
	}
	block := new(K)
	if len(d.Events) > 0 {
		if err := t.Register(id, d.Slots(), block); err != nil {
			return nil, &errors.RegistrationError{Err: err, Interface: d.Interface.Name, Object: id}
		}
	}
	return &Proxy[K]{transport: t, listener: block, id: id, version: version}, nil
}

// ID returns the object id, or a *errors.UseAfterReleaseError if p is empty.
func (p *Proxy[K]) ID() (entities.ObjectID, error) {
	if p.Empty() {
		return 0, p.released("ID")
	}
	return p.id, nil
}

// Empty reports whether p owns nothing.
func (p *Proxy[K]) Empty() bool {
	return p == nil || p.id.IsNull()
}

// Version is the protocol version the object was created with.
func (p *Proxy[K]) Version() uint32 {
	if p.Empty() {
		return 0
	}
	return p.version
}

// Listener returns the object's listener block. Assigning a field installs
// the callback for that event.
func (p *Proxy[K]) Listener() (*K, error) {
	if p.Empty() {
		return nil, p.released("Listener")
	}
	return p.listener, nil
}

// Listen edits the listener block in place.
func (p *Proxy[K]) Listen(configure func(*K)) error {
	l, err := p.Listener()
	if err != nil {
		return err
	}
	configure(l)
	return nil
}

// Transport returns the connection the object lives on, or nil if p is
// empty.
func (p *Proxy[K]) Transport() ports.Transport {
	if p.Empty() {
		return nil
	}
	return p.transport
}

// Send issues a request on the object.
func (p *Proxy[K]) Send(opcode uint16, args ...entities.Arg) error {
	id, err := p.ID()
	if err != nil {
		return err
	}
	return p.transport.Send(entities.Message{Sender: id, Opcode: opcode, Args: args})
}

// Move transfers ownership to a new proxy and leaves p empty.
func (p *Proxy[K]) Move() *Proxy[K] {
	q := &Proxy[K]{}
	if p == nil {
		return q
	}
	q.transport, q.listener, q.id, q.version = p.transport, p.listener, p.id, p.version
	p.reset()
	return q
}

// Take transfers ownership from src to p, releasing whatever p held. src is
// left empty. Taking from itself or into a nil proxy does nothing.
func (p *Proxy[K]) Take(src *Proxy[K]) {
	if p == src || p == nil {
		return
	}
	p.Close()
	if src == nil {
		return
	}
	p.transport, p.listener, p.id, p.version = src.transport, src.listener, src.id, src.version
	src.reset()
}

// Close releases the object. The release request is sent, the routing entry
// is dropped and p becomes empty. Closing an empty proxy does nothing.
// Release failures are logged.
func (p *Proxy[K]) Close() {
	if p.Empty() {
		return
	}
	d := DescriptorOf[K]()
	t, id := p.transport, p.id
	p.id = 0

	if err := d.release(t, id); err != nil {
		slog.Warn("proxy: release failed", "object", fmt.Sprintf("%s@%d", d.Interface.Name, id), "error", err)
	}
	if len(d.Events) > 0 {
		t.Unregister(id)
	}
	p.reset()
}

// String formats the proxy as interface@id.
func (p *Proxy[K]) String() string {
	name := DescriptorOf[K]().Interface.Name
	if p.Empty() {
		return name + "@released"
	}
	return fmt.Sprintf("%s@%d", name, p.id)
}

func (p *Proxy[K]) reset() {
	p.transport = nil
	p.listener = nil
	p.id = 0
	p.version = 0
}

func (p *Proxy[K]) released(op string) error {
	return &errors.UseAfterReleaseError{Interface: DescriptorOf[K]().Interface.Name, Operation: op}
}

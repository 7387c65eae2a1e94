package proxy

import (
	"fmt"
	"log/slog"

	"github.com/mavrogato/othones/domain/entities"
	"github.com/mavrogato/othones/domain/ports"
)

// registryBind is the opcode of wl_registry.bind.
const registryBind = 0

// NewChild sends a request on parent that creates an object of kind C and
// returns the owning proxy. The new id is the request's first argument,
// followed by args. The child inherits the parent's version.
func NewChild[C Kind[C], P Kind[P]](parent *Proxy[P], opcode uint16, args ...entities.Arg) (*Proxy[C], error) {
	d := DescriptorOf[C]()
	if _, err := parent.ID(); err != nil {
		return nil, err
	}
	t := parent.transport
	version := parent.version
	if version > d.Interface.Version {
		version = d.Interface.Version
	}

	id := t.NewID(entities.Interface{Name: d.Interface.Name, Version: version})
	full := append([]entities.Arg{entities.NewID(id)}, args...)
	if err := parent.Send(opcode, full...); err != nil {
		return nil, fmt.Errorf("create %s: %w", d.Interface.Name, err)
	}
	return adopt(d, t, id, version)
}

// Bind binds the registry global name to a new object of kind K at the
// given version. Every call creates a new, independent object.
func Bind[K Kind[K], R Kind[R]](registry *Proxy[R], name, version uint32) (*Proxy[K], error) {
	d := DescriptorOf[K]()
	if _, err := registry.ID(); err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, fmt.Errorf("bind %s: version must be at least 1", d.Interface.Name)
	}
	t := registry.transport

	id := t.NewID(entities.Interface{Name: d.Interface.Name, Version: version})
	err := registry.Send(registryBind,
		entities.Uint(name),
		entities.String(d.Interface.Name),
		entities.Uint(version),
		entities.NewID(id),
	)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", d.Interface.Name, err)
	}
	return adopt(d, t, id, version)
}

// adopt wraps an id the server already knows about. If registration fails
// the object is released again so it does not leak on the connection.
func adopt[K Kind[K]](d *Descriptor[K], t ports.Transport, id entities.ObjectID, version uint32) (*Proxy[K], error) {
	p, err := newProxy[K](d, t, id, version)
	if err != nil {
		if rerr := d.release(t, id); rerr != nil {
			slog.Warn("proxy: release after failed registration", "object", fmt.Sprintf("%s@%d", d.Interface.Name, id), "error", rerr)
		}
		return nil, err
	}
	return p, nil
}

// ObjectArg returns p as a non-null object argument.
func ObjectArg[K Kind[K]](p *Proxy[K]) (entities.Arg, error) {
	id, err := p.ID()
	if err != nil {
		return entities.Arg{}, err
	}
	return entities.Object(id), nil
}

// NullableArg returns p as an object argument, or the null object if p is
// nil or empty.
func NullableArg[K Kind[K]](p *Proxy[K]) entities.Arg {
	if p.Empty() {
		return entities.Object(0)
	}
	return entities.Object(p.id)
}

// Describe adds kind K to the catalog.
func Describe[K Kind[K]](cat ports.KindCatalog) error {
	d := DescriptorOf[K]()
	return cat.Register(d.Interface, d.Models())
}

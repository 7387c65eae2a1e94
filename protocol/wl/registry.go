package wl

import (
	"github.com/mavrogato/othones/domain/entities"
	"github.com/mavrogato/othones/proxy"
)

// RegistryGlobal announces a global object.
type RegistryGlobal struct {
	Name      uint32
	Interface string
	Version   uint32
}

// Entity converts the event into the domain form.
func (g RegistryGlobal) Entity() entities.Global {
	return entities.Global{Name: g.Name, Interface: g.Interface, Version: g.Version}
}

// RegistryGlobalRemove withdraws a global.
type RegistryGlobalRemove struct {
	Name uint32
}

// Registry advertises the compositor's globals.
type Registry struct {
	Global       func(RegistryGlobal)
	GlobalRemove func(RegistryGlobalRemove)
}

var registryDescriptor = &proxy.Descriptor[Registry]{
	Interface: entities.Interface{Name: "wl_registry", Version: 1},
	Release:   proxy.Forget,
	Events: []proxy.Event[Registry]{
		proxy.NewEvent("global", func(l *Registry) func(RegistryGlobal) { return l.Global }),
		proxy.NewEvent("global_remove", func(l *Registry) func(RegistryGlobalRemove) { return l.GlobalRemove }),
	},
}

func (Registry) Descriptor() *proxy.Descriptor[Registry] { return registryDescriptor }

// Bind binds an advertised global to kind K, at the lower of the advertised
// version and the version K implements.
func Bind[K proxy.Kind[K]](r *proxy.Proxy[Registry], g RegistryGlobal) (*proxy.Proxy[K], error) {
	version := proxy.DescriptorOf[K]().Interface.Clamp(g.Version)
	return proxy.Bind[K](r, g.Name, version)
}

package proxy_test

import (
	"github.com/mavrogato/othones/domain/entities"
	"github.com/mavrogato/othones/proxy"
)

const counterDestroy = 0

type counterTick struct {
	N uint32
}

type counterReset struct{}

type counterLabel struct {
	Text   string
	Target entities.ObjectID `wl:"nullable"`
}

// counter is a kind with three events.
type counter struct {
	Tick  func(counterTick)
	Reset func(counterReset)
	Label func(counterLabel)
}

var counterDescriptor = &proxy.Descriptor[counter]{
	Interface: entities.Interface{Name: "test_counter", Version: 3},
	Release:   proxy.DestroyRequest(counterDestroy),
	Events: []proxy.Event[counter]{
		proxy.NewEvent("tick", func(c *counter) func(counterTick) { return c.Tick }),
		proxy.NewEvent("reset", func(c *counter) func(counterReset) { return c.Reset }),
		proxy.NewEvent("label", func(c *counter) func(counterLabel) { return c.Label }),
	},
}

func (counter) Descriptor() *proxy.Descriptor[counter] { return counterDescriptor }

type pairA struct{ V int32 }
type pairB struct{ V int32 }

// pair is a kind with two slots of different shapes.
type pair struct {
	First  func(pairA)
	Second func(pairB)
}

var pairDescriptor = &proxy.Descriptor[pair]{
	Interface: entities.Interface{Name: "test_pair", Version: 1},
	Release:   proxy.DestroyRequest(0),
	Events: []proxy.Event[pair]{
		proxy.NewEvent("first", func(p *pair) func(pairA) { return p.First }),
		proxy.NewEvent("second", func(p *pair) func(pairB) { return p.Second }),
	},
}

func (pair) Descriptor() *proxy.Descriptor[pair] { return pairDescriptor }

// silent has no events.
type silent struct{}

var silentDescriptor = &proxy.Descriptor[silent]{
	Interface: entities.Interface{Name: "test_silent", Version: 1},
	Release:   proxy.DestroyRequest(1),
}

func (silent) Descriptor() *proxy.Descriptor[silent] { return silentDescriptor }

// registry stands in for wl_registry.
type registry struct{}

var registryDescriptor = &proxy.Descriptor[registry]{
	Interface: entities.Interface{Name: "test_registry", Version: 1},
	Release:   proxy.Forget,
}

func (registry) Descriptor() *proxy.Descriptor[registry] { return registryDescriptor }

package window

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/mavrogato/othones/domain/entities"
)

// Globals tracks the registry's advertisements as they come and go.
type Globals struct {
	byName map[uint32]entities.Global
}

// NewGlobals returns an empty tracker.
func NewGlobals() *Globals {
	return &Globals{byName: make(map[uint32]entities.Global)}
}

// Add records an advertisement. A repeated name replaces the earlier entry.
func (g *Globals) Add(global entities.Global) error {
	if err := global.Validate(); err != nil {
		return err
	}
	g.byName[global.Name] = global
	return nil
}

// Remove forgets the advertisement with the given name.
func (g *Globals) Remove(name uint32) (entities.Global, bool) {
	global, ok := g.byName[name]
	if ok {
		delete(g.byName, name)
	}
	return global, ok
}

// Lookup returns the advertisement with the given name.
func (g *Globals) Lookup(name uint32) (entities.Global, bool) {
	global, ok := g.byName[name]
	return global, ok
}

// Find returns every advertisement of iface, ordered by name.
func (g *Globals) Find(iface string) []entities.Global {
	var out []entities.Global
	for _, global := range g.byName {
		if global.Interface == iface {
			out = append(out, global)
		}
	}
	sortByName(out)
	return out
}

// List returns all advertisements ordered by name.
func (g *Globals) List() []entities.Global {
	out := make([]entities.Global, 0, len(g.byName))
	for _, global := range g.byName {
		out = append(out, global)
	}
	sortByName(out)
	return out
}

// Len is the number of live advertisements.
func (g *Globals) Len() int {
	return len(g.byName)
}

// Require returns the first advertisement of iface, or an error naming the
// missing interface.
func (g *Globals) Require(iface string) (entities.Global, error) {
	found := g.Find(iface)
	if len(found) == 0 {
		return entities.Global{}, fmt.Errorf("%w: %s", ErrMissingGlobal, iface)
	}
	return found[0], nil
}

func sortByName(gs []entities.Global) {
	slices.SortFunc(gs, func(a, b entities.Global) int {
		return cmp.Compare(a.Name, b.Name)
	})
}

package window

import (
	"errors"
	"testing"

	"github.com/mavrogato/othones/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobals(t *testing.T) {
	g := NewGlobals()
	require.NoError(t, g.Add(entities.Global{Name: 7, Interface: "wl_output", Version: 4}))
	require.NoError(t, g.Add(entities.Global{Name: 2, Interface: "wl_output", Version: 3}))
	require.NoError(t, g.Add(entities.Global{Name: 1, Interface: "wl_compositor", Version: 6}))

	assert.Equal(t, 3, g.Len())
	outs := g.Find("wl_output")
	require.Len(t, outs, 2)
	assert.Equal(t, uint32(2), outs[0].Name)
	assert.Equal(t, uint32(7), outs[1].Name)

	list := g.List()
	assert.Equal(t, []uint32{1, 2, 7}, []uint32{list[0].Name, list[1].Name, list[2].Name})

	removed, ok := g.Remove(2)
	require.True(t, ok)
	assert.Equal(t, uint32(3), removed.Version)
	_, ok = g.Remove(2)
	assert.False(t, ok)
	assert.Len(t, g.Find("wl_output"), 1)
}

func TestGlobals_Replace(t *testing.T) {
	g := NewGlobals()
	require.NoError(t, g.Add(entities.Global{Name: 1, Interface: "wl_seat", Version: 5}))
	require.NoError(t, g.Add(entities.Global{Name: 1, Interface: "wl_seat", Version: 7}))

	got, ok := g.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, uint32(7), got.Version)
	assert.Equal(t, 1, g.Len())
}

func TestGlobals_RejectsInvalid(t *testing.T) {
	g := NewGlobals()
	assert.Error(t, g.Add(entities.Global{Name: 1, Interface: "wl_seat"}))
	assert.Error(t, g.Add(entities.Global{Name: 1, Version: 1}))
	assert.Zero(t, g.Len())
}

func TestGlobals_Require(t *testing.T) {
	g := NewGlobals()
	require.NoError(t, g.Add(entities.Global{Name: 3, Interface: "wl_shm", Version: 1}))

	got, err := g.Require("wl_shm")
	require.NoError(t, err)
	assert.Equal(t, uint32(3), got.Name)

	_, err = g.Require("xdg_wm_base")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingGlobal))
	assert.Contains(t, err.Error(), "xdg_wm_base")
}

func TestFill(t *testing.T) {
	px := make([]uint32, 5)
	fill(px, 0xff112233)
	for _, p := range px {
		assert.Equal(t, uint32(0xff112233), p)
	}
}

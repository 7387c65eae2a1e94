package catalog_test

import (
	"encoding/json"
	"testing"

	"github.com/mavrogato/othones/catalog"
	"github.com/mavrogato/othones/domain/entities"
	"github.com/mavrogato/othones/domain/ports"
	"github.com/mavrogato/othones/protocol/wl"
	"github.com/mavrogato/othones/protocol/xdg"
	"github.com/mavrogato/othones/proxy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ping struct {
	Serial uint32
}

func TestCatalog_RegisterAndLookup(t *testing.T) {
	c := catalog.New()
	iface := entities.Interface{Name: "test_base", Version: 2}
	require.NoError(t, c.Register(iface, []ports.EventModel{{Model: ping{}, Name: "ping", Signature: "u"}}))

	info, ok := c.Lookup("test_base")
	require.True(t, ok)
	assert.Equal(t, iface, info.Interface)
	require.Len(t, info.Events, 1)
	assert.Equal(t, "ping", info.Events[0].Name)

	raw, ok := c.GetSchema("test_base")
	require.True(t, ok)
	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &schema))
	assert.Equal(t, "test_base", schema["title"])
	props := schema["properties"].(map[string]any)
	pingSchema := props["ping"].(map[string]any)
	assert.Equal(t, "signature: u", pingSchema["description"])
	assert.Contains(t, pingSchema["properties"], "Serial")

	_, ok = c.Lookup("missing")
	assert.False(t, ok)
	_, ok = c.GetSchema("missing")
	assert.False(t, ok)
}

func TestCatalog_StrictMode(t *testing.T) {
	iface := entities.Interface{Name: "test_base", Version: 1}

	strict := catalog.New()
	require.NoError(t, strict.Register(iface, nil))
	assert.ErrorContains(t, strict.Register(iface, nil), "already registered")

	lenient := catalog.New(catalog.WithStrictMode(false))
	require.NoError(t, lenient.Register(iface, nil))
	require.NoError(t, lenient.Register(entities.Interface{Name: "test_base", Version: 3}, nil))
	info, _ := lenient.Lookup("test_base")
	assert.Equal(t, uint32(3), info.Interface.Version)
}

func TestCatalog_RejectsInvalidInterface(t *testing.T) {
	c := catalog.New()
	assert.Error(t, c.Register(entities.Interface{Name: "", Version: 1}, nil))
	assert.Error(t, c.Register(entities.Interface{Name: "wl_seat", Version: 0}, nil))
}

func TestCatalog_ProtocolKinds(t *testing.T) {
	c := catalog.New()
	require.NoError(t, wl.Describe(c))
	require.NoError(t, xdg.Describe(c))

	names := c.List()
	assert.Len(t, names, 17)
	assert.Equal(t, "wl_buffer", names[0])
	assert.Contains(t, names, "xdg_toplevel")

	info, ok := c.Lookup("wl_keyboard")
	require.True(t, ok)
	assert.Equal(t, "uhu", info.Events[0].Signature)

	assert.Error(t, proxy.Describe[wl.Seat](c), "strict catalog refuses a second registration")
}

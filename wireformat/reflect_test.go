package wireformat

import (
	"testing"

	"github.com/mavrogato/othones/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testMode uint32

type pointerEnter struct {
	Serial   uint32
	Surface  entities.ObjectID `wl:"nullable"`
	SurfaceX entities.Fixed
	SurfaceY entities.Fixed
}

type keyboardEnter struct {
	Serial  uint32
	Surface entities.ObjectID
	Keys    []uint32
}

type keymap struct {
	Format testMode
	FD     entities.FD
	Size   uint32
	hidden int
}

func TestSignatureOf(t *testing.T) {
	assert.Equal(t, "u?off", SignatureOf[pointerEnter]())
	assert.Equal(t, "uoa", SignatureOf[keyboardEnter]())
	assert.Equal(t, "uhu", SignatureOf[keymap]())
	assert.Equal(t, "", SignatureOf[struct{}]())
}

func TestSignatureOf_PanicsOnUnsupportedField(t *testing.T) {
	assert.Panics(t, func() {
		SignatureOf[struct{ X float64 }]()
	})
}

func TestUnpack_TypedEvent(t *testing.T) {
	args := []entities.Arg{
		entities.Uint(42),
		entities.Object(0),
		entities.FixedArg(entities.FixedFromFloat(10.5)),
		entities.FixedArg(entities.FixedFromFloat(-3)),
	}
	var ev pointerEnter
	require.NoError(t, Unpack(args, &ev))
	assert.Equal(t, uint32(42), ev.Serial)
	assert.True(t, ev.Surface.IsNull())
	assert.InDelta(t, 10.5, ev.SurfaceX.Float(), 0.001)
	assert.Equal(t, int32(-3), ev.SurfaceY.Int())
}

func TestPackUnpack_WordArray(t *testing.T) {
	in := keyboardEnter{Serial: 1, Surface: 8, Keys: []uint32{30, 31, 57}}
	args, err := Pack(in)
	require.NoError(t, err)
	assert.Equal(t, "uoa", SignatureOfArgs(args))

	var out keyboardEnter
	require.NoError(t, Unpack(args, &out))
	assert.Equal(t, in, out)
	assert.Equal(t, []uint32{30, 31, 57}, Words(args[2].Array))
}

func TestUnpack_Mismatch(t *testing.T) {
	var ev keymap
	err := Unpack([]entities.Arg{entities.Uint(1)}, &ev)
	assert.ErrorContains(t, err, "expects 3 arguments")

	err = Unpack([]entities.Arg{entities.String("x"), entities.FDArg(3), entities.Uint(1)}, &ev)
	assert.ErrorContains(t, err, "Format")

	err = Unpack(nil, ev)
	assert.ErrorContains(t, err, "non-nil pointer")
}

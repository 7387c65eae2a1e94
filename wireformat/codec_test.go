package wireformat

import (
	"testing"

	"github.com/mavrogato/othones/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_HeaderAndPadding(t *testing.T) {
	msg := entities.Message{
		Sender: 2,
		Opcode: 0,
		Args: []entities.Arg{
			entities.Uint(7),
			entities.String("wl_seat"),
			entities.Uint(5),
		},
	}
	buf, fds, err := Encode(msg)
	require.NoError(t, err)
	assert.Empty(t, fds)

	// header + u32 + (len word + "wl_seat\0") + u32
	assert.Len(t, buf, 8+4+4+8+4)

	h, err := DecodeHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, entities.ObjectID(2), h.Sender)
	assert.Equal(t, uint16(0), h.Opcode)
	assert.Equal(t, uint16(len(buf)), h.Size)

	args, err := Decode(buf[HeaderSize:], "usu", nil)
	require.NoError(t, err)
	require.Len(t, args, 3)
	assert.Equal(t, uint32(7), args[0].Uint)
	assert.Equal(t, "wl_seat", args[1].Str)
	assert.Equal(t, uint32(5), args[2].Uint)
}

func TestEncode_FileDescriptorsTravelOutOfBand(t *testing.T) {
	msg := entities.Message{
		Sender: 4,
		Opcode: 0,
		Args: []entities.Arg{
			entities.NewID(9),
			entities.FDArg(17),
			entities.Int(4096),
		},
	}
	buf, fds, err := Encode(msg)
	require.NoError(t, err)
	assert.Equal(t, []int{17}, fds)
	assert.Len(t, buf, HeaderSize+8)

	queue := []int{17, 23}
	args, err := Decode(buf[HeaderSize:], "nhi", &queue)
	require.NoError(t, err)
	assert.Equal(t, 17, args[1].FD)
	assert.Equal(t, []int{23}, queue)
}

func TestDecode_Errors(t *testing.T) {
	word := func(v uint32) []byte {
		b := make([]byte, 4)
		order.PutUint32(b, v)
		return b
	}

	t.Run("null object", func(t *testing.T) {
		_, err := Decode(word(0), "o", nil)
		assert.ErrorIs(t, err, ErrNullArgument)
	})

	t.Run("nullable object", func(t *testing.T) {
		args, err := Decode(word(0), "?o", nil)
		require.NoError(t, err)
		assert.True(t, args[0].ObjectID().IsNull())
	})

	t.Run("truncated string", func(t *testing.T) {
		_, err := Decode(append(word(12), 'a', 'b'), "s", nil)
		assert.ErrorIs(t, err, ErrShortArgument)
	})

	t.Run("unterminated string", func(t *testing.T) {
		_, err := Decode(append(word(4), 'a', 'b', 'c', 'd'), "s", nil)
		assert.ErrorIs(t, err, ErrUnterminated)
	})

	t.Run("trailing bytes", func(t *testing.T) {
		_, err := Decode(append(word(1), word(2)...), "u", nil)
		assert.ErrorIs(t, err, ErrTrailingBytes)
	})

	t.Run("missing fd", func(t *testing.T) {
		_, err := Decode(nil, "h", nil)
		assert.ErrorIs(t, err, ErrMissingFD)
	})
}

func TestDecodeHeader_InvalidSize(t *testing.T) {
	b := make([]byte, HeaderSize)
	order.PutUint32(b[0:], 1)
	order.PutUint32(b[4:], 6<<16)
	_, err := DecodeHeader(b)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = DecodeHeader(b[:3])
	assert.ErrorIs(t, err, ErrShortHeader)
}

func TestEncode_TooLarge(t *testing.T) {
	msg := entities.Message{Sender: 1, Args: []entities.Arg{entities.Array(make([]byte, MaxMessageSize))}}
	_, _, err := Encode(msg)
	assert.ErrorIs(t, err, ErrMessageTooLarge)
}

func TestParseSignature(t *testing.T) {
	codes, err := ParseSignature("u?sho")
	require.NoError(t, err)
	require.Len(t, codes, 4)
	assert.True(t, codes[1].Nullable)
	assert.Equal(t, entities.ArgFD, codes[2].Type)

	_, err = ParseSignature("?u")
	assert.Error(t, err)
	_, err = ParseSignature("x")
	assert.Error(t, err)
	_, err = ParseSignature("s?")
	assert.Error(t, err)
}

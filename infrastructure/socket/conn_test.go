package socket

import (
	"context"
	stdErrors "errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/mavrogato/othones/domain/entities"
	"github.com/mavrogato/othones/domain/errors"
	"github.com/mavrogato/othones/domain/ports"
	"github.com/mavrogato/othones/protocol/wl"
	"github.com/mavrogato/othones/proxy"
	"github.com/mavrogato/othones/wireformat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func unixConn(t *testing.T, fd int) *net.UnixConn {
	t.Helper()
	f := os.NewFile(uintptr(fd), "socketpair")
	defer f.Close()
	c, err := net.FileConn(f)
	require.NoError(t, err)
	return c.(*net.UnixConn)
}

// newPair returns a client Conn and the raw server end.
func newPair(t *testing.T, opts ...Option) (*Conn, *net.UnixConn) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)
	client := NewConn(unixConn(t, fds[0]), opts...)
	server := unixConn(t, fds[1])
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client, server
}

func writeEvent(t *testing.T, server *net.UnixConn, id entities.ObjectID, opcode uint16, args ...entities.Arg) {
	t.Helper()
	buf, fds, err := wireformat.Encode(entities.Message{Sender: id, Opcode: opcode, Args: args})
	require.NoError(t, err)
	var oob []byte
	if len(fds) > 0 {
		oob = unix.UnixRights(fds...)
	}
	_, _, err = server.WriteMsgUnix(buf, oob, nil)
	require.NoError(t, err)
}

func readRequest(t *testing.T, server *net.UnixConn, sig string) (wireformat.Header, []entities.Arg, []int) {
	t.Helper()
	require.NoError(t, server.SetReadDeadline(time.Now().Add(2*time.Second)))
	hdr := make([]byte, wireformat.HeaderSize)
	oob := make([]byte, unix.CmsgSpace(maxFDs*4))
	n, oobn, _, _, err := server.ReadMsgUnix(hdr, oob)
	require.NoError(t, err)
	require.Equal(t, wireformat.HeaderSize, n)
	fds := parseRights(oob[:oobn])

	h, err := wireformat.DecodeHeader(hdr)
	require.NoError(t, err)
	body := make([]byte, int(h.Size)-wireformat.HeaderSize)
	if len(body) > 0 {
		_, err = server.Read(body)
		require.NoError(t, err)
	}
	args, err := wireformat.Decode(body, sig, &fds)
	require.NoError(t, err)
	return h, args, fds
}

type recorder struct {
	calls [][]entities.Arg
}

func recordingSlots(names ...string) ([]ports.EventSlot, *recorder) {
	rec := &recorder{}
	slots := make([]ports.EventSlot, len(names))
	for i, sig := range names {
		slots[i] = ports.EventSlot{
			Name:      "ev" + string(rune('0'+i)),
			Signature: sig,
			Trampoline: func(ctx any, args []entities.Arg) error {
				ctx.(*recorder).calls = append(ctx.(*recorder).calls, args)
				return nil
			},
		}
	}
	return slots, rec
}

func pump(t *testing.T, c *Conn) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.Pump(ctx)
}

func TestConn_SendAndFlush(t *testing.T) {
	client, server := newPair(t)

	id := client.NewID(entities.Interface{Name: "wl_registry", Version: 1})
	assert.Equal(t, entities.ObjectID(2), id)
	require.NoError(t, client.Send(entities.Message{Sender: entities.DisplayID, Opcode: 1, Args: []entities.Arg{entities.NewID(id)}}))
	require.NoError(t, client.Flush())

	h, args, _ := readRequest(t, server, "n")
	assert.Equal(t, entities.DisplayID, h.Sender)
	assert.Equal(t, uint16(1), h.Opcode)
	assert.Equal(t, id, args[0].ObjectID())
}

func TestConn_SendPassesDescriptors(t *testing.T) {
	client, server := newPair(t)

	var p [2]int
	require.NoError(t, unix.Pipe2(p[:], unix.O_CLOEXEC))
	defer unix.Close(p[0])

	require.NoError(t, client.Send(entities.Message{Sender: 5, Opcode: 0, Args: []entities.Arg{
		entities.NewID(6), entities.FDArg(entities.FD(p[1])), entities.Int(64),
	}}))
	// The connection holds its own duplicate until the flush.
	require.NoError(t, unix.Close(p[1]))
	require.NoError(t, client.Flush())

	_, args, rest := readRequest(t, server, "nhi")
	assert.Empty(t, rest)
	received := args[1].FD
	defer unix.Close(received)

	_, err := unix.Write(received, []byte("ok"))
	require.NoError(t, err)
	buf := make([]byte, 2)
	_, err = unix.Read(p[0], buf)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(buf))
}

func TestConn_PumpRoutesEvents(t *testing.T) {
	client, server := newPair(t)
	id := client.NewID(entities.Interface{Name: "wl_seat", Version: 5})
	slots, rec := recordingSlots("u", "s")
	require.NoError(t, client.Register(id, slots, rec))

	writeEvent(t, server, id, 0, entities.Uint(3))
	writeEvent(t, server, id, 1, entities.String("seat0"))
	writeEvent(t, server, 99, 0)

	for len(rec.calls) < 2 {
		require.NoError(t, pump(t, client))
	}
	assert.Equal(t, []entities.Arg{entities.Uint(3)}, rec.calls[0])
	assert.Equal(t, []entities.Arg{entities.String("seat0")}, rec.calls[1])
}

func TestConn_RegisterTwice(t *testing.T) {
	client, _ := newPair(t)
	slots, rec := recordingSlots("u")
	require.NoError(t, client.Register(4, slots, rec))
	assert.ErrorIs(t, client.Register(4, slots, rec), errors.ErrAlreadyRegistered)
	assert.ErrorIs(t, client.Register(0, slots, rec), errors.ErrUnknownObject)
}

func TestConn_UnregisteredObjectNeverReachesListener(t *testing.T) {
	client, server := newPair(t)
	id := client.NewID(entities.Interface{Name: "wl_pointer", Version: 7})
	slots, rec := recordingSlots("u")
	require.NoError(t, client.Register(id, slots, rec))
	client.Unregister(id)

	writeEvent(t, server, id, 0, entities.Uint(1))
	require.NoError(t, pump(t, client))
	assert.Empty(t, rec.calls)
}

func TestConn_DisplayErrorIsTerminal(t *testing.T) {
	client, server := newPair(t)
	id := client.NewID(entities.Interface{Name: "xdg_surface", Version: 5})

	writeEvent(t, server, entities.DisplayID, displayError,
		entities.Object(id), entities.Uint(3), entities.String("not constructed"))

	err := pump(t, client)
	var perr *errors.ProtocolError
	require.True(t, stdErrors.As(err, &perr))
	assert.Equal(t, "xdg_surface", perr.Interface)
	assert.Equal(t, id, perr.Object)
	assert.Equal(t, uint32(3), perr.Code)
	assert.Equal(t, "not constructed", perr.Message)

	assert.Same(t, err, client.Send(entities.Message{Sender: id}))
	assert.Same(t, err, pump(t, client))
}

func TestConn_DeleteIDRecyclesIDs(t *testing.T) {
	client, server := newPair(t)
	iface := entities.Interface{Name: "wl_callback", Version: 1}

	t.Run("after unregister", func(t *testing.T) {
		id := client.NewID(iface)
		slots, rec := recordingSlots("u")
		require.NoError(t, client.Register(id, slots, rec))
		client.Unregister(id)

		writeEvent(t, server, entities.DisplayID, displayDeleteID, entities.Uint(uint32(id)))
		require.NoError(t, pump(t, client))
		assert.Equal(t, id, client.NewID(iface))
		client.Unregister(id)
	})

	t.Run("while still held", func(t *testing.T) {
		id := client.NewID(iface)
		slots, rec := recordingSlots("u")
		require.NoError(t, client.Register(id, slots, rec))

		writeEvent(t, server, entities.DisplayID, displayDeleteID, entities.Uint(uint32(id)))
		require.NoError(t, pump(t, client))

		other := client.NewID(iface)
		assert.NotEqual(t, id, other)
		assert.Equal(t, "wl_callback", client.Interface(id))

		client.Unregister(id)
		assert.Equal(t, id, client.NewID(iface))
	})
}

func TestConn_RemoteClose(t *testing.T) {
	client, server := newPair(t)
	require.NoError(t, server.Close())

	err := pump(t, client)
	var terr *errors.TransportError
	require.True(t, stdErrors.As(err, &terr))
	assert.True(t, terr.Closed())
}

func TestConn_PumpHonoursContext(t *testing.T) {
	client, server := newPair(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := client.Pump(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The connection survives a cancelled pump.
	slots, rec := recordingSlots("")
	require.NoError(t, client.Register(7, slots, rec))
	writeEvent(t, server, 7, 0)
	require.NoError(t, pump(t, client))
	assert.Len(t, rec.calls, 1)
}

func TestConn_UnknownOpcodeIsDecodeError(t *testing.T) {
	client, server := newPair(t)
	slots, rec := recordingSlots("u")
	require.NoError(t, client.Register(3, slots, rec))

	writeEvent(t, server, 3, 4, entities.Uint(1))
	err := pump(t, client)

	var derr *errors.DecodeError
	require.True(t, stdErrors.As(err, &derr))
	assert.Equal(t, uint16(4), derr.Opcode)
}

func openFDs(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skipf("cannot list open descriptors: %v", err)
	}
	return len(entries)
}

func TestConn_UnconfiguredSlotClosesDescriptors(t *testing.T) {
	client, server := newPair(t)
	kbd, err := proxy.New[wl.Keyboard](client, client.NewID(wl.Keyboard{}.Descriptor().Interface))
	require.NoError(t, err)
	defer kbd.Close()
	id, err := kbd.ID()
	require.NoError(t, err)

	var p [2]int
	require.NoError(t, unix.Pipe2(p[:], unix.O_CLOEXEC))
	defer unix.Close(p[0])
	defer unix.Close(p[1])

	before := openFDs(t)
	const events = 5
	for i := 0; i < events; i++ {
		writeEvent(t, server, id, 0, entities.Uint(uint32(wl.KeymapXKBV1)), entities.FDArg(entities.FD(p[0])), entities.Uint(10))
	}
	// A trailing event with a listener tells when all keymaps were handled.
	seen := 0
	require.NoError(t, kbd.Listen(func(l *wl.Keyboard) {
		l.RepeatInfo = func(wl.KeyboardRepeatInfo) { seen++ }
	}))
	writeEvent(t, server, id, 5, entities.Int(25), entities.Int(600))
	for seen == 0 {
		require.NoError(t, pump(t, client))
	}

	assert.Equal(t, before, openFDs(t))
}

func TestConn_UnknownObjectWithDescriptorsIsDecodeError(t *testing.T) {
	client, server := newPair(t)

	var p [2]int
	require.NoError(t, unix.Pipe2(p[:], unix.O_CLOEXEC))
	defer unix.Close(p[0])
	defer unix.Close(p[1])

	writeEvent(t, server, 99, 0, entities.FDArg(entities.FD(p[0])))
	err := pump(t, client)

	var derr *errors.DecodeError
	require.True(t, stdErrors.As(err, &derr))
	assert.Equal(t, entities.ObjectID(99), derr.Object)
	assert.Same(t, err, pump(t, client))
}

func TestConn_Close(t *testing.T) {
	client, _ := newPair(t)
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	err := client.Send(entities.Message{Sender: 1})
	var terr *errors.TransportError
	require.True(t, stdErrors.As(err, &terr))
	assert.True(t, terr.Closed())
}

package wireformat

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mavrogato/othones/domain/entities"
)

const (
	// HeaderSize is the size of the fixed message header.
	HeaderSize = 8

	// MaxMessageSize is the largest message either side may send.
	MaxMessageSize = 4096
)

var (
	ErrShortHeader     = errors.New("wireformat: short message header")
	ErrInvalidSize     = errors.New("wireformat: invalid message size")
	ErrMessageTooLarge = errors.New("wireformat: message too large")
	ErrShortArgument   = errors.New("wireformat: truncated argument")
	ErrTrailingBytes   = errors.New("wireformat: trailing bytes after arguments")
	ErrMissingFD       = errors.New("wireformat: file descriptor missing")
	ErrNullArgument    = errors.New("wireformat: null value for non-nullable argument")
	ErrUnterminated    = errors.New("wireformat: string not NUL terminated")
)

var order = binary.NativeEndian

// Header is the fixed part of every message.
type Header struct {
	Sender entities.ObjectID
	Opcode uint16
	Size   uint16
}

// DecodeHeader parses the first HeaderSize bytes of b.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, ErrShortHeader
	}
	word := order.Uint32(b[4:8])
	h := Header{
		Sender: entities.ObjectID(order.Uint32(b[0:4])),
		Opcode: uint16(word & 0xffff),
		Size:   uint16(word >> 16),
	}
	if h.Size < HeaderSize || h.Size%4 != 0 {
		return Header{}, fmt.Errorf("%w: %d", ErrInvalidSize, h.Size)
	}
	return h, nil
}

// Encode serializes msg. File descriptor arguments are returned separately,
// in argument order, for out-of-band transfer.
func Encode(msg entities.Message) ([]byte, []int, error) {
	size := HeaderSize
	for _, a := range msg.Args {
		size += argSize(a)
	}
	if size > MaxMessageSize {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, size)
	}

	buf := make([]byte, size)
	order.PutUint32(buf[0:4], uint32(msg.Sender))
	order.PutUint32(buf[4:8], uint32(size)<<16|uint32(msg.Opcode))

	var fds []int
	off := HeaderSize
	for _, a := range msg.Args {
		switch a.Type {
		case entities.ArgInt:
			order.PutUint32(buf[off:], uint32(a.Int))
			off += 4
		case entities.ArgUint, entities.ArgObject, entities.ArgNewID:
			order.PutUint32(buf[off:], a.Uint)
			off += 4
		case entities.ArgFixed:
			order.PutUint32(buf[off:], uint32(a.Fixed))
			off += 4
		case entities.ArgString:
			off = putString(buf, off, a.Str)
		case entities.ArgArray:
			order.PutUint32(buf[off:], uint32(len(a.Array)))
			copy(buf[off+4:], a.Array)
			off += 4 + pad(len(a.Array))
		case entities.ArgFD:
			fds = append(fds, a.FD)
		default:
			return nil, nil, fmt.Errorf("wireformat: unknown argument type %q", a.Type)
		}
	}
	return buf, fds, nil
}

// Decode parses the arguments of one message body (the bytes after the
// header) according to sig. Descriptors are taken from the front of fds.
func Decode(body []byte, sig string, fds *[]int) ([]entities.Arg, error) {
	codes, err := ParseSignature(sig)
	if err != nil {
		return nil, err
	}
	args := make([]entities.Arg, 0, len(codes))
	off := 0
	for _, c := range codes {
		if c.Type == entities.ArgFD {
			if fds == nil || len(*fds) == 0 {
				return nil, ErrMissingFD
			}
			args = append(args, entities.Arg{Type: entities.ArgFD, FD: (*fds)[0]})
			*fds = (*fds)[1:]
			continue
		}
		if len(body)-off < 4 {
			return nil, ErrShortArgument
		}
		word := order.Uint32(body[off:])
		off += 4
		switch c.Type {
		case entities.ArgInt:
			args = append(args, entities.Int(int32(word)))
		case entities.ArgUint:
			args = append(args, entities.Uint(word))
		case entities.ArgFixed:
			args = append(args, entities.FixedArg(entities.Fixed(int32(word))))
		case entities.ArgObject, entities.ArgNewID:
			if word == 0 && !c.Nullable {
				return nil, ErrNullArgument
			}
			args = append(args, entities.Arg{Type: c.Type, Uint: word})
		case entities.ArgString:
			n := int(word)
			if n == 0 {
				if !c.Nullable {
					return nil, ErrNullArgument
				}
				args = append(args, entities.String(""))
				continue
			}
			if len(body)-off < pad(n) {
				return nil, ErrShortArgument
			}
			if body[off+n-1] != 0 {
				return nil, ErrUnterminated
			}
			args = append(args, entities.String(string(body[off:off+n-1])))
			off += pad(n)
		case entities.ArgArray:
			n := int(word)
			if len(body)-off < pad(n) {
				return nil, ErrShortArgument
			}
			data := make([]byte, n)
			copy(data, body[off:off+n])
			args = append(args, entities.Array(data))
			off += pad(n)
		}
	}
	if off != len(body) {
		return nil, ErrTrailingBytes
	}
	return args, nil
}

func argSize(a entities.Arg) int {
	switch a.Type {
	case entities.ArgString:
		return 4 + pad(len(a.Str)+1)
	case entities.ArgArray:
		return 4 + pad(len(a.Array))
	case entities.ArgFD:
		return 0
	default:
		return 4
	}
}

func putString(buf []byte, off int, s string) int {
	order.PutUint32(buf[off:], uint32(len(s)+1))
	copy(buf[off+4:], s)
	// The terminator and padding are already zero.
	return off + 4 + pad(len(s)+1)
}

func pad(n int) int {
	return (n + 3) &^ 3
}

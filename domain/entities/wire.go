package entities

import (
	"fmt"
	"math"
	"strings"
)

// ArgType is the wire type code of one message argument.
type ArgType byte

// Argument type codes as they appear in message signatures.
const (
	ArgInt    ArgType = 'i'
	ArgUint   ArgType = 'u'
	ArgFixed  ArgType = 'f'
	ArgString ArgType = 's'
	ArgObject ArgType = 'o'
	ArgNewID  ArgType = 'n'
	ArgArray  ArgType = 'a'
	ArgFD     ArgType = 'h'
)

// Fixed is a signed 24.8 fixed-point number.
type Fixed int32

// FixedFromFloat converts f to the nearest representable Fixed.
func FixedFromFloat(f float64) Fixed {
	return Fixed(math.Round(f * 256))
}

// Float returns f as a float64.
func (f Fixed) Float() float64 {
	return float64(f) / 256
}

// Int returns the integer part of f, truncated toward zero.
func (f Fixed) Int() int32 {
	return int32(f) / 256
}

// Arg is one decoded message argument. Only the field matching Type is set;
// object and new_id arguments use Uint.
type Arg struct {
	Str   string
	Array []byte
	Type  ArgType
	Int   int32
	Uint  uint32
	Fixed Fixed
	FD    int
}

// Int returns an int argument.
func Int(v int32) Arg { return Arg{Type: ArgInt, Int: v} }

// Uint returns a uint argument.
func Uint(v uint32) Arg { return Arg{Type: ArgUint, Uint: v} }

// FixedArg returns a fixed argument.
func FixedArg(v Fixed) Arg { return Arg{Type: ArgFixed, Fixed: v} }

// String returns a string argument.
func String(v string) Arg { return Arg{Type: ArgString, Str: v} }

// Object returns an object argument; id 0 encodes a null object.
func Object(id ObjectID) Arg { return Arg{Type: ArgObject, Uint: uint32(id)} }

// NewID returns a new_id argument.
func NewID(id ObjectID) Arg { return Arg{Type: ArgNewID, Uint: uint32(id)} }

// Array returns an array argument.
func Array(v []byte) Arg { return Arg{Type: ArgArray, Array: v} }

// FD is a file descriptor received with or sent alongside a message. The
// receiver of an event owns the descriptor and must close it.
type FD int

// FDArg returns a file descriptor argument.
func FDArg(fd FD) Arg { return Arg{Type: ArgFD, FD: int(fd)} }

// ObjectID returns the argument as an object id.
func (a Arg) ObjectID() ObjectID { return ObjectID(a.Uint) }

// Format renders the argument for logs and traces.
func (a Arg) Format() string {
	switch a.Type {
	case ArgInt:
		return fmt.Sprintf("%d", a.Int)
	case ArgUint:
		return fmt.Sprintf("%d", a.Uint)
	case ArgFixed:
		return fmt.Sprintf("%g", a.Fixed.Float())
	case ArgString:
		return fmt.Sprintf("%q", a.Str)
	case ArgObject:
		if a.Uint == 0 {
			return "nil"
		}
		return fmt.Sprintf("@%d", a.Uint)
	case ArgNewID:
		return fmt.Sprintf("new@%d", a.Uint)
	case ArgArray:
		return fmt.Sprintf("array[%d]", len(a.Array))
	case ArgFD:
		return fmt.Sprintf("fd %d", a.FD)
	default:
		return "?"
	}
}

// Message is one request or event: the object it is addressed to, the
// opcode within that object's interface and the decoded arguments.
type Message struct {
	Args   []Arg
	Sender ObjectID
	Opcode uint16
}

// String renders the message as "@id.opcode(args...)".
func (m Message) String() string {
	return fmt.Sprintf("@%d.%d(%s)", m.Sender, m.Opcode, FormatArgs(m.Args))
}

// FormatArgs renders an argument list separated by commas.
func FormatArgs(args []Arg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Format()
	}
	return strings.Join(parts, ", ")
}

// FDs returns the file descriptors carried by the message, in order.
func (m Message) FDs() []int {
	var fds []int
	for _, a := range m.Args {
		if a.Type == ArgFD {
			fds = append(fds, a.FD)
		}
	}
	return fds
}

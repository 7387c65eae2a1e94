package trace

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/mavrogato/othones/domain/entities"
	"github.com/mavrogato/othones/infrastructure/socket"
)

// Arg is one recorded argument.
type Arg struct {
	Type  string `cbor:"t"`
	Value any    `cbor:"v"`
}

// Entry is one delivered event.
type Entry struct {
	Time      time.Time         `cbor:"time"`
	Interface string            `cbor:"interface"`
	Event     string            `cbor:"event"`
	Args      []Arg             `cbor:"args,omitempty"`
	Object    entities.ObjectID `cbor:"object"`
	Opcode    uint16            `cbor:"opcode"`
	Seq       uint64            `cbor:"seq"`
}

// String formats the entry like a protocol debug line.
func (e Entry) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = fmt.Sprintf("%s:%v", a.Type, a.Value)
	}
	return fmt.Sprintf("[%s] #%d %s@%d.%s(%v)", e.Time.Format("15:04:05.000000"), e.Seq, e.Interface, e.Object, e.Event, args)
}

func recordArgs(args []entities.Arg) []Arg {
	out := make([]Arg, len(args))
	for i, a := range args {
		out[i].Type = string(a.Type)
		switch a.Type {
		case entities.ArgInt:
			out[i].Value = a.Int
		case entities.ArgUint, entities.ArgObject, entities.ArgNewID:
			out[i].Value = a.Uint
		case entities.ArgFixed:
			out[i].Value = a.Fixed.Float()
		case entities.ArgString:
			out[i].Value = a.Str
		case entities.ArgArray:
			out[i].Value = a.Array
		case entities.ArgFD:
			// Descriptor numbers mean nothing outside this process.
			out[i].Value = nil
		}
	}
	return out
}

// Recorder writes entries to a stream.
type Recorder struct {
	enc    *cbor.Encoder
	closer io.Closer
	now    func() time.Time
	seq    uint64
	failed bool
}

// NewRecorder writes a recording to w.
func NewRecorder(w io.Writer) *Recorder {
	r := &Recorder{enc: encMode.NewEncoder(w), now: time.Now}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}
	return r
}

// Create records to a new file at path.
func Create(path string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	return NewRecorder(f), nil
}

// Record appends one entry, assigning its sequence number and, if unset,
// its time.
func (r *Recorder) Record(e Entry) error {
	r.seq++
	e.Seq = r.seq
	if e.Time.IsZero() {
		e.Time = r.now()
	}
	return r.enc.Encode(e)
}

// Middleware records every event before it is delivered. A write failure
// is logged once and does not affect delivery.
func (r *Recorder) Middleware() socket.Middleware {
	return func(next socket.DispatchFunc) socket.DispatchFunc {
		return func(ctx context.Context, ev *socket.Event) error {
			err := r.Record(Entry{
				Interface: ev.Interface,
				Event:     ev.Name,
				Args:      recordArgs(ev.Args),
				Object:    ev.Object,
				Opcode:    ev.Opcode,
			})
			if err != nil && !r.failed {
				r.failed = true
				slog.WarnContext(ctx, "trace: recording failed, further errors suppressed", "error", err)
			}
			return next(ctx, ev)
		}
	}
}

// Close closes the underlying writer if it is closable.
func (r *Recorder) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Reader iterates over a recording.
type Reader struct {
	dec *cbor.Decoder
}

// NewReader reads a recording from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: decMode.NewDecoder(r)}
}

// Next returns the next entry, or io.EOF at the end of the recording.
func (r *Reader) Next() (Entry, error) {
	var e Entry
	if err := r.dec.Decode(&e); err != nil {
		if stdErrors.Is(err, io.EOF) {
			return Entry{}, io.EOF
		}
		return Entry{}, fmt.Errorf("trace: %w", err)
	}
	return e, nil
}

// ReadAll returns every entry of a recording.
func ReadAll(r io.Reader) ([]Entry, error) {
	tr := NewReader(r)
	var out []Entry
	for {
		e, err := tr.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
}

package wireformat

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/mavrogato/othones/domain/entities"
)

var (
	fixedType    = reflect.TypeOf(entities.Fixed(0))
	objectIDType = reflect.TypeOf(entities.ObjectID(0))
	fdType       = reflect.TypeOf(entities.FD(0))
)

// field maps one exported struct field to one argument.
type field struct {
	index    int
	code     Code
	elemSize int // 4 for []uint32 arrays, 1 for []byte
}

type plan struct {
	fields    []field
	signature string
}

var plans sync.Map // map[reflect.Type]*plan

// SignatureOf returns the wire signature of the event struct type E.
// It panics if E cannot be mapped; event types are declared statically and a
// bad declaration is a programming error.
func SignatureOf[E any]() string {
	p, err := planFor(reflect.TypeOf((*E)(nil)).Elem())
	if err != nil {
		panic(err)
	}
	return p.signature
}

// Unpack assigns args to the exported fields of the struct dst points to, in
// declaration order.
func Unpack(args []entities.Arg, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("wireformat: unpack target must be a non-nil pointer, got %T", dst)
	}
	rv = rv.Elem()
	p, err := planFor(rv.Type())
	if err != nil {
		return err
	}
	if len(args) != len(p.fields) {
		return fmt.Errorf("wireformat: %s expects %d arguments, got %d", rv.Type(), len(p.fields), len(args))
	}
	for i, f := range p.fields {
		a := args[i]
		want := f.code.Type
		if a.Type != want && !(want == entities.ArgObject && a.Type == entities.ArgNewID) {
			return fmt.Errorf("wireformat: %s.%s: argument type %q, want %q",
				rv.Type(), rv.Type().Field(f.index).Name, a.Type, want)
		}
		fv := rv.Field(f.index)
		switch want {
		case entities.ArgInt:
			fv.SetInt(int64(a.Int))
		case entities.ArgUint, entities.ArgObject, entities.ArgNewID:
			fv.SetUint(uint64(a.Uint))
		case entities.ArgFixed:
			fv.SetInt(int64(a.Fixed))
		case entities.ArgString:
			fv.SetString(a.Str)
		case entities.ArgFD:
			fv.SetInt(int64(a.FD))
		case entities.ArgArray:
			if f.elemSize == 1 {
				fv.SetBytes(a.Array)
				continue
			}
			if len(a.Array)%4 != 0 {
				return fmt.Errorf("wireformat: %s.%s: array of %d bytes is not a word array",
					rv.Type(), rv.Type().Field(f.index).Name, len(a.Array))
			}
			words := reflect.MakeSlice(fv.Type(), len(a.Array)/4, len(a.Array)/4)
			for j := 0; j < words.Len(); j++ {
				words.Index(j).SetUint(uint64(order.Uint32(a.Array[j*4:])))
			}
			fv.Set(words)
		}
	}
	return nil
}

// Pack converts the exported fields of struct v into an argument list.
func Pack(v any) ([]entities.Arg, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	p, err := planFor(rv.Type())
	if err != nil {
		return nil, err
	}
	args := make([]entities.Arg, len(p.fields))
	for i, f := range p.fields {
		fv := rv.Field(f.index)
		switch f.code.Type {
		case entities.ArgInt:
			args[i] = entities.Int(int32(fv.Int()))
		case entities.ArgUint:
			args[i] = entities.Uint(uint32(fv.Uint()))
		case entities.ArgObject:
			args[i] = entities.Object(entities.ObjectID(fv.Uint()))
		case entities.ArgNewID:
			args[i] = entities.NewID(entities.ObjectID(fv.Uint()))
		case entities.ArgFixed:
			args[i] = entities.FixedArg(entities.Fixed(fv.Int()))
		case entities.ArgString:
			args[i] = entities.String(fv.String())
		case entities.ArgFD:
			args[i] = entities.FDArg(entities.FD(fv.Int()))
		case entities.ArgArray:
			if f.elemSize == 1 {
				args[i] = entities.Array(fv.Bytes())
				continue
			}
			data := make([]byte, fv.Len()*4)
			for j := 0; j < fv.Len(); j++ {
				order.PutUint32(data[j*4:], uint32(fv.Index(j).Uint()))
			}
			args[i] = entities.Array(data)
		}
	}
	return args, nil
}

// Words decodes a word array argument.
func Words(data []byte) []uint32 {
	out := make([]uint32, len(data)/4)
	for i := range out {
		out[i] = order.Uint32(data[i*4:])
	}
	return out
}

// ByteOrder is the byte order of the wire, which is the host's.
func ByteOrder() binary.ByteOrder {
	return order
}

func planFor(t reflect.Type) (*plan, error) {
	if cached, ok := plans.Load(t); ok {
		return cached.(*plan), nil
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("wireformat: %s is not a struct", t)
	}
	p := &plan{}
	var sig strings.Builder
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		f, err := fieldFor(sf)
		if err != nil {
			return nil, fmt.Errorf("wireformat: %s.%s: %w", t, sf.Name, err)
		}
		f.index = i
		p.fields = append(p.fields, f)
		if f.code.Nullable {
			sig.WriteByte('?')
		}
		sig.WriteByte(byte(f.code.Type))
	}
	p.signature = sig.String()
	actual, _ := plans.LoadOrStore(t, p)
	return actual.(*plan), nil
}

// fieldFor maps a field type to its code. Tag options (`wl:"nullable"`,
// `wl:"new_id"`) refine object and string fields.
func fieldFor(sf reflect.StructField) (field, error) {
	opts := strings.Split(sf.Tag.Get("wl"), ",")
	has := func(opt string) bool {
		for _, o := range opts {
			if strings.TrimSpace(o) == opt {
				return true
			}
		}
		return false
	}
	nullable := has("nullable")

	t := sf.Type
	var f field
	switch {
	case t == fixedType:
		f.code.Type = entities.ArgFixed
	case t == objectIDType:
		f.code.Type = entities.ArgObject
		if has("new_id") {
			f.code.Type = entities.ArgNewID
		}
	case t == fdType:
		f.code.Type = entities.ArgFD
	case t.Kind() == reflect.Int32:
		f.code.Type = entities.ArgInt
	case t.Kind() == reflect.Uint32:
		f.code.Type = entities.ArgUint
	case t.Kind() == reflect.String:
		f.code.Type = entities.ArgString
	case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8:
		f.code.Type = entities.ArgArray
		f.elemSize = 1
	case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint32:
		f.code.Type = entities.ArgArray
		f.elemSize = 4
	default:
		return field{}, fmt.Errorf("unsupported field type %s", t)
	}
	if nullable {
		if f.code.Type != entities.ArgString && f.code.Type != entities.ArgObject {
			return field{}, fmt.Errorf("nullable applies to strings and objects only")
		}
		f.code.Nullable = true
	}
	return f, nil
}

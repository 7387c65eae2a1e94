// Package trace records delivered events as a CBOR sequence and reads such
// recordings back.
package trace

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode uses Core Deterministic Encoding (RFC 8949 §4.2), so identical
// event streams produce identical recordings.
var encMode cbor.EncMode

var decMode cbor.DecMode

// diagMode renders a whole recording, which is a sequence of items.
var diagMode cbor.DiagMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("trace: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("trace: CBOR decoder initialization failed: " + err.Error())
	}

	diagMode, err = cbor.DiagOptions{CBORSequence: true}.DiagMode()
	if err != nil {
		panic("trace: CBOR diagnostic initialization failed: " + err.Error())
	}
}

// Diagnose returns the CBOR diagnostic notation of a recording.
func Diagnose(data []byte) (string, error) {
	return diagMode.Diagnose(data)
}

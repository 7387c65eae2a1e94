package wireformat

import (
	"fmt"

	"github.com/mavrogato/othones/domain/entities"
)

// Code is one parsed signature element.
type Code struct {
	Type     entities.ArgType
	Nullable bool
}

// ParseSignature splits sig into its argument codes.
func ParseSignature(sig string) ([]Code, error) {
	codes := make([]Code, 0, len(sig))
	nullable := false
	for i := 0; i < len(sig); i++ {
		c := entities.ArgType(sig[i])
		switch c {
		case '?':
			nullable = true
			continue
		case entities.ArgInt, entities.ArgUint, entities.ArgFixed, entities.ArgArray, entities.ArgFD, entities.ArgNewID:
			if nullable {
				return nil, fmt.Errorf("wireformat: %q: '?' only applies to s and o", sig)
			}
		case entities.ArgString, entities.ArgObject:
		default:
			return nil, fmt.Errorf("wireformat: %q: unknown type code %q", sig, sig[i])
		}
		codes = append(codes, Code{Type: c, Nullable: nullable})
		nullable = false
	}
	if nullable {
		return nil, fmt.Errorf("wireformat: %q: dangling '?'", sig)
	}
	return codes, nil
}

// SignatureOfArgs derives the signature of an already built argument list.
func SignatureOfArgs(args []entities.Arg) string {
	b := make([]byte, len(args))
	for i, a := range args {
		b[i] = byte(a.Type)
	}
	return string(b)
}

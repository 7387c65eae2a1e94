// Package wireformat implements the binary message encoding of the protocol.
//
// Every message starts with an 8-byte header in host byte order: the sender
// object id, then a word holding the total message size in the upper 16 bits
// and the opcode in the lower 16. Arguments follow, each aligned to 32 bits:
//
//	i, u, f, o, n   one 32-bit word
//	s               word length including the NUL terminator, bytes, padding
//	a               word length, bytes, padding
//	h               no bytes; the descriptor travels out of band
//
// Signatures are strings of these codes; '?' before 's' or 'o' marks a
// nullable argument.
//
// The package also converts between decoded argument lists and typed event
// structs by reflection, so each event can be declared once as a Go struct.
package wireformat

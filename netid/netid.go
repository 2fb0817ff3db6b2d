// Package netid generates the stable 128-bit identifiers that every
// endpoint (client, session, server) in netcore carries for its lifetime.
package netid

import (
	"encoding/hex"

	uuid "github.com/hashicorp/go-uuid"
)

// ID is a 128-bit endpoint identifier, assigned once at construction and
// never reused.
type ID [16]byte

// Nil is the zero identifier, used before an endpoint has been assigned one.
var Nil ID

// New generates a fresh random 128-bit identifier. It panics only if the
// platform's CSPRNG is unavailable, which go-uuid itself treats as fatal.
func New() ID {
	raw, err := uuid.GenerateRandomBytes(16)
	if err != nil {
		// go-uuid only fails this way when crypto/rand itself fails to read,
		// which means the process environment is broken beyond recovery.
		panic("netid: failed to generate random identifier: " + err.Error())
	}
	var id ID
	copy(id[:], raw)
	return id
}

// String renders the identifier as lowercase hex, grouped like a UUID for
// readability in logs, without claiming RFC 4122 version/variant semantics.
func (id ID) String() string {
	b := make([]byte, 36)
	hex.Encode(b[0:8], id[0:4])
	b[8] = '-'
	hex.Encode(b[9:13], id[4:6])
	b[13] = '-'
	hex.Encode(b[14:18], id[6:8])
	b[18] = '-'
	hex.Encode(b[19:23], id[8:10])
	b[23] = '-'
	hex.Encode(b[24:36], id[10:16])
	return string(b)
}

// IsNil reports whether id is the zero value.
func (id ID) IsNil() bool {
	return id == Nil
}

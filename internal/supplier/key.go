// Package supplier implements the network-supplier entity: identity,
// capability snapshot, live score, and the request bookkeeping the matching
// engine drives.
package supplier

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/xxh3"

	"github.com/arbiternet/arbiter/internal/netcap"
)

// Key is a 128-bit supplier identity derived from (bearer, ident, caps).
// Registering the same triple twice resolves to the same Key, which is how
// the registry deduplicates repeated registrations from the same agent.
type Key [16]byte

// ZeroKey is the zero-value Key.
var ZeroKey Key

// KeyOf computes the identity key for a registration triple.
func KeyOf(bearer netcap.Bearer, ident string, caps netcap.CapSet) Key {
	buf := make([]byte, 0, 12+len(ident))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(bearer))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(caps))
	buf = append(buf, ident...)

	h128 := xxh3.Hash128(buf)
	var k Key
	binary.LittleEndian.PutUint64(k[:8], h128.Lo)
	binary.LittleEndian.PutUint64(k[8:], h128.Hi)
	return k
}

// Hex returns the lowercase hex encoding of the key.
func (k Key) Hex() string {
	return hex.EncodeToString(k[:])
}

func (k Key) String() string { return k.Hex() }

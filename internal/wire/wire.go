// Package wire frames a serialized collection snapshot with the metadata the
// mirror needs to validate it on read.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version        byte = 1
	kindCollection byte = 1

	headerLen = 4 + 1 + 1 + 2 + 8 + 4 + 4
)

var (
	ErrCorrupt = errors.New("shopmirror: corrupt entry")
	magic4     = [...]byte{'S', 'H', 'M', 'R'}
)

// Snapshot is the decoded envelope. Payload aliases the input buffer.
type Snapshot struct {
	Schema  uint16
	Gen     uint64
	Count   uint32
	Payload []byte
}

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Encode lays out:
//
//	magic(4) | ver(1) | kind(1) | schema(u16 be) | gen(u64 be) | count(u32 be) | vlen(u32 be) | payload(vlen)
func Encode(s Snapshot) []byte {
	var buf bytes.Buffer
	buf.Grow(headerLen + len(s.Payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindCollection)

	var u8 [8]byte
	var u4 [4]byte
	var u2 [2]byte

	binary.BigEndian.PutUint16(u2[:], s.Schema)
	buf.Write(u2[:])

	binary.BigEndian.PutUint64(u8[:], s.Gen)
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], s.Count)
	buf.Write(u4[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(s.Payload)))
	buf.Write(u4[:])

	buf.Write(s.Payload)
	return buf.Bytes()
}

// Decode parses an envelope. Short input, unknown magic/version/kind, a
// length that overruns the buffer and trailing bytes are all ErrCorrupt.
func Decode(b []byte) (Snapshot, error) {
	if len(b) < headerLen || !hasMagic(b) || b[4] != version || b[5] != kindCollection {
		return Snapshot{}, ErrCorrupt
	}
	off := 6

	schema := binary.BigEndian.Uint16(b[off : off+2])
	off += 2

	gen := binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	count := binary.BigEndian.Uint32(b[off : off+4])
	off += 4

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off {
		return Snapshot{}, ErrCorrupt
	}

	return Snapshot{
		Schema:  schema,
		Gen:     gen,
		Count:   count,
		Payload: b[off : off+vlen],
	}, nil
}

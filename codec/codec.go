// Package codec serializes mirrored collection snapshots to bytes.
package codec

import (
	"fmt"
	"strings"
)

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Names accepted by ByName.
const (
	NameJSON    = "json"
	NameCBOR    = "cbor"
	NameMsgpack = "msgpack"
)

// ByName builds a codec from its configuration name. An empty name selects JSON.
// maxDecode > 0 wraps the result in a Limit.
func ByName[V any](name string, maxDecode int) (Codec[V], error) {
	var c Codec[V]
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameJSON:
		c = JSON[V]{}
	case NameCBOR:
		cb, err := NewCBOR[V](false)
		if err != nil {
			return nil, err
		}
		c = cb
	case NameMsgpack:
		c = Msgpack[V]{}
	default:
		return nil, fmt.Errorf("codec: unknown codec %q", name)
	}
	if maxDecode > 0 {
		return Limit[V]{Inner: c, MaxDecode: maxDecode}, nil
	}
	return c, nil
}

package codec

import (
	"github.com/fxamacker/cbor/v2"
)

// maxSnapshotElements bounds every CBOR array/map we accept from the cache.
// A collection snapshot is one array, so this is also the largest catalog
// that can be mirrored with CBOR.
const maxSnapshotElements = 1 << 20

// CBOR serializes snapshots with fxamacker/cbor. Struct fields fall back to
// their `json` tags, so model types need no extra annotations.
// The zero value is NOT ready to use. Construct with NewCBOR or MustCBOR.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[struct{}] = CBOR[struct{}]{}

// NewCBOR constructs a CBOR codec. deterministic selects RFC 8949 core
// deterministic encoding, useful when snapshots are hashed or compared
// byte-for-byte. Times are written as RFC3339Nano strings so they decode to
// UTC exactly like the JSON codec.
func NewCBOR[V any](deterministic bool) (CBOR[V], error) {
	eo := cbor.PreferredUnsortedEncOptions()
	if deterministic {
		eo = cbor.CoreDetEncOptions()
	}
	eo.Time = cbor.TimeRFC3339Nano

	em, err := eo.EncMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	dm, err := cbor.DecOptions{
		MaxArrayElements: maxSnapshotElements,
		MaxMapPairs:      maxSnapshotElements,
	}.DecMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{enc: em, dec: dm}, nil
}

// MustCBOR is like NewCBOR but panics on error.
func MustCBOR[V any](deterministic bool) CBOR[V] {
	c, err := NewCBOR[V](deterministic)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR[V]) Encode(v V) ([]byte, error) { return c.enc.Marshal(v) }

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	err := c.dec.Unmarshal(b, &v)
	return v, err
}

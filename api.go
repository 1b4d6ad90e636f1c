package shopmirror

import (
	"time"

	"github.com/unkn0wn-root/shopmirror/blob"
	gen "github.com/unkn0wn-root/shopmirror/genstore"
	pr "github.com/unkn0wn-root/shopmirror/provider"
	"github.com/unkn0wn-root/shopmirror/store"
)

// Options configure a Core. Only Store and Provider are required; others
// have sensible defaults.
type Options struct {
	// Required
	Store    store.Store
	Provider pr.Provider

	GenStore     gen.GenStore     // nil => genstore.NewLocal() (single process only)
	Blobs        blob.Remover     // nil => blob.Nop
	Namespace    string           // cache key namespace; "" => "shop"
	CodecName    string           // "json" (default), "cbor", "msgpack"
	MaxDecode    int              // max cached snapshot size in bytes; 0 => unlimited
	Logger       Logger           // nil => NopLogger
	Hooks        Hooks            // nil => NopHooks
	Clock        func() time.Time // nil => time.Now().UTC()
	Retries      int              // saga step retries; 0 => 3, <0 => none
	RetryBackoff time.Duration    // linear backoff unit; 0 => 50ms
}

// New wires the mirrors, resolvers and engines for the four collections.
func New(opts Options) (*Core, error) {
	return newCore(opts)
}

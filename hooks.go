package shopmirror

// Hooks are lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking; they are called on request
// paths. Wrap a slow implementation with hooks/async.
type Hooks interface {
	// A cached snapshot was deleted on read.
	// reason ∈ {"corrupt", "gen_mismatch", "schema_mismatch", "value_decode"}
	SelfHeal(collection, reason string)

	// A republish was abandoned because another writer bumped the
	// collection generation while this one was reading the store.
	PublishSuperseded(collection string, gen uint64)

	// Provider returned ok=false on Set.
	ProviderSetRejected(collection string)

	// GenStore failed. op ∈ {"snapshot", "bump"}.
	GenStoreError(collection, op string, err error)

	// A cache read failed and the resolver fell back to the store.
	CacheReadError(collection string, err error)

	// Best-effort image cleanup failed.
	BlobCleanupFailed(ref string, err error)

	// A saga step's compensation failed; store and cache may now disagree
	// until the operation is retried.
	CompensationFailed(saga, step string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) SelfHeal(string, string)                  {}
func (NopHooks) PublishSuperseded(string, uint64)         {}
func (NopHooks) ProviderSetRejected(string)               {}
func (NopHooks) GenStoreError(string, string, error)      {}
func (NopHooks) CacheReadError(string, error)             {}
func (NopHooks) BlobCleanupFailed(string, error)          {}
func (NopHooks) CompensationFailed(string, string, error) {}

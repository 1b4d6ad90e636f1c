// Package genstore keeps one generation counter per mirrored collection.
//
// A mirror bumps the generation before it republishes a collection and
// stamps the generation into the cached envelope. Readers reject envelopes
// whose generation is not current, and a writer whose generation was bumped
// by someone else while it was reading the store abandons its publish.
package genstore

import "context"

// GenStore abstracts where generations live.
// Use Local for a single process, Redis when several processes share a cache.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, key string) (uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, key string) (uint64, error)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}

// Package provider defines the byte store a mirror publishes snapshots to.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key (no prepended/appended
// metadata, no re-encoding, no mutation).
//
// The keyspace "mirror:<ns>:" is owned by shopmirror. Foreign writes under it
// fail envelope validation and are deleted on the next read.
package provider

import "context"

// Provider is a minimal byte store. Entries never expire on their own; the
// mirror replaces them wholesale. Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set overwrites key. Returns ok=false when the store refused the write
	// (admission policy, size limit) without failing.
	Set(ctx context.Context, key string, value []byte) (ok bool, err error)

	// Del removes a key. Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}

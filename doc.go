// Package shopmirror keeps a look-aside cache of a shop's four collections
// (users, products, categories, orders) faithful to an authoritative store,
// and performs the mutations that have to stay consistent under concurrency:
// stock adjustments, cart changes, order placement, favorites and cascading
// deletes.
//
// Components:
//   - Mirror[V]: one cache entry per collection holding the whole list,
//     framed with the schema version and the collection generation.
//   - Provider: byte store (Redis, BigCache, Ristretto).
//   - GenStore: generation counter per collection. Local (in-process) by
//     default, Redis when several processes share a cache.
//   - store.Store: the authoritative repository (memstore, mongostore).
//
// Keys:
//
//	mirror:<ns>:<collection>  - cached collection snapshot
//	gen:<ns>:mirror:<ns>:<collection> - its generation (Redis GenStore)
//
// Write path:
//
//	store mutation (one conditional write)
//	seen := Snapshot(collection)  // previous snapshot stays readable
//	list := store.FindAll()       // fresh read
//	if Snapshot(collection) == seen: gen := Bump; overwrite with (gen, list)
//	else: Bump and drop the key
package shopmirror

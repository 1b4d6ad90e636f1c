// Package model holds the entities mirrored by shopmirror and the invariants
// that are cheap to enforce on a single value (cart totals, set semantics).
package model

// SchemaVersion is stamped into every cache envelope. Bump it whenever a
// cached entity changes shape; entries written under another version are
// treated as misses.
const SchemaVersion uint16 = 1

// Collection names a mirrored cache key. The set is closed.
type Collection string

const (
	Users       Collection = "users"
	Orders      Collection = "orders"
	Products    Collection = "products"
	Categories  Collection = "categories"
	CurrentUser Collection = "currentUser"
)

// Collections lists every valid collection in a stable order.
var Collections = []Collection{Users, Orders, Products, Categories, CurrentUser}

func (c Collection) Valid() bool {
	switch c {
	case Users, Orders, Products, Categories, CurrentUser:
		return true
	default:
		return false
	}
}

func (c Collection) String() string { return string(c) }

// Entity is implemented by everything stored in a mirrored collection.
type Entity interface {
	EntityID() string
}

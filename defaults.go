package shopmirror

import "time"

const (
	defaultNamespace    = "shop"
	defaultRetries      = 3
	defaultRetryBackoff = 50 * time.Millisecond
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// maxCartSwaps bounds compare-and-swap attempts on a contended cart.
const maxCartSwaps = 16

// Package cache stores rendered artifacts and scenario results behind a small
// byte-oriented interface.
//
// Four backends are provided:
//
//   - [NullCache] never stores anything (caching disabled)
//   - [MemoryCache] keeps entries in a bounded in-process LRU
//   - [FileCache] stores JSON entries under a directory, for the CLI
//   - [RedisCache] shares entries between server instances
//
// Keys are built by a [Keyer] so that backends never see raw input:
//
//	k := cache.NewDefaultKeyer()
//	key := k.RenderKey(cache.Hash([]byte(dot)), cache.RenderKeyOpts{Format: "svg"})
//	if data, ok, err := c.Get(ctx, key); err == nil && ok {
//	    return data
//	}
package cache

import (
	"context"
	"time"
)

// Cache is a key/value store for opaque byte slices.
//
// Get reports a miss with ok == false and a nil error; errors are reserved
// for backend failures. A ttl of zero means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer builds cache keys for the two kinds of cached values.
type Keyer interface {
	// ScenarioKey keys the JSON result of running a scenario document.
	ScenarioKey(docHash string) string

	// RenderKey keys a rendered artifact of a DOT document.
	RenderKey(dotHash string, opts RenderKeyOpts) string
}

// RenderKeyOpts holds the options that change a rendered artifact.
type RenderKeyOpts struct {
	Format string `json:"format"`
}

// Key types reported to observability hooks.
const (
	KeyTypeScenario = "scenario"
	KeyTypeRender   = "render"
)

// DefaultKeyer produces keys of the form "kind:sha256".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ScenarioKey keys a scenario result by the hash of the scenario document.
func (DefaultKeyer) ScenarioKey(docHash string) string {
	return hashKey(KeyTypeScenario, docHash)
}

// RenderKey keys an artifact by the DOT hash and the render options.
func (DefaultKeyer) RenderKey(dotHash string, opts RenderKeyOpts) string {
	return hashKey(KeyTypeRender, dotHash, opts)
}

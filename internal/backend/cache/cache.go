// Package cache keeps recently encoded conversion results in memory.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

const (
	defaultMaxCost     = 64 << 20
	defaultBufferItems = 64
	defaultTTL         = 10 * time.Minute
	// ristretto recommends ten counters per expected entry; entries are
	// assumed to be around 64 KiB
	bytesPerCounter = 64 << 10 / 10
)

// Entry is an encoded conversion result.
type Entry struct {
	Data        []byte
	ContentType string
	Format      string
	Width       int
	Height      int
}

// ResultCache is a size bounded cache of encoded results. The cost of an
// entry is its encoded size in bytes.
type ResultCache struct {
	raw        *ristretto.Cache
	defaultTTL time.Duration
}

// NewResultCache creates a cache holding up to maxCost bytes. Zero values
// select the defaults.
func NewResultCache(maxCost int64, ttl time.Duration) (*ResultCache, error) {
	if maxCost <= 0 {
		maxCost = defaultMaxCost
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	raw, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        max(maxCost/bytesPerCounter, 1000),
		MaxCost:            maxCost,
		BufferItems:        defaultBufferItems,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}
	return &ResultCache{raw: raw, defaultTTL: ttl}, nil
}

// Get returns the entry stored under key.
func (c *ResultCache) Get(key string) (*Entry, bool) {
	v, ok := c.raw.Get(key)
	if !ok {
		return nil, false
	}
	entry, ok := v.(*Entry)
	return entry, ok
}

// Set stores entry with the default TTL. It reports false when the entry
// was dropped by the admission policy.
func (c *ResultCache) Set(key string, entry *Entry) bool {
	return c.raw.SetWithTTL(key, entry, int64(max(len(entry.Data), 1)), c.defaultTTL)
}

// Wait blocks until buffered writes are applied.
func (c *ResultCache) Wait() {
	c.raw.Wait()
}

// Close stops the cache goroutines.
func (c *ResultCache) Close() {
	c.raw.Close()
}

// Key derives the cache key of a conversion from the input bytes, the style,
// the effective parameters and the output format.
func Key(input []byte, style string, params map[string]any, format string) (string, error) {
	// encoding/json writes map keys in sorted order
	encodedParams, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to encode parameters for cache key: %w", err)
	}

	h := sha256.New()
	h.Write(input)
	h.Write([]byte{0})
	h.Write([]byte(style))
	h.Write([]byte{0})
	h.Write(encodedParams)
	h.Write([]byte{0})
	h.Write([]byte(format))
	return hex.EncodeToString(h.Sum(nil)), nil
}

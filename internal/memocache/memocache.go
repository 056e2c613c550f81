// Package memocache persists subset cardinalities and best-plan
// signatures across optimizer runs in a Badger key-value store, so a
// DPsize driver re-run over the same query graph can backfill subset
// cardinalities a fresh dump omits, and the CLI can report whether the
// winning plan changed since the previous run. Grounded on
// the teacher's Badger data-source layer (pkg/resource/badger), trimmed
// down to the two key spaces this package actually needs.
package memocache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/kasuganosora/joinopt/internal/bitset"
)

// Key prefixes, mirroring the teacher's badger.PrefixXxx convention.
const (
	prefixCardinality = "card:"
	prefixSignature   = "sig:"
)

// ErrClosed is returned by any operation on a Cache after Close.
var ErrClosed = errors.New("memocache: cache is closed")

// Config controls how the underlying Badger instance is opened.
type Config struct {
	// DataDir is where Badger persists its LSM tree and value log. Empty
	// with InMemory false is invalid.
	DataDir string `json:"data_dir"`
	// InMemory runs Badger without touching disk, for tests and
	// short-lived CLI invocations that don't want to leave files behind.
	InMemory bool `json:"in_memory"`
	// SyncWrites forces an fsync after every write; off by default since
	// a memo cache is a performance optimization, not a durability
	// guarantee — losing it just means recomputing.
	SyncWrites bool `json:"sync_writes"`
}

// DefaultConfig returns an in-memory cache configuration, suitable for a
// single CLI invocation that does not need results to survive it.
func DefaultConfig() Config {
	return Config{InMemory: true}
}

// Cache wraps a Badger database keyed by subset bitmask alone. Keys carry
// no query-graph identity, so entries of different graphs that share one
// cache directory overwrite each other.
type Cache struct {
	db     *badger.DB
	closed bool
}

// Open opens (or creates) the Badger database described by cfg.
func Open(cfg Config) (*Cache, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.DataDir)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("memocache: opening badger: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying Badger database.
func (c *Cache) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.db.Close()
}

func cardinalityKey(subset bitset.Set) []byte {
	return []byte(prefixCardinality + strconv.FormatUint(uint64(subset), 16))
}

func signatureKey(subset bitset.Set) []byte {
	return []byte(prefixSignature + strconv.FormatUint(uint64(subset), 16))
}

// PutCardinality records the cardinality for a subset.
func (c *Cache) PutCardinality(subset bitset.Set, cardinality float64) error {
	if c.closed {
		return ErrClosed
	}
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(cardinality))
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cardinalityKey(subset), buf)
	})
}

// Cardinality returns the cached cardinality for subset, or ok=false if
// it was never recorded.
func (c *Cache) Cardinality(subset bitset.Set) (value float64, ok bool, err error) {
	if c.closed {
		return 0, false, ErrClosed
	}
	err = c.db.View(func(txn *badger.Txn) error {
		item, getErr := txn.Get(cardinalityKey(subset))
		if getErr == badger.ErrKeyNotFound {
			return nil
		}
		if getErr != nil {
			return getErr
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("memocache: corrupt cardinality entry for subset %#x", subset)
			}
			value = math.Float64frombits(binary.LittleEndian.Uint64(val))
			ok = true
			return nil
		})
	})
	if err != nil {
		return 0, false, fmt.Errorf("memocache: reading cardinality: %w", err)
	}
	return value, ok, nil
}

// PutSignature records the winning plan signature for a subset, so a
// later run can compare its own winning plan against it.
func (c *Cache) PutSignature(subset bitset.Set, signature string) error {
	if c.closed {
		return ErrClosed
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(signatureKey(subset), []byte(signature))
	})
}

// Signature returns the cached plan signature for subset, or ok=false if
// none is recorded.
func (c *Cache) Signature(subset bitset.Set) (signature string, ok bool, err error) {
	if c.closed {
		return "", false, ErrClosed
	}
	err = c.db.View(func(txn *badger.Txn) error {
		item, getErr := txn.Get(signatureKey(subset))
		if getErr == badger.ErrKeyNotFound {
			return nil
		}
		if getErr != nil {
			return getErr
		}
		return item.Value(func(val []byte) error {
			signature = string(val)
			ok = true
			return nil
		})
	})
	if err != nil {
		return "", false, fmt.Errorf("memocache: reading signature: %w", err)
	}
	return signature, ok, nil
}

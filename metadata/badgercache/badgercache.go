// Package badgercache wraps any metadata.Port with a persistent
// memoization layer backed by a single Badger key-value namespace. It
// caches read-only lookups only — it never owns write state, so the
// cache stays process-lifetime and read-only after init like the Port
// it wraps.
package badgercache

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/relq/optimizer/metadata"
)

// Cache is a metadata.Port that memoizes an underlying Port's lookups in
// a Badger key-value store, so a process that restarts often still has a
// warm cache instead of re-querying a live catalog (pgcatalog/mysqlcatalog)
// on every run.
type Cache struct {
	inner metadata.Port
	db    *badger.DB
}

// New opens (or creates) a Badger database at path and wraps inner with
// it. The options favor read-heavy workloads, since a metadata cache is
// overwhelmingly reads.
func New(path string, inner metadata.Port) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.MemTableSize = 64 << 20
	opts.BlockCacheSize = 64 << 20
	opts.IndexCacheSize = 32 << 20
	opts.DetectConflicts = false

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgercache: open: %w", err)
	}
	return &Cache{inner: inner, db: db}, nil
}

// Close releases the underlying Badger database.
func (c *Cache) Close() error { return c.db.Close() }

func (c *Cache) EntityExists(entity string) bool { return c.inner.EntityExists(entity) }

func (c *Cache) TableOf(entity string) (string, error) {
	return cached(c.db, "table:"+entity, func() (string, error) { return c.inner.TableOf(entity) })
}

func (c *Cache) ColumnMap(entity string) (map[string]string, error) {
	return cached(c.db, "columns:"+entity, func() (map[string]string, error) { return c.inner.ColumnMap(entity) })
}

func (c *Cache) PrimaryKeyColumns(entity string) ([]string, error) {
	return cached(c.db, "pk:"+entity, func() ([]string, error) { return c.inner.PrimaryKeyColumns(entity) })
}

func (c *Cache) IsColumnNullable(entity, property string) (bool, error) {
	key := "nullable:" + entity + ":" + property
	return cached(c.db, key, func() (bool, error) { return c.inner.IsColumnNullable(entity, property) })
}

func (c *Cache) RelationKind(entity, property string) (metadata.RelationKind, error) {
	key := "relkind:" + entity + ":" + property
	str, err := cached(c.db, key, func() (string, error) {
		kind, err := c.inner.RelationKind(entity, property)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(int(kind)), nil
	})
	if err != nil {
		return metadata.RelationNone, err
	}
	n, _ := strconv.Atoi(str)
	return metadata.RelationKind(n), nil
}

func (c *Cache) DependentEntities(entity string) ([]string, error) {
	return cached(c.db, "dependents:"+entity, func() ([]string, error) { return c.inner.DependentEntities(entity) })
}

// cached is the generic get-or-populate helper: try Badger first, fall
// back to calling fetch and persisting the result on a miss.
func cached[T any](db *badger.DB, key string, fetch func() (T, error)) (T, error) {
	var zero T
	var found T
	hit := false

	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if jsonErr := json.Unmarshal(val, &found); jsonErr != nil {
				return jsonErr
			}
			hit = true
			return nil
		})
	})
	if err != nil {
		return zero, fmt.Errorf("badgercache: read %s: %w", key, err)
	}
	if hit {
		return found, nil
	}

	value, err := fetch()
	if err != nil {
		return zero, err
	}

	encoded, err := json.Marshal(value)
	if err == nil {
		_ = db.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte(key), encoded)
		})
	}
	return value, nil
}

var _ metadata.Port = (*Cache)(nil)

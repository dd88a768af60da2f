// Package badgerindex is an embedded presence index on BadgerDB for
// deployments without a relational database.
package badgerindex

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/odvcencio/got-lfs/pkg/presence"
)

// Key format: "presence/<store>\x00<oid>" -> uint64 big-endian size.
const keyPrefix = "presence/"

// Index implements presence.Recorder using BadgerDB.
type Index struct {
	db *badger.DB
}

var _ presence.Recorder = (*Index)(nil)

// New wraps an open BadgerDB.
func New(db *badger.DB) *Index {
	return &Index{db: db}
}

// Open opens a BadgerDB at dir and wraps it.
func Open(dir string) (*Index, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger index at %s: %w", dir, err)
	}
	return New(db), nil
}

// Close closes the underlying database.
func (i *Index) Close() error {
	return i.db.Close()
}

func storePrefix(store presence.StoreID) []byte {
	return []byte(keyPrefix + string(store) + "\x00")
}

func objectKey(store presence.StoreID, oid string) []byte {
	return append(storePrefix(store), oid...)
}

// ExistsBatch answers the whole batch from one read transaction.
func (i *Index) ExistsBatch(ctx context.Context, store presence.StoreID, oids []string) (presence.Set, error) {
	if strings.ContainsRune(string(store), 0) {
		return nil, fmt.Errorf("exists batch: invalid store id %q", store)
	}
	present := make(presence.Set)
	err := i.db.View(func(txn *badger.Txn) error {
		for _, oid := range oids {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := txn.Get(objectKey(store, oid))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			present[oid] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("exists batch for %s: %w", store, err)
	}
	return present, nil
}

// AddObjects implements presence.Recorder.
func (i *Index) AddObjects(ctx context.Context, store presence.StoreID, objects []presence.Object) error {
	if strings.ContainsRune(string(store), 0) {
		return fmt.Errorf("add objects: invalid store id %q", store)
	}
	wb := i.db.NewWriteBatch()
	defer wb.Cancel()
	for _, o := range objects {
		if o.Size < 0 {
			return fmt.Errorf("add object %s: negative size", o.OID)
		}
		val := binary.BigEndian.AppendUint64(nil, uint64(o.Size))
		if err := wb.Set(objectKey(store, o.OID), val); err != nil {
			return fmt.Errorf("add object %s: %w", o.OID, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("add objects to %s: %w", store, err)
	}
	return nil
}

// ListObjects implements presence.Recorder. Keys iterate in oid order.
func (i *Index) ListObjects(ctx context.Context, store presence.StoreID) ([]presence.Object, error) {
	prefix := storePrefix(store)
	var out []presence.Object
	err := i.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			oid := string(item.Key()[len(prefix):])
			err := item.Value(func(val []byte) error {
				if len(val) != 8 {
					return fmt.Errorf("object %s: corrupt size value", oid)
				}
				out = append(out, presence.Object{OID: oid, Size: int64(binary.BigEndian.Uint64(val))})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list objects for %s: %w", store, err)
	}
	return out, nil
}

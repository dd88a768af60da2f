package presence

import (
	"context"
	"fmt"
	"sync"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/sync/errgroup"
)

var log = logging.Logger("presence")

// Checker finds oids missing from every store in a list.
type Checker struct {
	index Index
}

// NewChecker returns a Checker querying index.
func NewChecker(index Index) *Checker {
	return &Checker{index: index}
}

// Missing returns, sorted, the oids present in none of stores. Duplicate
// oids are queried once. Stores are queried concurrently with one batched
// query each; any store failure fails the whole call rather than reporting
// objects as missing.
func (c *Checker) Missing(ctx context.Context, oids []string, stores []StoreID) ([]string, error) {
	wanted := NewSet(oids...)
	if len(wanted) == 0 {
		return nil, nil
	}
	if len(stores) == 0 {
		return nil, fmt.Errorf("missing objects: no stores to query")
	}
	batch := wanted.Sorted()

	var (
		mu    sync.Mutex
		found = make(Set, len(batch))
	)
	eg, ctx := errgroup.WithContext(ctx)
	for _, store := range stores {
		eg.Go(func() error {
			present, err := c.index.ExistsBatch(ctx, store, batch)
			if err != nil {
				return fmt.Errorf("query store %s: %w", store, err)
			}
			mu.Lock()
			defer mu.Unlock()
			for oid := range present {
				found[oid] = struct{}{}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var missing []string
	for _, oid := range batch {
		if !found.Has(oid) {
			missing = append(missing, oid)
		}
	}
	log.Debugw("checked object presence", "requested", len(batch), "stores", len(stores), "missing", len(missing))
	return missing, nil
}

package presence

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

var (
	oidA = strings.Repeat("a", 64)
	oidB = strings.Repeat("b", 64)
	oidC = strings.Repeat("c", 64)
)

type countingIndex struct {
	Index
	mu      sync.Mutex
	batches map[StoreID][][]string
	fail    map[StoreID]error
}

func newCountingIndex(inner Index) *countingIndex {
	return &countingIndex{Index: inner, batches: make(map[StoreID][][]string), fail: make(map[StoreID]error)}
}

func (c *countingIndex) ExistsBatch(ctx context.Context, store StoreID, oids []string) (Set, error) {
	c.mu.Lock()
	c.batches[store] = append(c.batches[store], append([]string(nil), oids...))
	err := c.fail[store]
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.Index.ExistsBatch(ctx, store, oids)
}

func seeded(t *testing.T, records map[StoreID][]string) *MemIndex {
	t.Helper()
	idx := NewMemIndex()
	for store, oids := range records {
		objs := make([]Object, 0, len(oids))
		for _, oid := range oids {
			objs = append(objs, Object{OID: oid, Size: 1})
		}
		if err := idx.AddObjects(context.Background(), store, objs); err != nil {
			t.Fatal(err)
		}
	}
	return idx
}

func TestMissingUnionsStores(t *testing.T) {
	idx := seeded(t, map[StoreID][]string{
		"fork":   {oidA},
		"parent": {oidB},
	})
	missing, err := NewChecker(idx).Missing(context.Background(), []string{oidC, oidA, oidB}, []StoreID{"fork", "parent"})
	if err != nil {
		t.Fatalf("Missing: %v", err)
	}
	if len(missing) != 1 || missing[0] != oidC {
		t.Fatalf("missing = %v, want [%s]", missing, oidC)
	}
}

func TestMissingAllPresent(t *testing.T) {
	idx := seeded(t, map[StoreID][]string{"self": {oidA, oidB}})
	missing, err := NewChecker(idx).Missing(context.Background(), []string{oidA, oidB}, []StoreID{"self"})
	if err != nil {
		t.Fatalf("Missing: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("missing = %v, want none", missing)
	}
}

func TestMissingDeduplicatesAndBatches(t *testing.T) {
	idx := newCountingIndex(NewMemIndex())
	missing, err := NewChecker(idx).Missing(context.Background(), []string{oidB, oidA, oidB, oidA}, []StoreID{"self", "parent"})
	if err != nil {
		t.Fatalf("Missing: %v", err)
	}
	if strings.Join(missing, ",") != oidA+","+oidB {
		t.Fatalf("missing = %v", missing)
	}
	for _, store := range []StoreID{"self", "parent"} {
		batches := idx.batches[store]
		if len(batches) != 1 {
			t.Fatalf("store %s queried %d times, want 1", store, len(batches))
		}
		if len(batches[0]) != 2 {
			t.Fatalf("store %s batch = %v, want 2 unique oids", store, batches[0])
		}
	}
}

func TestMissingEmptyInputSkipsQuery(t *testing.T) {
	idx := newCountingIndex(NewMemIndex())
	missing, err := NewChecker(idx).Missing(context.Background(), nil, []StoreID{"self"})
	if err != nil || missing != nil {
		t.Fatalf("Missing(nil) = %v, %v", missing, err)
	}
	if len(idx.batches) != 0 {
		t.Fatalf("index queried for empty input")
	}
}

func TestMissingPropagatesStoreFailure(t *testing.T) {
	boom := errors.New("connection refused")
	idx := newCountingIndex(seeded(t, map[StoreID][]string{"self": {oidA}}))
	idx.fail["parent"] = boom

	missing, err := NewChecker(idx).Missing(context.Background(), []string{oidA, oidB}, []StoreID{"self", "parent"})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	if missing != nil {
		t.Fatalf("missing = %v on failure, want nil", missing)
	}
}

func TestMissingRequiresStores(t *testing.T) {
	if _, err := NewChecker(NewMemIndex()).Missing(context.Background(), []string{oidA}, nil); err == nil {
		t.Fatal("expected error without stores")
	}
}

func TestMemIndexListObjects(t *testing.T) {
	idx := seeded(t, map[StoreID][]string{"self": {oidB, oidA}})
	objs, err := idx.ListObjects(context.Background(), "self")
	if err != nil {
		t.Fatal(err)
	}
	if len(objs) != 2 || objs[0].OID != oidA || objs[1].OID != oidB {
		t.Fatalf("ListObjects = %+v", objs)
	}
}

package presence

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// MemIndex is an in-memory Recorder.
type MemIndex struct {
	mu      sync.RWMutex
	objects map[StoreID]map[string]int64
}

var _ Recorder = (*MemIndex)(nil)

// NewMemIndex returns an empty MemIndex.
func NewMemIndex() *MemIndex {
	return &MemIndex{objects: make(map[StoreID]map[string]int64)}
}

// ExistsBatch implements Index.
func (m *MemIndex) ExistsBatch(ctx context.Context, store StoreID, oids []string) (Set, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	present := make(Set)
	for _, oid := range oids {
		if _, ok := m.objects[store][oid]; ok {
			present[oid] = struct{}{}
		}
	}
	return present, nil
}

// AddObjects implements Recorder.
func (m *MemIndex) AddObjects(ctx context.Context, store StoreID, objects []Object) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byOID, ok := m.objects[store]
	if !ok {
		byOID = make(map[string]int64)
		m.objects[store] = byOID
	}
	for _, o := range objects {
		byOID[o.OID] = o.Size
	}
	return nil
}

// ListObjects implements Recorder.
func (m *MemIndex) ListObjects(ctx context.Context, store StoreID) ([]Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Object, 0, len(m.objects[store]))
	for oid, size := range m.objects[store] {
		out = append(out, Object{OID: oid, Size: size})
	}
	slices.SortFunc(out, func(a, b Object) int { return strings.Compare(a.OID, b.OID) })
	return out, nil
}

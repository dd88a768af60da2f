// Package presence answers which large objects are already stored for a
// set of object stores.
package presence

import (
	"context"
	"slices"
)

// StoreID identifies an object store by the repository that owns it.
type StoreID string

// Set is a set of oids.
type Set map[string]struct{}

// NewSet returns a Set holding oids.
func NewSet(oids ...string) Set {
	s := make(Set, len(oids))
	for _, oid := range oids {
		s[oid] = struct{}{}
	}
	return s
}

// Has reports whether oid is in s.
func (s Set) Has(oid string) bool {
	_, ok := s[oid]
	return ok
}

// Sorted returns the members of s in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for oid := range s {
		out = append(out, oid)
	}
	slices.Sort(out)
	return out
}

// Index records which oids are present in which store.
type Index interface {
	// ExistsBatch returns the subset of oids recorded as present in store.
	// Implementations answer the whole batch in one logical query.
	ExistsBatch(ctx context.Context, store StoreID, oids []string) (Set, error)
}

// Recorder is an Index that can also record presence.
type Recorder interface {
	Index
	AddObjects(ctx context.Context, store StoreID, objects []Object) error
	ListObjects(ctx context.Context, store StoreID) ([]Object, error)
}

// Object is a presence record with the declared size of the object.
type Object struct {
	OID  string
	Size int64
}

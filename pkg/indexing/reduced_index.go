package indexing

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/adfharrison1/go-docdb/pkg/domain"
)

type bucket map[string]struct{}

// ReducedIndex maps reduced values to the set of primary keys holding them.
// Null values live in their own bucket and are only accepted when the index
// is nullable, unless the reducer handles null itself.
type ReducedIndex struct {
	mu       sync.RWMutex
	reducer  Reducer
	caps     Capabilities
	nullable bool
	buckets  map[interface{}]bucket
	nulls    bucket

	// sorted bucket keys, nil when the bucket set changed since last computed
	order atomic.Pointer[[]interface{}]
}

// NewReducedIndex creates an empty index over reducer
func NewReducedIndex(reducer Reducer, nullable bool) *ReducedIndex {
	return &ReducedIndex{
		reducer:  reducer,
		caps:     reducer.Capabilities(),
		nullable: nullable,
		buckets:  make(map[interface{}]bucket),
		nulls:    make(bucket),
	}
}

// locate returns the bucket key for value; isNull reports the null bucket
func (ri *ReducedIndex) locate(value interface{}) (key interface{}, isNull bool, err error) {
	if value == nil && !ri.caps.NullAware {
		if !ri.nullable {
			return nil, false, &domain.TypeError{Given: domain.KindNull}
		}
		return nil, true, nil
	}
	key, err = ri.reducer.Reduce(value)
	return key, false, err
}

// Add records pk under the bucket of value. Adding twice is a no-op.
func (ri *ReducedIndex) Add(value interface{}, pk string) error {
	key, isNull, err := ri.locate(value)
	if err != nil {
		return err
	}

	ri.mu.Lock()
	defer ri.mu.Unlock()

	if isNull {
		ri.nulls[pk] = struct{}{}
		return nil
	}
	b, ok := ri.buckets[key]
	if !ok {
		b = make(bucket)
		ri.buckets[key] = b
		ri.order.Store(nil)
	}
	b[pk] = struct{}{}
	return nil
}

// Remove drops pk from the bucket of value. Removing an absent key is a no-op.
func (ri *ReducedIndex) Remove(value interface{}, pk string) error {
	key, isNull, err := ri.locate(value)
	if err != nil {
		return err
	}

	ri.mu.Lock()
	defer ri.mu.Unlock()

	if isNull {
		delete(ri.nulls, pk)
		return nil
	}
	b, ok := ri.buckets[key]
	if !ok {
		return nil
	}
	delete(b, pk)
	if len(b) == 0 {
		delete(ri.buckets, key)
		ri.order.Store(nil)
	}
	return nil
}

// Get returns the sorted keys sharing the bucket of value
func (ri *ReducedIndex) Get(value interface{}) ([]string, error) {
	if value == nil && !ri.caps.NullAware && !ri.nullable {
		// nothing can be stored as null here
		return []string{}, nil
	}
	key, isNull, err := ri.locate(value)
	if err != nil {
		return nil, err
	}

	ri.mu.RLock()
	defer ri.mu.RUnlock()

	if isNull {
		return sortedKeys(ri.nulls), nil
	}
	return sortedKeys(ri.buckets[key]), nil
}

// Has reports whether pk is stored under the bucket of value
func (ri *ReducedIndex) Has(value interface{}, pk string) (bool, error) {
	key, isNull, err := ri.locate(value)
	if err != nil {
		return false, err
	}

	ri.mu.RLock()
	defer ri.mu.RUnlock()

	if isNull {
		_, ok := ri.nulls[pk]
		return ok, nil
	}
	_, ok := ri.buckets[key][pk]
	return ok, nil
}

// Greater returns the keys of every bucket strictly above the bucket of value
func (ri *ReducedIndex) Greater(value interface{}) ([]string, error) {
	return ri.scan(value, true)
}

// Lesser returns the keys of every bucket strictly below the bucket of value
func (ri *ReducedIndex) Lesser(value interface{}) ([]string, error) {
	return ri.scan(value, false)
}

func (ri *ReducedIndex) scan(value interface{}, above bool) ([]string, error) {
	pivot, err := ri.reducer.Reduce(value)
	if err != nil {
		return nil, err
	}

	ri.mu.RLock()
	defer ri.mu.RUnlock()

	order := ri.sortedBuckets()
	var selected []interface{}
	if above {
		i := sort.Search(len(order), func(i int) bool { return Compare(order[i], pivot) > 0 })
		selected = order[i:]
	} else {
		i := sort.Search(len(order), func(i int) bool { return Compare(order[i], pivot) >= 0 })
		selected = order[:i]
	}

	// values of another kind are never ordered against the pivot
	pivotRank := rank(pivot)
	var keys []string
	for _, k := range selected {
		if rank(k) != pivotRank {
			continue
		}
		for pk := range ri.buckets[k] {
			keys = append(keys, pk)
		}
	}
	if keys == nil {
		keys = []string{}
	}
	sort.Strings(keys)
	return keys, nil
}

// sortedBuckets must be called with at least the read lock held
func (ri *ReducedIndex) sortedBuckets() []interface{} {
	if cached := ri.order.Load(); cached != nil {
		return *cached
	}
	order := make([]interface{}, 0, len(ri.buckets))
	for k := range ri.buckets {
		order = append(order, k)
	}
	sort.Slice(order, func(i, j int) bool { return Compare(order[i], order[j]) < 0 })
	ri.order.Store(&order)
	return order
}

// Clear empties the index
func (ri *ReducedIndex) Clear() {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	ri.buckets = make(map[interface{}]bucket)
	ri.nulls = make(bucket)
	ri.order.Store(nil)
}

// IsExact reports whether bucket membership proves equality
func (ri *ReducedIndex) IsExact() bool {
	return ri.caps.Exact
}

// Capabilities of the underlying reducer
func (ri *ReducedIndex) Capabilities() Capabilities {
	return ri.caps
}

// Nullable reports whether null values are accepted
func (ri *ReducedIndex) Nullable() bool {
	return ri.nullable
}

// Len returns the number of non-empty buckets, the null bucket included
func (ri *ReducedIndex) Len() int {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	n := len(ri.buckets)
	if len(ri.nulls) > 0 {
		n++
	}
	return n
}

func sortedKeys(b bucket) []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

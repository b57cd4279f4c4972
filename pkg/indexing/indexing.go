package indexing

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/adfharrison1/go-docdb/pkg/domain"
)

type managedIndex struct {
	field string
	decl  domain.IndexDeclaration
	index *ReducedIndex
}

// IndexManager holds the reduced indexes of one collection, keyed by field name
type IndexManager struct {
	mu      sync.RWMutex
	indexes map[string]*managedIndex
}

// NewIndexManager creates an empty index registry
func NewIndexManager() *IndexManager {
	return &IndexManager{
		indexes: make(map[string]*managedIndex),
	}
}

// CreateIndex declares an index on field
func (m *IndexManager) CreateIndex(field string, decl domain.IndexDeclaration) error {
	reducer, err := NewReducer(decl)
	if err != nil {
		return fmt.Errorf("failed to create index on %s: %w", field, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.indexes[field]; exists {
		return fmt.Errorf("%w: %s", domain.ErrIndexExists, field)
	}
	m.indexes[field] = &managedIndex{
		field: field,
		decl:  decl,
		index: NewReducedIndex(reducer, decl.Nullable),
	}
	return nil
}

// named returns indexes in field order so validation errors are deterministic
func (m *IndexManager) named() []*managedIndex {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*managedIndex, 0, len(m.indexes))
	for _, mi := range m.indexes {
		out = append(out, mi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].field < out[j].field })
	return out
}

func (m *IndexManager) get(field string) (*managedIndex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mi, ok := m.indexes[field]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotIndexed, field)
	}
	return mi, nil
}

// value extracts the field value to index. A missing field is indexed as
// null when the index accepts null, and is otherwise a type error.
// value returns the value doc is indexed under. skip is set when the field is
// absent from a nullable index: such a document holds no bucket, so a null
// lookup only finds explicit nulls.
func (mi *managedIndex) value(doc domain.Document) (v interface{}, skip bool, err error) {
	v, present := doc[mi.field]
	switch {
	case present:
		return v, false, nil
	case mi.index.Capabilities().NullAware:
		return nil, false, nil
	case mi.index.Nullable():
		return nil, true, nil
	}
	return nil, false, &domain.TypeError{Field: mi.field, Given: domain.KindMissing}
}

// named attaches the field name to a type error raised by a reducer
func (mi *managedIndex) named(err error) error {
	var te *domain.TypeError
	if errors.As(err, &te) && te.Field == "" {
		te.Field = mi.field
	}
	return err
}

func (mi *managedIndex) check(doc domain.Document) error {
	v, skip, err := mi.value(doc)
	if err != nil || skip {
		return err
	}
	if v == nil && !mi.index.Capabilities().NullAware {
		if !mi.index.Nullable() {
			return &domain.TypeError{Field: mi.field, Given: domain.KindNull}
		}
		return nil
	}
	_, err = mi.index.reducer.Reduce(v)
	return mi.named(err)
}

// ValidateDocument checks doc against every index without modifying any
func (m *IndexManager) ValidateDocument(doc domain.Document) error {
	for _, mi := range m.named() {
		if err := mi.check(doc); err != nil {
			return err
		}
	}
	return nil
}

// IndexDocument adds doc under key to every index. The document is validated
// against all indexes first so that a rejected document leaves none modified.
func (m *IndexManager) IndexDocument(key string, doc domain.Document) error {
	indexes := m.named()
	for _, mi := range indexes {
		if err := mi.check(doc); err != nil {
			return err
		}
	}
	for _, mi := range indexes {
		v, skip, _ := mi.value(doc)
		if skip {
			continue
		}
		if err := mi.index.Add(v, key); err != nil {
			return mi.named(err)
		}
	}
	return nil
}

// UnindexDocument removes key from the buckets doc's values map to
func (m *IndexManager) UnindexDocument(key string, doc domain.Document) error {
	indexes := m.named()
	for _, mi := range indexes {
		if err := mi.check(doc); err != nil {
			return err
		}
	}
	for _, mi := range indexes {
		v, skip, _ := mi.value(doc)
		if skip {
			continue
		}
		if err := mi.index.Remove(v, key); err != nil {
			return mi.named(err)
		}
	}
	return nil
}

// GetIndexedKeys returns the keys stored in the bucket value reduces to.
// It fails with domain.ErrNotIndexed when field has no index.
func (m *IndexManager) GetIndexedKeys(field string, value interface{}) ([]string, error) {
	mi, err := m.get(field)
	if err != nil {
		return nil, err
	}
	keys, err := mi.index.Get(value)
	return keys, mi.named(err)
}

// GetGreaterIndexKeys returns the keys of buckets strictly above value's bucket
func (m *IndexManager) GetGreaterIndexKeys(field string, value interface{}) ([]string, error) {
	mi, err := m.comparable(field)
	if err != nil {
		return nil, err
	}
	keys, err := mi.index.Greater(value)
	return keys, mi.named(err)
}

// GetLesserIndexKeys returns the keys of buckets strictly below value's bucket
func (m *IndexManager) GetLesserIndexKeys(field string, value interface{}) ([]string, error) {
	mi, err := m.comparable(field)
	if err != nil {
		return nil, err
	}
	keys, err := mi.index.Lesser(value)
	return keys, mi.named(err)
}

func (m *IndexManager) comparable(field string) (*managedIndex, error) {
	mi, err := m.get(field)
	if err != nil {
		return nil, err
	}
	if !mi.index.Capabilities().Comparable {
		return nil, fmt.Errorf("%w: %s is a %s index", domain.ErrNotComparable, field, mi.decl.Type)
	}
	return mi, nil
}

// CheckOperand validates a query operand against the declared type of field
func (m *IndexManager) CheckOperand(field string, value interface{}) error {
	mi, err := m.get(field)
	if err != nil {
		return err
	}
	if value == nil {
		return nil
	}
	_, err = mi.index.reducer.Reduce(value)
	return mi.named(err)
}

// IsIndexed reports whether field has an index
func (m *IndexManager) IsIndexed(field string) bool {
	_, err := m.get(field)
	return err == nil
}

// IsExactIndex reports whether lookups on field need no confirmation
func (m *IndexManager) IsExactIndex(field string) bool {
	mi, err := m.get(field)
	return err == nil && mi.index.IsExact()
}

// Capabilities returns the capabilities of the index on field
func (m *IndexManager) Capabilities(field string) (Capabilities, bool) {
	mi, err := m.get(field)
	if err != nil {
		return Capabilities{}, false
	}
	return mi.index.Capabilities(), true
}

// GetIndexOptions returns the declaration the index on field was created with
func (m *IndexManager) GetIndexOptions(field string) (domain.IndexDeclaration, bool) {
	mi, err := m.get(field)
	if err != nil {
		return domain.IndexDeclaration{}, false
	}
	return mi.decl, true
}

// Fields returns the indexed field names in sorted order
func (m *IndexManager) Fields() []string {
	indexes := m.named()
	fields := make([]string, len(indexes))
	for i, mi := range indexes {
		fields[i] = mi.field
	}
	return fields
}

// Info describes every index
func (m *IndexManager) Info() []domain.IndexInfo {
	indexes := m.named()
	info := make([]domain.IndexInfo, len(indexes))
	for i, mi := range indexes {
		caps := mi.index.Capabilities()
		info[i] = domain.IndexInfo{
			Field:       mi.field,
			Declaration: mi.decl,
			Exact:       caps.Exact,
			Comparable:  caps.Comparable,
			Buckets:     mi.index.Len(),
		}
	}
	return info
}

// ClearIndex empties the index on field
func (m *IndexManager) ClearIndex(field string) error {
	mi, err := m.get(field)
	if err != nil {
		return err
	}
	mi.index.Clear()
	return nil
}

// ClearAll empties every index, keeping their declarations
func (m *IndexManager) ClearAll() {
	for _, mi := range m.named() {
		mi.index.Clear()
	}
}

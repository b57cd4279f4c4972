package indexing

import (
	"fmt"
	"math"

	"github.com/adfharrison1/go-docdb/pkg/domain"
)

// Capabilities describes what a reduction preserves about the values it buckets
type Capabilities struct {
	// Exact: two values share a bucket only if they are equal
	Exact bool
	// Comparable: buckets can be ordered to answer range lookups
	Comparable bool
	// Monotonic: values in distinct buckets are ordered like their buckets
	Monotonic bool
	// Predicate: the bucket key is the value's truthiness
	Predicate bool
	// Fold: values compare case-insensitively
	Fold bool
	// NullAware: null and missing values are reduced like any other value
	NullAware bool
}

// Reducer maps a field value to the bucket key it is stored under.
// Values outside the reducer's domain yield a *domain.TypeError.
type Reducer interface {
	Reduce(value interface{}) (interface{}, error)
	Capabilities() Capabilities
}

// NewReducer builds the reducer for an index declaration
func NewReducer(decl domain.IndexDeclaration) (Reducer, error) {
	if decl.CaseInsensitive && decl.Type != domain.IndexPartial && decl.Type != domain.IndexHash {
		return nil, fmt.Errorf("%w: %s index cannot be case insensitive", domain.ErrInvalidIndexOptions, decl.Type)
	}
	switch decl.Type {
	case domain.IndexExact:
		return exactReducer{}, nil
	case domain.IndexBoolean:
		return booleanReducer{}, nil
	case domain.IndexNumeric:
		if decl.Precision < 0 || math.IsNaN(decl.Precision) || math.IsInf(decl.Precision, 0) {
			return nil, fmt.Errorf("%w: precision must be a positive number, got %v", domain.ErrInvalidIndexOptions, decl.Precision)
		}
		return numericReducer{precision: decl.Precision}, nil
	case domain.IndexPartial:
		if decl.Size < 0 {
			return nil, fmt.Errorf("%w: size must not be negative, got %d", domain.ErrInvalidIndexOptions, decl.Size)
		}
		return partialReducer{size: decl.Size, fold: decl.CaseInsensitive}, nil
	case domain.IndexHash:
		size := decl.Size
		if size == 0 {
			size = 32
		}
		if size != 16 && size != 32 {
			return nil, fmt.Errorf("%w: hash size must be 16 or 32, got %d", domain.ErrInvalidIndexOptions, decl.Size)
		}
		return hashReducer{size: size, fold: decl.CaseInsensitive}, nil
	case domain.IndexTruthy:
		return truthyReducer{}, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownIndexType, decl.Type)
}

func mismatch(expected string, value interface{}) error {
	return &domain.TypeError{Expected: expected, Given: domain.KindOf(value)}
}

// exactReducer buckets by the value itself
type exactReducer struct{}

func (exactReducer) Reduce(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case bool, string:
		return v, nil
	}
	if f, ok := domain.ToFloat64(value); ok {
		return f, nil
	}
	return nil, mismatch("boolean, number or string", value)
}

func (exactReducer) Capabilities() Capabilities {
	return Capabilities{Exact: true, Comparable: true, Monotonic: true}
}

type booleanReducer struct{}

func (booleanReducer) Reduce(value interface{}) (interface{}, error) {
	if b, ok := value.(bool); ok {
		return b, nil
	}
	return nil, mismatch("boolean", value)
}

func (booleanReducer) Capabilities() Capabilities {
	return Capabilities{Exact: true}
}

// numericReducer buckets numbers by floor(value / precision)
type numericReducer struct {
	precision float64
}

func (r numericReducer) Reduce(value interface{}) (interface{}, error) {
	f, ok := domain.ToFloat64(value)
	if !ok {
		return nil, mismatch("number", value)
	}
	if r.identity() {
		return f, nil
	}
	return math.Floor(f / r.precision), nil
}

func (r numericReducer) identity() bool {
	return r.precision <= 1
}

func (r numericReducer) Capabilities() Capabilities {
	return Capabilities{Exact: r.identity(), Comparable: true, Monotonic: true}
}

// partialReducer buckets strings by their first size characters, size 0 keeps the whole string
type partialReducer struct {
	size int
	fold bool
}

func (r partialReducer) Reduce(value interface{}) (interface{}, error) {
	s, ok := value.(string)
	if !ok {
		return nil, mismatch("string", value)
	}
	if r.fold {
		s = Fold(s)
	}
	if r.size > 0 {
		if runes := []rune(s); len(runes) > r.size {
			s = string(runes[:r.size])
		}
	}
	return s, nil
}

func (r partialReducer) Capabilities() Capabilities {
	return Capabilities{
		Exact:      r.size == 0 && !r.fold,
		Comparable: true,
		Monotonic:  r.size == 0,
		Fold:       r.fold,
	}
}

// hashReducer buckets strings by their base-36 CRC
type hashReducer struct {
	size int
	fold bool
}

func (r hashReducer) Reduce(value interface{}) (interface{}, error) {
	s, ok := value.(string)
	if !ok {
		return nil, mismatch("string", value)
	}
	if r.fold {
		s = Fold(s)
	}
	return hashString(s, r.size), nil
}

func (r hashReducer) Capabilities() Capabilities {
	return Capabilities{Fold: r.fold}
}

// truthyReducer buckets any value by whether it is set
type truthyReducer struct{}

func (truthyReducer) Reduce(value interface{}) (interface{}, error) {
	return domain.Truthy(value), nil
}

func (truthyReducer) Capabilities() Capabilities {
	return Capabilities{Predicate: true, NullAware: true}
}

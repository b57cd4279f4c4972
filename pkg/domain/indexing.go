package domain

import (
	"fmt"
	"sort"
	"strings"
)

// IndexType names a reduction strategy
type IndexType string

const (
	IndexExact   IndexType = "EXACT"
	IndexBoolean IndexType = "BOOLEAN"
	IndexNumeric IndexType = "NUMERIC"
	IndexPartial IndexType = "PARTIAL"
	IndexHash    IndexType = "HASH"
	IndexTruthy  IndexType = "TRUTHY"
)

// ParseIndexType accepts a type name in any case
func ParseIndexType(s string) (IndexType, error) {
	t := IndexType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case IndexExact, IndexBoolean, IndexNumeric, IndexPartial, IndexHash, IndexTruthy:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownIndexType, s)
}

// IndexDeclaration describes how one field of a collection is indexed
type IndexDeclaration struct {
	Type            IndexType `json:"type" yaml:"type"`
	Size            int       `json:"size,omitempty" yaml:"size,omitempty"`
	Precision       float64   `json:"precision,omitempty" yaml:"precision,omitempty"`
	CaseInsensitive bool      `json:"case_insensitive,omitempty" yaml:"case_insensitive,omitempty"`
	Nullable        bool      `json:"nullable,omitempty" yaml:"nullable,omitempty"`
}

// IndexDeclarations maps field names to their index declaration
type IndexDeclarations map[string]IndexDeclaration

// Fields returns the declared field names in sorted order
func (d IndexDeclarations) Fields() []string {
	fields := make([]string, 0, len(d))
	for f := range d {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// IndexInfo is the externally visible description of a live index
type IndexInfo struct {
	Field       string           `json:"field"`
	Declaration IndexDeclaration `json:"declaration"`
	Exact       bool             `json:"exact"`
	Comparable  bool             `json:"comparable"`
	Buckets     int              `json:"buckets"`
}

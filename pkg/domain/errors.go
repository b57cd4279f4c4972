package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownIndexType    = errors.New("unknown index type")
	ErrIndexExists         = errors.New("index already exists")
	ErrInvalidIndexOptions = errors.New("invalid index options")
	ErrNotIndexed          = errors.New("field is not indexed")
	ErrNotComparable       = errors.New("index does not support range queries")
	ErrUnknownOperator     = errors.New("unknown query operator")
	ErrInvalidQuery        = errors.New("invalid query")
	ErrInvalidKey          = errors.New("invalid document key")
	ErrInvalidDocument     = errors.New("invalid document")
	ErrCollectionNotFound  = errors.New("collection not found")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrLocationNotFound    = errors.New("storage location not found")
	ErrStorageUndefined    = errors.New("storage is undefined")
	ErrTypeMismatch        = errors.New("type mismatch")
)

// TypeError reports a field value, or query operand, whose runtime type
// does not fit the declaration of the field it targets.
type TypeError struct {
	Field    string
	Expected string
	Given    ValueKind
}

func (e *TypeError) Error() string {
	switch e.Given {
	case KindNull:
		return fmt.Sprintf("%s does not support null values : must be declared as nullable", e.Field)
	case KindMissing:
		return fmt.Sprintf("%s is missing : indexed fields must be present unless declared as nullable", e.Field)
	}
	return fmt.Sprintf("%s requires that indexed value is of type %s : %s given", e.Field, e.Expected, e.Given)
}

func (e *TypeError) Is(target error) bool {
	return target == ErrTypeMismatch
}

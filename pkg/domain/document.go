package domain

import (
	"regexp"
	"strings"
)

// Document represents a document in a collection
type Document map[string]interface{}

// ValueKind is the runtime type of a document field value
type ValueKind string

const (
	KindMissing ValueKind = "undefined"
	KindNull    ValueKind = "null"
	KindBoolean ValueKind = "boolean"
	KindNumber  ValueKind = "number"
	KindString  ValueKind = "string"
	KindArray   ValueKind = "array"
	KindObject  ValueKind = "object"
)

// Valid reports whether k names one of the kinds above
func (k ValueKind) Valid() bool {
	switch k {
	case KindMissing, KindNull, KindBoolean, KindNumber, KindString, KindArray, KindObject:
		return true
	}
	return false
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidKey reports whether key may be used as a document key
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// KindOf returns the kind of a value read from a document
func KindOf(value interface{}) ValueKind {
	switch value.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBoolean
	case string:
		return KindString
	case []interface{}:
		return KindArray
	case map[string]interface{}, Document:
		return KindObject
	}
	if _, ok := ToFloat64(value); ok {
		return KindNumber
	}
	return KindObject
}

// FieldKind returns the kind of the named field, KindMissing if absent
func (d Document) FieldKind(field string) ValueKind {
	v, ok := d[field]
	if !ok {
		return KindMissing
	}
	return KindOf(v)
}

// ToFloat64 converts any numeric value to float64
func ToFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// Truthy reports whether value counts as set: anything but nil, false or zero
func Truthy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return true
	}
	if f, ok := ToFloat64(value); ok {
		return f != 0
	}
	return true
}

// Clone returns a deep copy of the document
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			out[k] = cloneValue(inner)
		}
		return out
	case Document:
		return v.Clone()
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, inner := range v {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return v
	}
}

// NameFromPath derives a collection name from its storage location
func NameFromPath(path string) string {
	path = strings.TrimRight(strings.ReplaceAll(path, "\\", "/"), "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

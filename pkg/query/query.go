// Package query parses find queries into clauses and evaluates them against documents.
//
// A query maps field names to either a plain value (equality), a compiled
// *regexp.Regexp, or an operator object such as {"$gt": 10, "$lte": 20}.
// Every clause of a query must hold for a document to match.
package query

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/adfharrison1/go-docdb/pkg/domain"
)

// Query is a find request
type Query map[string]interface{}

// Operator is a query comparison
type Operator int

const (
	OpEq Operator = iota
	OpNeq
	OpGt
	OpGte
	OpLt
	OpLte
	OpEmpty
	OpMatch
	OpIn
	OpNin
	OpMod
	OpType
)

var operatorNames = map[string]Operator{
	"$eq":    OpEq,
	"$neq":   OpNeq,
	"$gt":    OpGt,
	"$gte":   OpGte,
	"$lt":    OpLt,
	"$lte":   OpLte,
	"$empty": OpEmpty,
	"$match": OpMatch,
	"$in":    OpIn,
	"$nin":   OpNin,
	"$mod":   OpMod,
	"$type":  OpType,
}

func (op Operator) String() string {
	for name, o := range operatorNames {
		if o == op {
			return name
		}
	}
	return fmt.Sprintf("Operator(%d)", int(op))
}

// IsRange reports whether op is an ordering comparison
func (op Operator) IsRange() bool {
	return op == OpGt || op == OpGte || op == OpLt || op == OpLte
}

// Clause is one field/operator/operand triple of a query
type Clause struct {
	Field   string
	Op      Operator
	Operand interface{}
	Pattern *regexp.Regexp
}

func (c Clause) String() string {
	if c.Pattern != nil {
		return fmt.Sprintf("%s %s /%s/", c.Field, c.Op, c.Pattern)
	}
	return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Operand)
}

// Parse splits q into clauses, validating operators and operand types.
// Clauses are returned ordered by field then operator.
func Parse(q Query) ([]Clause, error) {
	fields := make([]string, 0, len(q))
	for f := range q {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var clauses []Clause
	for _, field := range fields {
		parsed, err := parseField(field, q[field])
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, parsed...)
	}
	return clauses, nil
}

func parseField(field string, value interface{}) ([]Clause, error) {
	switch v := value.(type) {
	case *regexp.Regexp:
		return []Clause{{Field: field, Op: OpMatch, Pattern: v}}, nil
	case map[string]interface{}:
		return parseOperators(field, v)
	case domain.Document:
		return parseOperators(field, v)
	}
	if err := checkScalar(field, value); err != nil {
		return nil, err
	}
	return []Clause{{Field: field, Op: OpEq, Operand: value}}, nil
}

func parseOperators(field string, ops map[string]interface{}) ([]Clause, error) {
	if len(ops) == 0 {
		return nil, fmt.Errorf("%w: empty operator object for %s", domain.ErrInvalidQuery, field)
	}
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return operatorNames[names[i]] < operatorNames[names[j]]
	})

	clauses := make([]Clause, 0, len(ops))
	for _, name := range names {
		op, ok := operatorNames[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s on %s", domain.ErrUnknownOperator, name, field)
		}
		clause, err := newClause(field, op, ops[name])
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	return clauses, nil
}

func newClause(field string, op Operator, operand interface{}) (Clause, error) {
	c := Clause{Field: field, Op: op, Operand: operand}
	switch {
	case op == OpEq || op == OpNeq:
		return c, checkScalar(field, operand)
	case op.IsRange():
		kind := domain.KindOf(operand)
		if kind != domain.KindNumber && kind != domain.KindString {
			return c, &domain.TypeError{Field: field, Expected: "number or string", Given: kind}
		}
	case op == OpEmpty:
		if _, ok := operand.(bool); !ok {
			return c, &domain.TypeError{Field: field, Expected: "boolean", Given: domain.KindOf(operand)}
		}
	case op == OpMatch:
		switch p := operand.(type) {
		case *regexp.Regexp:
			c.Pattern = p
		case string:
			re, err := regexp.Compile(p)
			if err != nil {
				return c, fmt.Errorf("%w: bad pattern for %s: %v", domain.ErrInvalidQuery, field, err)
			}
			c.Pattern = re
		default:
			return c, &domain.TypeError{Field: field, Expected: "string", Given: domain.KindOf(operand)}
		}
		c.Operand = nil
	case op == OpIn || op == OpNin:
		values, ok := toList(operand)
		if !ok {
			return c, &domain.TypeError{Field: field, Expected: "array", Given: domain.KindOf(operand)}
		}
		for _, v := range values {
			if err := checkScalar(field, v); err != nil {
				return c, err
			}
		}
		c.Operand = values
	case op == OpMod:
		values, ok := toList(operand)
		if !ok || len(values) != 2 {
			return c, fmt.Errorf("%w: $mod on %s takes [divisor, remainder]", domain.ErrInvalidQuery, field)
		}
		divisor, ok1 := domain.ToFloat64(values[0])
		remainder, ok2 := domain.ToFloat64(values[1])
		if !ok1 || !ok2 || divisor == 0 {
			return c, fmt.Errorf("%w: $mod on %s takes a non-zero numeric divisor and a numeric remainder", domain.ErrInvalidQuery, field)
		}
		c.Operand = [2]float64{divisor, remainder}
	case op == OpType:
		name, ok := operand.(string)
		if !ok {
			return c, &domain.TypeError{Field: field, Expected: "string", Given: domain.KindOf(operand)}
		}
		kind := domain.ValueKind(name)
		if !kind.Valid() {
			return c, fmt.Errorf("%w: unknown type %q for %s", domain.ErrInvalidQuery, name, field)
		}
		c.Operand = kind
	}
	return c, nil
}

func toList(operand interface{}) ([]interface{}, bool) {
	switch v := operand.(type) {
	case []interface{}:
		return v, true
	case []string:
		out := make([]interface{}, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case []float64:
		out := make([]interface{}, len(v))
		for i, f := range v {
			out[i] = f
		}
		return out, true
	case []int:
		out := make([]interface{}, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, true
	}
	return nil, false
}

func checkScalar(field string, value interface{}) error {
	switch kind := domain.KindOf(value); kind {
	case domain.KindArray, domain.KindObject:
		return &domain.TypeError{Field: field, Expected: "null, boolean, number or string", Given: kind}
	}
	return nil
}

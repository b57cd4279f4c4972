package query

import (
	"math"

	"github.com/adfharrison1/go-docdb/pkg/domain"
)

// CompareFunc orders two scalar values
type CompareFunc func(a, b interface{}) int

// Matches reports whether doc satisfies the clause using cmp for ordering
func (c Clause) Matches(doc domain.Document, cmp CompareFunc) bool {
	value, present := doc[c.Field]

	switch c.Op {
	case OpEq:
		return present && sameKind(value, c.Operand) && cmp(value, c.Operand) == 0
	case OpNeq:
		return !(Clause{Field: c.Field, Op: OpEq, Operand: c.Operand}).Matches(doc, cmp)
	case OpGt, OpGte, OpLt, OpLte:
		if !present || !sameKind(value, c.Operand) {
			return false
		}
		r := cmp(value, c.Operand)
		switch c.Op {
		case OpGt:
			return r > 0
		case OpGte:
			return r >= 0
		case OpLt:
			return r < 0
		default:
			return r <= 0
		}
	case OpEmpty:
		return domain.Truthy(value) != c.Operand.(bool)
	case OpMatch:
		s, ok := value.(string)
		return ok && c.Pattern.MatchString(s)
	case OpIn:
		if !present {
			return false
		}
		for _, candidate := range c.Operand.([]interface{}) {
			if sameKind(value, candidate) && cmp(value, candidate) == 0 {
				return true
			}
		}
		return false
	case OpNin:
		return !(Clause{Field: c.Field, Op: OpIn, Operand: c.Operand}).Matches(doc, cmp)
	case OpMod:
		n, ok := domain.ToFloat64(value)
		if !ok {
			return false
		}
		args := c.Operand.([2]float64)
		return math.Mod(n, args[0]) == args[1]
	case OpType:
		return doc.FieldKind(c.Field) == c.Operand.(domain.ValueKind)
	}
	return false
}

func sameKind(a, b interface{}) bool {
	return domain.KindOf(a) == domain.KindOf(b)
}

package indexing

import (
	"cmp"
	"strings"
	"sync"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collators and casers keep per-call state, so each goroutine borrows its own.
var (
	collators = sync.Pool{New: func() interface{} { return collate.New(language.Und) }}
	lowerers  = sync.Pool{New: func() interface{} {
		c := cases.Lower(language.Und)
		return &c
	}}
)

const (
	rankNull = iota
	rankBoolean
	rankNumber
	rankString
	rankOther
)

func rank(v interface{}) int {
	switch v.(type) {
	case nil:
		return rankNull
	case bool:
		return rankBoolean
	case string:
		return rankString
	}
	if _, ok := domain.ToFloat64(v); ok {
		return rankNumber
	}
	return rankOther
}

// Compare orders scalar values: null < false < true < numbers < strings.
// Strings are ordered by locale collation, then by bytes so that distinct
// strings never compare equal. Arrays and objects sort last and are not
// ordered among themselves.
func Compare(a, b interface{}) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch ra {
	case rankBoolean:
		x, y := a.(bool), b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case rankNumber:
		x, _ := domain.ToFloat64(a)
		y, _ := domain.ToFloat64(b)
		return cmp.Compare(x, y)
	case rankString:
		return compareStrings(a.(string), b.(string))
	}
	return 0
}

// CompareFold is Compare with strings lower-cased first
func CompareFold(a, b interface{}) int {
	x, okA := a.(string)
	y, okB := b.(string)
	if okA && okB {
		return compareStrings(Fold(x), Fold(y))
	}
	return Compare(a, b)
}

// Fold lower-cases s using locale-independent rules
func Fold(s string) string {
	c := lowerers.Get().(*cases.Caser)
	defer lowerers.Put(c)
	return c.String(s)
}

func compareStrings(a, b string) int {
	if a == b {
		return 0
	}
	c := collators.Get().(*collate.Collator)
	r := c.CompareString(a, b)
	collators.Put(c)
	if r != 0 {
		return r
	}
	return strings.Compare(a, b)
}

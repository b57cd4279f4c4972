package indexing

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareTotalOrder(t *testing.T) {
	ordered := []interface{}{nil, false, true, -3.5, 0, 2, int64(10), "", "a", "b"}
	for i := range ordered {
		for j := range ordered {
			got := Compare(ordered[i], ordered[j])
			switch {
			case i < j:
				assert.Equal(t, -1, got, "%v < %v", ordered[i], ordered[j])
			case i > j:
				assert.Equal(t, 1, got, "%v > %v", ordered[i], ordered[j])
			default:
				assert.Equal(t, 0, got, "%v == %v", ordered[i], ordered[j])
			}
		}
	}
}

func TestCompareNumbersAcrossTypes(t *testing.T) {
	assert.Equal(t, 0, Compare(5, 5.0))
	assert.Equal(t, 0, Compare(uint8(5), int64(5)))
	assert.Equal(t, -1, Compare(int8(-1), 0.5))
}

func TestCompareStringsCollated(t *testing.T) {
	// collation puts accented and cased variants next to their base letter
	words := []string{"b", "B", "é", "a", "e", "A"}
	sort.Slice(words, func(i, j int) bool { return Compare(words[i], words[j]) < 0 })
	assert.Equal(t, []string{"a", "A", "b", "B", "e", "é"}, words)

	// distinct strings never compare equal
	assert.NotEqual(t, 0, Compare("a", "A"))
	assert.Equal(t, -Compare("a", "A"), Compare("A", "a"))
}

func TestCompareFold(t *testing.T) {
	assert.Equal(t, 0, CompareFold("Winterfell", "winterfell"))
	assert.Equal(t, -1, CompareFold("apple", "Banana"))
	assert.Equal(t, 1, CompareFold(1, nil))
	assert.Equal(t, "straße", Fold("STRAßE"))
}

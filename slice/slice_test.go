package slice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter(t *testing.T) {
	cols := []string{"Time (UTC)", "Actual Total Load [MW] - CTA|AT", "Day-ahead Total Load Forecast [MW] - CTA|AT"}
	got := Filter(cols, func(c string) bool { return strings.Contains(c, "[MW]") })
	assert.Len(t, got, 2)
	assert.Empty(t, Filter(cols, func(string) bool { return false }))
}

func TestMapAllFind(t *testing.T) {
	assert.Equal(t, []int{2, 4}, Map([]int{1, 2}, func(i int) int { return i * 2 }))
	assert.True(t, All([]int{2, 4}, func(i int) bool { return i%2 == 0 }))
	assert.False(t, All([]int{2, 3}, func(i int) bool { return i%2 == 0 }))

	v, ok := Find([]string{"a", "bb"}, func(s string) bool { return len(s) == 2 })
	assert.True(t, ok)
	assert.Equal(t, "bb", v)

	_, ok = Find([]string{"a"}, func(s string) bool { return s == "z" })
	assert.False(t, ok)
}

package station

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewHistory(3)
	assert.Empty(t, h.Values())
	h.Append(1)
	h.Append(2)
	assert.Equal(t, []int{1, 2}, h.Values())
	h.Append(3)
	h.Append(4)
	assert.Equal(t, []int{2, 3, 4}, h.Values())
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 3, h.Cap())
}

func TestHistoryFill(t *testing.T) {
	h := NewHistory(4)
	h.Append(9)
	h.Fill(30)
	assert.Equal(t, []int{30, 30, 30, 30}, h.Values())
	h.Append(29)
	assert.Equal(t, []int{30, 30, 30, 29}, h.Values())
}

func TestHistoryValuesIsCopy(t *testing.T) {
	h := NewHistory(2)
	h.Fill(5)
	v := h.Values()
	v[0] = 99
	assert.Equal(t, []int{5, 5}, h.Values())
}

package service

import (
	"testing"

	"commerce-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLinesMergesDuplicates(t *testing.T) {
	lines := []ReservationLine{
		{ProductID: 5, Quantity: 2},
		{ProductID: 3, Quantity: 1},
		{ProductID: 5, Quantity: 3},
	}

	normalized := NormalizeLines(lines)

	assert.Equal(t, []ReservationLine{
		{ProductID: 3, Quantity: 1},
		{ProductID: 5, Quantity: 5},
	}, normalized)
}

func TestNormalizeLinesSortsAscending(t *testing.T) {
	lines := []ReservationLine{
		{ProductID: 9, Quantity: 1},
		{ProductID: 1, Quantity: 1},
		{ProductID: 4, Quantity: 1},
	}

	normalized := NormalizeLines(lines)

	for i := 1; i < len(normalized); i++ {
		assert.Less(t, normalized[i-1].ProductID, normalized[i].ProductID)
	}
}

func TestSortItemsByProduct(t *testing.T) {
	items := []models.OrderItem{
		{ProductID: 7, Quantity: 1},
		{ProductID: 2, Quantity: 3},
		{ProductID: 5, Quantity: 2},
	}

	sorted := SortItemsByProduct(items)

	assert.Equal(t, int64(2), sorted[0].ProductID)
	assert.Equal(t, int64(5), sorted[1].ProductID)
	assert.Equal(t, int64(7), sorted[2].ProductID)

	// Input slice is left untouched.
	assert.Equal(t, int64(7), items[0].ProductID)
}

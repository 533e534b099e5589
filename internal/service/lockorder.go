package service

import (
	"sort"

	"commerce-service/internal/models"
)

// ReservationLine is a normalized (product, quantity) pair used by the
// reservation workflow.
type ReservationLine struct {
	ProductID int64
	Quantity  int
}

// NormalizeLines merges duplicate product IDs by summing quantities and
// sorts the result by product ID ascending. Every code path that locks more
// than one inventory row goes through this ordering (or SortItemsByProduct),
// which fixes a single system-wide lock order and prevents deadlock between
// concurrent transactions.
func NormalizeLines(lines []ReservationLine) []ReservationLine {
	merged := make(map[int64]int, len(lines))
	for _, line := range lines {
		merged[line.ProductID] += line.Quantity
	}

	normalized := make([]ReservationLine, 0, len(merged))
	for productID, qty := range merged {
		normalized = append(normalized, ReservationLine{ProductID: productID, Quantity: qty})
	}
	sort.Slice(normalized, func(i, j int) bool {
		return normalized[i].ProductID < normalized[j].ProductID
	})
	return normalized
}

// SortItemsByProduct returns a copy of items ordered by product ID
// ascending, the same lock order used by the reservation workflow.
func SortItemsByProduct(items []models.OrderItem) []models.OrderItem {
	sorted := make([]models.OrderItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ProductID < sorted[j].ProductID
	})
	return sorted
}

package service

import (
	"sync"
	"testing"

	"commerce-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyReserve(t *testing.T) {
	inv := &models.Inventory{ProductID: 1, Available: 10, Reserved: 3}

	err := ApplyReserve(inv, 7)
	require.NoError(t, err)
	assert.Equal(t, 10, inv.Available)
	assert.Equal(t, 10, inv.Reserved)
	assert.Equal(t, 0, inv.Headroom())
}

func TestApplyReserveInsufficientStock(t *testing.T) {
	inv := &models.Inventory{ProductID: 1, Available: 10, Reserved: 3}

	err := ApplyReserve(inv, 8)
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeOutOfStock))

	// No partial mutation on failure.
	assert.Equal(t, 10, inv.Available)
	assert.Equal(t, 3, inv.Reserved)
}

func TestApplyReserveExactHeadroom(t *testing.T) {
	inv := &models.Inventory{ProductID: 7, Available: 99999, Reserved: 0}

	require.Error(t, ApplyReserve(inv, 100000))
	assert.Equal(t, 0, inv.Reserved)

	require.NoError(t, ApplyReserve(inv, 99999))
	assert.Equal(t, 99999, inv.Reserved)
}

func TestApplyConfirm(t *testing.T) {
	inv := &models.Inventory{ProductID: 1, Available: 10, Reserved: 4}

	err := ApplyConfirm(inv, 4)
	require.NoError(t, err)
	assert.Equal(t, 6, inv.Available)
	assert.Equal(t, 0, inv.Reserved)
}

func TestApplyConfirmWithoutReservation(t *testing.T) {
	inv := &models.Inventory{ProductID: 1, Available: 10, Reserved: 0}

	err := ApplyConfirm(inv, 1)
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeDataInconsistency))
	assert.Equal(t, 10, inv.Available)
}

func TestApplyRelease(t *testing.T) {
	inv := &models.Inventory{ProductID: 1, Available: 10, Reserved: 4}

	err := ApplyRelease(inv, 4)
	require.NoError(t, err)
	assert.Equal(t, 10, inv.Available)
	assert.Equal(t, 0, inv.Reserved)
}

func TestApplyReleaseWithoutReservation(t *testing.T) {
	inv := &models.Inventory{ProductID: 1, Available: 10, Reserved: 2}

	err := ApplyRelease(inv, 3)
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeDataInconsistency))
	assert.Equal(t, 2, inv.Reserved)
}

func TestConfirmThenReleaseSameQuantityFails(t *testing.T) {
	inv := &models.Inventory{ProductID: 1, Available: 10, Reserved: 2}

	require.NoError(t, ApplyConfirm(inv, 2))

	// The reservation was consumed by the confirm; releasing the same
	// quantity again must be rejected as an invariant violation.
	err := ApplyRelease(inv, 2)
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeDataInconsistency))
}

// Serialized reservation attempts against fixed headroom admit exactly
// floor(headroom/qty) successes, no matter how the attempts interleave.
func TestConcurrentReservationsRespectHeadroom(t *testing.T) {
	const (
		headroom = 10
		attempts = 20
	)

	inv := &models.Inventory{ProductID: 1, Available: headroom, Reserved: 0}

	var mu sync.Mutex
	var wg sync.WaitGroup
	successes := 0
	failures := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// The mutex stands in for the row's exclusive lock: one
			// applier at a time sees and mutates the counters.
			mu.Lock()
			defer mu.Unlock()
			if err := ApplyReserve(inv, 1); err != nil {
				failures++
				return
			}
			successes++
		}()
	}
	wg.Wait()

	assert.Equal(t, headroom, successes)
	assert.Equal(t, attempts-headroom, failures)
	assert.Equal(t, headroom, inv.Reserved)
	assert.Equal(t, 0, inv.Headroom())
}

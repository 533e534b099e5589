package service

import (
	"context"

	"commerce-service/internal/models"
	"commerce-service/internal/store"
	"commerce-service/internal/util"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// InventoryLedger applies reserve/confirm/release mutations to inventory
// rows. It never acquires locks itself: every method expects the caller's
// transaction to already hold the row's FOR UPDATE lock, so that multi-line
// workflows can take all locks in one deterministic order first.
type InventoryLedger struct {
	store  *store.Store
	logger *zap.Logger
}

// NewInventoryLedger creates a new inventory ledger
func NewInventoryLedger(store *store.Store) *InventoryLedger {
	return &InventoryLedger{
		store:  store,
		logger: util.GetLogger(),
	}
}

// Reserve holds qty for an unpaid order. Fails with OUT_OF_STOCK when the
// headroom (available - reserved) is smaller than qty.
func (l *InventoryLedger) Reserve(ctx context.Context, tx *sqlx.Tx, inv *models.Inventory, qty int) error {
	if err := ApplyReserve(inv, qty); err != nil {
		util.InventoryReservationsFailed.WithLabelValues("insufficient_stock").Inc()
		return err
	}
	return l.store.UpdateInventoryTx(ctx, tx, inv)
}

// Confirm converts a reservation into an actual stock deduction.
func (l *InventoryLedger) Confirm(ctx context.Context, tx *sqlx.Tx, inv *models.Inventory, qty int) error {
	if err := ApplyConfirm(inv, qty); err != nil {
		l.logger.Error("Inventory confirm hit inconsistent reserved quantity",
			zap.Int64("product_id", inv.ProductID),
			zap.Int("reserved", inv.Reserved),
			zap.Int("requested", qty))
		return err
	}
	return l.store.UpdateInventoryTx(ctx, tx, inv)
}

// Release returns a reservation to headroom without touching physical stock.
func (l *InventoryLedger) Release(ctx context.Context, tx *sqlx.Tx, inv *models.Inventory, qty int) error {
	if err := ApplyRelease(inv, qty); err != nil {
		l.logger.Error("Inventory release hit inconsistent reserved quantity",
			zap.Int64("product_id", inv.ProductID),
			zap.Int("reserved", inv.Reserved),
			zap.Int("requested", qty))
		return err
	}
	return l.store.UpdateInventoryTx(ctx, tx, inv)
}

// ApplyReserve increments the reserved counter after checking headroom.
// Pure mutation on an already-locked row snapshot.
func ApplyReserve(inv *models.Inventory, qty int) error {
	if inv.Headroom() < qty {
		return models.ErrInsufficientStock(inv.ProductID, inv.Headroom(), qty)
	}
	inv.Reserved += qty
	return nil
}

// ApplyConfirm decrements both counters. A reserved quantity smaller than
// qty means a broken invariant somewhere else, not a business condition.
func ApplyConfirm(inv *models.Inventory, qty int) error {
	if inv.Reserved < qty {
		return models.NewDomainError(models.CodeDataInconsistency,
			"insufficient reserved qty for confirm on product %d: reserved=%d, required=%d",
			inv.ProductID, inv.Reserved, qty)
	}
	inv.Available -= qty
	inv.Reserved -= qty
	return nil
}

// ApplyRelease decrements only the reserved counter.
func ApplyRelease(inv *models.Inventory, qty int) error {
	if inv.Reserved < qty {
		return models.NewDomainError(models.CodeDataInconsistency,
			"insufficient reserved qty for release on product %d: reserved=%d, requested=%d",
			inv.ProductID, inv.Reserved, qty)
	}
	inv.Reserved -= qty
	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"commerce-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// WithTx runs fn inside a transaction. Any error from fn rolls the
// transaction back; otherwise it commits. All row locks taken by fn are
// released at commit or rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation. Webhook dedup, authorize idempotency and shipment creation all
// use this as their "already handled" signal.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.ErrProductNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductByIDTx retrieves a product by ID within a transaction
func (s *Store) GetProductByIDTx(ctx context.Context, tx *sqlx.Tx, id int64) (*models.Product, error) {
	var product models.Product
	err := tx.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.ErrProductNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetInventory retrieves inventory for a product without locking
func (s *Store) GetInventory(ctx context.Context, productID int64) (*models.Inventory, error) {
	var inv models.Inventory
	err := s.db.GetContext(ctx, &inv, "SELECT * FROM inventory WHERE product_id = $1", productID)
	if err == sql.ErrNoRows {
		return nil, models.ErrInventoryNotFound(productID)
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// LockInventory acquires an exclusive lock on the inventory row for the
// duration of the transaction. Callers locking more than one row must lock
// in ascending product ID order.
func (s *Store) LockInventory(ctx context.Context, tx *sqlx.Tx, productID int64) (*models.Inventory, error) {
	var inv models.Inventory
	err := tx.GetContext(ctx, &inv,
		"SELECT * FROM inventory WHERE product_id = $1 FOR UPDATE", productID)
	if err == sql.ErrNoRows {
		return nil, models.ErrInventoryNotFound(productID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock inventory for product %d: %w", productID, err)
	}
	return &inv, nil
}

// UpdateInventoryTx writes back counters for a row the transaction already
// holds the lock on.
func (s *Store) UpdateInventoryTx(ctx context.Context, tx *sqlx.Tx, inv *models.Inventory) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE inventory
		 SET available_qty = $1, reserved_qty = $2, version = version + 1, updated_at = NOW()
		 WHERE product_id = $3`,
		inv.Available, inv.Reserved, inv.ProductID)
	if err != nil {
		return fmt.Errorf("failed to update inventory for product %d: %w", inv.ProductID, err)
	}
	return nil
}

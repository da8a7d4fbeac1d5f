// Package reservation holds the row-locked inventory mutations used by the
// order lifecycle. Every reserve and release happens inside the caller's
// transaction so order rows and stock counters move together.
package reservation

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/damilareakin/artmarket-backend/pkg/errors"
)

// Request asks to hold qty units of one artwork.
type Request struct {
	ArtworkID uuid.UUID
	Qty       int
}

// Result reports the outcome for a single request.
type Result struct {
	ArtworkID uuid.UUID
	Qty       int
	Reserved  bool
	Reason    string
}

// Reserve moves stock from available to reserved for each request. The
// guarded UPDATE only succeeds while enough stock remains, so concurrent
// buyers cannot drive availability negative. A failed request is reported
// in its Result rather than as an error; callers decide whether a partial
// reservation aborts the transaction.
func Reserve(ctx context.Context, tx *gorm.DB, requests []Request) ([]Result, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for reservation")
	}
	for _, req := range requests {
		if req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation quantity must be positive")
		}
		if req.ArtworkID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "artwork id required")
		}
	}

	results := make([]Result, 0, len(requests))
	for _, req := range requests {
		res := tx.WithContext(ctx).Exec(`
			UPDATE artwork_inventories
			SET available_qty = available_qty - ?,
				reserved_qty = reserved_qty + ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE artwork_id = ? AND available_qty >= ?
		`, req.Qty, req.Qty, req.ArtworkID, req.Qty)
		if res.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve inventory")
		}
		result := Result{ArtworkID: req.ArtworkID, Qty: req.Qty, Reserved: res.RowsAffected == 1}
		if !result.Reserved {
			result.Reason = "insufficient stock"
		}
		results = append(results, result)
	}
	return results, nil
}

// Release returns previously reserved stock to available. Releasing more
// than is reserved is a no-op so double releases stay harmless.
func Release(ctx context.Context, tx *gorm.DB, artworkID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory release")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE artwork_inventories
		SET available_qty = available_qty + ?,
			reserved_qty = reserved_qty - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE artwork_id = ? AND reserved_qty >= ?
	`, qty, qty, artworkID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release inventory")
	}
	return nil
}

// ConsumeReserved burns reserved stock once an order ships. The hold is
// finalized instead of returned, so sellable stock drops permanently.
func ConsumeReserved(ctx context.Context, tx *gorm.DB, artworkID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory consume")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE artwork_inventories
		SET reserved_qty = reserved_qty - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE artwork_id = ? AND reserved_qty >= ?
	`, qty, artworkID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "consume reserved inventory")
	}
	return nil
}

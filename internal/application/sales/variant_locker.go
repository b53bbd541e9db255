package sales

import (
	"context"

	"github.com/google/uuid"
)

// VariantLocker serializes ledger writers per product variant.
//
// Lock blocks until every given variant is held or ctx is done. Duplicate
// ids are allowed. The returned func releases all of them and is safe to
// call more than once.
type VariantLocker interface {
	Lock(ctx context.Context, variantIDs ...uuid.UUID) (unlock func(), err error)
}

// NoOpVariantLocker never blocks.
type NoOpVariantLocker struct{}

// Lock implements VariantLocker
func (NoOpVariantLocker) Lock(context.Context, ...uuid.UUID) (func(), error) {
	return func() {}, nil
}

// Package catalog holds the read-only view of sellable product variants.
// Catalog maintenance lives outside this service.
package catalog

import (
	"context"

	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductVariant is a sellable variant of a product (size, colour, pack...)
type ProductVariant struct {
	shared.BaseEntity
	ProductID uuid.UUID
	SKU       string
	Name      string
}

// ProductVariantRepository provides read access to variants
type ProductVariantRepository interface {
	// FindByID returns shared.ErrNotFound when the variant does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*ProductVariant, error)

	// ExistsByID reports whether a variant with the given id exists
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
}

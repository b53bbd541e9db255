package sales

import (
	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Not-found codes
const (
	CodeSaleNotFound     = "SALE_NOT_FOUND"
	CodeSaleItemNotFound = "SALE_ITEM_NOT_FOUND"
	CodeVariantNotFound  = "VARIANT_NOT_FOUND"
)

// NewSaleNotFoundError creates a SALE_NOT_FOUND error
func NewSaleNotFoundError(id uuid.UUID) *shared.DomainError {
	return shared.NewDomainErrorf(CodeSaleNotFound, "Sale %s not found", id)
}

// NewSaleItemNotFoundError creates a SALE_ITEM_NOT_FOUND error
func NewSaleItemNotFoundError(id uuid.UUID) *shared.DomainError {
	return shared.NewDomainErrorf(CodeSaleItemNotFound, "Sale item %s not found", id)
}

// NewVariantNotFoundError creates a VARIANT_NOT_FOUND error
func NewVariantNotFoundError(id uuid.UUID) *shared.DomainError {
	return shared.NewDomainErrorf(CodeVariantNotFound, "Product variant %s not found", id)
}

// CodeSaleNotEmpty rejects deleting a header that still has items
const CodeSaleNotEmpty = "SALE_NOT_EMPTY"

// NewSaleNotEmptyError creates a SALE_NOT_EMPTY error
func NewSaleNotEmptyError(id uuid.UUID, items int) *shared.DomainError {
	return shared.NewDomainErrorf(CodeSaleNotEmpty, "Sale %s still has %d item(s)", id, items)
}

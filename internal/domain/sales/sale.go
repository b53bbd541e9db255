package sales

import (
	"strings"
	"time"

	"github.com/erp/inventory-ledger/internal/domain/shared"
)

// Sale is a sale transaction header. TotalAmount is the sum of the line
// totals of its items and is maintained by the sale-item ledger.
type Sale struct {
	shared.BaseEntity
	Date          time.Time
	TotalAmount   int64
	CustomerName  string
	CustomerPhone string
	DeletedAt     *time.Time
}

// NewSale creates a new, empty sale
func NewSale(date time.Time, customerName, customerPhone string) (*Sale, error) {
	customerName = strings.TrimSpace(customerName)
	if len(customerName) > 200 {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer name cannot exceed 200 characters")
	}
	if date.IsZero() {
		date = shared.Now()
	}
	return &Sale{
		BaseEntity:    shared.NewBaseEntity(),
		Date:          date.Truncate(time.Millisecond),
		CustomerName:  customerName,
		CustomerPhone: strings.TrimSpace(customerPhone),
	}, nil
}

// IsDeleted returns true if the sale has been soft-deleted
func (s *Sale) IsDeleted() bool {
	return s.DeletedAt != nil
}

// MarkDeleted soft-deletes the sale
func (s *Sale) MarkDeleted() error {
	if s.IsDeleted() {
		return shared.NewDomainError("INVALID_STATE", "Sale is already deleted")
	}
	now := shared.Now()
	s.DeletedAt = &now
	s.UpdatedAt = now
	return nil
}

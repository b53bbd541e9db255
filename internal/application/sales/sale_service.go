package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/inventory-ledger/internal/domain/sales"
	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SaleService manages sale headers. Item changes always go through the ledger.
type SaleService struct {
	scope    TransactionScope
	ledger   *SaleItemLedger
	validate *validator.Validate
	logger   *zap.Logger
}

// NewSaleService creates a new SaleService
func NewSaleService(scope TransactionScope, ledger *SaleItemLedger, logger *zap.Logger) *SaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleService{
		scope:    scope,
		ledger:   ledger,
		validate: validator.New(),
		logger:   logger,
	}
}

// CreateSale creates an empty sale header
func (s *SaleService) CreateSale(ctx context.Context, in CreateSaleInput) (*SaleResponse, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, toValidationError(err)
	}

	sale, err := sales.NewSale(in.Date, in.CustomerName, in.CustomerPhone)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.Sales().Save(ctx, sale)
	})
	if err != nil {
		return nil, fmt.Errorf("save sale: %w", err)
	}

	s.logger.Info("sale created", zap.String("sale_id", sale.ID.String()))
	resp := ToSaleResponse(sale, nil)
	return &resp, nil
}

// GetSale returns a sale with its items and their allocations
func (s *SaleService) GetSale(ctx context.Context, id uuid.UUID) (*SaleResponse, error) {
	var resp SaleResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		sale, err := requireSale(ctx, repos, id)
		if err != nil {
			return err
		}

		items, err := repos.SaleItems().FindBySale(ctx, id)
		if err != nil {
			return fmt.Errorf("load sale items: %w", err)
		}

		itemResponses := make([]SaleItemResponse, 0, len(items))
		for i := range items {
			rows, err := repos.SaleItemBatches().FindBySaleItem(ctx, items[i].ID)
			if err != nil {
				return fmt.Errorf("load allocations: %w", err)
			}
			itemResponses = append(itemResponses, ToSaleItemResponse(&items[i], rows))
		}

		resp = ToSaleResponse(sale, itemResponses)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteSale deletes every item through the ledger, returning their stock,
// then soft-deletes the header. Each item is deleted in its own ledger
// operation; if one fails the sale keeps the remaining items and a
// consistent total. The header is only deleted once it has no items left.
func (s *SaleService) DeleteSale(ctx context.Context, id uuid.UUID) error {
	var itemIDs []uuid.UUID
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := requireSale(ctx, repos, id); err != nil {
			return err
		}
		items, err := repos.SaleItems().FindBySale(ctx, id)
		if err != nil {
			return fmt.Errorf("load sale items: %w", err)
		}
		for _, item := range items {
			itemIDs = append(itemIDs, item.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, itemID := range itemIDs {
		if err := s.ledger.DeleteSaleItem(ctx, itemID); err != nil {
			return fmt.Errorf("delete sale item %s: %w", itemID, err)
		}
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := requireSale(ctx, repos, id); err != nil {
			return err
		}
		if err := requireNoItems(ctx, repos, id); err != nil {
			return err
		}
		if err := repos.Sales().SoftDelete(ctx, id, shared.Now()); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return sales.NewSaleNotFoundError(id)
			}
			return fmt.Errorf("soft-delete sale: %w", err)
		}

		// An item created after the first check commits before this read or
		// fails its AdjustTotal against the deleted header.
		if err := requireNoItems(ctx, repos, id); err != nil {
			if s.scope.Atomic() {
				return err
			}
			if restoreErr := repos.Sales().Restore(ctx, id); restoreErr != nil {
				return fmt.Errorf("restore sale after %v: %w", err, restoreErr)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("sale deleted",
		zap.String("sale_id", id.String()),
		zap.Int("items", len(itemIDs)),
	)
	return nil
}

func requireNoItems(ctx context.Context, repos TransactionalRepositories, saleID uuid.UUID) error {
	items, err := repos.SaleItems().FindBySale(ctx, saleID)
	if err != nil {
		return fmt.Errorf("load sale items: %w", err)
	}
	if len(items) > 0 {
		return sales.NewSaleNotEmptyError(saleID, len(items))
	}
	return nil
}

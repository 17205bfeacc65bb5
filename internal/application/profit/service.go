package profit

import (
	"context"
	"strings"

	"github.com/orderdesk/backend/internal/domain/profit"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateStoreRequest is the body of a store create.
type CreateStoreRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Color string `json:"color" binding:"omitempty,hexcolor"`
}

// CreateCalculationRequest is the body of a calculation create.
type CreateCalculationRequest struct {
	StoreID      string          `json:"storeId" binding:"required"`
	ItemName     string          `json:"itemName" binding:"required,max=200"`
	SalePrice    decimal.Decimal `json:"salePrice"`
	CostPrice    decimal.Decimal `json:"costPrice"`
	DeliveryCost decimal.Decimal `json:"deliveryCost"`
	OrderCount   int             `json:"orderCount" binding:"min=0"`
}

// Service runs the profit calculator against the remote profit API.
type Service struct {
	gateway profit.Gateway
	logger  *zap.Logger
}

// NewService creates a profit Service.
func NewService(gateway profit.Gateway, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{gateway: gateway, logger: logger}
}

// ListStores returns every store.
func (s *Service) ListStores(ctx context.Context) ([]profit.Store, error) {
	return s.gateway.ListStores(ctx)
}

// CreateStore validates and creates a store. An empty color gets the default.
func (s *Service) CreateStore(ctx context.Context, req CreateStoreRequest) (*profit.Store, error) {
	draft := profit.StoreDraft{Name: req.Name, Color: req.Color}.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	store, err := s.gateway.CreateStore(ctx, draft)
	if err != nil {
		return nil, err
	}
	s.logger.Info("profit store created", zap.String("id", store.ID), zap.String("name", store.Name))
	return &store, nil
}

// DeleteStore deletes a store.
func (s *Service) DeleteStore(ctx context.Context, id string) error {
	return s.gateway.DeleteStore(ctx, strings.TrimSpace(id))
}

// ListCalculations returns calculations, optionally for one store.
func (s *Service) ListCalculations(ctx context.Context, storeID string) ([]profit.Calculation, error) {
	return s.gateway.ListCalculations(ctx, strings.TrimSpace(storeID))
}

// CreateCalculation derives the profit figures and saves the calculation.
func (s *Service) CreateCalculation(ctx context.Context, req CreateCalculationRequest) (*profit.Calculation, error) {
	draft := profit.CalculationDraft{
		StoreID:      req.StoreID,
		ItemName:     req.ItemName,
		SalePrice:    req.SalePrice,
		CostPrice:    req.CostPrice,
		DeliveryCost: req.DeliveryCost,
		OrderCount:   req.OrderCount,
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	calc, err := s.gateway.CreateCalculation(ctx, draft.Calculate())
	if err != nil {
		return nil, err
	}
	return &calc, nil
}

// DeleteCalculation deletes a calculation.
func (s *Service) DeleteCalculation(ctx context.Context, id string) error {
	return s.gateway.DeleteCalculation(ctx, strings.TrimSpace(id))
}

// Summary totals every store's calculations.
func (s *Service) Summary(ctx context.Context) ([]profit.StoreSummary, error) {
	stores, err := s.gateway.ListStores(ctx)
	if err != nil {
		return nil, err
	}
	calcs, err := s.gateway.ListCalculations(ctx, "")
	if err != nil {
		return nil, err
	}
	return profit.Summarize(stores, calcs), nil
}

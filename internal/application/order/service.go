package order

import (
	"context"

	domain "github.com/marketbay/stockroom/internal/domain/order"
)

// Service is the thin facade the HTTP layer talks to.
type Service struct {
	placeOrder *PlaceOrderUseCase
	repo       domain.Repository
}

func NewService(placeOrder *PlaceOrderUseCase, repo domain.Repository) *Service {
	return &Service{placeOrder: placeOrder, repo: repo}
}

func (s *Service) PlaceOrder(ctx context.Context, cmd PlaceOrderInput) (*PlaceOrderResult, error) {
	return s.placeOrder.Execute(ctx, cmd)
}

func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.FindByID(ctx, id)
}

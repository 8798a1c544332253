package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/dukerupert/folio/internal/domain"
)

// OrderService provides the shopper's order history and the place/cancel
// actions on the server cart.
type OrderService interface {
	// Fetch returns ordered carts. No orders is an empty list.
	Fetch(ctx context.Context) ([]domain.Order, error)

	// Place marks the open server cart as ordered and reloads the cart.
	Place(ctx context.Context) (string, error)

	// Cancel reopens the ordered cart and reloads the cart.
	Cancel(ctx context.Context) (string, error)
}

// OrderAPI is the subset of the API client the order service calls.
type OrderAPI interface {
	ListOrders(ctx context.Context, token string) ([]domain.Order, error)
	PlaceOrder(ctx context.Context, token string) (*domain.Envelope[json.RawMessage], error)
	CancelOrder(ctx context.Context, token string) (*domain.Envelope[json.RawMessage], error)
}

type orderService struct {
	api    OrderAPI
	tokens TokenSource
	cart   CartService
	logger *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(api OrderAPI, tokens TokenSource, cart CartService, logger *slog.Logger) OrderService {
	return &orderService{
		api:    api,
		tokens: tokens,
		cart:   cart,
		logger: logger.With(slog.String("component", "orders")),
	}
}

func (s *orderService) Fetch(ctx context.Context) ([]domain.Order, error) {
	token, ok := s.tokens.Token(ctx)
	if !ok {
		return nil, ErrLoginRequired
	}

	orders, err := s.api.ListOrders(ctx, token)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return []domain.Order{}, nil
		}
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

func (s *orderService) Place(ctx context.Context) (string, error) {
	token, ok := s.tokens.Token(ctx)
	if !ok {
		return "", ErrLoginRequired
	}

	env, err := s.api.PlaceOrder(ctx, token)
	if err != nil {
		s.logger.Error("failed to place order", "error", err)
		return "", err
	}
	s.reloadCart(ctx)
	s.logger.Info("order placed")
	return env.Message, nil
}

func (s *orderService) Cancel(ctx context.Context) (string, error) {
	token, ok := s.tokens.Token(ctx)
	if !ok {
		return "", ErrLoginRequired
	}

	env, err := s.api.CancelOrder(ctx, token)
	if err != nil {
		s.logger.Error("failed to cancel order", "error", err)
		return "", err
	}
	s.reloadCart(ctx)
	s.logger.Info("order canceled")
	return env.Message, nil
}

// reloadCart picks up the server cart after it was ordered or reopened.
func (s *orderService) reloadCart(ctx context.Context) {
	if _, err := s.cart.FetchCart(ctx); err != nil {
		s.logger.Warn("failed to reload cart", "error", err)
	}
}

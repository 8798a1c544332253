package service

import (
	"context"
	"log/slog"

	"github.com/dukerupert/folio/internal/domain"
)

// OrderPlacedRoute is where the UI goes after a successful checkout.
const OrderPlacedRoute = "/orderplacesuccess"

// CheckoutRequest selects a saved address by index or supplies a new one.
// A new address is added to the address book first.
type CheckoutRequest struct {
	AddressIndex *int            `json:"addressIndex,omitempty"`
	Address      *domain.Address `json:"address,omitempty"`
}

// CheckoutService runs the simulated checkout. No payment is taken and
// nothing is sent to the server.
type CheckoutService interface {
	Checkout(ctx context.Context, req CheckoutRequest) (*domain.Confirmation, error)
}

// CheckoutRecorder receives checkout metrics.
type CheckoutRecorder interface {
	RecordCheckout(err error)
}

type checkoutService struct {
	sessions  SessionState
	cart      CartService
	addresses AddressBook
	metrics   CheckoutRecorder
	logger    *slog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(sessions SessionState, cart CartService, addresses AddressBook, metrics CheckoutRecorder, logger *slog.Logger) CheckoutService {
	return &checkoutService{
		sessions:  sessions,
		cart:      cart,
		addresses: addresses,
		metrics:   metrics,
		logger:    logger.With(slog.String("component", "checkout")),
	}
}

func (s *checkoutService) Checkout(ctx context.Context, req CheckoutRequest) (*domain.Confirmation, error) {
	conf, err := s.checkout(ctx, req)
	if s.metrics != nil {
		s.metrics.RecordCheckout(err)
	}
	return conf, err
}

func (s *checkoutService) checkout(ctx context.Context, req CheckoutRequest) (*domain.Confirmation, error) {
	if !s.sessions.IsAuthenticated(ctx) {
		return nil, ErrLoginRequired
	}

	cart := s.cart.Snapshot()
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	var addr domain.Address
	var err error
	switch {
	case req.Address != nil:
		addr, err = s.addresses.Add(ctx, *req.Address)
	case req.AddressIndex != nil:
		addr, err = s.addresses.Get(ctx, *req.AddressIndex)
	default:
		err = ErrAddressRequired
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("checkout completed",
		"total_quantity", cart.TotalQuantity,
		"total_price", cart.TotalPrice.String(),
	)
	return &domain.Confirmation{
		Redirect: OrderPlacedRoute,
		Address:  addr,
		Cart:     cart,
	}, nil
}

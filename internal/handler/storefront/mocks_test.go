package storefront

import (
	"context"

	"github.com/dukerupert/folio/internal/catalog"
	"github.com/dukerupert/folio/internal/domain"
	"github.com/dukerupert/folio/internal/service"
)

// mockCartService implements service.CartService for testing
type mockCartService struct {
	fetchCartFunc          func(ctx context.Context) (domain.Cart, error)
	addItemFunc            func(ctx context.Context, bookID, quantity int) (domain.Cart, error)
	updateItemQuantityFunc func(ctx context.Context, bookID, quantity int) (domain.Cart, error)
	removeItemFunc         func(ctx context.Context, bookID int) (domain.Cart, error)
	incrementFunc          func(ctx context.Context, bookID int) (domain.Cart, error)
	decrementFunc          func(ctx context.Context, bookID int) (domain.Cart, error)
	snapshot               domain.Cart
	lines                  []service.LineView
}

func (m *mockCartService) FetchCart(ctx context.Context) (domain.Cart, error) {
	if m.fetchCartFunc != nil {
		return m.fetchCartFunc(ctx)
	}
	return m.snapshot, nil
}

func (m *mockCartService) AddItem(ctx context.Context, bookID, quantity int) (domain.Cart, error) {
	if m.addItemFunc != nil {
		return m.addItemFunc(ctx, bookID, quantity)
	}
	return m.snapshot, nil
}

func (m *mockCartService) UpdateItemQuantity(ctx context.Context, bookID, quantity int) (domain.Cart, error) {
	if m.updateItemQuantityFunc != nil {
		return m.updateItemQuantityFunc(ctx, bookID, quantity)
	}
	return m.snapshot, nil
}

func (m *mockCartService) RemoveItem(ctx context.Context, bookID int) (domain.Cart, error) {
	if m.removeItemFunc != nil {
		return m.removeItemFunc(ctx, bookID)
	}
	return m.snapshot, nil
}

func (m *mockCartService) Increment(ctx context.Context, bookID int) (domain.Cart, error) {
	if m.incrementFunc != nil {
		return m.incrementFunc(ctx, bookID)
	}
	return m.snapshot, nil
}

func (m *mockCartService) Decrement(ctx context.Context, bookID int) (domain.Cart, error) {
	if m.decrementFunc != nil {
		return m.decrementFunc(ctx, bookID)
	}
	return m.snapshot, nil
}

func (m *mockCartService) MergeLocalCart(context.Context) (int, error) { return 0, nil }
func (m *mockCartService) Snapshot() domain.Cart                      { return m.snapshot }
func (m *mockCartService) Lines() []service.LineView                  { return m.lines }

func (m *mockCartService) Subscribe() (<-chan domain.Cart, func()) {
	ch := make(chan domain.Cart)
	return ch, func() {}
}

// mockAccountService implements service.AccountService for testing
type mockAccountService struct {
	loginFunc    func(ctx context.Context, creds domain.Credentials) (*domain.User, error)
	registerFunc func(ctx context.Context, reg domain.Registration) (*domain.User, error)
	logoutFunc   func(ctx context.Context) error
	session      domain.Session
}

func (m *mockAccountService) Login(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, creds)
	}
	return nil, nil
}

func (m *mockAccountService) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, reg)
	}
	return nil, nil
}

func (m *mockAccountService) Logout(ctx context.Context) error {
	if m.logoutFunc != nil {
		return m.logoutFunc(ctx)
	}
	return nil
}

func (m *mockAccountService) Restore(context.Context) (*domain.User, error) { return nil, nil }
func (m *mockAccountService) Session() domain.Session                     { return m.session }

// mockCatalog implements Catalog for testing
type mockCatalog struct {
	books         []domain.Book
	fetchByIDFunc func(ctx context.Context, id int) (domain.Book, error)
}

func (m *mockCatalog) All() []domain.Book { return m.books }

func (m *mockCatalog) Filter(term string) []domain.Book {
	if term == "" {
		return m.books
	}
	var out []domain.Book
	for _, b := range m.books {
		if b.Author == term || b.Name == term {
			out = append(out, b)
		}
	}
	return out
}

func (m *mockCatalog) Get(id int) (domain.Book, bool) {
	for _, b := range m.books {
		if b.ID == id {
			return b, true
		}
	}
	return domain.Book{}, false
}

func (m *mockCatalog) FetchByID(ctx context.Context, id int) (domain.Book, error) {
	if m.fetchByIDFunc != nil {
		return m.fetchByIDFunc(ctx, id)
	}
	if b, ok := m.Get(id); ok {
		return b, nil
	}
	return domain.Book{}, domain.NotFound("catalog.fetch", "book", "x")
}

func (m *mockCatalog) Snapshot() catalog.Snapshot {
	return catalog.Snapshot{Items: m.books}
}

// mockCheckoutService implements service.CheckoutService for testing
type mockCheckoutService struct {
	checkoutFunc func(ctx context.Context, req service.CheckoutRequest) (*domain.Confirmation, error)
}

func (m *mockCheckoutService) Checkout(ctx context.Context, req service.CheckoutRequest) (*domain.Confirmation, error) {
	return m.checkoutFunc(ctx, req)
}

// mockOrderService implements service.OrderService for testing
type mockOrderService struct {
	fetchFunc func(ctx context.Context) ([]domain.Order, error)
	placeErr  error
}

func (m *mockOrderService) Fetch(ctx context.Context) ([]domain.Order, error) {
	return m.fetchFunc(ctx)
}

func (m *mockOrderService) Place(context.Context) (string, error) {
	if m.placeErr != nil {
		return "", m.placeErr
	}
	return "Order placed successfully.", nil
}

func (m *mockOrderService) Cancel(context.Context) (string, error) {
	return "Order canceled.", nil
}

package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/dukerupert/folio/internal/domain"
	"github.com/dukerupert/folio/internal/localcart"
	"github.com/dukerupert/folio/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Fakes
// ============================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSession implements SessionManager, TokenSource and UserSource.
type fakeSession struct {
	mu     sync.Mutex
	token  string
	user   *domain.User
	epoch  uint64
	status domain.SessionStatus

	LoginFunc    func(ctx context.Context, creds domain.Credentials) (*domain.User, error)
	LoadUserFunc func(ctx context.Context) (*domain.User, error)
}

func newFakeSession() *fakeSession {
	return &fakeSession{status: domain.SessionAnonymous}
}

// authenticate switches to an authenticated session, bumping the epoch.
func (f *fakeSession) authenticate(user domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = "token"
	f.user = &user
	f.status = domain.SessionAuthenticated
	f.epoch++
}

func (f *fakeSession) anonymous() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.token != "" {
		f.epoch++
	}
	f.token = ""
	f.user = nil
	f.status = domain.SessionAnonymous
}

// expireToken drops the bearer but leaves the recorded status alone, as a
// token past its exp claim does.
func (f *fakeSession) expireToken() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
}

func (f *fakeSession) IsAuthenticated(ctx context.Context) bool {
	_, ok := f.Token(ctx)
	return ok
}

func (f *fakeSession) Token(context.Context) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, f.token != ""
}

func (f *fakeSession) Epoch() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.epoch
}

func (f *fakeSession) Login(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	user, err := f.LoginFunc(ctx, creds)
	if err != nil {
		return nil, err
	}
	f.authenticate(*user)
	return user, nil
}

func (f *fakeSession) LoadUser(ctx context.Context) (*domain.User, error) {
	if f.LoadUserFunc == nil {
		return nil, nil
	}
	return f.LoadUserFunc(ctx)
}

func (f *fakeSession) Logout(context.Context) error {
	f.anonymous()
	return nil
}

func (f *fakeSession) Snapshot() domain.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := domain.Session{Status: f.status}
	if f.user != nil {
		u := *f.user
		s.User = &u
	}
	return s
}

// fakeCatalog implements PriceSource.
type fakeCatalog map[int]domain.Book

func (c fakeCatalog) Get(id int) (domain.Book, bool) {
	b, ok := c[id]
	return b, ok
}

func priced(id int, name string, price int64) domain.Book {
	return domain.Book{ID: id, Name: name, Price: decimal.NewFromInt(price)}
}

// fakeCartServer is an in-memory bookstore cart implementing CartAPI.
// SetCartItem sets the absolute quantity, as the real endpoint does.
type fakeCartServer struct {
	mu      sync.Mutex
	lines   []domain.CartLine
	prices  map[int]decimal.Decimal
	rawCart json.RawMessage // overrides items in GetCart when set

	getErr    error
	setErr    error
	deleteErr error
	failAfter int // fail SetCartItem after this many successes when > 0
	sets      int
	calls     []string
}

func newFakeCartServer(prices map[int]int64) *fakeCartServer {
	p := make(map[int]decimal.Decimal, len(prices))
	for id, v := range prices {
		p[id] = decimal.NewFromInt(v)
	}
	return &fakeCartServer{prices: p}
}

func (s *fakeCartServer) GetCart(_ context.Context, token string) (*domain.Envelope[domain.RemoteCart], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "get")
	if token == "" {
		return nil, domain.Unauthorized("api.cart.get", "Authentication credentials were not provided.")
	}
	if s.getErr != nil {
		return nil, s.getErr
	}
	cart := domain.RemoteCart{Items: domain.ItemsOf(s.lines)}
	if s.rawCart != nil {
		cart.Items = domain.RawItems(s.rawCart)
	}
	cart.TotalQuantity, cart.TotalPrice = domain.Totals(s.lines)
	env := domain.Success("Cart retrieved successfully.", cart)
	return &env, nil
}

func (s *fakeCartServer) SetCartItem(_ context.Context, token string, bookID, quantity int) (*domain.Envelope[domain.CartLine], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "set")
	if s.setErr != nil {
		return nil, s.setErr
	}
	if s.failAfter > 0 && s.sets >= s.failAfter {
		return nil, domain.Unavailable(nil, "api.cart.set_item", "Bookstore is unreachable")
	}
	s.sets++

	line := domain.CartLine{Book: bookID, Quantity: quantity, Price: s.prices[bookID]}
	found := false
	for i := range s.lines {
		if s.lines[i].Book == bookID {
			s.lines[i] = line
			found = true
		}
	}
	if !found {
		s.lines = append(s.lines, line)
	}
	env := domain.Success("Item added to cart.", line)
	return &env, nil
}

func (s *fakeCartServer) DeleteCartItem(_ context.Context, token string, bookID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "delete")
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for i := range s.lines {
		if s.lines[i].Book == bookID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return nil
		}
	}
	return domain.NotFound("api.cart.delete_item", "cart item", "x")
}

func (s *fakeCartServer) quantities() map[int]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[int]int{}
	for _, l := range s.lines {
		out[l.Book] = l.Quantity
	}
	return out
}

func (s *fakeCartServer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// fakeRecorder counts metrics calls.
type fakeRecorder struct {
	mu        sync.Mutex
	mutations int
	fallbacks int
	merges    int
	logins    int
	checkouts int
}

func (r *fakeRecorder) RecordMutation(string, string, error) {
	r.mu.Lock()
	r.mutations++
	r.mu.Unlock()
}
func (r *fakeRecorder) RecordFallback() {
	r.mu.Lock()
	r.fallbacks++
	r.mu.Unlock()
}
func (r *fakeRecorder) RecordMerge(int, error) {
	r.mu.Lock()
	r.merges++
	r.mu.Unlock()
}
func (r *fakeRecorder) SetCartTotals(int, float64) {}
func (r *fakeRecorder) RecordLogin(error) {
	r.mu.Lock()
	r.logins++
	r.mu.Unlock()
}
func (r *fakeRecorder) RecordCheckout(error) {
	r.mu.Lock()
	r.checkouts++
	r.mu.Unlock()
}

// fakeReporter records captured errors.
type fakeReporter struct {
	mu   sync.Mutex
	errs []error
}

func (r *fakeReporter) CaptureError(_ context.Context, err error, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

// ============================================================================
// Fixture
// ============================================================================

type cartFixture struct {
	store    storage.Storage
	local    *LocalBackend
	server   *fakeCartServer
	remote   *RemoteBackend
	session  *fakeSession
	catalog  fakeCatalog
	metrics  *fakeRecorder
	reporter *fakeReporter
	cart     CartService
}

func newCartFixture(t testing.TB) *cartFixture {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	f := &cartFixture{
		store:    store,
		server:   newFakeCartServer(map[int]int64{1: 100, 2: 50, 5: 20, 10: 200}),
		session:  newFakeSession(),
		catalog:  fakeCatalog{1: priced(1, "Dune", 100), 2: priced(2, "Emma", 50), 5: priced(5, "Ubik", 20), 10: priced(10, "Hyperion", 200)},
		metrics:  &fakeRecorder{},
		reporter: &fakeReporter{},
	}
	f.local = NewLocalBackend(localcart.NewStore(store, discardLogger()))
	f.remote = NewRemoteBackend(f.server, f.session, f.local, f.metrics, discardLogger())
	f.cart = NewCartService(CartDeps{
		Local:    f.local,
		Remote:   f.remote,
		Sessions: f.session,
		Catalog:  f.catalog,
		Metrics:  f.metrics,
		Reporter: f.reporter,
		Logger:   discardLogger(),
	})
	return f
}

func lineQuantities(c domain.Cart) map[int]int {
	out := map[int]int{}
	for _, l := range c.Items {
		out[l.Book] = l.Quantity
	}
	return out
}

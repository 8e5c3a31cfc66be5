package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stockwave/internal/domain"
	"stockwave/internal/middleware"
	"stockwave/internal/service"
	"stockwave/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Stub services. Each method delegates to an optional func field so a test
// only wires what it exercises.

type stubUserService struct {
	register   func(ctx context.Context, email, password string, name *string) (*domain.User, error)
	login      func(ctx context.Context, email, password string) (string, *domain.User, error)
	getByID    func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	onboarding func(ctx context.Context, id uuid.UUID, storeName, niche *string) (*domain.User, error)
}

func (s *stubUserService) Register(ctx context.Context, email, password string, name *string) (*domain.User, error) {
	return s.register(ctx, email, password, name)
}

func (s *stubUserService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.login(ctx, email, password)
}

func (s *stubUserService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.getByID(ctx, id)
}

func (s *stubUserService) CompleteOnboarding(ctx context.Context, id uuid.UUID, storeName, niche *string) (*domain.User, error) {
	return s.onboarding(ctx, id, storeName, niche)
}

type stubProductService struct {
	create    func(ctx context.Context, owner uuid.UUID, in service.ProductInput) (*domain.Product, error)
	update    func(ctx context.Context, owner, id uuid.UUID, patch service.ProductPatch) (*domain.Product, error)
	delete    func(ctx context.Context, owner, id uuid.UUID) error
	adjust    func(ctx context.Context, owner, id uuid.UUID, stock int) (*domain.Product, error)
	get       func(ctx context.Context, owner, id uuid.UUID) (*domain.Product, error)
	list      func(ctx context.Context, owner uuid.UUID) ([]*domain.Product, error)
	search    func(ctx context.Context, owner uuid.UUID, query string) ([]*domain.Product, error)
	byBarcode func(ctx context.Context, owner uuid.UUID, barcode string) (*domain.Product, error)
}

func (s *stubProductService) CreateProduct(ctx context.Context, owner uuid.UUID, in service.ProductInput) (*domain.Product, error) {
	return s.create(ctx, owner, in)
}

func (s *stubProductService) UpdateProduct(ctx context.Context, owner, id uuid.UUID, patch service.ProductPatch) (*domain.Product, error) {
	return s.update(ctx, owner, id, patch)
}

func (s *stubProductService) DeleteProduct(ctx context.Context, owner, id uuid.UUID) error {
	return s.delete(ctx, owner, id)
}

func (s *stubProductService) AdjustStock(ctx context.Context, owner, id uuid.UUID, stock int) (*domain.Product, error) {
	return s.adjust(ctx, owner, id, stock)
}

func (s *stubProductService) GetProduct(ctx context.Context, owner, id uuid.UUID) (*domain.Product, error) {
	return s.get(ctx, owner, id)
}

func (s *stubProductService) ListProducts(ctx context.Context, owner uuid.UUID) ([]*domain.Product, error) {
	return s.list(ctx, owner)
}

func (s *stubProductService) Search(ctx context.Context, owner uuid.UUID, query string) ([]*domain.Product, error) {
	return s.search(ctx, owner, query)
}

func (s *stubProductService) FindByExactBarcode(ctx context.Context, owner uuid.UUID, barcode string) (*domain.Product, error) {
	return s.byBarcode(ctx, owner, barcode)
}

type stubSaleService struct {
	create func(ctx context.Context, owner uuid.UUID, items []service.SaleItemInput, total *decimal.Decimal) (*domain.Sale, error)
	list   func(ctx context.Context, owner uuid.UUID) ([]*domain.Sale, error)
}

func (s *stubSaleService) CreateSale(ctx context.Context, owner uuid.UUID, items []service.SaleItemInput, total *decimal.Decimal) (*domain.Sale, error) {
	return s.create(ctx, owner, items, total)
}

func (s *stubSaleService) ListSales(ctx context.Context, owner uuid.UUID) ([]*domain.Sale, error) {
	return s.list(ctx, owner)
}

type stubDashboardService struct {
	stats       func(ctx context.Context, owner uuid.UUID) (*domain.Stats, error)
	bestSellers func(ctx context.Context, owner uuid.UUID) ([]*domain.BestSeller, error)
	lowStock    func(ctx context.Context, owner uuid.UUID) ([]*domain.Product, error)
	salesByDay  func(ctx context.Context, owner uuid.UUID, days int) ([]*domain.DailySales, error)
}

func (s *stubDashboardService) Stats(ctx context.Context, owner uuid.UUID) (*domain.Stats, error) {
	return s.stats(ctx, owner)
}

func (s *stubDashboardService) BestSellers(ctx context.Context, owner uuid.UUID) ([]*domain.BestSeller, error) {
	return s.bestSellers(ctx, owner)
}

func (s *stubDashboardService) LowStock(ctx context.Context, owner uuid.UUID) ([]*domain.Product, error) {
	return s.lowStock(ctx, owner)
}

func (s *stubDashboardService) SalesByDay(ctx context.Context, owner uuid.UUID, days int) ([]*domain.DailySales, error) {
	return s.salesByDay(ctx, owner, days)
}

type stubBillingService struct {
	plans    func(ctx context.Context) ([]*domain.Plan, error)
	purchase func(ctx context.Context, userID uuid.UUID, planID string, method *string) (*domain.Payment, error)
	payments func(ctx context.Context, userID uuid.UUID) ([]*domain.Payment, error)
}

func (s *stubBillingService) ListActivePlans(ctx context.Context) ([]*domain.Plan, error) {
	return s.plans(ctx)
}

func (s *stubBillingService) PurchasePlan(ctx context.Context, userID uuid.UUID, planID string, method *string) (*domain.Payment, error) {
	return s.purchase(ctx, userID, planID, method)
}

func (s *stubBillingService) ListPayments(ctx context.Context, userID uuid.UUID) ([]*domain.Payment, error) {
	return s.payments(ctx, userID)
}

// routeRegistrar is implemented by every handler except UserHandler
type routeRegistrar interface {
	RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler)
}

var testSessions = session.NewMaker("transport-test-secret", time.Hour)

func newTestRouter(handler routeRegistrar) http.Handler {
	r := chi.NewRouter()
	handler.RegisterRoutes(r, middleware.AuthMiddleware(testSessions, zap.NewNop()))
	return r
}

// doRequest sends body as JSON. A non-nil user is authenticated through the
// session cookie.
func doRequest(t *testing.T, h http.Handler, method, path string, body interface{}, user *uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		token, err := testSessions.Issue(*user)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorDetail {
	t.Helper()
	var resp middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func validationFields(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()
	var resp struct {
		Error struct {
			Details struct {
				ValidationErrors []middleware.ValidationError `json:"validation_errors"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	fields := make([]string, 0, len(resp.Error.Details.ValidationErrors))
	for _, e := range resp.Error.Details.ValidationErrors {
		fields = append(fields, e.Field)
	}
	return fields
}

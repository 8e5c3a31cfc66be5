package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"stockwave/internal/domain"
	"stockwave/internal/middleware"
	"stockwave/internal/repository"
	"stockwave/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestProductRoutes_RequireSession(t *testing.T) {
	router := newTestRouter(NewProductHandler(&stubProductService{}, zap.NewNop()))

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/products"},
		{http.MethodPost, "/products"},
		{http.MethodGet, "/products/search?q=ab"},
		{http.MethodGet, "/products/barcode-search/789"},
		{http.MethodPut, "/products/" + uuid.NewString()},
		{http.MethodDelete, "/products/" + uuid.NewString()},
		{http.MethodPatch, "/products/" + uuid.NewString() + "/stock"},
	} {
		w := doRequest(t, router, tc.method, tc.path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestCreateProduct_DecodesDecimalPrice(t *testing.T) {
	owner := uuid.New()
	var got service.ProductInput
	svc := &stubProductService{
		create: func(ctx context.Context, ownerID uuid.UUID, in service.ProductInput) (*domain.Product, error) {
			assert.Equal(t, owner, ownerID)
			got = in
			return &domain.Product{ID: uuid.New(), OwnerID: ownerID, Name: in.Name, Price: in.Price, Stock: in.Stock, MinStock: 5, Barcode: "AUTO-1-abc"}, nil
		},
	}
	router := newTestRouter(NewProductHandler(svc, zap.NewNop()))

	w := doRequest(t, router, http.MethodPost, "/products",
		`{"name":"Soda","price":"2.50","stock":10}`, &owner)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Soda", got.Name)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, 10, got.Stock)
	assert.Nil(t, got.Barcode)
	assert.Nil(t, got.MinStock)

	var product domain.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &product))
	assert.Equal(t, "Soda", product.Name)

	// numeric prices are accepted too
	w = doRequest(t, router, http.MethodPost, "/products",
		`{"name":"Soda","price":3.75,"stock":1,"minStock":2}`, &owner)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("3.75")))
	require.NotNil(t, got.MinStock)
	assert.Equal(t, 2, *got.MinStock)
}

func TestProductHandler_LeavesAuditLogsToService(t *testing.T) {
	owner := uuid.New()
	svc := &stubProductService{
		create: func(ctx context.Context, ownerID uuid.UUID, in service.ProductInput) (*domain.Product, error) {
			return &domain.Product{ID: uuid.New(), OwnerID: ownerID, Name: in.Name, Price: in.Price}, nil
		},
		delete: func(ctx context.Context, ownerID, id uuid.UUID) error {
			return nil
		},
	}
	core, logs := observer.New(zap.DebugLevel)
	router := newTestRouter(NewProductHandler(svc, zap.New(core)))

	w := doRequest(t, router, http.MethodPost, "/products", `{"name":"Soda","price":"2.50"}`, &owner)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, router, http.MethodDelete, "/products/"+uuid.NewString(), nil, &owner)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Zero(t, logs.Len())
}

func TestCreateProduct_ValidationErrors(t *testing.T) {
	owner := uuid.New()
	svc := &stubProductService{
		create: func(ctx context.Context, ownerID uuid.UUID, in service.ProductInput) (*domain.Product, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	router := newTestRouter(NewProductHandler(svc, zap.NewNop()))

	w := doRequest(t, router, http.MethodPost, "/products", `{"stock":-1}`, &owner)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.ElementsMatch(t, []string{"name", "price", "stock"}, validationFields(t, w))

	w = doRequest(t, router, http.MethodPost, "/products", `{"name":"Granel","price":1,"stock":2147483648,"minStock":2147483648}`, &owner)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.ElementsMatch(t, []string{"stock", "minStock"}, validationFields(t, w))
}

func TestCreateProduct_BarcodeTaken(t *testing.T) {
	owner := uuid.New()
	svc := &stubProductService{
		create: func(ctx context.Context, ownerID uuid.UUID, in service.ProductInput) (*domain.Product, error) {
			return nil, repository.ErrBarcodeTaken
		},
	}
	router := newTestRouter(NewProductHandler(svc, zap.NewNop()))

	w := doRequest(t, router, http.MethodPost, "/products",
		`{"name":"Soda","barcode":"789","price":2,"stock":1}`, &owner)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	detail := decodeError(t, w)
	assert.Equal(t, middleware.CodeConflict, detail.Code)
	assert.Equal(t, "barcode already registered", detail.Message)
}

func TestUpdateProduct_PassesPatch(t *testing.T) {
	owner, productID := uuid.New(), uuid.New()
	var got service.ProductPatch
	svc := &stubProductService{
		update: func(ctx context.Context, ownerID, id uuid.UUID, patch service.ProductPatch) (*domain.Product, error) {
			assert.Equal(t, productID, id)
			got = patch
			return &domain.Product{ID: id, OwnerID: ownerID, Name: *patch.Name}, nil
		},
	}
	router := newTestRouter(NewProductHandler(svc, zap.NewNop()))

	w := doRequest(t, router, http.MethodPut, "/products/"+productID.String(), `{"name":"Cola","price":"4"}`, &owner)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got.Name)
	assert.Equal(t, "Cola", *got.Name)
	require.NotNil(t, got.Price)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(4)))
	assert.Nil(t, got.Barcode)
	assert.Nil(t, got.Stock)
}

func TestUpdateProduct_RejectsEmptyName(t *testing.T) {
	owner := uuid.New()
	router := newTestRouter(NewProductHandler(&stubProductService{}, zap.NewNop()))

	w := doRequest(t, router, http.MethodPut, "/products/"+uuid.NewString(), `{"name":""}`, &owner)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"name"}, validationFields(t, w))
}

func TestProduct_NotFound(t *testing.T) {
	owner := uuid.New()
	svc := &stubProductService{
		get: func(ctx context.Context, ownerID, id uuid.UUID) (*domain.Product, error) {
			return nil, repository.ErrProductNotFound
		},
		delete: func(ctx context.Context, ownerID, id uuid.UUID) error {
			return repository.ErrProductNotFound
		},
		byBarcode: func(ctx context.Context, ownerID uuid.UUID, barcode string) (*domain.Product, error) {
			return nil, repository.ErrProductNotFound
		},
	}
	router := newTestRouter(NewProductHandler(svc, zap.NewNop()))

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/products/" + uuid.NewString()},
		{http.MethodGet, "/products/not-a-uuid"},
		{http.MethodDelete, "/products/" + uuid.NewString()},
		{http.MethodGet, "/products/barcode-search/000"},
	} {
		w := doRequest(t, router, tc.method, tc.path, nil, &owner)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestAdjustStock(t *testing.T) {
	owner, productID := uuid.New(), uuid.New()
	var gotStock int
	svc := &stubProductService{
		adjust: func(ctx context.Context, ownerID, id uuid.UUID, stock int) (*domain.Product, error) {
			gotStock = stock
			return &domain.Product{ID: id, Stock: stock}, nil
		},
	}
	router := newTestRouter(NewProductHandler(svc, zap.NewNop()))
	path := "/products/" + productID.String() + "/stock"

	w := doRequest(t, router, http.MethodPatch, path, `{"stock":0}`, &owner)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, gotStock)

	w = doRequest(t, router, http.MethodPatch, path, `{}`, &owner)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"stock"}, validationFields(t, w))

	w = doRequest(t, router, http.MethodPatch, path, `{"stock":-3}`, &owner)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, router, http.MethodPatch, path, `{"stock":2147483648}`, &owner)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"stock"}, validationFields(t, w))
	assert.Equal(t, 0, gotStock)
}

func TestSearch_ForwardsQuery(t *testing.T) {
	owner := uuid.New()
	var gotQuery string
	svc := &stubProductService{
		search: func(ctx context.Context, ownerID uuid.UUID, query string) ([]*domain.Product, error) {
			gotQuery = query
			return []*domain.Product{}, nil
		},
	}
	router := newTestRouter(NewProductHandler(svc, zap.NewNop()))

	w := doRequest(t, router, http.MethodGet, "/products/search?q=caf%C3%A9", nil, &owner)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "café", gotQuery)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestListProducts_UnexpectedErrorIsHidden(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	owner := uuid.New()
	svc := &stubProductService{
		list: func(ctx context.Context, ownerID uuid.UUID) ([]*domain.Product, error) {
			return nil, errors.New("pq: connection refused")
		},
	}
	router := newTestRouter(NewProductHandler(svc, zap.New(core)))

	w := doRequest(t, router, http.MethodGet, "/products", nil, &owner)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "failed to list products", decodeError(t, w).Message)
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.Equal(t, 1, logs.FilterMessage("failed to list products").Len())
}

package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"stockwave/internal/alert"
	"stockwave/internal/domain"
	"stockwave/internal/repository"

	"github.com/google/uuid"
)

// Mock repositories for testing
type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) UpdateOnboarding(ctx context.Context, id uuid.UUID, storeName, niche *string, updatedAt time.Time) (*domain.User, error) {
	user, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.StoreName = storeName
	user.Niche = niche
	user.OnboardingCompleted = true
	user.UpdatedAt = updatedAt
	return user, nil
}

type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
	// afterFind runs once FindByID has taken its copy
	afterFind func(id uuid.UUID)
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products: make(map[uuid.UUID]*domain.Product),
	}
}

func (m *mockProductRepository) add(p *domain.Product) *domain.Product {
	m.products[p.ID] = p
	return p
}

func (m *mockProductRepository) barcodeTaken(barcode string, except uuid.UUID) bool {
	for _, p := range m.products {
		if p.Barcode == barcode && p.ID != except {
			return true
		}
	}
	return false
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if m.barcodeTaken(product.Barcode, product.ID) {
		return repository.ErrBarcodeTaken
	}
	copied := *product
	m.products[product.ID] = &copied
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, ownerID, id uuid.UUID, changes repository.ProductChanges) (*domain.Product, error) {
	existing, ok := m.products[id]
	if !ok || existing.OwnerID != ownerID {
		return nil, repository.ErrProductNotFound
	}
	if changes.Barcode != nil && m.barcodeTaken(*changes.Barcode, id) {
		return nil, repository.ErrBarcodeTaken
	}
	if changes.Name != nil {
		existing.Name = *changes.Name
	}
	if changes.Barcode != nil {
		existing.Barcode = *changes.Barcode
	}
	if changes.Price != nil {
		existing.Price = *changes.Price
	}
	if changes.Stock != nil {
		existing.Stock = *changes.Stock
	}
	if changes.MinStock != nil {
		existing.MinStock = *changes.MinStock
	}
	if changes.SetDescription {
		existing.Description = changes.Description
	}
	existing.UpdatedAt = changes.UpdatedAt
	copied := *existing
	return &copied, nil
}

func (m *mockProductRepository) UpdateStock(ctx context.Context, ownerID, id uuid.UUID, stock int, updatedAt time.Time) (*domain.Product, error) {
	product, err := m.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	product.Stock = stock
	product.UpdatedAt = updatedAt
	m.products[id] = product
	return product, nil
}

func (m *mockProductRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := m.FindByID(ctx, ownerID, id); err != nil {
		return err
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok || p.OwnerID != ownerID {
		return nil, repository.ErrProductNotFound
	}
	copied := *p
	if m.afterFind != nil {
		m.afterFind(id)
	}
	return &copied, nil
}

func (m *mockProductRepository) FindByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	for _, p := range m.products {
		if p.Barcode == barcode {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) FindByOwnerAndBarcode(ctx context.Context, ownerID uuid.UUID, barcode string) (*domain.Product, error) {
	p, err := m.FindByBarcode(ctx, barcode)
	if err != nil || p.OwnerID != ownerID {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProductRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Product, error) {
	products := []*domain.Product{}
	for _, p := range m.products {
		if p.OwnerID == ownerID {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].CreatedAt.After(products[j].CreatedAt) })
	return products, nil
}

func (m *mockProductRepository) Search(ctx context.Context, ownerID uuid.UUID, term string, limit int) ([]*domain.Product, error) {
	products := []*domain.Product{}
	key := repository.FoldSearchKey(term)
	for _, p := range m.products {
		if p.OwnerID == ownerID && strings.Contains(repository.FoldSearchKey(p.Name), key) {
			products = append(products, p)
		}
	}
	if len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

func (m *mockProductRepository) ListLowStock(ctx context.Context, ownerID uuid.UUID) ([]*domain.Product, error) {
	products := []*domain.Product{}
	for _, p := range m.products {
		if p.OwnerID == ownerID && p.IsLowStock() {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Stock < products[j].Stock })
	return products, nil
}

// mockSaleRepository applies sales to a mockProductRepository under a lock
type mockSaleRepository struct {
	mu       sync.Mutex
	products *mockProductRepository
	sales    []*domain.Sale
	err      error
}

func (m *mockSaleRepository) Create(ctx context.Context, sale *domain.Sale, lines []domain.SaleLine) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	stock := make(map[uuid.UUID]int)
	touched := make(map[uuid.UUID]*domain.Product)
	for _, line := range lines {
		p, ok := m.products.products[line.ProductID]
		if !ok || p.OwnerID != sale.OwnerID {
			return nil, &repository.ProductNotFoundError{ProductID: line.ProductID}
		}
		if _, seen := stock[p.ID]; !seen {
			stock[p.ID] = p.Stock
		}
		if stock[p.ID] < line.Quantity {
			return nil, &repository.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Available:   stock[p.ID],
				Requested:   line.Quantity,
			}
		}
		stock[p.ID] -= line.Quantity
		touched[p.ID] = p
	}

	result := []*domain.Product{}
	for id, p := range touched {
		p.Stock = stock[id]
		result = append(result, p)
	}
	for _, line := range lines {
		productID := line.ProductID
		sale.Items = append(sale.Items, domain.SaleItem{
			ID:          uuid.New(),
			SaleID:      sale.ID,
			ProductID:   &productID,
			ProductName: touched[line.ProductID].Name,
			Quantity:    line.Quantity,
			Price:       line.Price,
			Subtotal:    line.Subtotal(),
		})
	}
	m.sales = append(m.sales, sale)

	return result, nil
}

func (m *mockSaleRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*domain.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sales := []*domain.Sale{}
	for i := len(m.sales) - 1; i >= 0 && len(sales) < limit; i-- {
		if m.sales[i].OwnerID == ownerID {
			sales = append(sales, m.sales[i])
		}
	}
	return sales, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	alerts []alert.LowStockAlert
	err    error
}

func (r *recordingPublisher) PublishLowStock(ctx context.Context, alerts []alert.LowStockAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alerts...)
	return r.err
}

func (r *recordingPublisher) Close() error {
	return nil
}

type mockDashboardRepository struct {
	since time.Time
}

func (m *mockDashboardRepository) Stats(ctx context.Context, ownerID uuid.UUID) (*domain.Stats, error) {
	return &domain.Stats{}, nil
}

func (m *mockDashboardRepository) BestSellers(ctx context.Context, ownerID uuid.UUID, limit int) ([]*domain.BestSeller, error) {
	return []*domain.BestSeller{}, nil
}

func (m *mockDashboardRepository) SalesByDay(ctx context.Context, ownerID uuid.UUID, since time.Time) ([]*domain.DailySales, error) {
	m.since = since
	return []*domain.DailySales{}, nil
}

type mockPlanRepository struct {
	plans map[string]*domain.Plan
}

func (m *mockPlanRepository) ListActive(ctx context.Context) ([]*domain.Plan, error) {
	plans := []*domain.Plan{}
	for _, p := range m.plans {
		if p.IsActive {
			plans = append(plans, p)
		}
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].Price.LessThan(plans[j].Price) })
	return plans, nil
}

func (m *mockPlanRepository) FindByID(ctx context.Context, id string) (*domain.Plan, error) {
	p, ok := m.plans[id]
	if !ok {
		return nil, repository.ErrPlanNotFound
	}
	return p, nil
}

type mockPaymentRepository struct {
	payments    []*domain.Payment
	activations []*repository.PlanActivation
}

func (m *mockPaymentRepository) Create(ctx context.Context, payment *domain.Payment, activation *repository.PlanActivation) error {
	m.payments = append(m.payments, payment)
	m.activations = append(m.activations, activation)
	return nil
}

func (m *mockPaymentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Payment, error) {
	payments := []*domain.Payment{}
	for i := len(m.payments) - 1; i >= 0; i-- {
		if m.payments[i].UserID == userID {
			payments = append(payments, m.payments[i])
		}
	}
	return payments, nil
}

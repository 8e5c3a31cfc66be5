package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stockwave/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrBarcodeTaken    = errors.New("barcode already registered")
)

const productColumns = `id, owner_id, name, barcode, price, stock, min_stock, description, created_at, updated_at`

// ProductRepository defines the interface for product data access.
// Every method except FindByBarcode is scoped to the owning user.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, ownerID, id uuid.UUID, changes ProductChanges) (*domain.Product, error)
	UpdateStock(ctx context.Context, ownerID, id uuid.UUID, stock int, updatedAt time.Time) (*domain.Product, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	FindByOwnerAndBarcode(ctx context.Context, ownerID uuid.UUID, barcode string) (*domain.Product, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Product, error)
	Search(ctx context.Context, ownerID uuid.UUID, term string, limit int) ([]*domain.Product, error)
	ListLowStock(ctx context.Context, ownerID uuid.UUID) ([]*domain.Product, error)
}

// ProductChanges lists the columns an update writes. Nil fields keep the
// stored value. Description is only written when SetDescription is true, so
// it can be cleared with a nil Description.
type ProductChanges struct {
	Name           *string
	Barcode        *string
	Price          *decimal.Decimal
	Stock          *int
	MinStock       *int
	Description    *string
	SetDescription bool
	UpdatedAt      time.Time
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts a new product into the database using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, owner_id, name, search_name, barcode, price, stock, min_stock,
			description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.OwnerID,
		product.Name,
		FoldSearchKey(product.Name),
		product.Barcode,
		product.Price,
		product.Stock,
		product.MinStock,
		product.Description,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "products_barcode_key") {
			return ErrBarcodeTaken
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update writes the set fields of changes in a single statement. Columns
// that are not part of changes are never rewritten, so stock decremented by
// a concurrent sale is left alone.
func (r *productRepository) Update(ctx context.Context, ownerID, id uuid.UUID, changes ProductChanges) (*domain.Product, error) {
	query := `
		UPDATE products
		SET name = COALESCE($3, name),
		    search_name = COALESCE($4, search_name),
		    barcode = COALESCE($5, barcode),
		    price = COALESCE($6, price),
		    stock = COALESCE($7, stock),
		    min_stock = COALESCE($8, min_stock),
		    description = CASE WHEN $9::boolean THEN $10::text ELSE description END,
		    updated_at = $11
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + productColumns

	var searchName *string
	if changes.Name != nil {
		folded := FoldSearchKey(*changes.Name)
		searchName = &folded
	}

	product, err := scanProduct(r.db.QueryRowContext(
		ctx,
		query,
		id,
		ownerID,
		changes.Name,
		searchName,
		changes.Barcode,
		changes.Price,
		changes.Stock,
		changes.MinStock,
		changes.SetDescription,
		changes.Description,
		changes.UpdatedAt,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		if isUniqueViolation(err, "products_barcode_key") {
			return nil, ErrBarcodeTaken
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return product, nil
}

// UpdateStock overwrites the stock count of a product
func (r *productRepository) UpdateStock(ctx context.Context, ownerID, id uuid.UUID, stock int, updatedAt time.Time) (*domain.Product, error) {
	query := `
		UPDATE products
		SET stock = $3, updated_at = $4
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + productColumns

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id, ownerID, stock, updatedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}

	return product, nil
}

// Delete removes a product permanently. Sale items keep their name snapshot.
func (r *productRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1 AND owner_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID when it belongs to ownerID
func (r *productRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND owner_id = $2`
	return r.findOne(ctx, "find product by ID", query, id, ownerID)
}

// FindByBarcode looks a barcode up across all owners
func (r *productRepository) FindByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE barcode = $1`
	return r.findOne(ctx, "find product by barcode", query, barcode)
}

// FindByOwnerAndBarcode is an exact, case-sensitive barcode lookup
func (r *productRepository) FindByOwnerAndBarcode(ctx context.Context, ownerID uuid.UUID, barcode string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE barcode = $1 AND owner_id = $2`
	return r.findOne(ctx, "find product by owner barcode", query, barcode, ownerID)
}

// ListByOwner returns the owner's catalog, newest first
func (r *productRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, "list products", query, ownerID)
}

// Search matches term against the folded name and the barcode. Exact
// barcode matches rank first, the rest are ordered by name.
func (r *productRepository) Search(ctx context.Context, ownerID uuid.UUID, term string, limit int) ([]*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE owner_id = $1 AND (search_name LIKE $2 OR barcode ILIKE $3)
		ORDER BY (barcode = $4) DESC, search_name ASC, name ASC
		LIMIT $5
	`

	namePattern := "%" + escapeLike(FoldSearchKey(term)) + "%"
	barcodePattern := "%" + escapeLike(term) + "%"

	return r.list(ctx, "search products", query, ownerID, namePattern, barcodePattern, term, limit)
}

// ListLowStock returns products at or below their minimum stock, lowest first
func (r *productRepository) ListLowStock(ctx context.Context, ownerID uuid.UUID) ([]*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE owner_id = $1 AND stock <= min_stock
		ORDER BY stock ASC, name ASC
	`
	return r.list(ctx, "list low stock products", query, ownerID)
}

func (r *productRepository) findOne(ctx context.Context, op, query string, args ...any) (*domain.Product, error) {
	product, err := scanProduct(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return product, nil
}

func (r *productRepository) list(ctx context.Context, op, query string, args ...any) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

func scanProduct(row scanner) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.OwnerID,
		&product.Name,
		&product.Barcode,
		&product.Price,
		&product.Stock,
		&product.MinStock,
		&product.Description,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

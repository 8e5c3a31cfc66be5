package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"stockwave/internal/domain"

	"github.com/google/uuid"
)

// InsufficientStockError reports a cart line that asks for more units than
// the product has in stock
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: %d available, %d requested", e.ProductName, e.Available, e.Requested)
}

// ProductNotFoundError names the product id a sale referenced but the
// owner does not have. It matches ErrProductNotFound with errors.Is.
type ProductNotFoundError struct {
	ProductID uuid.UUID
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

func (e *ProductNotFoundError) Is(target error) bool {
	return target == ErrProductNotFound
}

// SaleRepository defines the interface for sale data access
type SaleRepository interface {
	// Create persists the sale, its items and the stock decrements in one
	// transaction and returns the touched products as they are after commit.
	Create(ctx context.Context, sale *domain.Sale, lines []domain.SaleLine) ([]*domain.Product, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*domain.Sale, error)
}

type saleRepository struct {
	db *sql.DB
}

// NewSaleRepository creates a new instance of SaleRepository
func NewSaleRepository(db *sql.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) Create(ctx context.Context, sale *domain.Sale, lines []domain.SaleLine) ([]*domain.Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin sale transaction: %w", err)
	}
	defer tx.Rollback()

	locked, err := lockProducts(ctx, tx, sale.OwnerID, lines)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sales (id, owner_id, total, created_at) VALUES ($1, $2, $3, $4)`,
		sale.ID, sale.OwnerID, sale.Total, sale.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sale: %w", err)
	}

	sale.Items = make([]domain.SaleItem, 0, len(lines))
	for i, line := range lines {
		product, ok := locked[line.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: line.ProductID}
		}

		if product.Stock < line.Quantity {
			return nil, &InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   product.Stock,
				Requested:   line.Quantity,
			}
		}

		productID := product.ID
		item := domain.SaleItem{
			ID:          uuid.New(),
			SaleID:      sale.ID,
			ProductID:   &productID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			Price:       line.Price,
			Subtotal:    line.Subtotal(),
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO sale_items (id, sale_id, product_id, product_name, line_no, quantity, price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			item.ID, item.SaleID, item.ProductID, item.ProductName, i, item.Quantity, item.Price, item.Subtotal,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create sale item: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - $2, updated_at = $3 WHERE id = $1`,
			product.ID, line.Quantity, sale.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}

		product.Stock -= line.Quantity
		product.UpdatedAt = sale.CreatedAt
		sale.Items = append(sale.Items, item)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sale: %w", err)
	}

	touched := make([]*domain.Product, 0, len(locked))
	for _, product := range locked {
		touched = append(touched, product)
	}
	sort.Slice(touched, func(i, j int) bool {
		return touched[i].ID.String() < touched[j].ID.String()
	})

	return touched, nil
}

// lockProducts takes row locks on every product the lines reference, in id
// order so that concurrent sales over the same products cannot deadlock.
// The locks are held until the transaction ends.
func lockProducts(ctx context.Context, tx *sql.Tx, ownerID uuid.UUID, lines []domain.SaleLine) (map[uuid.UUID]*domain.Product, error) {
	seen := make(map[uuid.UUID]bool, len(lines))
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID.String())
		}
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE owner_id = $1 AND id = ANY($2::uuid[])
		ORDER BY id
		FOR UPDATE`,
		ownerID, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	defer rows.Close()

	locked := make(map[uuid.UUID]*domain.Product, len(ids))
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		locked[product.ID] = product
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locked products: %w", err)
	}

	return locked, nil
}

// ListByOwner returns the most recent sales with their items
func (r *saleRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*domain.Sale, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, total, created_at
		FROM sales
		WHERE owner_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2`,
		ownerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	sales := []*domain.Sale{}
	byID := make(map[uuid.UUID]*domain.Sale)
	ids := []string{}
	for rows.Next() {
		sale := &domain.Sale{Items: []domain.SaleItem{}}
		if err := rows.Scan(&sale.ID, &sale.OwnerID, &sale.Total, &sale.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sale)
		byID[sale.ID] = sale
		ids = append(ids, sale.ID.String())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales: %w", err)
	}

	if len(sales) == 0 {
		return sales, nil
	}

	if err := r.attachItems(ctx, byID, ids); err != nil {
		return nil, err
	}

	return sales, nil
}

func (r *saleRepository) attachItems(ctx context.Context, byID map[uuid.UUID]*domain.Sale, ids []string) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, sale_id, product_id, product_name, quantity, price, subtotal
		FROM sale_items
		WHERE sale_id = ANY($1::uuid[])
		ORDER BY sale_id, line_no`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("failed to list sale items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.SaleItem
		var productID sql.NullString
		if err := rows.Scan(&item.ID, &item.SaleID, &productID, &item.ProductName, &item.Quantity, &item.Price, &item.Subtotal); err != nil {
			return fmt.Errorf("failed to scan sale item: %w", err)
		}
		if productID.Valid {
			id, err := uuid.Parse(productID.String)
			if err != nil {
				return fmt.Errorf("invalid product id on sale item: %w", err)
			}
			item.ProductID = &id
		}
		if sale, ok := byID[item.SaleID]; ok {
			sale.Items = append(sale.Items, item)
		}
	}

	return rows.Err()
}

package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arangbara/ppob/internal/domain"
)

type ProductRepo struct {
	db *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

// Upsert inserts or refreshes one catalog entry, keyed by product code.
func (r *ProductRepo) Upsert(p *domain.Product) error {
	_, err := r.db.Exec(
		`INSERT INTO products (code, name, category, brand, cost_price, selling_price, enabled, synced_at)
		 VALUES (?,?,?,?,?,?,?,?)
		 ON CONFLICT(code) DO UPDATE SET
		   name = excluded.name,
		   category = excluded.category,
		   brand = excluded.brand,
		   cost_price = excluded.cost_price,
		   selling_price = excluded.selling_price,
		   enabled = excluded.enabled,
		   synced_at = excluded.synced_at`,
		p.Code, p.Name, p.Category, p.Brand,
		p.CostPrice.String(), p.SellingPrice.String(),
		boolToInt(p.Enabled), p.SyncedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

func (r *ProductRepo) GetByCode(code string) (*domain.Product, error) {
	row := r.db.QueryRow(
		`SELECT code, name, category, brand, cost_price, selling_price, enabled, synced_at
		 FROM products WHERE code = ?`, code)

	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

// List returns catalog entries, optionally restricted to enabled products.
func (r *ProductRepo) List(enabledOnly bool) ([]domain.Product, error) {
	query := `SELECT code, name, category, brand, cost_price, selling_price, enabled, synced_at
	          FROM products`
	if enabledOnly {
		query += " WHERE enabled = 1"
	}
	query += " ORDER BY category, code"

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *ProductRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM products").Scan(&count)
	return count, err
}

// DisableStale disables products that were not touched by the sync that ran
// at or after the given cutoff. A product missing from the latest price list
// must not remain purchasable.
func (r *ProductRepo) DisableStale(cutoff time.Time) (int, error) {
	res, err := r.db.Exec(
		"UPDATE products SET enabled = 0 WHERE synced_at < ? AND enabled = 1",
		cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("disable stale: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// --- helpers ---

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var cost, selling, syncedAt string
	var enabled int

	err := row.Scan(&p.Code, &p.Name, &p.Category, &p.Brand, &cost, &selling, &enabled, &syncedAt)
	if err != nil {
		return nil, err
	}

	p.CostPrice, _ = decimal.NewFromString(cost)
	p.SellingPrice, _ = decimal.NewFromString(selling)
	p.Enabled = enabled != 0
	p.SyncedAt, _ = time.Parse(timeLayout, syncedAt)

	return &p, nil
}

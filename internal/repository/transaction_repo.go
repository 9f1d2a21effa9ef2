package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arangbara/ppob/internal/domain"
)

// timeLayout is a fixed-width UTC layout so that lexicographic ordering on
// the stored column matches chronological ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

// Insert persists a new transaction. A ref_id collision returns
// ErrDuplicateRef and leaves the existing row untouched.
func (r *TransactionRepo) Insert(tx *domain.Transaction) error {
	res, err := r.db.Exec(
		`INSERT OR IGNORE INTO transactions
		(ref_id, customer_no, product_code, status, message, rc, sn,
		 price, buyer_last_saldo, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		tx.RefID, tx.CustomerNo, tx.ProductCode, string(tx.Status),
		tx.Message, tx.RC, tx.SN, tx.Price.String(), tx.BuyerLastSaldo.String(),
		tx.CreatedAt.UTC().Format(timeLayout), tx.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDuplicateRef
	}
	return nil
}

func (r *TransactionRepo) GetByRefID(refID string) (*domain.Transaction, error) {
	row := r.db.QueryRow(
		`SELECT ref_id, customer_no, product_code, status, message, rc, sn,
		        price, buyer_last_saldo, created_at, updated_at
		 FROM transactions WHERE ref_id = ?`, refID)

	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return tx, err
}

// ListPending returns all unresolved transactions, most recently touched
// first. Ordering is a policy choice for the reconciler, not a correctness
// requirement.
func (r *TransactionRepo) ListPending() ([]domain.Transaction, error) {
	rows, err := r.db.Query(
		`SELECT ref_id, customer_no, product_code, status, message, rc, sn,
		        price, buyer_last_saldo, created_at, updated_at
		 FROM transactions WHERE status = ? ORDER BY updated_at DESC`,
		string(domain.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("query pending: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ApplyStatusUpdate writes a reconciliation result onto a transaction that
// is still Pending and bumps updated_at. It returns false when the row was
// not transitioned, either because it does not exist or because a terminal
// status is already on record — terminal states never regress.
func (r *TransactionRepo) ApplyStatusUpdate(refID string, u domain.StatusUpdate, now time.Time) (bool, error) {
	res, err := r.db.Exec(
		`UPDATE transactions
		 SET status = ?, message = ?, rc = ?, sn = ?, buyer_last_saldo = ?, updated_at = ?
		 WHERE ref_id = ? AND status = ?`,
		string(u.Status), u.Message, u.RC, u.SN, u.BuyerLastSaldo.String(),
		now.UTC().Format(timeLayout), refID, string(domain.StatusPending),
	)
	if err != nil {
		return false, fmt.Errorf("apply status update: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

type TransactionFilter struct {
	Status      string
	CustomerNo  string
	ProductCode string
	Page        int
	Limit       int
}

func (r *TransactionRepo) List(f TransactionFilter) ([]domain.Transaction, int, error) {
	where, args := buildTransactionWhere(f)

	var total int
	countSQL := "SELECT COUNT(*) FROM transactions" + where
	if err := r.db.QueryRow(countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	querySQL := `SELECT ref_id, customer_no, product_code, status, message, rc, sn,
	                    price, buyer_last_saldo, created_at, updated_at
	             FROM transactions` + where + " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, offset)

	rows, err := r.db.Query(querySQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	txns, err := collectTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// DashboardStats holds aggregate transaction statistics.
type DashboardStats struct {
	Total       int
	Pending     int
	Sukses      int
	Gagal       int
	SpentTotal  decimal.Decimal
	SpentSukses decimal.Decimal
}

func (r *TransactionRepo) GetDashboardStats() (*DashboardStats, error) {
	s := &DashboardStats{}
	var spentTotal, spentSukses float64
	err := r.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status='Pending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status='Sukses' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status='Gagal' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CAST(price AS REAL)), 0),
			COALESCE(SUM(CASE WHEN status='Sukses' THEN CAST(price AS REAL) ELSE 0 END), 0)
		FROM transactions
	`).Scan(&s.Total, &s.Pending, &s.Sukses, &s.Gagal, &spentTotal, &spentSukses)
	if err != nil {
		return nil, err
	}
	s.SpentTotal = decimal.NewFromFloat(spentTotal)
	s.SpentSukses = decimal.NewFromFloat(spentSukses)
	return s, nil
}

// --- helpers ---

func buildTransactionWhere(f TransactionFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	if f.CustomerNo != "" {
		clauses = append(clauses, "customer_no = ?")
		args = append(args, f.CustomerNo)
	}
	if f.ProductCode != "" {
		clauses = append(clauses, "product_code = ?")
		args = append(args, f.ProductCode)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var tx domain.Transaction
	var status, price, saldo, createdAt, updatedAt string

	err := row.Scan(
		&tx.RefID, &tx.CustomerNo, &tx.ProductCode, &status, &tx.Message,
		&tx.RC, &tx.SN, &price, &saldo, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	tx.Status = domain.TransactionStatus(status)
	tx.Price, _ = decimal.NewFromString(price)
	tx.BuyerLastSaldo, _ = decimal.NewFromString(saldo)
	tx.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	tx.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)

	return &tx, nil
}

func collectTransactions(rows *sql.Rows) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		txns = append(txns, *tx)
	}
	return txns, rows.Err()
}

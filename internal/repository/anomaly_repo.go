package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/arangbara/ppob/internal/domain"
)

type AnomalyRepo struct {
	db *sql.DB
}

func NewAnomalyRepo(db *sql.DB) *AnomalyRepo {
	return &AnomalyRepo{db: db}
}

func (r *AnomalyRepo) Insert(a *domain.Anomaly) error {
	_, err := r.db.Exec(
		`INSERT INTO anomalies (id, type, ref_id, stored_status, reported_status, detail, detected_at)
		 VALUES (?,?,?,?,?,?,?)`,
		a.ID, string(a.Type), a.RefID, a.StoredStatus, a.ReportedStatus,
		a.Detail, a.DetectedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert anomaly: %w", err)
	}
	return nil
}

type AnomalyFilter struct {
	Type  string
	RefID string
	Page  int
	Limit int
}

func (r *AnomalyRepo) List(f AnomalyFilter) ([]domain.Anomaly, int, error) {
	var clauses []string
	var args []any
	if f.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, f.Type)
	}
	if f.RefID != "" {
		clauses = append(clauses, "ref_id = ?")
		args = append(args, f.RefID)
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM anomalies"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	query := `SELECT id, type, ref_id, stored_status, reported_status, detail, detected_at
	          FROM anomalies` + where + " ORDER BY detected_at DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var anomalies []domain.Anomaly
	for rows.Next() {
		a, err := scanAnomaly(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		anomalies = append(anomalies, *a)
	}
	return anomalies, total, rows.Err()
}

// AnomalySummary aggregates anomaly counts by type.
type AnomalySummary struct {
	TotalCount int            `json:"total_count"`
	ByType     map[string]int `json:"by_type"`
}

func (r *AnomalyRepo) GetSummary() (*AnomalySummary, error) {
	rows, err := r.db.Query("SELECT type, COUNT(*) FROM anomalies GROUP BY type")
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	summary := &AnomalySummary{ByType: make(map[string]int)}
	for rows.Next() {
		var typ string
		var count int
		if err := rows.Scan(&typ, &count); err != nil {
			return nil, err
		}
		summary.ByType[typ] = count
		summary.TotalCount += count
	}
	return summary, rows.Err()
}

func scanAnomaly(rows *sql.Rows) (*domain.Anomaly, error) {
	var a domain.Anomaly
	var typ, detectedAt string

	err := rows.Scan(&a.ID, &typ, &a.RefID, &a.StoredStatus, &a.ReportedStatus, &a.Detail, &detectedAt)
	if err != nil {
		return nil, err
	}

	a.Type = domain.AnomalyType(typ)
	a.DetectedAt, _ = time.Parse(timeLayout, detectedAt)

	return &a, nil
}

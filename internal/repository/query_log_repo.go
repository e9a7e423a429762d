package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/costchecker/internal/models"
)

// QueryLogRepository persists query outcomes for analytics.
type QueryLogRepository struct {
	db *sqlx.DB
}

// NewQueryLogRepository creates a new QueryLogRepository.
func NewQueryLogRepository(db *sqlx.DB) *QueryLogRepository {
	return &QueryLogRepository{db: db}
}

// Create inserts a query log and sets its ID and Timestamp.
func (r *QueryLogRepository) Create(ctx context.Context, l *models.QueryLog) error {
	const q = `INSERT INTO query_logs (
            query_text, normalized_query, query_classification, selected_product,
            confirmation_required, user_confirmed, confidence_score, execution_time_ms,
            success, error_message, user_session, ip_address
          ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
          RETURNING query_id, timestamp`

	return r.db.QueryRowxContext(ctx, q,
		l.QueryText, l.NormalizedQuery, l.Classification, l.SelectedProduct,
		l.ConfirmationRequired, l.UserConfirmed, l.ConfidenceScore, l.ExecutionTimeMS,
		l.Success, l.ErrorMessage, l.UserSession, l.IPAddress,
	).Scan(&l.ID, &l.Timestamp)
}

func queryLogWhere(filter *models.QueryLogFilter) (string, []interface{}) {
	where := " WHERE 1=1"
	args := []interface{}{}
	argIdx := 1

	if filter.Start != nil {
		where += fmt.Sprintf(" AND timestamp >= $%d", argIdx)
		args = append(args, *filter.Start)
		argIdx++
	}
	if filter.End != nil {
		where += fmt.Sprintf(" AND timestamp < $%d", argIdx)
		args = append(args, *filter.End)
		argIdx++
	}
	switch filter.Status {
	case "success":
		where += " AND success = TRUE"
	case "error":
		where += " AND success = FALSE"
	}
	return where, args
}

// List returns a page of logs, newest first, and the total matching count.
func (r *QueryLogRepository) List(ctx context.Context, filter *models.QueryLogFilter) ([]models.QueryLog, int, error) {
	where, args := queryLogWhere(filter)

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM query_logs"+where, args...); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit < 1 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	q := fmt.Sprintf(`SELECT query_id, query_text, normalized_query, query_classification,
            selected_product, confirmation_required, user_confirmed, confidence_score,
            execution_time_ms, success, error_message, user_session, ip_address, timestamp
          FROM query_logs%s
          ORDER BY timestamp DESC LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var logs []models.QueryLog
	if err := r.db.SelectContext(ctx, &logs, q, args...); err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

type queryLogTotals struct {
	Total       int     `db:"total"`
	Successful  int     `db:"successful"`
	Confirmed   int     `db:"confirmation_required"`
	AvgMS       float64 `db:"avg_ms"`
	UniqueUsers int     `db:"unique_users"`
}

// Summary aggregates logs in the filter window. Status is ignored.
func (r *QueryLogRepository) Summary(ctx context.Context, filter *models.QueryLogFilter, topN int) (*models.QuerySummary, error) {
	window := *filter
	window.Status = ""
	where, args := queryLogWhere(&window)

	q := `SELECT
            COUNT(*) AS total,
            COUNT(*) FILTER (WHERE success) AS successful,
            COUNT(*) FILTER (WHERE confirmation_required) AS confirmation_required,
            COALESCE(AVG(execution_time_ms), 0) AS avg_ms,
            COUNT(DISTINCT user_session) AS unique_users
          FROM query_logs` + where

	var totals queryLogTotals
	if err := r.db.GetContext(ctx, &totals, q, args...); err != nil {
		return nil, err
	}

	if topN < 1 {
		topN = 10
	}
	topQ := fmt.Sprintf(`SELECT selected_product, COUNT(*) AS count
          FROM query_logs%s AND selected_product IS NOT NULL
          GROUP BY selected_product
          ORDER BY count DESC, selected_product
          LIMIT $%d`, where, len(args)+1)

	var top []models.ProductCount
	if err := r.db.SelectContext(ctx, &top, topQ, append(args, topN)...); err != nil {
		return nil, err
	}
	return models.NewQuerySummary(totals.Total, totals.Successful, totals.Confirmed, totals.AvgMS, totals.UniqueUsers, top), nil
}

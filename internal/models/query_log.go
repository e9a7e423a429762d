package models

import "time"

// QueryLog records one resolved query for analytics.
type QueryLog struct {
	ID                   int       `db:"query_id" json:"query_id"`
	QueryText            string    `db:"query_text" json:"query_text"`
	NormalizedQuery      *string   `db:"normalized_query" json:"normalized_query,omitempty"`
	Classification       *string   `db:"query_classification" json:"query_classification,omitempty"`
	SelectedProduct      *string   `db:"selected_product" json:"selected_product,omitempty"`
	ConfirmationRequired bool      `db:"confirmation_required" json:"confirmation_required"`
	UserConfirmed        bool      `db:"user_confirmed" json:"user_confirmed"`
	ConfidenceScore      *float64  `db:"confidence_score" json:"confidence_score,omitempty"`
	ExecutionTimeMS      int64     `db:"execution_time_ms" json:"execution_time_ms"`
	Success              bool      `db:"success" json:"success"`
	ErrorMessage         *string   `db:"error_message" json:"error_message,omitempty"`
	UserSession          *string   `db:"user_session" json:"user_session,omitempty"`
	IPAddress            *string   `db:"ip_address" json:"ip_address,omitempty"`
	Timestamp            time.Time `db:"timestamp" json:"timestamp"`
}

// QueryLogFilter narrows analytics listings.
type QueryLogFilter struct {
	Start  *time.Time
	End    *time.Time
	Status string // "success", "error" or empty
	Limit  int
	Offset int
}

// ProductCount is a selected product and how often it was resolved.
type ProductCount struct {
	ProductCode string `db:"selected_product" json:"product_code"`
	Count       int    `db:"count" json:"count"`
}

// QuerySummary aggregates query logs over a window.
type QuerySummary struct {
	TotalQueries      int            `json:"total_queries"`
	SuccessfulQueries int            `json:"successful_queries"`
	FailedQueries     int            `json:"failed_queries"`
	SuccessRate       float64        `json:"success_rate"`
	ConfirmationRate  float64        `json:"confirmation_rate"`
	AvgResponseTimeMS float64        `json:"avg_response_time_ms"`
	UniqueUsers       int            `json:"unique_users"`
	TopProducts       []ProductCount `json:"top_products"`
}

// NewQuerySummary derives the rates from raw counts.
func NewQuerySummary(total, successful, confirmations int, avgMS float64, uniqueUsers int, top []ProductCount) *QuerySummary {
	s := &QuerySummary{
		TotalQueries:      total,
		SuccessfulQueries: successful,
		FailedQueries:     total - successful,
		AvgResponseTimeMS: avgMS,
		UniqueUsers:       uniqueUsers,
		TopProducts:       top,
	}
	if s.TopProducts == nil {
		s.TopProducts = []ProductCount{}
	}
	if total > 0 {
		s.SuccessRate = float64(successful) / float64(total)
		s.ConfirmationRate = float64(confirmations) / float64(total)
	}
	return s
}

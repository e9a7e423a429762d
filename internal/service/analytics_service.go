package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/costchecker/internal/models"
	"github.com/GTDGit/costchecker/internal/sse"
)

// QueryLogStore is the persistence contract for query analytics.
type QueryLogStore interface {
	Create(ctx context.Context, l *models.QueryLog) error
	List(ctx context.Context, filter *models.QueryLogFilter) ([]models.QueryLog, int, error)
	Summary(ctx context.Context, filter *models.QueryLogFilter, topN int) (*models.QuerySummary, error)
}

// AnalyticsService records query outcomes and serves the admin views.
type AnalyticsService struct {
	store    QueryLogStore
	notifier sse.QueryNotifier
}

// NewAnalyticsService creates a new AnalyticsService. A nil store disables
// recording and makes the read methods return empty data.
func NewAnalyticsService(store QueryLogStore) *AnalyticsService {
	return &AnalyticsService{store: store}
}

// SetNotifier streams every recorded query to live admin listeners.
func (s *AnalyticsService) SetNotifier(n sse.QueryNotifier) {
	s.notifier = n
}

// QueryLogEntry is the request context recorded next to a resolution.
type QueryLogEntry struct {
	Text       string
	Session    string
	IP         string
	Confirmed  bool
	Resolution models.Resolution
}

// BuildQueryLog maps a resolution to its log row.
func BuildQueryLog(e QueryLogEntry) *models.QueryLog {
	l := &models.QueryLog{
		QueryText:       e.Text,
		UserConfirmed:   e.Confirmed,
		ExecutionTimeMS: e.Resolution.ExecutionTimeMS,
		UserSession:     optional(e.Session),
		IPAddress:       optional(e.IP),
	}
	if normalized := DetectProductCode(e.Text); normalized != "" {
		l.NormalizedQuery = &normalized
	}

	res := e.Resolution
	switch res.Status {
	case models.StatusSuccess:
		l.Success = true
		class := "product_lookup"
		if res.Success.Wide != nil {
			class = "wide_" + string(res.Success.Wide.Mode)
		}
		l.Classification = &class
		l.SelectedProduct = optional(res.Success.ProductCode)
		conf := res.Success.Confidence
		l.ConfidenceScore = &conf
	case models.StatusNeedsConfirmation:
		l.Success = true
		l.ConfirmationRequired = true
		class := "needs_confirmation"
		l.Classification = &class
	case models.StatusError:
		class := string(res.Error.Kind)
		l.Classification = &class
		l.ErrorMessage = optional(res.Error.Message)
	}
	return l
}

// Record writes the log row and notifies live listeners. Failures are
// logged and swallowed.
func (s *AnalyticsService) Record(ctx context.Context, e QueryLogEntry) {
	l := BuildQueryLog(e)
	if s.store != nil {
		if err := s.store.Create(ctx, l); err != nil {
			log.Warn().Err(err).Msg("Failed to write query log")
		}
	}
	if s.notifier != nil {
		s.notifier.NotifyQuery(l)
	}
}

// ListQueries returns a page of query logs and the total count.
func (s *AnalyticsService) ListQueries(ctx context.Context, filter *models.QueryLogFilter) ([]models.QueryLog, int, error) {
	if s.store == nil {
		return []models.QueryLog{}, 0, nil
	}
	logs, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if logs == nil {
		logs = []models.QueryLog{}
	}
	return logs, total, nil
}

// Summary aggregates the last days of query logs.
func (s *AnalyticsService) Summary(ctx context.Context, days int) (*models.QuerySummary, error) {
	if s.store == nil {
		return models.NewQuerySummary(0, 0, 0, 0, 0, nil), nil
	}
	if days < 1 {
		days = 7
	}
	start := time.Now().AddDate(0, 0, -days)
	return s.store.Summary(ctx, &models.QueryLogFilter{Start: &start}, 10)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

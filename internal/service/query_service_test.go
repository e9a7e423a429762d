package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/costchecker/internal/cache"
	"github.com/GTDGit/costchecker/internal/models"
)

type brokenStore struct{ cache.Store }

func (brokenStore) Put(context.Context, string, []models.ConfirmationOption, models.ExtractedParams, time.Duration) error {
	return errors.New("store down")
}

type failingExtractor struct{}

func (failingExtractor) Extract(context.Context, string) (models.ExtractedParams, error) {
	return models.ExtractedParams{}, errors.New("boom")
}

func newQueryService(t *testing.T, store cache.Store) *QueryService {
	t.Helper()
	if store == nil {
		store = cache.NewMemoryStore()
	}
	return NewQueryService(newTestCatalog(t), HeuristicExtractor{}, store, QueryOptions{})
}

func TestResolveExactTierAndColor(t *testing.T) {
	svc := newQueryService(t, nil)
	res := svc.Resolve(context.Background(), "GT10S A级 标准色")

	require.Equal(t, models.StatusSuccess, res.Status)
	s := res.Success
	assert.Equal(t, "GT10S", s.ProductCode)
	assert.Equal(t, 1.0, s.Confidence)
	require.NotNil(t, s.Price)
	assert.True(t, s.Price.Price.Equal(dec("0.70")))
	assert.Equal(t, models.TierA, s.Tier)
	assert.Equal(t, models.ColorStandard, s.ColorType)
	assert.Contains(t, s.Text, "$0.70 USD")
	assert.GreaterOrEqual(t, res.ExecutionTimeMS, int64(0))
}

func TestResolveWithoutTierListsPrices(t *testing.T) {
	res := newQueryService(t, nil).Resolve(context.Background(), "GT-10s 多少钱")

	require.Equal(t, models.StatusSuccess, res.Status)
	assert.Nil(t, res.Success.Price)
	assert.Len(t, res.Success.Prices, 5)
	assert.Contains(t, res.Success.Text, "价格一览")
}

func TestResolveConfirmFlow(t *testing.T) {
	svc := newQueryService(t, nil)
	ctx := context.Background()

	res := svc.Resolve(ctx, "GT10 C级")
	require.Equal(t, models.StatusNeedsConfirmation, res.Status)
	conf := res.NeedsConfirmation
	assert.Contains(t, conf.ConfirmationID, "conf_")
	require.Len(t, conf.Options, 2)
	assert.Equal(t, "1", conf.Options[0].ID)
	assert.Equal(t, "GT10P", conf.Options[0].ProductCode)
	assert.Equal(t, "GT10S", conf.Options[1].ProductCode)
	assert.Equal(t, models.ReasonBaseCodeVariant, conf.Options[1].Reason)

	res = svc.Confirm(ctx, conf.ConfirmationID, "2")
	require.Equal(t, models.StatusSuccess, res.Status)
	assert.Equal(t, "GT10S", res.Success.ProductCode)
	assert.Equal(t, BaseCodeConfidence, res.Success.Confidence)
	require.NotNil(t, res.Success.Price)
	assert.True(t, res.Success.Price.Price.Equal(dec("0.80")), "session tier C is reused")

	// Sessions are single use.
	res = svc.Confirm(ctx, conf.ConfirmationID, "2")
	require.Equal(t, models.StatusError, res.Status)
	assert.Equal(t, models.ErrConfirmationNotFound, res.Error.Kind)
}

func TestResolveBareCodeWithVariantsAsksForConfirmation(t *testing.T) {
	res := newQueryService(t, nil).Resolve(context.Background(), "GT20")
	require.Equal(t, models.StatusNeedsConfirmation, res.Status)

	codes := []string{}
	for _, o := range res.NeedsConfirmation.Options {
		codes = append(codes, o.ProductCode)
	}
	assert.Equal(t, []string{"GT20", "GT20S"}, codes)
}

func TestResolveConfirmationPrefersStatedMaterial(t *testing.T) {
	res := newQueryService(t, nil).Resolve(context.Background(), "GT10 硅胶")
	require.Equal(t, models.StatusNeedsConfirmation, res.Status)
	require.Len(t, res.NeedsConfirmation.Options, 1)
	assert.Equal(t, "GT10S", res.NeedsConfirmation.Options[0].ProductCode)
}

func TestConfirmInvalidOption(t *testing.T) {
	svc := newQueryService(t, nil)
	ctx := context.Background()

	res := svc.Resolve(ctx, "GT10")
	require.Equal(t, models.StatusNeedsConfirmation, res.Status)

	res = svc.Confirm(ctx, res.NeedsConfirmation.ConfirmationID, "9")
	require.Equal(t, models.StatusError, res.Status)
	assert.Equal(t, models.ErrInvalidSelectedOption, res.Error.Kind)
}

func TestConfirmExpiredSession(t *testing.T) {
	now := time.Date(2025, 10, 28, 12, 0, 0, 0, time.UTC)
	store := cache.NewMemoryStore().WithClock(func() time.Time { return now })
	svc := newQueryService(t, store)
	ctx := context.Background()

	res := svc.Resolve(ctx, "GT10")
	require.Equal(t, models.StatusNeedsConfirmation, res.Status)

	now = now.Add(cache.DefaultSessionTTL + time.Second)
	res = svc.Confirm(ctx, res.NeedsConfirmation.ConfirmationID, "1")
	require.Equal(t, models.StatusError, res.Status)
	assert.Equal(t, models.ErrConfirmationNotFound, res.Error.Kind)
}

func TestResolveErrors(t *testing.T) {
	svc := newQueryService(t, nil)
	ctx := context.Background()

	res := svc.Resolve(ctx, "你好，请问价格")
	require.Equal(t, models.StatusError, res.Status)
	assert.Equal(t, models.ErrMissingProductCode, res.Error.Kind)
	assert.Equal(t, msgMissingProductCode, res.Error.Message)

	res = svc.Resolve(ctx, "XYZ999")
	require.Equal(t, models.StatusError, res.Status)
	assert.Equal(t, models.ErrProductNotFound, res.Error.Kind)

	res = svc.Confirm(ctx, "conf_missing", "1")
	assert.Equal(t, models.ErrConfirmationNotFound, res.Error.Kind)
}

func TestResolveFuzzyAlwaysConfirms(t *testing.T) {
	res := newQueryService(t, nil).Resolve(context.Background(), "GT300S")
	require.Equal(t, models.StatusNeedsConfirmation, res.Status)
	opt := res.NeedsConfirmation.Options[0]
	assert.Equal(t, "GT30S", opt.ProductCode)
	assert.Equal(t, models.ReasonFuzzy, opt.Reason)
	assert.Less(t, opt.Confidence, 1.0)
}

func TestResolveWideQuery(t *testing.T) {
	res := newQueryService(t, nil).Resolve(context.Background(), "最便宜的 泳镜 前3")
	require.Equal(t, models.StatusSuccess, res.Status)
	require.NotNil(t, res.Success.Wide)
	assert.Equal(t, WideConfidence, res.Success.Confidence)
	assert.Len(t, res.Success.Wide.Results, 3)
}

func TestResolveStoreFailureIsInternal(t *testing.T) {
	res := newQueryService(t, brokenStore{}).Resolve(context.Background(), "GT10")
	require.Equal(t, models.StatusError, res.Status)
	assert.Equal(t, models.ErrInternal, res.Error.Kind)
}

func TestResolveExtractorFailureFallsBackToHeuristics(t *testing.T) {
	svc := NewQueryService(newTestCatalog(t), failingExtractor{}, cache.NewMemoryStore(), QueryOptions{})
	res := svc.Resolve(context.Background(), "GT30S C级")
	require.Equal(t, models.StatusSuccess, res.Status)
	assert.True(t, res.Success.Price.Price.Equal(dec("1.50")))
}

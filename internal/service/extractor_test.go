package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/costchecker/internal/models"
	"github.com/GTDGit/costchecker/pkg/deepseek"
)

func TestHeuristicExtractor(t *testing.T) {
	tests := []struct {
		query string
		want  models.ExtractedParams
	}{
		{
			query: "GT10S A级 标准色 多少钱",
			want:  models.ExtractedParams{ProductCode: "GT10S", Tier: models.TierA, ColorType: models.ColorStandard, Material: models.MaterialSilicone},
		},
		{
			query: "gt-10p B类 定制",
			want:  models.ExtractedParams{ProductCode: "GT10P", Tier: models.TierB, ColorType: models.ColorCustom, Material: models.MaterialPVC},
		},
		{
			query: "F9970 tier d custom",
			want:  models.ExtractedParams{ProductCode: "F9970", Tier: models.TierD, ColorType: models.ColorCustom},
		},
		{
			query: "2323S 价格",
			want:  models.ExtractedParams{ProductCode: "2323S"},
		},
		{
			query: "GT10 硅胶 C级",
			want:  models.ExtractedParams{ProductCode: "GT10", Tier: models.TierC, Material: models.MaterialSilicone},
		},
		{
			query: "price of 2323S",
			want:  models.ExtractedParams{ProductCode: "2323S"},
		},
		{
			query: "tier B 2323S",
			want:  models.ExtractedParams{ProductCode: "2323S", Tier: models.TierB},
		},
		{
			query: "top 3 GT20S",
			want:  models.ExtractedParams{ProductCode: "GT20S", Material: models.MaterialSilicone},
		},
		{
			query: "GT 20S 包膠",
			want:  models.ExtractedParams{ProductCode: "GT20S", Material: models.MaterialTPE},
		},
		{
			query: "帮我查一下价格",
			want:  models.ExtractedParams{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := HeuristicExtractor{}.Extract(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectTierIgnoresLettersInsideWords(t *testing.T) {
	assert.Equal(t, models.TierUnset, DetectTier("PVC GT10P"))
	assert.Equal(t, models.TierUnset, DetectTier("standard"))
	assert.Equal(t, models.TierB, DetectTier("PVC B"))
}

func TestNormalizers(t *testing.T) {
	assert.Equal(t, models.TierA, NormalizeTier("a"))
	assert.Equal(t, models.TierC, NormalizeTier("C级"))
	assert.Equal(t, models.TierUnset, NormalizeTier("null"))
	assert.Equal(t, models.ColorCustom, NormalizeColor("定制色"))
	assert.Equal(t, models.ColorStandard, NormalizeColor("Standard"))
	assert.Equal(t, models.MaterialSilicone, NormalizeMaterial("硅胶"))
	assert.Equal(t, models.MaterialPVC, NormalizeMaterial("pvc"))
	assert.Equal(t, models.MaterialTPE, NormalizeMaterial("包胶"))
	assert.Equal(t, models.MaterialUnset, NormalizeMaterial(""))
}

type stubExtractor struct {
	params models.ExtractedParams
	err    error
	delay  time.Duration
}

func (s stubExtractor) Extract(ctx context.Context, _ string) (models.ExtractedParams, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.params, s.err
}

func TestFallbackExtractorUsesHeuristicsOnError(t *testing.T) {
	e := NewFallbackExtractor(stubExtractor{err: errors.New("boom")}, time.Second)

	got, err := e.Extract(context.Background(), "GT10S B级")
	require.NoError(t, err)
	assert.Equal(t, "GT10S", got.ProductCode)
	assert.Equal(t, models.TierB, got.Tier)
}

func TestFallbackExtractorTimeout(t *testing.T) {
	slow := stubExtractor{params: models.ExtractedParams{ProductCode: "WRONG"}, delay: 500 * time.Millisecond}
	e := NewFallbackExtractor(slow, 20*time.Millisecond)

	start := time.Now()
	got, err := e.Extract(context.Background(), "GT20S")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
	assert.Equal(t, "GT20S", got.ProductCode)
}

func TestFallbackExtractorMergesCodeAndMaterial(t *testing.T) {
	remote := stubExtractor{params: models.ExtractedParams{Tier: models.TierA, ColorType: models.ColorCustom}}
	e := NewFallbackExtractor(remote, time.Second)

	got, err := e.Extract(context.Background(), "GT10P 定制 a级")
	require.NoError(t, err)
	assert.Equal(t, "GT10P", got.ProductCode)
	assert.Equal(t, models.MaterialPVC, got.Material)
	assert.Equal(t, models.TierA, got.Tier)
}

func TestFallbackExtractorKeepsRemoteCode(t *testing.T) {
	remote := stubExtractor{params: models.ExtractedParams{ProductCode: "GT10S"}}
	e := NewFallbackExtractor(remote, time.Second)

	got, err := e.Extract(context.Background(), "GT1OS 那个硅胶的")
	require.NoError(t, err)
	assert.Equal(t, "GT10S", got.ProductCode)
	assert.Equal(t, models.MaterialSilicone, got.Material)
}

type stubParamsClient struct {
	params *deepseek.Params
	err    error
}

func (s stubParamsClient) ExtractParams(context.Context, string) (*deepseek.Params, error) {
	return s.params, s.err
}

func TestRemoteExtractorCanonicalizes(t *testing.T) {
	e := NewRemoteExtractor(stubParamsClient{params: &deepseek.Params{
		ProductCode: "gt-10s",
		Tier:        "B",
		ColorType:   "标准色",
		Material:    "矽膠",
	}})

	got, err := e.Extract(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, models.ExtractedParams{
		ProductCode: "GT10S",
		Tier:        models.TierB,
		ColorType:   models.ColorStandard,
		Material:    models.MaterialSilicone,
	}, got)

	_, err = NewRemoteExtractor(stubParamsClient{err: deepseek.ErrNoAPIKey}).Extract(context.Background(), "x")
	assert.ErrorIs(t, err, deepseek.ErrNoAPIKey)
}

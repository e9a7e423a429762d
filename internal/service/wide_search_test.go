package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/costchecker/internal/models"
)

func runWide(t *testing.T, q string) models.Resolution {
	t.Helper()
	catalog := newTestCatalog(t)
	svc := NewWideSearchService(catalog, NewDescriptionMatcher(catalog, 0))
	params := detect(t, q)
	res, err := svc.Run(context.Background(), params)
	require.NoError(t, err)
	return res
}

func rowCodes(rows []models.WideRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ProductCode)
	}
	return out
}

func TestWideCheaperThanCode(t *testing.T) {
	res := runWide(t, "cheaper than GT20S")
	require.Equal(t, models.StatusSuccess, res.Status)
	w := res.Success.Wide
	require.NotNil(t, w.Bound)
	assert.True(t, w.Bound.Equal(dec("1.20")))
	require.Len(t, w.References, 1)
	assert.Equal(t, "GT20S", w.References[0].ProductCode)

	// Biggest saving first.
	assert.Equal(t, []string{"GT40S", "GT10P", "GT10S", "GT20"}, rowCodes(w.Results))
	for _, r := range w.Results {
		assert.True(t, r.Price.LessThan(*w.Bound))
		require.NotNil(t, r.Delta)
		assert.True(t, r.Delta.IsNegative())
	}
}

func TestWideCheaperThanNumericCode(t *testing.T) {
	catalog := newTestCatalog(t)
	_, err := catalog.AddProduct(models.Product{ProductCode: "2323S", BaseCode: "2323", NameCN: strPtr("成人硅胶泳镜"), Category: "泳镜", MaterialType: models.MaterialSilicone})
	require.NoError(t, err)
	require.NoError(t, catalog.AddPrice("2323S", models.TierC, models.ColorStandard, dec("1.00"), time.Date(2025, 10, 28, 0, 0, 0, 0, time.UTC)))

	svc := NewWideSearchService(catalog, NewDescriptionMatcher(catalog, 0))
	res, err := svc.Run(context.Background(), detect(t, "cheaper than 2323S"))
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, res.Status)
	w := res.Success.Wide
	require.Len(t, w.References, 1)
	assert.Equal(t, "2323S", w.References[0].ProductCode)
	assert.True(t, w.Bound.Equal(dec("1.00")))
	assert.Equal(t, []string{"GT40S", "GT10P", "GT10S"}, rowCodes(w.Results))
}

func TestWidePricierThanCodeInCategory(t *testing.T) {
	res := runWide(t, "比 GT20S 贵 的 泳镜")
	require.Equal(t, models.StatusSuccess, res.Status)
	assert.Equal(t, []string{"GT30S"}, rowCodes(res.Success.Wide.Results))

	res = runWide(t, "比 GT20S 贵")
	require.Equal(t, models.StatusSuccess, res.Status)
	assert.Equal(t, []string{"GT30S", "F9970", "M100"}, rowCodes(res.Success.Wide.Results))
}

func TestWideReferenceVariantFallback(t *testing.T) {
	// GT30 does not exist; its S variant does.
	res := runWide(t, "比 GT30 便宜 的 蛙鞋")
	require.Equal(t, models.StatusError, res.Status)
	assert.Equal(t, models.ErrNoResults, res.Error.Kind)

	res = runWide(t, "比 GT30 便宜")
	require.Equal(t, models.StatusSuccess, res.Status)
	assert.Equal(t, "GT30S", res.Success.Wide.References[0].ProductCode)
}

func TestWideDescriptionReferencesUseMaxBoundForCheaper(t *testing.T) {
	res := runWide(t, "比 儿童分体简易 便宜的")
	require.Equal(t, models.StatusSuccess, res.Status)
	w := res.Success.Wide

	require.Len(t, w.References, 2)
	assert.True(t, w.Bound.Equal(dec("0.80")), "bound is the higher of 0.60 and 0.80")
	for _, r := range w.Results {
		assert.True(t, r.Price.LessThan(dec("0.80")), r.ProductCode)
	}
	assert.Equal(t, []string{"GT40S", "GT10P"}, rowCodes(w.Results))
}

func TestWideDescriptionReferencesUseMinBoundForPricier(t *testing.T) {
	res := runWide(t, "比 儿童分体简易 贵 的 泳镜")
	require.Equal(t, models.StatusSuccess, res.Status)
	w := res.Success.Wide
	assert.True(t, w.Bound.Equal(dec("0.60")))
	assert.Equal(t, []string{"GT10S", "GT20", "GT20S", "GT30S"}, rowCodes(w.Results))
}

func TestWideDescriptionMaterialFilter(t *testing.T) {
	res := runWide(t, "比 儿童分体简易 硅胶 便宜的")
	require.Equal(t, models.StatusSuccess, res.Status)
	w := res.Success.Wide
	require.Len(t, w.References, 1)
	assert.Equal(t, "GT10S", w.References[0].ProductCode)
}

func TestWideReferenceErrors(t *testing.T) {
	res := runWide(t, "比 ZZ999 便宜")
	require.Equal(t, models.StatusError, res.Status)
	assert.Equal(t, models.ErrReferenceNotFound, res.Error.Kind)

	res = runWide(t, "比 GT50S 便宜")
	require.Equal(t, models.StatusError, res.Status)
	assert.Equal(t, models.ErrReferenceNotFound, res.Error.Kind, "reference without a price")

	res = runWide(t, "比 不存在的东西 便宜")
	require.Equal(t, models.StatusError, res.Status)
	assert.Equal(t, models.ErrReferenceNotFound, res.Error.Kind)
}

func TestWideComparativeNoResults(t *testing.T) {
	res := runWide(t, "比 GT10P 便宜 的 潜水镜")
	require.Equal(t, models.StatusError, res.Status)
	assert.Equal(t, models.ErrNoResults, res.Error.Kind)
}

func TestWideTopExcludesZeroPrices(t *testing.T) {
	res := runWide(t, "最便宜的 泳镜 前3")
	require.Equal(t, models.StatusSuccess, res.Status)
	assert.Equal(t, []string{"GT10P", "GT10S", "GT20"}, rowCodes(res.Success.Wide.Results))

	res = runWide(t, "最贵的 泳镜 前3")
	require.Equal(t, models.StatusSuccess, res.Status)
	assert.Equal(t, []string{"GT30S", "GT20S", "GT20"}, rowCodes(res.Success.Wide.Results))
}

func TestWideRange(t *testing.T) {
	res := runWide(t, "泳镜 0.8~1.2")
	require.Equal(t, models.StatusSuccess, res.Status)
	assert.Equal(t, []string{"GT10S", "GT20", "GT20S"}, rowCodes(res.Success.Wide.Results))

	res = runWide(t, "泳镜 0-0.5")
	require.Equal(t, models.StatusSuccess, res.Status, "empty range is not an error")
	assert.Empty(t, res.Success.Wide.Results)
	assert.NotNil(t, res.Success.Wide.Results)
}

func TestWideUnsupportedMode(t *testing.T) {
	catalog := newTestCatalog(t)
	svc := NewWideSearchService(catalog, nil)
	res, err := svc.Run(context.Background(), &models.WideQueryParams{Mode: models.ModeRange})
	require.NoError(t, err)
	assert.Equal(t, models.ErrUnsupportedWideQuery, res.Error.Kind)
}

func TestExtractDescription(t *testing.T) {
	assert.Equal(t, "儿童分体简易", ExtractDescription("比 儿童分体简易 Silicone 便宜的"))
	assert.Equal(t, "儿童分体简易", ExtractDescription("比儿童分体简易 PVC贵"))
	assert.Equal(t, "儿童分体简易", ExtractDescription("cheaper than 儿童分体简易 silicone"))
	assert.Equal(t, "儿童分体简易", ExtractDescription("比儿童分体简易矽胶便宜"))
	assert.Equal(t, "儿童分体简易", ExtractDescription("比儿童分体简易包胶贵"))
	assert.Equal(t, "儿童分体简易", ExtractDescription("比 儿童分体简易 包膠 便宜的"))
	assert.Equal(t, "", ExtractDescription("GT10S 价格"))
}

func TestDescriptionMatcherSearch(t *testing.T) {
	m := NewDescriptionMatcher(newTestCatalog(t), 0)

	got, err := m.Search(context.Background(), "儿童分体简易", models.MaterialUnset)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "GT10P", got[0].Product.ProductCode)
	assert.Equal(t, 1.0, got[0].Score)

	got, err = m.Search(context.Background(), "儿童分体简易", models.MaterialPVC)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "GT10P", got[0].Product.ProductCode)
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/costchecker/internal/models"
)

func TestPriceResolver(t *testing.T) {
	ctx := context.Background()
	catalog := newTestCatalog(t)
	r := NewPriceResolver(catalog)
	gt10s, err := catalog.GetProductByCode(ctx, "GT10S")
	require.NoError(t, err)

	t.Run("exact tier and color", func(t *testing.T) {
		res, err := r.Resolve(ctx, gt10s, models.TierA, models.ColorStandard)
		require.NoError(t, err)
		require.NotNil(t, res.Price)
		assert.True(t, res.Price.Price.Equal(dec("0.70")))
		assert.Equal(t, models.ColorStandard, res.ColorType)
	})

	t.Run("falls back to opposite color", func(t *testing.T) {
		res, err := r.Resolve(ctx, gt10s, models.TierB, models.ColorCustom)
		require.NoError(t, err)
		require.NotNil(t, res.Price)
		assert.True(t, res.Price.Price.Equal(dec("0.75")))
		assert.Equal(t, models.ColorStandard, res.ColorType)
	})

	t.Run("no color tries standard first", func(t *testing.T) {
		res, err := r.Resolve(ctx, gt10s, models.TierC, models.ColorUnset)
		require.NoError(t, err)
		require.NotNil(t, res.Price)
		assert.True(t, res.Price.Price.Equal(dec("0.80")), "latest row wins")
		assert.Equal(t, models.ColorStandard, res.ColorType)
	})

	t.Run("tier without rows", func(t *testing.T) {
		res, err := r.Resolve(ctx, gt10s, models.TierD, models.ColorStandard)
		require.NoError(t, err)
		assert.Nil(t, res.Price)
		assert.Empty(t, res.Prices)
	})

	t.Run("no tier returns sorted list", func(t *testing.T) {
		res, err := r.Resolve(ctx, gt10s, models.TierUnset, models.ColorUnset)
		require.NoError(t, err)
		assert.Nil(t, res.Price)
		require.Len(t, res.Prices, 5)
		for i := 1; i < len(res.Prices); i++ {
			prev, cur := res.Prices[i-1], res.Prices[i]
			assert.True(t, prev.Tier < cur.Tier || (prev.Tier == cur.Tier && prev.ColorType < cur.ColorType))
		}
		for _, p := range res.Prices {
			if p.Tier == models.TierC && p.ColorType == models.ColorStandard {
				assert.True(t, p.Price.Equal(dec("0.80")))
			}
		}
	})
}

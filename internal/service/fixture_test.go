package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/costchecker/internal/models"
	"github.com/GTDGit/costchecker/internal/repository"
)

func strPtr(s string) *string { return &s }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type priceSeed struct {
	code  string
	tier  models.Tier
	color models.ColorType
	price string
	date  time.Time
}

// newTestCatalog seeds a small goggles/fins/masks catalog. C级 标准色 is the
// wide-search default, so every priced product has one.
func newTestCatalog(t *testing.T) *repository.MemoryCatalog {
	t.Helper()
	c := repository.NewMemoryCatalog()

	products := []models.Product{
		{ProductCode: "GT10S", BaseCode: "GT10", NameCN: strPtr("儿童分体简易带扣"), Category: "泳镜", MaterialType: models.MaterialSilicone},
		{ProductCode: "GT10P", BaseCode: "GT10", NameCN: strPtr("儿童分体简易带扣"), Category: "泳镜", MaterialType: models.MaterialPVC},
		{ProductCode: "GT20", BaseCode: "GT20", NameCN: strPtr("成人泳镜"), Category: "泳镜"},
		{ProductCode: "GT20S", BaseCode: "GT20", NameCN: strPtr("成人泳镜"), Category: "泳镜", MaterialType: models.MaterialSilicone},
		{ProductCode: "GT30S", BaseCode: "GT30", NameCN: strPtr("竞速泳镜"), Category: "泳镜", MaterialType: models.MaterialSilicone},
		{ProductCode: "GT40S", BaseCode: "GT40", NameCN: strPtr("训练泳镜"), Category: "泳镜", MaterialType: models.MaterialSilicone},
		{ProductCode: "GT50S", BaseCode: "GT50", NameCN: strPtr("样品"), Category: "泳镜", MaterialType: models.MaterialSilicone},
		{ProductCode: "F9970", BaseCode: "F9970", NameCN: strPtr("成人蛙鞋"), Category: "蛙鞋"},
		{ProductCode: "M100", BaseCode: "M100", NameCN: strPtr("潜水面罩"), Category: "潜水镜"},
	}
	for _, p := range products {
		_, err := c.AddProduct(p)
		require.NoError(t, err)
	}

	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cur := time.Date(2025, 10, 28, 0, 0, 0, 0, time.UTC)
	prices := []priceSeed{
		{"GT10S", models.TierA, models.ColorStandard, "0.70", cur},
		{"GT10S", models.TierA, models.ColorCustom, "0.90", cur},
		{"GT10S", models.TierB, models.ColorStandard, "0.75", cur},
		{"GT10S", models.TierC, models.ColorStandard, "0.85", old},
		{"GT10S", models.TierC, models.ColorStandard, "0.80", cur},
		{"GT10S", models.TierC, models.ColorCustom, "0.95", cur},
		{"GT10P", models.TierC, models.ColorStandard, "0.60", cur},
		{"GT20", models.TierC, models.ColorStandard, "1.10", cur},
		{"GT20S", models.TierB, models.ColorCustom, "1.30", cur},
		{"GT20S", models.TierC, models.ColorStandard, "1.20", cur},
		{"GT30S", models.TierC, models.ColorStandard, "1.50", cur},
		{"GT40S", models.TierC, models.ColorStandard, "0", cur},
		{"F9970", models.TierC, models.ColorStandard, "2.00", cur},
		{"M100", models.TierC, models.ColorStandard, "3.00", cur},
	}
	for _, p := range prices {
		require.NoError(t, c.AddPrice(p.code, p.tier, p.color, dec(p.price), p.date))
	}
	return c
}

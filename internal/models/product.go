package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tier is a customer-class price bracket. The zero value means "not stated".
type Tier string

const (
	TierUnset Tier = ""
	TierA     Tier = "A级"
	TierB     Tier = "B级"
	TierC     Tier = "C级"
	TierD     Tier = "D级"
)

// Tiers lists the canonical tiers in sort order.
var Tiers = []Tier{TierA, TierB, TierC, TierD}

// IsSet reports whether a tier was stated.
func (t Tier) IsSet() bool { return t != TierUnset }

// ColorType is the standard/custom pricing axis. The zero value means "not stated".
type ColorType string

const (
	ColorUnset    ColorType = ""
	ColorStandard ColorType = "标准色"
	ColorCustom   ColorType = "定制色"
)

// IsSet reports whether a color type was stated.
func (c ColorType) IsSet() bool { return c != ColorUnset }

// Opposite returns the other canonical color. Unset maps to standard.
func (c ColorType) Opposite() ColorType {
	if c == ColorStandard {
		return ColorCustom
	}
	return ColorStandard
}

// Material is the product material family. The zero value means "unknown".
type Material string

const (
	MaterialUnset    Material = ""
	MaterialSilicone Material = "SILICONE"
	MaterialPVC      Material = "PVC"
	MaterialTPE      Material = "TPE"
)

// IsSet reports whether a material is known.
func (m Material) IsSet() bool { return m != MaterialUnset }

// Product is a catalog row. Variants of the same item share BaseCode.
type Product struct {
	ID            int             `db:"product_id" json:"product_id"`
	ProductCode   string          `db:"product_code" json:"product_code"`
	BaseCode      string          `db:"base_code" json:"base_code"`
	NameCN        *string         `db:"product_name_cn" json:"product_name_cn,omitempty"`
	Category      string          `db:"category" json:"category"`
	Subcategory   *string         `db:"subcategory" json:"subcategory,omitempty"`
	MaterialType  Material        `db:"material_type" json:"material"`
	BaseCost      decimal.Decimal `db:"base_cost" json:"base_cost"`
	Status        string          `db:"status" json:"status"`
	ScreenshotURL *string         `db:"screenshot_url" json:"screenshot_url,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"-"`
	UpdatedAt     time.Time       `db:"updated_at" json:"-"`
}

// Name returns the Chinese product name or an empty string.
func (p *Product) Name() string {
	if p.NameCN == nil {
		return ""
	}
	return *p.NameCN
}

// PricingTier is one versioned price for (product, tier, color).
type PricingTier struct {
	ID            int             `db:"pricing_id" json:"-"`
	ProductID     int             `db:"product_id" json:"-"`
	Tier          Tier            `db:"tier" json:"tier"`
	ColorType     ColorType       `db:"color_type" json:"color_type"`
	Price         decimal.Decimal `db:"price" json:"price"`
	EffectiveDate time.Time       `db:"effective_date" json:"effective_date"`
}

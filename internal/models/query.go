package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExtractedParams holds what the extractor could read from free text.
// Every field uses its zero value as the explicit "unset" state.
type ExtractedParams struct {
	ProductCode string    `json:"product_code,omitempty"`
	Tier        Tier      `json:"tier,omitempty"`
	ColorType   ColorType `json:"color_type,omitempty"`
	Material    Material  `json:"material,omitempty"`
}

// MatchReason names the cascade stage that produced a candidate.
type MatchReason string

const (
	ReasonExact           MatchReason = "exact"
	ReasonBaseCodeVariant MatchReason = "base_code_variant"
	ReasonFuzzy           MatchReason = "fuzzy"
)

// MatchCandidate is a product proposed by the match cascade.
type MatchCandidate struct {
	Product    Product
	Confidence float64
	Reason     MatchReason
}

// ConfirmationOption is one choice offered to the user when a match is ambiguous.
type ConfirmationOption struct {
	ID          string      `json:"id"`
	ProductCode string      `json:"product_code"`
	Material    Material    `json:"material,omitempty"`
	Category    string      `json:"category,omitempty"`
	Confidence  float64     `json:"confidence"`
	Reason      MatchReason `json:"reason"`
	MatchReason string      `json:"match_reason"`
}

// ConfirmationSession is a pending ambiguous match waiting for the user's choice.
type ConfirmationSession struct {
	ID        string               `json:"id"`
	Options   []ConfirmationOption `json:"options"`
	Params    ExtractedParams      `json:"params"`
	CreatedAt time.Time            `json:"created_at"`
	ExpiresAt time.Time            `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *ConfirmationSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Option returns the option with the given id.
func (s *ConfirmationSession) Option(id string) (ConfirmationOption, bool) {
	for _, o := range s.Options {
		if o.ID == id {
			return o, true
		}
	}
	return ConfirmationOption{}, false
}

// WideMode is the shape of a catalog-wide query.
type WideMode string

const (
	ModeCompareGT WideMode = "compare_gt"
	ModeCompareLT WideMode = "compare_lt"
	ModeTopDesc   WideMode = "top_desc"
	ModeTopAsc    WideMode = "top_asc"
	ModeRange     WideMode = "range"
)

// IsComparative reports whether the mode compares against a reference product.
func (m WideMode) IsComparative() bool {
	return m == ModeCompareGT || m == ModeCompareLT
}

const (
	DefaultWideLimit = 10
	MaxWideLimit     = 50
	DefaultWideTier  = TierC
	DefaultWideColor = ColorStandard
)

// WideQueryParams is the request-scoped plan for a wide search.
type WideQueryParams struct {
	Mode             WideMode
	RefCode          string
	DescriptionQuery string
	RefProducts      []Product
	Category         string
	Limit            int
	Tier             Tier
	Color            ColorType
	MinPrice         *decimal.Decimal
	MaxPrice         *decimal.Decimal
}

// NewWideQueryParams returns params with the defaults applied.
func NewWideQueryParams() *WideQueryParams {
	return &WideQueryParams{
		Limit: DefaultWideLimit,
		Tier:  DefaultWideTier,
		Color: DefaultWideColor,
	}
}

// ScanOrder is the ordering of a catalog price scan.
type ScanOrder string

const (
	OrderPriceAsc  ScanOrder = "price_asc"
	OrderPriceDesc ScanOrder = "price_desc"
	OrderDeltaAsc  ScanOrder = "delta_asc"
)

// Comparator restricts a price scan relative to its bound(s).
type Comparator string

const (
	CompareNone    Comparator = ""
	CompareGT      Comparator = ">"
	CompareLT      Comparator = "<"
	CompareBetween Comparator = "between"
)

// WideScan describes a ranked/filtered read over representative prices.
type WideScan struct {
	Tier         Tier
	Color        ColorType
	Category     string
	Comparator   Comparator
	Bound        decimal.Decimal
	Min          decimal.Decimal
	Max          decimal.Decimal
	Order        ScanOrder
	Limit        int
	PositiveOnly bool
}

// WideRow is one product returned by a price scan.
type WideRow struct {
	ProductCode   string           `db:"product_code" json:"product_code"`
	NameCN        *string          `db:"product_name_cn" json:"product_name_cn,omitempty"`
	Category      string           `db:"category" json:"category"`
	Material      Material         `db:"material_type" json:"material"`
	ScreenshotURL *string          `db:"screenshot_url" json:"screenshot_url,omitempty"`
	Price         decimal.Decimal  `db:"price" json:"price"`
	Delta         *decimal.Decimal `db:"delta" json:"delta,omitempty"`
	Tier          Tier             `db:"-" json:"tier"`
	ColorType     ColorType        `db:"-" json:"color_type"`
}

package models

import "github.com/shopspring/decimal"

// ResolutionStatus tags which variant of a Resolution is populated.
type ResolutionStatus string

const (
	StatusSuccess           ResolutionStatus = "success"
	StatusNeedsConfirmation ResolutionStatus = "needs_confirmation"
	StatusError             ResolutionStatus = "error"
)

// ErrorKind is a terminal, user-facing failure of a resolution.
type ErrorKind string

const (
	ErrMissingProductCode    ErrorKind = "missing_product_code"
	ErrProductNotFound       ErrorKind = "product_not_found"
	ErrConfirmationNotFound  ErrorKind = "confirmation_not_found_or_expired"
	ErrInvalidSelectedOption ErrorKind = "invalid_selected_option"
	ErrReferenceNotFound     ErrorKind = "reference_not_found"
	ErrNoResults             ErrorKind = "no_results"
	ErrUnsupportedWideQuery  ErrorKind = "unsupported_wide_query"
	ErrInternal              ErrorKind = "internal_error"
)

// Resolution is the tagged result of Resolve and Confirm. Exactly one of
// Success, NeedsConfirmation or Error is set, matching Status.
type Resolution struct {
	Status            ResolutionStatus    `json:"status"`
	Success           *SuccessResult      `json:"success,omitempty"`
	NeedsConfirmation *ConfirmationResult `json:"needs_confirmation,omitempty"`
	Error             *ResolutionError    `json:"error,omitempty"`
	ExecutionTimeMS   int64               `json:"execution_time_ms"`
}

// SuccessResult is a resolved product price, price matrix or wide-search result set.
type SuccessResult struct {
	ProductCode   string        `json:"product_code,omitempty"`
	Product       *Product      `json:"product,omitempty"`
	Tier          Tier          `json:"tier,omitempty"`
	ColorType     ColorType     `json:"color_type,omitempty"`
	Price         *PricingTier  `json:"price,omitempty"`
	Prices        []PricingTier `json:"prices,omitempty"`
	Confidence    float64       `json:"confidence"`
	ScreenshotURL *string       `json:"screenshot_url,omitempty"`
	Wide          *WideResult   `json:"wide,omitempty"`
	Text          string        `json:"result_text"`
}

// WideResult is the payload of a wide search.
type WideResult struct {
	Mode       WideMode         `json:"mode"`
	Tier       Tier             `json:"tier"`
	ColorType  ColorType        `json:"color_type"`
	Category   string           `json:"category,omitempty"`
	Limit      int              `json:"limit"`
	References []ReferencePrice `json:"references,omitempty"`
	Bound      *decimal.Decimal `json:"bound,omitempty"`
	Results    []WideRow        `json:"results"`
}

// ReferencePrice is a comparative query's resolved reference product.
type ReferencePrice struct {
	ProductCode string          `json:"code"`
	Name        string          `json:"name,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

// ConfirmationResult asks the user to choose among candidates.
type ConfirmationResult struct {
	ConfirmationID string               `json:"confirmation_id"`
	Options        []ConfirmationOption `json:"options"`
	Message        string               `json:"message"`
}

// ResolutionError is a terminal error value.
type ResolutionError struct {
	Kind    ErrorKind `json:"error_type"`
	Message string    `json:"message"`
}

// NewSuccess wraps a success result.
func NewSuccess(s *SuccessResult) Resolution {
	return Resolution{Status: StatusSuccess, Success: s}
}

// NewNeedsConfirmation wraps a confirmation request.
func NewNeedsConfirmation(c *ConfirmationResult) Resolution {
	return Resolution{Status: StatusNeedsConfirmation, NeedsConfirmation: c}
}

// NewError wraps an error kind and message.
func NewError(kind ErrorKind, message string) Resolution {
	return Resolution{Status: StatusError, Error: &ResolutionError{Kind: kind, Message: message}}
}

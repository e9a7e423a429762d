package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/GTDGit/costchecker/internal/models"
	"github.com/GTDGit/costchecker/internal/utils"
)

const (
	// ExactConfidence is the confidence of an exact code hit.
	ExactConfidence = 1.0
	// BaseCodeConfidence is the confidence of a base-code variant hit.
	BaseCodeConfidence = 0.95
	// DefaultFuzzyThreshold is the minimum similarity kept by the fuzzy stage.
	DefaultFuzzyThreshold = 0.85
	// MaxConfirmationOptions caps the candidates offered to the user.
	MaxConfirmationOptions = 5
)

// MatchResult is the outcome of the match cascade.
type MatchResult struct {
	Candidates []models.MatchCandidate
	// Confidence is the best candidate's confidence.
	Confidence float64
	Stage      models.MatchReason
}

// matchStrategy returns the candidates for code, or none on a miss.
type matchStrategy struct {
	name models.MatchReason
	run  func(ctx context.Context, code string) ([]models.MatchCandidate, error)
}

// MatchService resolves a normalized code to catalog candidates.
type MatchService struct {
	catalog        Catalog
	fuzzyThreshold float64
	strategies     []matchStrategy
}

// NewMatchService creates a match cascade over catalog. A threshold <= 0
// uses DefaultFuzzyThreshold.
func NewMatchService(catalog Catalog, fuzzyThreshold float64) *MatchService {
	if fuzzyThreshold <= 0 {
		fuzzyThreshold = DefaultFuzzyThreshold
	}
	s := &MatchService{catalog: catalog, fuzzyThreshold: fuzzyThreshold}
	s.strategies = []matchStrategy{
		{name: models.ReasonExact, run: s.exact},
		{name: models.ReasonBaseCodeVariant, run: s.baseCode},
		{name: models.ReasonFuzzy, run: s.fuzzy},
	}
	return s
}

// Match runs exact, base-code and fuzzy matching in order and stops at the
// first stage with candidates. An empty result means no product matched.
func (s *MatchService) Match(ctx context.Context, code string) (MatchResult, error) {
	code = NormalizeProductCode(code)
	if code == "" {
		return MatchResult{}, nil
	}
	for _, st := range s.strategies {
		candidates, err := st.run(ctx, code)
		if err != nil {
			return MatchResult{}, fmt.Errorf("%s match: %w", st.name, err)
		}
		if len(candidates) == 0 {
			continue
		}
		return MatchResult{
			Candidates: candidates,
			Confidence: candidates[0].Confidence,
			Stage:      candidates[0].Reason,
		}, nil
	}
	return MatchResult{}, nil
}

func (s *MatchService) exact(ctx context.Context, code string) ([]models.MatchCandidate, error) {
	product, err := s.catalog.GetProductByCode(ctx, code)
	if errors.Is(err, utils.ErrProductNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// An un-suffixed hit on a base with other variants is ambiguous.
	if !HasVariantSuffix(product.ProductCode) {
		base := product.BaseCode
		if base == "" {
			base, _ = SplitBaseCode(product.ProductCode)
		}
		variants, err := s.catalog.ListProductsByBaseCode(ctx, base)
		if err != nil {
			return nil, err
		}
		if hasOtherProduct(variants, product.ProductCode) {
			return candidatesOf(variants, BaseCodeConfidence, models.ReasonBaseCodeVariant), nil
		}
	}
	return []models.MatchCandidate{{Product: *product, Confidence: ExactConfidence, Reason: models.ReasonExact}}, nil
}

func (s *MatchService) baseCode(ctx context.Context, code string) ([]models.MatchCandidate, error) {
	base, _ := SplitBaseCode(code)
	if base == "" {
		return nil, nil
	}
	products, err := s.catalog.ListProductsByBaseCode(ctx, base)
	if err != nil {
		return nil, err
	}
	return candidatesOf(products, BaseCodeConfidence, models.ReasonBaseCodeVariant), nil
}

func (s *MatchService) fuzzy(ctx context.Context, code string) ([]models.MatchCandidate, error) {
	codes, err := s.catalog.ListProductCodes(ctx)
	if err != nil {
		return nil, err
	}
	scored := FuzzyMatchCodes(code, codes, s.fuzzyThreshold)

	candidates := make([]models.MatchCandidate, 0, len(scored))
	for _, sc := range scored {
		product, err := s.catalog.GetProductByCode(ctx, sc.Code)
		if errors.Is(err, utils.ErrProductNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, models.MatchCandidate{Product: *product, Confidence: sc.Score, Reason: models.ReasonFuzzy})
	}
	return candidates, nil
}

// ScoredCode is a catalog code with its similarity to the query.
type ScoredCode struct {
	Code  string
	Score float64
}

// FuzzyMatchCodes keeps the codes whose Ratio to query is at least threshold,
// best first, ties by code.
func FuzzyMatchCodes(query string, codes []string, threshold float64) []ScoredCode {
	var out []ScoredCode
	for _, c := range codes {
		if score := Ratio(query, NormalizeProductCode(c)); score >= threshold {
			out = append(out, ScoredCode{Code: c, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// NeedsConfirmation reports whether the user must pick among candidates.
// Only a single candidate at full confidence is resolved directly.
func NeedsConfirmation(count int, confidence float64) bool {
	if count <= 0 {
		return false
	}
	return count > 1 || confidence < ExactConfidence
}

// BuildConfirmationOptions narrows candidates to material when that leaves
// any, caps the list and numbers the options from "1".
func BuildConfirmationOptions(candidates []models.MatchCandidate, material models.Material) []models.ConfirmationOption {
	if material.IsSet() {
		var filtered []models.MatchCandidate
		for _, c := range candidates {
			if c.Product.MaterialType == material {
				filtered = append(filtered, c)
			}
		}
		if len(filtered) > 0 {
			candidates = filtered
		}
	}
	if len(candidates) > MaxConfirmationOptions {
		candidates = candidates[:MaxConfirmationOptions]
	}

	options := make([]models.ConfirmationOption, 0, len(candidates))
	for i, c := range candidates {
		options = append(options, models.ConfirmationOption{
			ID:          strconv.Itoa(i + 1),
			ProductCode: c.Product.ProductCode,
			Material:    c.Product.MaterialType,
			Category:    c.Product.Category,
			Confidence:  c.Confidence,
			Reason:      c.Reason,
			MatchReason: matchReasonText(c.Reason),
		})
	}
	return options
}

func matchReasonText(r models.MatchReason) string {
	switch r {
	case models.ReasonFuzzy:
		return "模糊匹配"
	case models.ReasonBaseCodeVariant:
		return "找到基础代码的多个版本"
	}
	return "精确匹配"
}

func candidatesOf(products []models.Product, confidence float64, reason models.MatchReason) []models.MatchCandidate {
	out := make([]models.MatchCandidate, 0, len(products))
	for _, p := range products {
		out = append(out, models.MatchCandidate{Product: p, Confidence: confidence, Reason: reason})
	}
	return out
}

func hasOtherProduct(products []models.Product, code string) bool {
	for _, p := range products {
		if p.ProductCode != code {
			return true
		}
	}
	return false
}

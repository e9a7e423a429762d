package service

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/GTDGit/costchecker/internal/models"
)

// DefaultDescriptionThreshold is the minimum name similarity for a reference.
const DefaultDescriptionThreshold = 0.70

var (
	descriptionPattern        = regexp.MustCompile(`(?i)比\s*([\p{Han}\s]+?)(?:\s*(?:` + materialAlternation() + `|便宜|贵|的))`)
	englishDescriptionPattern = regexp.MustCompile(`(?i)\bthan\s+(?:the\s+)?([\p{L}\p{N}\s]+?)\s*(?:\b(?:silicone|pvc|tpe)\b.*)?$`)
	namePunctuation           = regexp.MustCompile(`[，。、；：！？“”‘’"'（）()【】《》,.;:!?\s]+`)
)

// ExtractDescription returns the product description of a comparative query
// such as "比 儿童分体简易 硅胶 便宜的", or "" when none is present.
func ExtractDescription(query string) string {
	q := strings.TrimSpace(query)
	var desc string
	if m := descriptionPattern.FindStringSubmatch(q); m != nil {
		desc = m[1]
	} else if m := englishDescriptionPattern.FindStringSubmatch(q); m != nil {
		desc = m[1]
	}
	desc = strings.TrimSpace(strings.ReplaceAll(desc, "的", ""))
	return desc
}

// materialAlternation joins every material keyword InferMaterial knows into
// a regexp alternation.
func materialAlternation() string {
	var words []string
	for _, group := range [][]string{siliconeKeywords, pvcKeywords, tpeKeywords} {
		for _, w := range group {
			words = append(words, regexp.QuoteMeta(w))
		}
	}
	return strings.Join(words, "|")
}

// NormalizeName collapses punctuation and whitespace and lower-cases s.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(namePunctuation.ReplaceAllString(s, " ")))
}

// DescriptionMatch is a product whose name matches a description.
type DescriptionMatch struct {
	Product models.Product
	Score   float64
}

// DescriptionMatcher finds products by their Chinese name.
type DescriptionMatcher struct {
	catalog   Catalog
	threshold float64
}

// NewDescriptionMatcher creates a matcher. A threshold <= 0 uses
// DefaultDescriptionThreshold.
func NewDescriptionMatcher(catalog Catalog, threshold float64) *DescriptionMatcher {
	if threshold <= 0 {
		threshold = DefaultDescriptionThreshold
	}
	return &DescriptionMatcher{catalog: catalog, threshold: threshold}
}

// Match extracts the description and material from query and searches for it.
func (m *DescriptionMatcher) Match(ctx context.Context, query string) ([]DescriptionMatch, error) {
	desc := ExtractDescription(query)
	if desc == "" {
		return nil, nil
	}
	return m.Search(ctx, desc, InferMaterial(query))
}

// Search scores every product of material (any when unset) by
// max(TokenSetRatio, PartialRatio) of the normalized names, best first.
func (m *DescriptionMatcher) Search(ctx context.Context, description string, material models.Material) ([]DescriptionMatch, error) {
	want := NormalizeName(description)
	if want == "" {
		return nil, nil
	}
	products, err := m.catalog.ListProducts(ctx, material)
	if err != nil {
		return nil, err
	}

	var out []DescriptionMatch
	for _, p := range products {
		name := NormalizeName(p.Name())
		if name == "" {
			continue
		}
		score := TokenSetRatio(want, name)
		if partial := PartialRatio(want, name); partial > score {
			score = partial
		}
		if score >= m.threshold {
			out = append(out, DescriptionMatch{Product: p, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Product.ProductCode < out[j].Product.ProductCode
	})
	return out, nil
}

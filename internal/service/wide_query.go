package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/costchecker/internal/models"
)

type categoryKey struct {
	keyword  string
	category string
}

// Chinese keywords are checked in order before English ones.
var categoryKeys = []categoryKey{
	{"泳镜", "泳镜"},
	{"潜水镜", "潜水镜"},
	{"呼吸管", "呼吸管"},
	{"蛙鞋", "蛙鞋"},
	{"帽子", "帽子配件"},
}

var englishCategories = map[string]string{
	"goggle":   "泳镜",
	"goggles":  "泳镜",
	"mask":     "潜水镜",
	"masks":    "潜水镜",
	"snorkel":  "呼吸管",
	"snorkels": "呼吸管",
	"fin":      "蛙鞋",
	"fins":     "蛙鞋",
	"cap":      "帽子配件",
	"caps":     "帽子配件",
}

var (
	englishCategoryPattern = regexp.MustCompile(`(?i)\b(goggles?|masks?|snorkels?|fins?|caps?)\b`)
	limitPattern           = regexp.MustCompile(`(?i)(?:前|TOP)\s*(\d{1,3})`)
	rangePattern           = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*[~\-～]\s*(\d+(?:\.\d+)?)`)
	strictTierPattern      = regexp.MustCompile(`(?:TIER|LEVEL)\s*([ABCD])\b|([ABCD])\s*(?:级|类|類)`)
)

var (
	pricierPhrases = []string{"more expensive than", "pricier than", "higher than", "more than"}
	cheaperPhrases = []string{"cheaper than", "less expensive than", "lower than", "less than"}
)

// DetectWideQuery classifies text as a comparative, top-N or range query.
// Category and limit are read first and apply to every mode. It reports
// false when text is a plain product lookup.
func DetectWideQuery(text string) (*models.WideQueryParams, bool) {
	q := strings.TrimSpace(text)
	if q == "" {
		return nil, false
	}
	params := models.NewWideQueryParams()
	params.Category = detectCategory(q)

	// The limit token is removed so "TOP 5" is not read as a code or range.
	rest := q
	if m := limitPattern.FindStringSubmatchIndex(q); m != nil {
		if n, err := strconv.Atoi(q[m[2]:m[3]]); err == nil {
			params.Limit = clampLimit(n)
		}
		rest = q[:m[0]] + " " + q[m[1]:]
	}

	upper := strings.ToUpper(rest)
	lower := strings.ToLower(rest)
	if m := strictTierPattern.FindStringSubmatch(upper); m != nil {
		params.Tier = NormalizeTier(m[1] + m[2])
	}
	if c := NormalizeColor(rest); c.IsSet() {
		params.Color = c
	}

	if mode, ok := comparativeMode(rest, lower); ok {
		params.Mode = mode
		if code := findCode(upper); code != "" {
			params.RefCode = code
		} else {
			params.DescriptionQuery = q
		}
		return params, true
	}

	if m := rangePattern.FindStringSubmatch(rest); m != nil {
		a, errA := decimal.NewFromString(m[1])
		b, errB := decimal.NewFromString(m[2])
		if errA == nil && errB == nil {
			lo, hi := decimal.Min(a, b), decimal.Max(a, b)
			params.MinPrice, params.MaxPrice = &lo, &hi
			params.Mode = models.ModeRange
			return params, true
		}
	}

	switch {
	case containsAny(rest, "最贵", "贵的") || containsAny(lower, "most expensive", "priciest"):
		params.Mode = models.ModeTopDesc
		return params, true
	case containsAny(rest, "最便宜", "便宜的") || containsAny(lower, "cheapest"):
		params.Mode = models.ModeTopAsc
		return params, true
	}
	return nil, false
}

func detectCategory(q string) string {
	for _, k := range categoryKeys {
		if strings.Contains(q, k.keyword) {
			return k.category
		}
	}
	if m := englishCategoryPattern.FindStringSubmatch(q); m != nil {
		return englishCategories[strings.ToLower(m[1])]
	}
	return ""
}

func comparativeMode(rest, lower string) (models.WideMode, bool) {
	if strings.Contains(rest, "比") {
		if strings.Contains(rest, "贵") {
			return models.ModeCompareGT, true
		}
		if strings.Contains(rest, "便宜") {
			return models.ModeCompareLT, true
		}
	}
	if containsAny(lower, pricierPhrases...) {
		return models.ModeCompareGT, true
	}
	if containsAny(lower, cheaperPhrases...) {
		return models.ModeCompareLT, true
	}
	return "", false
}

func clampLimit(n int) int {
	if n < 1 {
		return 1
	}
	if n > models.MaxWideLimit {
		return models.MaxWideLimit
	}
	return n
}

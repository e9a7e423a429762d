package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/costchecker/internal/metrics"
	"github.com/GTDGit/costchecker/internal/models"
	"github.com/GTDGit/costchecker/pkg/deepseek"
)

// ParamExtractor reads product code, tier, color and material from free text.
type ParamExtractor interface {
	Extract(ctx context.Context, query string) (models.ExtractedParams, error)
}

var (
	letterCodePattern  = regexp.MustCompile(`\b([A-Z]{1,3})(\s*-?\s*)(\d{1,4})([SP]?)`)
	numericCodePattern = regexp.MustCompile(`\b\d{2,6}[SP]?\b`)
	tierPattern        = regexp.MustCompile(`(?:^|[^A-Z0-9])(?:(?:TIER|LEVEL)\s*)?([ABCD])\s*(?:级|类|類)?(?:$|[^A-Z0-9])`)
)

// Words that may sit in front of a numeric code without belonging to it,
// as in "price of 2323S". Lone tier letters are handled the same way.
var codeStopWords = map[string]bool{
	"OF": true, "TO": true, "IS": true, "FOR": true, "THE": true,
	"AND": true, "OR": true, "VS": true, "AT": true, "IN": true, "ON": true,
	"TOP": true,
}

// Material keywords shared by InferMaterial and the description terminator.
var (
	siliconeKeywords = []string{"硅胶", "矽膠", "矽胶", "SILICONE"}
	pvcKeywords      = []string{"PVC"}
	tpeKeywords      = []string{"TPE", "包胶", "包膠"}
)

// letterCode finds the first letter-prefixed code in upper. A stop word or a
// lone tier letter separated from the digits by whitespace is not a prefix.
func letterCode(upper string) (code, suffix string, ok bool) {
	for _, m := range letterCodePattern.FindAllStringSubmatch(upper, -1) {
		letters, gap := m[1], m[2]
		if strings.ContainsAny(gap, " \t") && (codeStopWords[letters] || isTierLetter(letters)) {
			continue
		}
		return NormalizeProductCode(letters + m[3] + m[4]), m[4], true
	}
	return "", "", false
}

func isTierLetter(s string) bool {
	return len(s) == 1 && s[0] >= 'A' && s[0] <= 'D'
}

// findCode returns the first code-like token in upper, letter-prefixed codes
// first, normalized.
func findCode(upper string) string {
	if code, _, ok := letterCode(upper); ok {
		return code
	}
	if m := numericCodePattern.FindString(upper); m != "" {
		return NormalizeProductCode(m)
	}
	return ""
}

// DetectProductCode returns the first code-like token in query, normalized.
func DetectProductCode(query string) string {
	return findCode(strings.ToUpper(query))
}

// DetectTier finds a tier mention such as "A级", "B类", "tier C" or a
// standalone letter.
func DetectTier(query string) models.Tier {
	m := tierPattern.FindStringSubmatch(strings.ToUpper(query))
	if m == nil {
		return models.TierUnset
	}
	return NormalizeTier(m[1])
}

// NormalizeTier maps "A", "a级", "A类" and the like to a canonical tier.
func NormalizeTier(s string) models.Tier {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.TrimSuffix(v, "级")
	v = strings.TrimSuffix(v, "类")
	v = strings.TrimSuffix(v, "類")
	switch strings.TrimSpace(v) {
	case "A":
		return models.TierA
	case "B":
		return models.TierB
	case "C":
		return models.TierC
	case "D":
		return models.TierD
	}
	return models.TierUnset
}

// NormalizeColor maps custom/standard synonyms to a canonical color type.
func NormalizeColor(s string) models.ColorType {
	v := strings.ToUpper(s)
	switch {
	case strings.Contains(v, "定制"), strings.Contains(v, "CUSTOM"):
		return models.ColorCustom
	case strings.Contains(v, "标准"), strings.Contains(v, "STANDARD"):
		return models.ColorStandard
	}
	return models.ColorUnset
}

// NormalizeMaterial maps a material name in either script to a canonical material.
func NormalizeMaterial(s string) models.Material {
	v := strings.ToUpper(s)
	switch {
	case strings.Contains(v, "SILICONE"), strings.Contains(v, "硅"), strings.Contains(v, "矽"):
		return models.MaterialSilicone
	case strings.Contains(v, "PVC"):
		return models.MaterialPVC
	case strings.Contains(v, "TPE"), strings.Contains(v, "包胶"), strings.Contains(v, "包膠"):
		return models.MaterialTPE
	}
	return models.MaterialUnset
}

// InferMaterial infers a material from keywords, or else from the suffix of
// an inline code token.
func InferMaterial(query string) models.Material {
	q := strings.ToUpper(query)
	switch {
	case containsAny(q, siliconeKeywords...):
		return models.MaterialSilicone
	case containsAny(q, pvcKeywords...):
		return models.MaterialPVC
	case containsAny(q, tpeKeywords...):
		return models.MaterialTPE
	}
	if code, suffix, ok := letterCode(q); ok && suffix != "" {
		return MaterialFromCode(code)
	}
	return models.MaterialUnset
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// HeuristicExtractor extracts parameters with regex and keyword rules only.
type HeuristicExtractor struct{}

// Extract never fails.
func (HeuristicExtractor) Extract(_ context.Context, query string) (models.ExtractedParams, error) {
	return models.ExtractedParams{
		ProductCode: DetectProductCode(query),
		Tier:        DetectTier(query),
		ColorType:   NormalizeColor(query),
		Material:    InferMaterial(query),
	}, nil
}

// ParamsClient is the text-understanding service used by RemoteExtractor.
type ParamsClient interface {
	ExtractParams(ctx context.Context, query string) (*deepseek.Params, error)
}

// RemoteExtractor asks the text-understanding service and canonicalizes its answer.
type RemoteExtractor struct {
	client ParamsClient
}

// NewRemoteExtractor wraps client as a ParamExtractor.
func NewRemoteExtractor(client ParamsClient) *RemoteExtractor {
	return &RemoteExtractor{client: client}
}

// Extract returns the service's answer with every field canonicalized.
func (e *RemoteExtractor) Extract(ctx context.Context, query string) (models.ExtractedParams, error) {
	p, err := e.client.ExtractParams(ctx, query)
	if err != nil {
		return models.ExtractedParams{}, err
	}
	return models.ExtractedParams{
		ProductCode: NormalizeProductCode(p.ProductCode),
		Tier:        NormalizeTier(p.Tier),
		ColorType:   NormalizeColor(p.ColorType),
		Material:    NormalizeMaterial(p.Material),
	}, nil
}

// DefaultExtractorTimeout bounds the remote call.
const DefaultExtractorTimeout = 3 * time.Second

// FallbackExtractor runs the primary extractor under a fixed timeout and
// falls back to the heuristic one on any failure. A missing code or material
// in the primary result is filled in from the heuristics.
type FallbackExtractor struct {
	primary   ParamExtractor
	heuristic ParamExtractor
	timeout   time.Duration
}

// NewFallbackExtractor composes primary with the heuristic extractor.
// A nil primary degrades to heuristics only.
func NewFallbackExtractor(primary ParamExtractor, timeout time.Duration) *FallbackExtractor {
	if timeout <= 0 {
		timeout = DefaultExtractorTimeout
	}
	return &FallbackExtractor{
		primary:   primary,
		heuristic: HeuristicExtractor{},
		timeout:   timeout,
	}
}

type extractResult struct {
	params models.ExtractedParams
	err    error
}

// Extract always succeeds; remote failures are logged and counted.
func (e *FallbackExtractor) Extract(ctx context.Context, query string) (models.ExtractedParams, error) {
	local, _ := e.heuristic.Extract(ctx, query)
	if e.primary == nil {
		return local, nil
	}

	remote, err := e.callPrimary(ctx, query)
	if err != nil {
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		if !errors.Is(err, deepseek.ErrNoAPIKey) {
			log.Warn().Err(err).Str("reason", reason).Msg("Remote extraction failed, using heuristics")
		}
		metrics.RecordExtractorFallback(reason)
		return local, nil
	}

	if remote.ProductCode == "" {
		remote.ProductCode = local.ProductCode
	}
	if !remote.Material.IsSet() {
		remote.Material = local.Material
	}
	return remote, nil
}

// callPrimary never blocks past the timeout, even when the primary ignores
// cancellation.
func (e *FallbackExtractor) callPrimary(ctx context.Context, query string) (models.ExtractedParams, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan extractResult, 1)
	go func() {
		p, err := e.primary.Extract(ctx, query)
		done <- extractResult{params: p, err: err}
	}()

	select {
	case r := <-done:
		return r.params, r.err
	case <-ctx.Done():
		return models.ExtractedParams{}, ctx.Err()
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/costchecker/internal/models"
	"github.com/GTDGit/costchecker/internal/utils"
)

// WideConfidence is reported for every wide-search success.
const WideConfidence = 0.75

// WideSearchService executes comparative, top-N and range queries.
type WideSearchService struct {
	catalog Catalog
	matcher *DescriptionMatcher
}

// NewWideSearchService creates a new WideSearchService.
func NewWideSearchService(catalog Catalog, matcher *DescriptionMatcher) *WideSearchService {
	return &WideSearchService{catalog: catalog, matcher: matcher}
}

// Run executes params. Terminal outcomes, including reference and empty
// result errors, are returned as a Resolution; err is only set for catalog
// read failures.
func (s *WideSearchService) Run(ctx context.Context, params *models.WideQueryParams) (models.Resolution, error) {
	switch params.Mode {
	case models.ModeCompareGT, models.ModeCompareLT:
		return s.runComparative(ctx, params)
	case models.ModeTopDesc, models.ModeTopAsc:
		order := models.OrderPriceAsc
		if params.Mode == models.ModeTopDesc {
			order = models.OrderPriceDesc
		}
		return s.runScan(ctx, params, models.WideScan{Order: order, PositiveOnly: true})
	case models.ModeRange:
		if params.MinPrice == nil || params.MaxPrice == nil {
			break
		}
		return s.runScan(ctx, params, models.WideScan{
			Comparator:   models.CompareBetween,
			Min:          *params.MinPrice,
			Max:          *params.MaxPrice,
			Order:        models.OrderPriceAsc,
			PositiveOnly: true,
		})
	}
	return models.NewError(models.ErrUnsupportedWideQuery, "未识别的范围查询表达。"), nil
}

func (s *WideSearchService) runScan(ctx context.Context, params *models.WideQueryParams, scan models.WideScan) (models.Resolution, error) {
	scan.Tier, scan.Color = params.Tier, params.Color
	scan.Category, scan.Limit = params.Category, params.Limit

	rows, err := s.catalog.ScanPrices(ctx, scan)
	if err != nil {
		return models.Resolution{}, fmt.Errorf("scan prices: %w", err)
	}
	if rows == nil {
		rows = []models.WideRow{}
	}
	return s.success(params, nil, nil, rows), nil
}

func (s *WideSearchService) runComparative(ctx context.Context, params *models.WideQueryParams) (models.Resolution, error) {
	refs, fail, err := s.resolveReferences(ctx, params)
	if err != nil {
		return models.Resolution{}, err
	}
	if fail != nil {
		return *fail, nil
	}

	// The bound is the highest reference price for "cheaper than" and the
	// lowest for "more expensive than".
	bound := refs[0].Price
	for _, r := range refs[1:] {
		if params.Mode == models.ModeCompareLT {
			bound = decimal.Max(bound, r.Price)
		} else {
			bound = decimal.Min(bound, r.Price)
		}
	}

	comparator := models.CompareLT
	if params.Mode == models.ModeCompareGT {
		comparator = models.CompareGT
	}
	rows, err := s.catalog.ScanPrices(ctx, models.WideScan{
		Tier:       params.Tier,
		Color:      params.Color,
		Category:   params.Category,
		Comparator: comparator,
		Bound:      bound,
		Order:      models.OrderDeltaAsc,
		Limit:      params.Limit,
	})
	if err != nil {
		return models.Resolution{}, fmt.Errorf("scan prices: %w", err)
	}
	if len(rows) == 0 {
		return models.NewError(models.ErrNoResults, "未找到符合条件的产品。"), nil
	}
	return s.success(params, refs, &bound, rows), nil
}

// resolveReferences returns the priced reference products, or a terminal
// reference_not_found resolution.
func (s *WideSearchService) resolveReferences(ctx context.Context, params *models.WideQueryParams) ([]models.ReferencePrice, *models.Resolution, error) {
	if params.RefCode != "" {
		product, err := s.lookupReference(ctx, params.RefCode)
		if errors.Is(err, utils.ErrProductNotFound) {
			fail := models.NewError(models.ErrReferenceNotFound, fmt.Sprintf("参考产品 %s 未找到。", params.RefCode))
			return nil, &fail, nil
		}
		if err != nil {
			return nil, nil, err
		}
		params.RefProducts = []models.Product{*product}
	} else {
		if s.matcher == nil {
			fail := models.NewError(models.ErrReferenceNotFound, "未找到匹配描述的产品。请尝试使用产品代码或更具体的描述。")
			return nil, &fail, nil
		}
		matches, err := s.matcher.Match(ctx, params.DescriptionQuery)
		if err != nil {
			return nil, nil, fmt.Errorf("match description: %w", err)
		}
		if len(matches) == 0 {
			fail := models.NewError(models.ErrReferenceNotFound, "未找到匹配描述的产品。请尝试使用产品代码或更具体的描述。")
			return nil, &fail, nil
		}
		params.RefProducts = make([]models.Product, 0, len(matches))
		for _, m := range matches {
			params.RefProducts = append(params.RefProducts, m.Product)
		}
	}

	refs := make([]models.ReferencePrice, 0, len(params.RefProducts))
	codes := make([]string, 0, len(params.RefProducts))
	for _, p := range params.RefProducts {
		codes = append(codes, p.ProductCode)
		price, err := s.catalog.PickPrice(ctx, p.ID, params.Tier, params.Color)
		if errors.Is(err, utils.ErrPriceNotFound) {
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("pick reference price %s: %w", p.ProductCode, err)
		}
		refs = append(refs, models.ReferencePrice{ProductCode: p.ProductCode, Name: p.Name(), Price: price})
	}
	if len(refs) == 0 {
		fail := models.NewError(models.ErrReferenceNotFound, fmt.Sprintf("参考产品 %s 价格缺失。", strings.Join(codes, ", ")))
		return nil, &fail, nil
	}
	return refs, nil, nil
}

// lookupReference tries the literal code, then the base code's S, P and bare
// variants.
func (s *WideSearchService) lookupReference(ctx context.Context, code string) (*models.Product, error) {
	product, err := s.catalog.GetProductByCode(ctx, code)
	if !errors.Is(err, utils.ErrProductNotFound) {
		return product, err
	}
	base := code
	if HasVariantSuffix(code) {
		base = code[:len(code)-1]
	}
	for _, candidate := range []string{base + "S", base + "P", base} {
		if candidate == code {
			continue
		}
		product, err := s.catalog.GetProductByCode(ctx, candidate)
		if !errors.Is(err, utils.ErrProductNotFound) {
			return product, err
		}
	}
	return nil, utils.ErrProductNotFound
}

func (s *WideSearchService) success(params *models.WideQueryParams, refs []models.ReferencePrice, bound *decimal.Decimal, rows []models.WideRow) models.Resolution {
	wide := &models.WideResult{
		Mode:       params.Mode,
		Tier:       params.Tier,
		ColorType:  params.Color,
		Category:   params.Category,
		Limit:      params.Limit,
		References: refs,
		Bound:      bound,
		Results:    rows,
	}
	return models.NewSuccess(&models.SuccessResult{
		Tier:       params.Tier,
		ColorType:  params.Color,
		Confidence: WideConfidence,
		Wide:       wide,
		Text:       FormatWide(wide),
	})
}

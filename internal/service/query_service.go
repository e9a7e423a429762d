package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/costchecker/internal/cache"
	"github.com/GTDGit/costchecker/internal/metrics"
	"github.com/GTDGit/costchecker/internal/models"
	"github.com/GTDGit/costchecker/internal/utils"
)

const (
	msgMissingProductCode    = "未检测到产品代码，请提供产品代码再试。"
	msgProductNotFound       = "未找到匹配的产品。请检查产品代码是否正确。"
	msgNeedsConfirmation     = "找到多个匹配产品，请确认您要查询的是哪一个："
	msgConfirmationNotFound  = "确认已过期或不存在，请重新查询。"
	msgInvalidSelectedOption = "无效的选项，请从列表中选择。"
	msgInternal              = "系统繁忙，请稍后再试。"
)

// QueryOptions tunes the resolution pipeline. Zero values use the defaults.
type QueryOptions struct {
	SessionTTL           time.Duration
	FuzzyThreshold       float64
	DescriptionThreshold float64
}

// QueryService resolves free-text price queries and confirmations.
type QueryService struct {
	catalog   Catalog
	extractor ParamExtractor
	store     cache.Store
	matcher   *MatchService
	prices    *PriceResolver
	wide      *WideSearchService
	ttl       time.Duration
	newID     func() string
}

// NewQueryService wires the match cascade, price resolver and wide search
// over catalog.
func NewQueryService(catalog Catalog, extractor ParamExtractor, store cache.Store, opts QueryOptions) *QueryService {
	if extractor == nil {
		extractor = HeuristicExtractor{}
	}
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = cache.DefaultSessionTTL
	}
	return &QueryService{
		catalog:   catalog,
		extractor: extractor,
		store:     store,
		matcher:   NewMatchService(catalog, opts.FuzzyThreshold),
		prices:    NewPriceResolver(catalog),
		wide:      NewWideSearchService(catalog, NewDescriptionMatcher(catalog, opts.DescriptionThreshold)),
		ttl:       ttl,
		newID:     func() string { return "conf_" + uuid.NewString() },
	}
}

// Resolve answers a free-text query with a price, a confirmation request,
// a wide-search result set or an error value.
func (s *QueryService) Resolve(ctx context.Context, text string) models.Resolution {
	start := time.Now()
	res := s.resolve(ctx, text)
	return finish("resolve", res, start)
}

func (s *QueryService) resolve(ctx context.Context, text string) models.Resolution {
	if params, ok := DetectWideQuery(text); ok {
		res, err := s.wide.Run(ctx, params)
		if err != nil {
			return internalError(err, "wide search failed")
		}
		return res
	}

	params, err := s.extractor.Extract(ctx, text)
	if err != nil {
		log.Warn().Err(err).Msg("Parameter extraction failed, using heuristics")
		params, _ = HeuristicExtractor{}.Extract(ctx, text)
	}
	if !params.Material.IsSet() {
		params.Material = InferMaterial(text)
	}
	params.ProductCode = NormalizeProductCode(params.ProductCode)
	if params.ProductCode == "" {
		return models.NewError(models.ErrMissingProductCode, msgMissingProductCode)
	}

	match, err := s.matcher.Match(ctx, params.ProductCode)
	if err != nil {
		return internalError(err, "match failed")
	}
	if len(match.Candidates) == 0 {
		return models.NewError(models.ErrProductNotFound, msgProductNotFound)
	}

	if NeedsConfirmation(len(match.Candidates), match.Confidence) {
		options := BuildConfirmationOptions(match.Candidates, params.Material)
		id := s.newID()
		if err := s.store.Put(ctx, id, options, params, s.ttl); err != nil {
			return internalError(err, "save confirmation session failed")
		}
		return models.NewNeedsConfirmation(&models.ConfirmationResult{
			ConfirmationID: id,
			Options:        options,
			Message:        msgNeedsConfirmation,
		})
	}

	product := match.Candidates[0].Product
	return s.priceProduct(ctx, &product, params, match.Confidence)
}

// Confirm resumes an ambiguous match with the user's chosen option. The
// session is consumed whether or not the option is valid.
func (s *QueryService) Confirm(ctx context.Context, confirmationID, optionID string) models.Resolution {
	start := time.Now()
	res := s.confirm(ctx, confirmationID, optionID)
	return finish("confirm", res, start)
}

func (s *QueryService) confirm(ctx context.Context, confirmationID, optionID string) models.Resolution {
	sess, err := s.store.Pop(ctx, confirmationID)
	if errors.Is(err, utils.ErrSessionNotFound) {
		return models.NewError(models.ErrConfirmationNotFound, msgConfirmationNotFound)
	}
	if err != nil {
		return internalError(err, "load confirmation session failed")
	}

	opt, ok := sess.Option(optionID)
	if !ok {
		return models.NewError(models.ErrInvalidSelectedOption, msgInvalidSelectedOption)
	}

	product, err := s.catalog.GetProductByCode(ctx, opt.ProductCode)
	if errors.Is(err, utils.ErrProductNotFound) {
		return models.NewError(models.ErrProductNotFound, msgProductNotFound)
	}
	if err != nil {
		return internalError(err, "load confirmed product failed")
	}
	return s.priceProduct(ctx, product, sess.Params, opt.Confidence)
}

func (s *QueryService) priceProduct(ctx context.Context, product *models.Product, params models.ExtractedParams, confidence float64) models.Resolution {
	price, err := s.prices.Resolve(ctx, product, params.Tier, params.ColorType)
	if err != nil {
		return internalError(err, "price resolution failed")
	}
	return models.NewSuccess(&models.SuccessResult{
		ProductCode:   product.ProductCode,
		Product:       product,
		Tier:          price.Tier,
		ColorType:     price.ColorType,
		Price:         price.Price,
		Prices:        price.Prices,
		Confidence:    confidence,
		ScreenshotURL: product.ScreenshotURL,
		Text:          FormatProduct(product, price),
	})
}

func internalError(err error, msg string) models.Resolution {
	log.Error().Err(err).Msg(msg)
	return models.NewError(models.ErrInternal, msgInternal)
}

func finish(operation string, res models.Resolution, start time.Time) models.Resolution {
	elapsed := time.Since(start)
	res.ExecutionTimeMS = elapsed.Milliseconds()
	kind := ""
	if res.Error != nil {
		kind = string(res.Error.Kind)
	}
	metrics.RecordResolution(operation, string(res.Status), kind, elapsed)
	return res
}

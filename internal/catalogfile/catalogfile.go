// Package catalogfile reads product catalogs from YAML seed files.
//
// A file lists products with their price rows:
//
//	products:
//	  - product_code: GT10S
//	    base_code: GT10
//	    product_name_cn: 儿童分体简易带扣
//	    category: 泳镜
//	    material_type: SILICONE
//	    prices:
//	      - {tier: A级, color_type: 标准色, price: 0.70, effective_date: "2025-10-28"}
package catalogfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/GTDGit/costchecker/internal/models"
	"github.com/GTDGit/costchecker/internal/repository"
	"github.com/GTDGit/costchecker/internal/service"
)

const dateLayout = "2006-01-02"

// File is a decoded catalog seed file.
type File struct {
	Products []ProductEntry `yaml:"products"`
}

// ProductEntry is one product and its price rows.
type ProductEntry struct {
	ProductCode   string          `yaml:"product_code"`
	BaseCode      string          `yaml:"base_code"`
	NameCN        string          `yaml:"product_name_cn"`
	Category      string          `yaml:"category"`
	Subcategory   string          `yaml:"subcategory"`
	Material      string          `yaml:"material_type"`
	BaseCost      decimal.Decimal `yaml:"base_cost"`
	ScreenshotURL string          `yaml:"screenshot_url"`
	Prices        []PriceEntry    `yaml:"prices"`
}

// PriceEntry is one (tier, color) price. Tier and color accept any spelling
// the normalizers understand, such as "A", "a级" or "standard".
type PriceEntry struct {
	Tier          string          `yaml:"tier"`
	ColorType     string          `yaml:"color_type"`
	Price         decimal.Decimal `yaml:"price"`
	EffectiveDate string          `yaml:"effective_date"`
}

// Load reads, decodes and validates the file at path.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(bytes.NewReader(raw))
}

// Parse decodes and validates a catalog from r. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("catalog file is empty")
		}
		return nil, fmt.Errorf("decode catalog file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks every entry and reports all problems at once.
func (f *File) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(f.Products))

	for i, p := range f.Products {
		code := service.NormalizeProductCode(p.ProductCode)
		where := fmt.Sprintf("products[%d] %s", i, code)
		if code == "" {
			errs = append(errs, fmt.Errorf("products[%d]: product_code is required", i))
			continue
		}
		if seen[code] {
			errs = append(errs, fmt.Errorf("%s: duplicate product_code", where))
		}
		seen[code] = true

		if p.Category == "" {
			errs = append(errs, fmt.Errorf("%s: category is required", where))
		}
		material := service.NormalizeMaterial(p.Material)
		if p.Material != "" && !material.IsSet() {
			errs = append(errs, fmt.Errorf("%s: unknown material_type %q", where, p.Material))
		}
		if want := service.MaterialFromCode(code); want.IsSet() && material != want {
			errs = append(errs, fmt.Errorf("%s: suffix requires material_type %s", where, want))
		}
		if p.BaseCost.IsNegative() {
			errs = append(errs, fmt.Errorf("%s: base_cost must not be negative", where))
		}
		errs = append(errs, validatePrices(where, p.Prices)...)
	}
	return errors.Join(errs...)
}

type priceKey struct {
	tier  models.Tier
	color models.ColorType
	date  string
}

func validatePrices(where string, prices []PriceEntry) []error {
	var errs []error
	latest := make(map[models.Tier]map[models.ColorType]PriceEntry)
	seen := make(map[priceKey]bool)

	for j, pr := range prices {
		at := fmt.Sprintf("%s prices[%d]", where, j)
		tier := service.NormalizeTier(pr.Tier)
		color := service.NormalizeColor(pr.ColorType)
		if !tier.IsSet() {
			errs = append(errs, fmt.Errorf("%s: unknown tier %q", at, pr.Tier))
		}
		if !color.IsSet() {
			errs = append(errs, fmt.Errorf("%s: unknown color_type %q", at, pr.ColorType))
		}
		if pr.Price.IsNegative() {
			errs = append(errs, fmt.Errorf("%s: price must not be negative", at))
		}
		if pr.EffectiveDate != "" {
			if _, err := time.Parse(dateLayout, pr.EffectiveDate); err != nil {
				errs = append(errs, fmt.Errorf("%s: effective_date must be YYYY-MM-DD", at))
			}
		}
		if !tier.IsSet() || !color.IsSet() {
			continue
		}

		key := priceKey{tier: tier, color: color, date: pr.EffectiveDate}
		if seen[key] {
			errs = append(errs, fmt.Errorf("%s: duplicate %s%s row for %q", at, tier, color, pr.EffectiveDate))
		}
		seen[key] = true

		if latest[tier] == nil {
			latest[tier] = make(map[models.ColorType]PriceEntry)
		}
		if cur, ok := latest[tier][color]; !ok || pr.EffectiveDate >= cur.EffectiveDate {
			latest[tier][color] = pr
		}
	}

	for _, tier := range models.Tiers {
		std, okStd := latest[tier][models.ColorStandard]
		custom, okCustom := latest[tier][models.ColorCustom]
		if okStd && okCustom && custom.Price.LessThan(std.Price) {
			errs = append(errs, fmt.Errorf("%s: %s定制色 %s is below 标准色 %s", where, tier, custom.Price, std.Price))
		}
	}
	return errs
}

// SeedEntries converts the file into canonical repository rows. now is the
// effective date for rows that omit one.
func (f *File) SeedEntries(now time.Time) []repository.SeedEntry {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	entries := make([]repository.SeedEntry, 0, len(f.Products))

	for _, p := range f.Products {
		code := service.NormalizeProductCode(p.ProductCode)
		base := service.NormalizeProductCode(p.BaseCode)
		if base == "" {
			base, _ = service.SplitBaseCode(code)
		}
		product := models.Product{
			ProductCode:   code,
			BaseCode:      base,
			NameCN:        optional(p.NameCN),
			Category:      p.Category,
			Subcategory:   optional(p.Subcategory),
			MaterialType:  service.NormalizeMaterial(p.Material),
			BaseCost:      p.BaseCost,
			Status:        "active",
			ScreenshotURL: optional(p.ScreenshotURL),
		}

		prices := make([]models.PricingTier, 0, len(p.Prices))
		for _, pr := range p.Prices {
			effective := today
			if t, err := time.Parse(dateLayout, pr.EffectiveDate); err == nil {
				effective = t
			}
			prices = append(prices, models.PricingTier{
				Tier:          service.NormalizeTier(pr.Tier),
				ColorType:     service.NormalizeColor(pr.ColorType),
				Price:         pr.Price,
				EffectiveDate: effective,
			})
		}
		entries = append(entries, repository.SeedEntry{Product: product, Prices: prices})
	}
	return entries
}

// NewMemoryCatalog builds an in-memory catalog from the file.
func (f *File) NewMemoryCatalog(now time.Time) (*repository.MemoryCatalog, error) {
	c := repository.NewMemoryCatalog()
	for _, e := range f.SeedEntries(now) {
		if _, err := c.AddProduct(e.Product); err != nil {
			return nil, err
		}
		for _, pr := range e.Prices {
			if err := c.AddPrice(e.Product.ProductCode, pr.Tier, pr.ColorType, pr.Price, pr.EffectiveDate); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/costchecker/internal/models"
)

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// FormatProduct renders a single-product result as markdown text.
func FormatProduct(p *models.Product, res PriceResolution) string {
	title := strings.Join(strings.Fields(fmt.Sprintf("%s %s %s", p.ProductCode, p.Name(), p.MaterialType)), " ")

	var priceLine string
	switch {
	case res.Price != nil:
		priceLine = fmt.Sprintf("价格：%s USD (%s%s)", money(res.Price.Price), res.Price.Tier, res.Price.ColorType)
	case len(res.Prices) > 0:
		lines := []string{"价格一览:"}
		for _, row := range res.Prices {
			lines = append(lines, fmt.Sprintf("- %s%s: %s USD", row.Tier, row.ColorType, money(row.Price)))
		}
		priceLine = strings.Join(lines, "\n")
	default:
		priceLine = "价格：未知"
	}
	return fmt.Sprintf("**产品：%s**\n\n%s", title, priceLine)
}

// FormatWide renders a wide-search result as a numbered markdown list.
func FormatWide(w *models.WideResult) string {
	lines := []string{wideTitle(w)}

	if len(w.References) > 0 {
		lines = append(lines, "", "**参考产品：**")
		for _, ref := range w.References {
			name := ""
			if ref.Name != "" {
				name = " (" + ref.Name + ")"
			}
			lines = append(lines, fmt.Sprintf("- %s%s — %s", ref.ProductCode, name, money(ref.Price)))
		}
		lines = append(lines, "")
	}

	if len(w.Results) == 0 {
		lines = append(lines, "未找到符合条件的产品。")
	}
	for i, r := range w.Results {
		name := ""
		if r.NameCN != nil && *r.NameCN != "" {
			name = " (" + *r.NameCN + ")"
		}
		delta := ""
		if r.Delta != nil {
			if r.Delta.IsNegative() {
				delta = fmt.Sprintf(" (节省 %s)", money(r.Delta.Abs()))
			} else {
				delta = fmt.Sprintf(" (贵 %s)", money(*r.Delta))
			}
		}
		lines = append(lines, fmt.Sprintf("%d. %s%s — %s%s [%s]", i+1, r.ProductCode, name, money(r.Price), delta, r.Category))
	}
	return strings.Join(lines, "\n")
}

func wideTitle(w *models.WideResult) string {
	suffix := fmt.Sprintf("的%s（%s%s）", w.Category, w.Tier, w.ColorType)
	switch w.Mode {
	case models.ModeCompareGT, models.ModeCompareLT:
		codes := make([]string, 0, len(w.References))
		for _, ref := range w.References {
			codes = append(codes, ref.ProductCode)
		}
		dir := "更便宜"
		if w.Mode == models.ModeCompareGT {
			dir = "更贵"
		}
		return fmt.Sprintf("比 %s %s%s", strings.Join(codes, ", "), dir, suffix)
	case models.ModeTopDesc:
		return "最贵" + suffix
	case models.ModeTopAsc:
		return "最便宜" + suffix
	case models.ModeRange:
		return "价格区间" + suffix
	}
	return "查询结果"
}

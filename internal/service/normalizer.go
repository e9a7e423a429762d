package service

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/GTDGit/costchecker/internal/models"
)

// NormalizeProductCode upper-cases s and drops every non-alphanumeric rune.
func NormalizeProductCode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToUpper(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var codePartsPattern = regexp.MustCompile(`^\s*([A-Za-z]+)\s*-?\s*(\d+)\s*([A-Za-z]?)\s*$`)

// SplitBaseCode separates a product code into its base and variant suffix.
//
//	GT10S  -> GT10, S
//	GT-10S -> GT10, S
//	F9970  -> F9970, ""
//	2323S  -> 2323, S
func SplitBaseCode(code string) (base, suffix string) {
	if code == "" {
		return "", ""
	}
	if m := codePartsPattern.FindStringSubmatch(code); m != nil {
		return strings.ToUpper(m[1]) + m[2], strings.ToUpper(m[3])
	}
	compact := NormalizeProductCode(code)
	if n := len(compact); n > 0 && isVariantSuffix(compact[n-1:]) {
		return compact[:n-1], compact[n-1:]
	}
	return compact, ""
}

// HasVariantSuffix reports whether code ends in a material variant suffix.
func HasVariantSuffix(code string) bool {
	_, suffix := SplitBaseCode(code)
	return isVariantSuffix(suffix)
}

func isVariantSuffix(s string) bool {
	return s == "S" || s == "P"
}

// MaterialFromCode maps a variant suffix to its material.
func MaterialFromCode(code string) models.Material {
	_, suffix := SplitBaseCode(code)
	switch suffix {
	case "S":
		return models.MaterialSilicone
	case "P":
		return models.MaterialPVC
	}
	return models.MaterialUnset
}

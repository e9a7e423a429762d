package service

import (
	"sort"
	"strings"
)

// Ratio is the normalized indel similarity of a and b in [0, 1]:
// 2*LCS / (len(a)+len(b)), computed over runes.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return float64(2*lcsLength(ra, rb)) / float64(total)
}

func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// PartialRatio is the best Ratio of the shorter string against every
// equally long window of the longer one.
func PartialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		if len(long) == 0 {
			return 1
		}
		return 0
	}
	s := string(short)
	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		if r := Ratio(s, string(long[i:i+len(short)])); r > best {
			best = r
			if best == 1 {
				break
			}
		}
	}
	return best
}

// TokenSetRatio compares the whitespace token sets of a and b, scoring the
// shared tokens against each side's remainder.
func TokenSetRatio(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		if len(ta) == len(tb) {
			return 1
		}
		return 0
	}
	var inter, onlyA, onlyB []string
	for t := range ta {
		if tb[t] {
			inter = append(inter, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range tb {
		if !ta[t] {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	sect := strings.Join(inter, " ")
	combinedA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))
	if sect != "" && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 1
	}
	best := Ratio(combinedA, combinedB)
	if sect != "" {
		if r := Ratio(sect, combinedA); r > best {
			best = r
		}
		if r := Ratio(sect, combinedB); r > best {
			best = r
		}
	}
	return best
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Fields(s) {
		set[t] = true
	}
	return set
}

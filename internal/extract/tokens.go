package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	timeRegex    = regexp.MustCompile(`(?i)\b(1[0-2]|0?[1-9]):([0-5]\d)\s*([ap])\.?\s?m\b\.?`)
	priceRegex   = regexp.MustCompile(`\$\s?(\d{1,4}(?:,\d{3})*)(?:\.(\d{2}))?\b`)
	holesRegex   = regexp.MustCompile(`(?i)\b(9|18)\s*-?\s*holes?\b`)
	rangeRegex   = regexp.MustCompile(`(?i)\b(\d)\s*(?:-|–|to)\s*(\d)\s*(?:players?|golfers?)\b`)
	upToRegex    = regexp.MustCompile(`(?i)\bup\s+to\s+(\d)\s*(?:players?|golfers?)\b`)
	playersRegex = regexp.MustCompile(`(?i)\b(\d)\s*(?:players?|golfers?)\b`)
	spaceRegex   = regexp.MustCompile(`\s+`)
)

// CleanText collapses runs of whitespace (including non-breaking spaces)
// into single spaces.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.TrimSpace(spaceRegex.ReplaceAllString(s, " "))
}

// FindTime returns the first time-of-day token in s, as written.
func FindTime(s string) (string, bool) {
	token := timeRegex.FindString(s)
	return token, token != ""
}

// FindTimes returns every time-of-day token in s, in order of appearance.
func FindTimes(s string) []string {
	return timeRegex.FindAllString(s, -1)
}

func parsePrice(match []string) int {
	dollars, err := strconv.Atoi(strings.ReplaceAll(match[1], ",", ""))
	if err != nil {
		return 0
	}
	if match[2] != "" {
		cents, _ := strconv.Atoi(match[2])
		if cents >= 50 {
			dollars++
		}
	}
	return dollars
}

// FindPrice returns the first price token in s rounded to whole currency units.
func FindPrice(s string) (int, bool) {
	match := priceRegex.FindStringSubmatch(s)
	if match == nil {
		return 0, false
	}
	return parsePrice(match), true
}

// FindPrices returns every price token in s rounded to whole currency units.
func FindPrices(s string) []int {
	matches := priceRegex.FindAllStringSubmatch(s, -1)
	prices := make([]int, 0, len(matches))
	for _, m := range matches {
		prices = append(prices, parsePrice(m))
	}
	return prices
}

// FindPlayers returns the largest party size mentioned in s, or 0 when s does
// not mention one. "2 - 4 Players" and "up to 3 golfers" both count.
func FindPlayers(s string) int {
	best := 0
	consider := func(digits string) {
		n, err := strconv.Atoi(digits)
		if err == nil && n > best {
			best = n
		}
	}
	for _, m := range rangeRegex.FindAllStringSubmatch(s, -1) {
		consider(m[1])
		consider(m[2])
	}
	for _, m := range upToRegex.FindAllStringSubmatch(s, -1) {
		consider(m[1])
	}
	for _, m := range playersRegex.FindAllStringSubmatch(s, -1) {
		consider(m[1])
	}
	return best
}

// FindHoles returns 9 or 18 when s mentions a hole count, otherwise 0.
func FindHoles(s string) int {
	match := holesRegex.FindStringSubmatch(s)
	if match == nil {
		return 0
	}
	n, _ := strconv.Atoi(match[1])
	return n
}

func HasCart(s string) bool {
	return strings.Contains(strings.ToLower(s), "cart")
}

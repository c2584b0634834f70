package factcheck

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/patterns"
)

// typeCheck is the outcome of a claim-type specific plausibility check.
type typeCheck struct {
	applicable bool
	// adjustment is in [-1, 1] and scaled by the type check weight.
	adjustment float64
	note       string
}

const (
	maxFutureYears   = 1
	maxPercent       = 100
	maxPercentDigits = 2
	overPreciseScale = 0.5
)

var (
	yearPattern    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	percentPattern = regexp.MustCompile(`(\d+(?:\.(\d+))?)\s?(?:%|percent|per cent)`)
	prepositions   = []string{"in ", "at ", "from ", "near "}
)

func checkClaim(c Claim, now time.Time) typeCheck {
	switch c.Type {
	case domain.ClaimDate:
		return checkDate(c.matchesOf(patterns.CatDate), now)
	case domain.ClaimLocation:
		return checkLocation(c.matchesOf(patterns.CatLocation))
	case domain.ClaimStatistic:
		return checkStatistic(c.Text)
	default:
		return typeCheck{}
	}
}

// checkDate passes when every date parses and none is more than a year ahead.
func checkDate(dates []string, now time.Time) typeCheck {
	limit := now.AddDate(maxFutureYears, 0, 0)
	parsed := 0
	for _, raw := range dates {
		t, ok := parseDate(raw)
		if !ok {
			continue
		}
		parsed++
		if t.After(limit) {
			return typeCheck{applicable: true, adjustment: -1, note: "date is more than a year in the future: " + raw}
		}
	}
	if parsed == 0 {
		return typeCheck{applicable: true, note: "date could not be parsed"}
	}
	return typeCheck{applicable: true, adjustment: 1}
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if t, err := dateparse.ParseIn(raw, time.UTC); err == nil {
		return t, true
	}
	if year := yearPattern.FindString(raw); year != "" {
		y, err := strconv.Atoi(year)
		if err == nil {
			return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// checkLocation passes when a named place is a known UAE location.
func checkLocation(places []string) typeCheck {
	for _, raw := range places {
		place := strings.TrimSpace(raw)
		for _, p := range prepositions {
			if len(place) > len(p) && strings.EqualFold(place[:len(p)], p) {
				place = place[len(p):]
				break
			}
		}
		if patterns.IsUAELocation(place) {
			return typeCheck{applicable: true, adjustment: 1}
		}
	}
	return typeCheck{applicable: true, note: "location is not a recognised UAE location"}
}

// checkStatistic fails percentages above 100 and discounts over-precise ones.
// Statistics without a percentage are not checked.
func checkStatistic(text string) typeCheck {
	found := percentPattern.FindAllStringSubmatch(strings.ToLower(text), -1)
	if len(found) == 0 {
		return typeCheck{}
	}
	for _, m := range found {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if v > maxPercent {
			return typeCheck{applicable: true, adjustment: -1, note: "percentage exceeds 100: " + m[0]}
		}
		if len(m[2]) > maxPercentDigits {
			return typeCheck{applicable: true, adjustment: -overPreciseScale, note: "percentage is suspiciously precise: " + m[0]}
		}
	}
	return typeCheck{applicable: true, adjustment: 1}
}

package utils

import (
	"fmt"
	"strings"
	"time"
)

// Accepted maturity layouts, day-first as typed into the pricing form, then ISO
var maturityLayouts = []string{"02/01/2006", "2/1/2006", "2006-01-02"}

// ParseMaturityDate parses a maturity date in dd/mm/yyyy or yyyy-mm-dd form
func ParseMaturityDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range maturityLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid maturity date %q: expected dd/mm/yyyy or yyyy-mm-dd", s)
}

// ThirdFriday returns the standard monthly options expiration of the given month
func ThirdFriday(year int, month time.Month, loc *time.Location) time.Time {
	firstFriday := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	for firstFriday.Weekday() != time.Friday {
		firstFriday = firstFriday.AddDate(0, 0, 1)
	}
	return firstFriday.AddDate(0, 0, 14)
}

// NextOptionsExpiration returns the next monthly third Friday:
// - Third Friday of the current month if we haven't reached the expiration week yet
// - Third Friday of next month if we're in or past the expiration week
func NextOptionsExpiration(now time.Time) time.Time {
	thirdFriday := ThirdFriday(now.Year(), now.Month(), now.Location())
	weekStart := thirdFriday.AddDate(0, 0, -7)

	if !now.Before(weekStart) {
		next := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
		return ThirdFriday(next.Year(), next.Month(), now.Location())
	}
	return thirdFriday
}

// CalculateNextOptionsExpiration returns NextOptionsExpiration(time.Now()) as YYYY-MM-DD
func CalculateNextOptionsExpiration() string {
	return NextOptionsExpiration(time.Now()).Format("2006-01-02")
}

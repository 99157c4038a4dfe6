package utils

import (
	"strconv"
	"strings"
	"time"
)

// ParseSECDate parses the date layouts EDGAR documents use. It returns the
// zero time for empty or unrecognized input.
func ParseSECDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		"2006-01-02",
		"2006-01-02T15:04:05.000Z",
		time.RFC3339,
		"01/02/2006",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// FiscalYearOf returns the year from the leading four characters of an
// ISO date ("2024-09-28" -> 2024), or 0.
func FiscalYearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

// FiscalQuarterOf maps an XBRL fiscal period ("Q1".."Q4", "FY") to a
// quarter number. Annual periods and unknown values map to 0.
func FiscalQuarterOf(fp string) int {
	switch strings.ToUpper(strings.TrimSpace(fp)) {
	case "Q1":
		return 1
	case "Q2":
		return 2
	case "Q3":
		return 3
	case "Q4":
		return 4
	}
	return 0
}

// QuarterOfMonth returns the calendar quarter containing t.
func QuarterOfMonth(t time.Time) int {
	if t.IsZero() {
		return 0
	}
	return (int(t.Month())-1)/3 + 1
}

// OldestFiscalYear returns the earliest fiscal year inside a window of the
// given number of years ending at now. A 1-year window keeps the current
// and prior year so a comparison period is available.
func OldestFiscalYear(now time.Time, years int) int {
	if years < 1 {
		years = 1
	}
	return now.Year() - years
}

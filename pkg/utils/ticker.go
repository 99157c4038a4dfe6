package utils

import (
	"strings"
)

// cikWidth is the zero-padded width EDGAR uses in document paths.
const cikWidth = 10

// NormalizeTicker canonicalizes a ticker for registry lookups: trimmed,
// upper-cased, with share-class dots replaced by dashes ("brk.a" -> "BRK-A").
// Applying it twice yields the same result.
func NormalizeTicker(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	t = strings.TrimPrefix(t, "$")
	return strings.ReplaceAll(t, ".", "-")
}

// IsCIK reports whether s consists only of digits and fits a CIK.
func IsCIK(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > cikWidth {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// PadCIK left-pads a numeric CIK with zeros to ten digits.
func PadCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	if len(cik) >= cikWidth {
		return cik
	}
	return strings.Repeat("0", cikWidth-len(cik)) + cik
}

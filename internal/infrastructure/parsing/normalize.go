package parsing

import (
	"fmt"
	"strings"
	"time"
)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// normalizeAmount strips the currency symbol, spaces, and thousands
// separators: "$1,420.00" -> "1420.00".
func normalizeAmount(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch r {
		case '$', ',', ' ', '\t':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeNumericDate renders an "MM/DD/YYYY" submatch as "Month DD, YYYY".
// Implausible calendar values (month 13, day 32) are rejected.
func normalizeNumericDate(window string, loc []int) (string, bool) {
	month := atoi(window[loc[2]:loc[3]])
	day := atoi(window[loc[4]:loc[5]])
	year := atoi(window[loc[6]:loc[7]])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	return formatDate(time.Month(month), day, year), true
}

// normalizeWrittenDate renders a "Month DD, YYYY" submatch canonically,
// expanding abbreviated month names.
func normalizeWrittenDate(window string, loc []int) (string, bool) {
	prefix := strings.ToLower(window[loc[2]:loc[3]])
	month, ok := monthsByPrefix[prefix]
	if !ok {
		return "", false
	}
	day := atoi(window[loc[4]:loc[5]])
	year := atoi(window[loc[6]:loc[7]])
	if day < 1 || day > 31 {
		return "", false
	}
	return formatDate(month, day, year), true
}

func formatDate(month time.Month, day, year int) string {
	return fmt.Sprintf("%s %d, %d", month.String(), day, year)
}

// standaloneDigits reports whether text[start:end] is a digit token that is
// not embedded in a longer number, a date (2025 in 03/31/2025), or a decimal.
func standaloneDigits(text string, start, end int) bool {
	if start > 0 {
		prev := text[start-1]
		if isDigit(prev) || prev == '/' || prev == '-' || prev == '.' || prev == ',' {
			return false
		}
	}
	if end < len(text) {
		next := text[end]
		if isDigit(next) || next == '/' || next == '-' {
			return false
		}
		if next == '.' && end+1 < len(text) && isDigit(text[end+1]) {
			return false
		}
	}
	return true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func atoi(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return -1
		}
		n = n*10 + int(s[i]-'0')
	}
	return n
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

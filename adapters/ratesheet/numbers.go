// Package ratesheet loads the rate tables from spreadsheet exports.
// Sheets come from local CSV/XLSX files or published CSV URLs. Every number
// is normalized here, so the engine only ever sees typed numeric fields.
package ratesheet

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var numberPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)`)

// ParseDecimal parses a spreadsheet cell such as "€ 1.234,56", "60 kg" or "8,5%".
// When both ',' and '.' occur, '.' groups thousands and ',' is the decimal mark;
// a lone ',' is the decimal mark. Unparsable cells yield zero.
func ParseDecimal(cell string) decimal.Decimal {
	clean := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r), r == '€', r == '%', r == 'k', r == 'g':
			return -1
		}
		return r
	}, strings.ToLower(cell))

	hasComma := strings.Contains(clean, ",")
	switch {
	case hasComma && strings.Contains(clean, "."):
		clean = strings.Replace(strings.ReplaceAll(clean, ".", ""), ",", ".", 1)
	case hasComma:
		clean = strings.Replace(clean, ",", ".", 1)
	}

	match := numberPrefix.FindString(clean)
	if match == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(match, "."))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseNumber is ParseDecimal for quantities (hours, kg, km)
func ParseNumber(cell string) float64 {
	return ParseDecimal(cell).InexactFloat64()
}

// ParseInt truncates a parsed number to an integer
func ParseInt(cell string) int {
	return int(ParseDecimal(cell).IntPart())
}

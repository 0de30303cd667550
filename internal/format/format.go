package format

import (
	"fmt"
	"math"
	"strings"
)

// FmtCurrency formats an amount in minor units for basic currencies.
// Example: FmtCurrency(205000, "USD") => "$2,050.00"
func FmtCurrency(minor int64, currency string) string {
	currency = strings.ToUpper(currency)
	switch currency {
	case "USD":
		neg := minor < 0
		if neg {
			minor = -minor
		}
		major := minor / 100
		cents := minor % 100
		head := thousandSep(major)
		tail := fmt.Sprintf("%02d", cents)
		if neg {
			return "-$" + head + "." + tail
		}
		return "$" + head + "." + tail
	case "JPY":
		return fmt.Sprintf("¥%s", thousandSep(minor))
	default:
		return fmt.Sprintf("%s %s", currency, thousandSep(minor))
	}
}

// FmtPrice formats a major-unit price, e.g. FmtPrice(2050, "USD") => "$2,050.00".
func FmtPrice(major float64, currency string) string {
	return FmtCurrency(int64(math.Round(major*100)), currency)
}

func thousandSep(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	out := ""
	for i, c := range s {
		if i != 0 && (len(s)-i)%3 == 0 {
			out += ","
		}
		out += string(c)
	}
	if neg {
		return "-" + out
	}
	return out
}

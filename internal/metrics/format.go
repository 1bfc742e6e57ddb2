// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"fmt"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatHour renders an hour of the day on a 12-hour clock, e.g. 14 as
// "2:00 PM" and 0 as "12:00 AM".
func FormatHour(h int) string {
	switch {
	case h == 0:
		return "12:00 AM"
	case h < 12:
		return fmt.Sprintf("%d:00 AM", h)
	case h == 12:
		return "12:00 PM"
	default:
		return fmt.Sprintf("%d:00 PM", h-12)
	}
}

// FormatCount renders n with thousands separators.
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatDecimal renders f with prec decimals and thousands separators.
func FormatDecimal(f float64, prec int) string {
	return printer.Sprintf("%."+strconv.Itoa(prec)+"f", f)
}

// FormatMinutes renders a duration in minutes, one decimal.
func FormatMinutes(min float64) string {
	return FormatDecimal(min, 1) + " min"
}

// FormatPercent renders part/total as a whole percentage.
func FormatPercent(part, total int) string {
	if total <= 0 {
		return "0%"
	}
	return printer.Sprintf("%.0f%%", float64(part)*100/float64(total))
}

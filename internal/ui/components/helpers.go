// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"time"
)

// =============================================================================
// SHARED HELPER FUNCTIONS
// =============================================================================

// RelativeDay renders t relative to now in whole days: "Today",
// "Yesterday", "3 days ago", then a calendar date from a week on.
func RelativeDay(t, now time.Time) string {
	days := int(now.Sub(t) / (24 * time.Hour))
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("Jan 2, 2006")
	}
}

// plural returns "1 message" or "n messages".
func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

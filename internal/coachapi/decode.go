// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package coachapi

import (
	"strings"
	"unicode/utf8"
)

// =============================================================================
// INCREMENTAL UTF-8 DECODER
// =============================================================================

// textDecoder turns arbitrary byte chunks into valid UTF-8 text. A multi-byte
// character split across two reads is held back until it is complete, so a
// chunk boundary never produces a replacement character. Genuinely invalid
// bytes become U+FFFD.
type textDecoder struct {
	carry []byte
}

// Decode returns the text completed by p. It may return "" when p only
// contains the start of a character.
func (d *textDecoder) Decode(p []byte) string {
	data := p
	if len(d.carry) > 0 {
		data = append(d.carry, p...)
		d.carry = nil
	}

	cut := len(data)
	for i := len(data) - 1; i >= 0 && i >= len(data)-utf8.UTFMax; i-- {
		if utf8.RuneStart(data[i]) {
			if !utf8.FullRune(data[i:]) {
				cut = i
			}
			break
		}
	}
	if cut < len(data) {
		d.carry = append([]byte(nil), data[cut:]...)
	}

	return strings.ToValidUTF8(string(data[:cut]), string(utf8.RuneError))
}

// Flush returns whatever is left at end of stream. An incomplete trailing
// character is reported as U+FFFD.
func (d *textDecoder) Flush() string {
	if len(d.carry) == 0 {
		return ""
	}
	d.carry = nil
	return string(utf8.RuneError)
}

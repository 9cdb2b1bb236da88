package shared

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf16"
)

// DecodeText strips the encoding artifacts that library exports tend to carry:
// HTML entities ("Guns &amp; Roses") and literal \uXXXX escape sequences
// ("Beyoncé"). The result is what gets used for search queries and
// destination playlist names.
func DecodeText(s string) string {
	return html.UnescapeString(decodeUnicodeEscapes(s))
}

// TrackQuery builds the destination search query for a track: "{name} {artists}".
func TrackQuery(name, artists string) string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", DecodeText(name), DecodeText(artists)))
}

// decodeUnicodeEscapes replaces literal \uXXXX sequences with the runes they
// encode, pairing UTF-16 surrogates. Malformed sequences are left untouched.
func decodeUnicodeEscapes(s string) string {
	if !strings.Contains(s, `\u`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		if s[i] == '\\' && i+5 < len(s) && s[i+1] == 'u' {
			if r, ok := parseHex4(s[i+2 : i+6]); ok {
				if utf16.IsSurrogate(rune(r)) && i+11 < len(s) && s[i+6] == '\\' && s[i+7] == 'u' {
					if r2, ok2 := parseHex4(s[i+8 : i+12]); ok2 {
						if dec := utf16.DecodeRune(rune(r), rune(r2)); dec != 0xFFFD {
							b.WriteRune(dec)
							i += 12
							continue
						}
					}
				}
				b.WriteRune(rune(r))
				i += 6
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}

	return b.String()
}

func parseHex4(s string) (uint32, bool) {
	var v uint32
	for i := 0; i < 4; i++ {
		c := s[i]
		v <<= 4
		switch {
		case c >= '0' && c <= '9':
			v |= uint32(c - '0')
		case c >= 'a' && c <= 'f':
			v |= uint32(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v |= uint32(c-'A') + 10
		default:
			return 0, false
		}
	}
	return v, true
}

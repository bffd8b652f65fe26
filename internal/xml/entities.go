package xml

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

var predefined = map[string]rune{
	"lt":   '<',
	"gt":   '>',
	"amp":  '&',
	"quot": '"',
	"apos": '\'',
}

// maxEntityLen bounds the scan for the terminating ';' of a reference.
const maxEntityLen = 32

// decodeEntity resolves the body of a reference (the text between '&' and
// ';'). It returns false for unknown names and invalid code points.
func decodeEntity(body string) (rune, bool) {
	if r, ok := predefined[body]; ok {
		return r, true
	}
	if !strings.HasPrefix(body, "#") {
		return 0, false
	}

	digits, base := body[1:], 10
	if strings.HasPrefix(digits, "x") || strings.HasPrefix(digits, "X") {
		digits, base = digits[1:], 16
	}
	if digits == "" || strings.ContainsAny(digits, "+-_") {
		return 0, false
	}
	n, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		return 0, false
	}
	r := rune(n)
	if r == 0 || !utf8.ValidRune(r) {
		return 0, false
	}
	return r, true
}

var (
	textEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	)
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"\t", "&#9;",
		"\n", "&#10;",
		"\r", "&#13;",
	)
)

// EscapeText encodes s for use as element content.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

// EscapeAttr encodes s for use inside a double-quoted attribute value.
func EscapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

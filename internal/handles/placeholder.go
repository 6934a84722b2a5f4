package handles

import (
	"encoding/base64"
	"fmt"
	"html"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Placeholder colours and glyph.
const (
	placeholderBackground = "#373737"
	placeholderForeground = "#8b5cf6"
	placeholderGlyph      = "?"
)

// Placeholder returns a deterministic SVG data URL showing the first
// character of seed, uppercased, or "?" when seed is empty.
func Placeholder(seed string) string {
	glyph := placeholderGlyph
	if r, _ := utf8.DecodeRuneInString(seed); r != utf8.RuneError && !unicode.IsSpace(r) {
		glyph = string(unicode.ToUpper(r))
	}

	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="150" height="150" viewBox="0 0 150 150">`+
		`<rect width="100%%" height="100%%" fill="%s"/>`+
		`<text x="50%%" y="50%%" font-family="Arial, sans-serif" font-size="75" fill="%s" `+
		`text-anchor="middle" dominant-baseline="central">%s</text></svg>`,
		placeholderBackground, placeholderForeground, html.EscapeString(glyph))

	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}

// IsPlaceholder reports whether url is a generated placeholder.
func IsPlaceholder(url string) bool {
	return strings.HasPrefix(url, "data:")
}

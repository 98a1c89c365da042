package render

import (
	"strconv"
	"strings"
	"text/template"
	"unicode"
)

func funcs(sheetName string) template.FuncMap {
	return template.FuncMap{
		"px":              px,
		"neg":             func(v int) int { return -v },
		"ident":           ident,
		"lower":           strings.ToLower,
		"upper":           strings.ToUpper,
		"quote":           strconv.Quote,
		"spritesheetName": func() string { return sheetName },
	}
}

// px formats a pixel length, leaving zero unitless.
func px(v int) string {
	if v == 0 {
		return "0"
	}
	return strconv.Itoa(v) + "px"
}

// ident turns a logical name into a CSS identifier fragment.
func ident(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '-' || r == '_' || unicode.IsLetter(r):
			b.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				b.WriteString("_")
			}
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}

// EscapeCodepoint renders a code point as a CSS escape: backslash followed by
// upper-case hex digits.
func EscapeCodepoint(cp rune) string {
	return `\` + strings.ToUpper(strconv.FormatInt(int64(cp), 16))
}

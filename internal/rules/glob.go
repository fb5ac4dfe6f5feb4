package rules

import (
	"regexp"
	"strings"
)

// compileGlob translates a glob-style pattern into an anchored regexp.
// '*' matches any run of characters; '?' matches a single character.
// With segmented=true (path patterns), '*' stops at '/' and '**' crosses
// segments; a leading "**/" also matches zero directories so "**/x"
// catches a top-level "x".
func compileGlob(pattern string, segmented bool) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '*':
			if segmented && i+1 < len(pattern) && pattern[i+1] == '*' {
				i++
				if i+1 < len(pattern) && pattern[i+1] == '/' {
					i++
					b.WriteString(`(?:.*/)?`)
				} else {
					b.WriteString(`.*`)
				}
			} else if segmented {
				b.WriteString(`[^/]*`)
			} else {
				b.WriteString(`.*`)
			}
		case '?':
			b.WriteString(`.`)
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

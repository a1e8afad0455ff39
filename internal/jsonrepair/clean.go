package jsonrepair

import (
	"regexp"
	"strings"
)

// fenceRe matches markdown code fences together with the language token
// models habitually attach to them.
var fenceRe = regexp.MustCompile("```(?:json|python|yaml)?")

// schemeLiterals are stripped wherever they appear. Models tend to emit them
// half-escaped inside near-JSON, and the downstream matching only needs the
// link tail to be stable.
var schemeLiterals = []string{"https://", "http://", "https:", "http:"}

// Clean strips the known non-JSON artifacts from raw model output: code
// fences and their language tokens, URL scheme literals, backslashes,
// carriage returns, and runs of whitespace. The result is a single-line
// string ready for the parse ladder.
func Clean(raw string) string {
	s := strings.ReplaceAll(raw, "\r", "")
	s = fenceRe.ReplaceAllString(s, "")
	for _, lit := range schemeLiterals {
		s = strings.ReplaceAll(s, lit, "")
	}
	s = strings.ReplaceAll(s, "\\", "")
	return strings.Join(strings.Fields(s), " ")
}

// Package jsonrepair recovers structured data from LLM output. Model
// responses are not trustworthy JSON by construction, so parsing runs as a
// ladder of strategies, each more permissive and more lossy than the last,
// and never fails past this boundary: the worst case degrades to the cleaned
// input string so callers can persist it for later reprocessing.
package jsonrepair

import (
	"encoding/json"
	"regexp"
	"strings"
)

// bareKeyRe quotes unquoted identifier keys, e.g. `title:` -> `"title":`.
var bareKeyRe = regexp.MustCompile(`(\w+):`)

// Repair runs the full ladder on raw model output:
//
//  1. clean known non-JSON artifacts,
//  2. strict JSON parse,
//  3. permissive literal-expression parse,
//  4. best-effort key quoting and strict re-parse.
//
// The boolean reports whether a structured value was recovered. When false,
// the returned value is the cleaned input string, unchanged.
func Repair(raw string) (any, bool) {
	cleaned := Clean(raw)

	if val, ok := parseStrict(cleaned); ok {
		return val, true
	}

	if val, err := parseLiteral(cleaned); err == nil {
		return val, true
	}

	if val, ok := requoteAndParse(cleaned); ok {
		return val, true
	}

	return cleaned, false
}

func parseStrict(s string) (any, bool) {
	var val any
	if err := json.Unmarshal([]byte(s), &val); err != nil {
		return nil, false
	}
	return val, true
}

// requoteAndParse is the last structured rung: strip misplaced outer braces,
// quote bare identifier keys, re-wrap, and try strict JSON once more.
func requoteAndParse(s string) (any, bool) {
	stripped := strings.Trim(s, "{}")
	requoted := bareKeyRe.ReplaceAllString(stripped, `"$1":`)
	return parseStrict("{" + requoted + "}")
}

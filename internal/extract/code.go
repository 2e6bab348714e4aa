package extract

import (
	"strings"

	"go.uber.org/zap"
)

// CodeUnknown is the sentinel department code used when no mapping or
// acronym can be derived.
const CodeUnknown = "UNK"

// DeriveCode maps a department name (and optionally its URL) to a
// short code. The strategies are tried in priority order:
//
//  1. name fragment match against the configured code table
//  2. hyphenated fragment match against the URL path
//  3. acronym from the first three capitalized words of the name
//  4. the CodeUnknown sentinel
//
// The function is total and deterministic: it always returns a
// non-empty code.
func (e *Extractor) DeriveCode(name, url string) string {
	lowerName := strings.ToLower(name)
	for _, key := range e.codeKeys {
		if strings.Contains(lowerName, key) {
			return e.deptCodes[key]
		}
	}

	if url != "" {
		lowerURL := strings.ToLower(url)
		for _, key := range e.codeKeys {
			if strings.Contains(lowerURL, strings.ReplaceAll(key, " ", "-")) {
				return e.deptCodes[key]
			}
		}
	}

	if acr := Acronym(name); acr != "" {
		return acr
	}

	e.logger.Warn("could not determine department code", zap.String("department", name))
	return CodeUnknown
}

// Acronym builds a code from the initials of up to the first three
// capitalized words of name. Returns "" when name has no capitalized
// words.
func Acronym(name string) string {
	words := reAcronymWord.FindAllString(name, 3)
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	for _, w := range words {
		b.WriteByte(w[0])
	}
	return strings.ToUpper(b.String())
}

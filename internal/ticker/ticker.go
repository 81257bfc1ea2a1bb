// Package ticker cleans user supplied ticker symbols and expands them into
// the exchange-qualified candidates tried against the market data provider.
package ticker

import (
	"strings"
	"unicode"
)

const indexPrefix = "^"

// Sanitize trims, uppercases and strips spaces and commas from raw. A
// single-element list such as ['tcs'] or ["TCS"] is unwrapped first. ok is
// false when the input is empty, lists several symbols or contains
// characters that cannot appear in a symbol.
func Sanitize(raw string) (symbol string, ok bool) {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		inner := strings.TrimSpace(s[1 : len(s)-1])
		parts := 0
		for _, p := range strings.Split(inner, ",") {
			if strings.Trim(p, " \t'\"") != "" {
				parts++
			}
		}
		if parts != 1 {
			return "", false
		}
		s = inner
	}

	s = strings.Trim(s, " \t'\"")
	s = strings.ToUpper(s)
	s = strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	if s == "" {
		return "", false
	}
	for _, r := range s {
		if !validRune(r) {
			return "", false
		}
	}
	return s, true
}

func validRune(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '-', r == '^', r == '&', r == '_', r == '=':
		return true
	}
	return false
}

// Normalizer expands a sanitized symbol into provider candidates.
type Normalizer struct {
	Primary    string
	Alternate  string
	Recognized []string
}

// NewNormalizer builds a Normalizer. The primary and alternate suffixes are
// always recognized.
func NewNormalizer(primary, alternate string, recognized ...string) Normalizer {
	n := Normalizer{Primary: strings.ToUpper(primary), Alternate: strings.ToUpper(alternate)}
	seen := map[string]bool{}
	for _, s := range append([]string{primary, alternate}, recognized...) {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		n.Recognized = append(n.Recognized, s)
	}
	return n
}

// HasSuffix reports whether symbol already carries a recognized market suffix.
func (n Normalizer) HasSuffix(symbol string) bool {
	for _, s := range n.Recognized {
		if strings.HasSuffix(symbol, s) && len(symbol) > len(s) {
			return true
		}
	}
	return false
}

// Candidates returns the symbols to try in order: primary suffix, alternate
// suffix, then the raw symbol. Index symbols and symbols that already carry a
// recognized suffix are tried as given.
func (n Normalizer) Candidates(symbol string) []string {
	if symbol == "" {
		return nil
	}
	if strings.HasPrefix(symbol, indexPrefix) || n.HasSuffix(symbol) {
		return []string{symbol}
	}

	out := make([]string, 0, 3)
	seen := map[string]bool{}
	for _, c := range []string{symbol + n.Primary, symbol + n.Alternate, symbol} {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

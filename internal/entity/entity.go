// Package entity extracts lightweight domain entities (ticker symbols, URLs,
// and blockchain-style addresses) from raw message text. Extraction is a pure
// function: no side effects, no shared mutable state, deterministic output
// for identical input.
package entity

import (
	"regexp"
	"strings"
)

// MaxPerKind caps each entity family in a Set.
const MaxPerKind = 6

var (
	urlRe = regexp.MustCompile(`https?://\S+`)

	// Cashtag-style tickers: $-prefixed tokens may be any case, bare tokens
	// must already be upper-case. Word boundaries are enforced manually
	// because the $ marker sits outside \b.
	taggedTickerRe = regexp.MustCompile(`\$[A-Za-z0-9]{2,10}`)
	bareTickerRe   = regexp.MustCompile(`[A-Z0-9]{2,10}`)

	hexAddrRe = regexp.MustCompile(`0x[0-9a-fA-F]{40}`)

	// Base58-style addresses use an alphabet excluding 0, O, I, and l.
	base58Re = regexp.MustCompile(`[1-9A-HJ-NP-Za-km-z]{32,44}`)
)

// Set is the deduplicated, capped collection of entities found in a piece of
// text. Order within each slice is first-match order.
type Set struct {
	Tickers   []string
	URLs      []string
	Contracts []string
}

// IsEmpty reports whether the set contains no entities of any kind.
func (s Set) IsEmpty() bool {
	return len(s.Tickers) == 0 && len(s.URLs) == 0 && len(s.Contracts) == 0
}

// Union merges other into a copy of s, preserving first-appearance order and
// re-applying the per-kind caps.
func (s Set) Union(other Set) Set {
	return Set{
		Tickers:   dedupeCap(append(append([]string{}, s.Tickers...), other.Tickers...)),
		URLs:      dedupeCap(append(append([]string{}, s.URLs...), other.URLs...)),
		Contracts: dedupeCap(append(append([]string{}, s.Contracts...), other.Contracts...)),
	}
}

// Extract scans text and returns the entity set found in it.
//
// URLs are located first and masked out, then contract addresses, then
// tickers, so a token never lands in more than one family (a hex address is
// never also a ticker, a URL host is never an address).
func Extract(text string) Set {
	var set Set

	masked := []byte(text)

	for _, span := range urlRe.FindAllStringIndex(text, -1) {
		set.URLs = append(set.URLs, text[span[0]:span[1]])
		mask(masked, span[0], span[1])
	}

	withoutURLs := string(masked)
	for _, span := range hexAddrRe.FindAllStringIndex(withoutURLs, -1) {
		if !wholeWord(withoutURLs, span[0], span[1]) {
			continue
		}
		set.Contracts = append(set.Contracts, withoutURLs[span[0]:span[1]])
		mask(masked, span[0], span[1])
	}
	withoutHex := string(masked)
	for _, span := range base58Re.FindAllStringIndex(withoutHex, -1) {
		token := withoutHex[span[0]:span[1]]
		if len(token) < 36 || !wholeWord(withoutHex, span[0], span[1]) {
			continue
		}
		set.Contracts = append(set.Contracts, token)
		mask(masked, span[0], span[1])
	}

	remaining := string(masked)
	set.Tickers = append(set.Tickers, findTickers(remaining, taggedTickerRe)...)
	set.Tickers = append(set.Tickers, findTickers(remaining, bareTickerRe)...)

	set.Tickers = dedupeCap(set.Tickers)
	set.URLs = dedupeCap(set.URLs)
	set.Contracts = dedupeCap(set.Contracts)
	return set
}

func findTickers(text string, re *regexp.Regexp) []string {
	var out []string
	for _, span := range re.FindAllStringIndex(text, -1) {
		if !wholeWord(text, span[0], span[1]) {
			continue
		}
		token := strings.TrimPrefix(text[span[0]:span[1]], "$")
		// All-digit tokens ("24", "100") are noise, not tickers.
		if !containsLetter(token) {
			continue
		}
		out = append(out, strings.ToUpper(token))
	}
	return out
}

// wholeWord reports whether the match at [start, end) has no alphanumeric
// character immediately before or after it. A $ marker before the match is
// treated as part of the token.
func wholeWord(text string, start, end int) bool {
	if start > 0 {
		prev := text[start-1]
		if isAlnum(prev) || prev == '$' {
			return false
		}
	}
	if end < len(text) && isAlnum(text[end]) {
		return false
	}
	return true
}

func isAlnum(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func containsLetter(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
			return true
		}
	}
	return false
}

func mask(buf []byte, start, end int) {
	for i := start; i < end; i++ {
		buf[i] = ' '
	}
}

func dedupeCap(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
		if len(out) == MaxPerKind {
			break
		}
	}
	return out
}

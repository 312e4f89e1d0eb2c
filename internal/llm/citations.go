package llm

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrCitationLeak is returned when generated text cites a URL outside the allowlist
var ErrCitationLeak = errors.New("citation leak")

// Parentheses are matched so paths like /wiki/Foo_(bar) survive; trimURL
// drops the unbalanced closing one of "(see https://...)".
var urlPattern = regexp.MustCompile(`https?://[^\s\]>"']+`)

// ExtractURLs extracts all unique http(s) URLs from text, in order of appearance
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)

	seen := make(map[string]bool)
	var unique []string
	for _, url := range matches {
		url = trimURL(url)
		if !seen[url] {
			seen[url] = true
			unique = append(unique, url)
		}
	}

	return unique
}

// trimURL strips trailing sentence punctuation and unbalanced closing parentheses
func trimURL(u string) string {
	for {
		before := len(u)
		u = strings.TrimRight(u, ".,;:!?")
		if strings.HasSuffix(u, ")") && strings.Count(u, ")") > strings.Count(u, "(") {
			u = u[:len(u)-1]
		}
		if len(u) == before {
			return u
		}
	}
}

// CheckCitations verifies that every URL cited in text is in the allowlist.
// It returns the cited URLs; a disallowed URL yields ErrCitationLeak.
func CheckCitations(text string, allowed []string) ([]string, error) {
	cited := ExtractURLs(text)
	for _, url := range cited {
		if !contains(allowed, url) {
			return cited, fmt.Errorf("%w: model cited disallowed URL %s", ErrCitationLeak, url)
		}
	}
	return cited, nil
}

// contains checks if a slice contains a string, ignoring a trailing slash
func contains(slice []string, item string) bool {
	item = strings.TrimSuffix(item, "/")
	for _, s := range slice {
		if strings.TrimSuffix(s, "/") == item {
			return true
		}
	}
	return false
}

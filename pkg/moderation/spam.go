package moderation

import (
	"regexp"
	"strings"
)

const (
	// MinTextLength is the shortest text, in characters, not treated as spam.
	MinTextLength = 10

	charRunLimit        = 6 // consecutive identical characters
	tokenRepeatLimit    = 5 // occurrences a token may have before it is flooding
	repeatedTokenMinLen = 3 // tokens this short or shorter are never counted
	linkLimit           = 2
)

var linkPattern = regexp.MustCompile(`https?://\S+|www\.\S+`)

func isTooShort(length int) bool {
	return length < MinTextLength
}

// isRepetitive expects lower-cased text.
func isRepetitive(normalized string) bool {
	return hasCharRun(normalized) || hasTokenFlood(normalized)
}

// hasCharRun is a linear scan since RE2 has no backreferences. Line breaks
// never count as part of a run.
func hasCharRun(text string) bool {
	var (
		prev rune
		run  int
	)
	for _, r := range text {
		if r == '\n' || r == '\r' {
			run = 0
			continue
		}
		if run > 0 && r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run >= charRunLimit {
			return true
		}
	}
	return false
}

func hasTokenFlood(text string) bool {
	counts := make(map[string]int)
	for _, token := range strings.Fields(text) {
		if len([]rune(token)) <= repeatedTokenMinLen {
			continue
		}
		counts[token]++
		if counts[token] > tokenRepeatLimit {
			return true
		}
	}
	return false
}

// hasSuspiciousLinks tolerates up to linkLimit URLs.
func hasSuspiciousLinks(normalized string) bool {
	return len(linkPattern.FindAllStringIndex(normalized, linkLimit+1)) > linkLimit
}

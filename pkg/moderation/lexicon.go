package moderation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/cloudflare/ahocorasick"
)

// Mask replaces every profanity occurrence in CleanText output. Redaction
// masks exactly the occurrences HasProfanity detects.
const Mask = "***"

// ToxicClusterThreshold is the number of distinct toxic keyword clusters that
// must match before a text counts as toxic.
const ToxicClusterThreshold = 2

// Lexicon holds the compiled vocabulary. It is read-only after NewLexicon and
// safe for concurrent use.
type Lexicon struct {
	profanity *ahocorasick.Matcher
	redactors []*regexp.Regexp
	toxic     []*regexp.Regexp
}

// NewLexicon compiles a vocabulary into matchers.
func NewLexicon(v Vocabulary) (*Lexicon, error) {
	v, err := v.normalized()
	if err != nil {
		return nil, err
	}

	l := Lexicon{
		profanity: ahocorasick.NewStringMatcher(v.Profanity),
		redactors: make([]*regexp.Regexp, 0, len(v.Profanity)),
		toxic:     make([]*regexp.Regexp, 0, len(v.ToxicClusters)),
	}

	for _, term := range v.Profanity {
		re, err := regexp.Compile(regexp.QuoteMeta(term))
		if err != nil {
			return nil, fmt.Errorf("failed to compile profanity term %q: %w", term, err)
		}
		l.redactors = append(l.redactors, re)
	}

	for _, cluster := range v.ToxicClusters {
		re, err := compileCluster(cluster)
		if err != nil {
			return nil, err
		}
		l.toxic = append(l.toxic, re)
	}

	return &l, nil
}

// DefaultLexicon compiles DefaultVocabulary.
func DefaultLexicon() (*Lexicon, error) {
	v, err := DefaultVocabulary()
	if err != nil {
		return nil, err
	}

	return NewLexicon(v)
}

// compileCluster builds a case-insensitive alternation bounded by anything that
// is not a letter, digit or underscore. RE2's \b only knows ASCII, which would
// split words like "estúpido" in the middle.
func compileCluster(words []string) (*regexp.Regexp, error) {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}

	pattern := `(?i)(?:^|[^\p{L}\p{N}_])(?:` + strings.Join(quoted, "|") + `)(?:[^\p{L}\p{N}_]|$)`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile toxic cluster %v: %w", words, err)
	}

	return re, nil
}

// HasProfanity reports whether any profanity term occurs anywhere in text,
// including inside longer words.
func (l *Lexicon) HasProfanity(text string) bool {
	return l.hasProfanity(strings.ToLower(text))
}

func (l *Lexicon) hasProfanity(normalized string) bool {
	return len(l.profanity.MatchThreadSafe([]byte(normalized))) > 0
}

// HasToxicKeywords reports whether at least ToxicClusterThreshold keyword
// clusters match text as whole words.
func (l *Lexicon) HasToxicKeywords(text string) bool {
	return l.toxicClusters(text) >= ToxicClusterThreshold
}

// toxicClusters counts the clusters with at least one whole-word match.
func (l *Lexicon) toxicClusters(text string) int {
	n := 0
	for _, re := range l.toxic {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}

// Redact masks every occurrence of each profanity term with Mask, one pass
// per term in vocabulary order. Terms are matched against the lower-cased text
// exactly as HasProfanity does.
func (l *Lexicon) Redact(text string) string {
	if text == "" {
		return ""
	}

	for _, re := range l.redactors {
		text = redact(text, re)
	}
	return text
}

// redact replaces the matches of re in the lower-cased form of text.
// unicode.ToLower maps rune to rune, so a match spans the same runes in both.
func redact(text string, re *regexp.Regexp) string {
	runes := []rune(text)
	starts := make([]int, 0, len(runes)+1)
	var lower strings.Builder
	for _, r := range runes {
		starts = append(starts, lower.Len())
		lower.WriteRune(unicode.ToLower(r))
	}
	starts = append(starts, lower.Len())

	matches := re.FindAllStringIndex(lower.String(), -1)
	if matches == nil {
		return text
	}

	var b strings.Builder
	prev := 0
	for _, m := range matches {
		from, _ := slices.BinarySearch(starts, m[0])
		to, _ := slices.BinarySearch(starts, m[1])
		b.WriteString(string(runes[prev:from]))
		b.WriteString(Mask)
		prev = to
	}
	b.WriteString(string(runes[prev:]))

	return b.String()
}

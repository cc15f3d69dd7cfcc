// Package sentiment provides the sentiment scorers the moderation engine can
// be wired with: a built-in word lexicon, a remote HTTP service, a Redis
// backed cache and a neutral fallback.
package sentiment

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"
)

//go:embed lexicon.json
var defaultLexicon []byte

// Scorer returns a signed valence score for text.
type Scorer interface {
	Score(ctx context.Context, text string) (int, error)
}

const negationWindow = 2

// negators flip the valence of the negationWindow words that follow them, so
// that "no me gustó" reads as negative.
var negators = map[string]bool{
	"no":    true,
	"ni":    true,
	"nunca": true,
	"jamás": true,
	"not":   true,
	"never": true,
}

// Result is the breakdown of a lexicon analysis.
type Result struct {
	Score       int      `json:"score"`
	Comparative float64  `json:"comparative"`
	Tokens      int      `json:"tokens"`
	Positive    []string `json:"positive"`
	Negative    []string `json:"negative"`
}

// Lexicon scores text by summing word valences. It is read-only after
// construction and safe for concurrent use.
type Lexicon struct {
	words map[string]int
}

// NewLexicon returns a Lexicon over the embedded es/en word list.
func NewLexicon() (*Lexicon, error) {
	return parseLexicon(defaultLexicon)
}

// LoadLexicon reads a word->valence JSON object from path.
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return parseLexicon(data)
}

func parseLexicon(data []byte) (*Lexicon, error) {
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode sentiment lexicon: %w", err)
	}

	words := make(map[string]int, len(raw))
	for w, v := range raw {
		words[strings.ToLower(w)] = v
	}

	return &Lexicon{words: words}, nil
}

// Analyze tokenizes text on anything that is not a letter and sums the
// valence of known words.
func (l *Lexicon) Analyze(text string) Result {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	res := Result{
		Tokens:   len(tokens),
		Positive: []string{},
		Negative: []string{},
	}

	for i, tok := range tokens {
		v, ok := l.words[tok]
		if !ok {
			continue
		}
		if negated(tokens, i) {
			v = -v
		}

		switch {
		case v > 0:
			res.Positive = append(res.Positive, tok)
		case v < 0:
			res.Negative = append(res.Negative, tok)
		}
		res.Score += v
	}

	if res.Tokens > 0 {
		res.Comparative = float64(res.Score) / float64(res.Tokens)
	}

	return res
}

func negated(tokens []string, i int) bool {
	for j := i - 1; j >= 0 && j >= i-negationWindow; j-- {
		if negators[tokens[j]] {
			return true
		}
	}
	return false
}

// Score implements Scorer. It never fails.
func (l *Lexicon) Score(_ context.Context, text string) (int, error) {
	return l.Analyze(text).Score, nil
}

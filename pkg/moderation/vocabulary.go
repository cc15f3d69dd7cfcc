package moderation

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrEmptyTerm       = errors.New("vocabulary contains an empty term")
	ErrMaskInTerm      = fmt.Errorf("vocabulary term contains the mask %q", Mask)
	ErrNoToxicClusters = errors.New("vocabulary has no toxic keyword clusters")
)

//go:embed vocabulary.json
var defaultVocabulary []byte

// Vocabulary is the raw word list the Lexicon is built from.
type Vocabulary struct {
	// Profanity terms are matched as plain substrings of the lower-cased text.
	Profanity []string `json:"profanity"`
	// ToxicClusters groups near-synonyms; a cluster counts once however many
	// of its words appear.
	ToxicClusters [][]string `json:"toxic_clusters"`
}

// DefaultVocabulary returns the bilingual (es/en) word lists shipped with the package.
func DefaultVocabulary() (Vocabulary, error) {
	return parseVocabulary(defaultVocabulary)
}

// LoadVocabulary reads a vocabulary from a JSON file.
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, err
	}

	return parseVocabulary(data)
}

func parseVocabulary(data []byte) (Vocabulary, error) {
	var v Vocabulary
	if err := json.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("failed to decode vocabulary: %w", err)
	}

	return v.normalized()
}

// normalized returns a copy with every term lower-cased. Terms that would break
// redaction are rejected.
func (v Vocabulary) normalized() (Vocabulary, error) {
	out := Vocabulary{
		Profanity:     make([]string, 0, len(v.Profanity)),
		ToxicClusters: make([][]string, 0, len(v.ToxicClusters)),
	}

	for _, term := range v.Profanity {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			return Vocabulary{}, ErrEmptyTerm
		}
		if strings.Contains(term, "*") {
			return Vocabulary{}, fmt.Errorf("%w: %q", ErrMaskInTerm, term)
		}
		out.Profanity = append(out.Profanity, term)
	}

	if len(v.ToxicClusters) == 0 {
		return Vocabulary{}, ErrNoToxicClusters
	}
	for _, cluster := range v.ToxicClusters {
		if len(cluster) == 0 {
			return Vocabulary{}, ErrEmptyTerm
		}
		words := make([]string, 0, len(cluster))
		for _, word := range cluster {
			word = strings.ToLower(strings.TrimSpace(word))
			if word == "" {
				return Vocabulary{}, ErrEmptyTerm
			}
			words = append(words, word)
		}
		out.ToxicClusters = append(out.ToxicClusters, words)
	}

	return out, nil
}

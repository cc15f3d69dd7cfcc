// Package moderation classifies book reviews into approval verdicts using
// lexical, structural and sentiment heuristics.

// Important notice: vocabulary.json and the test files contain explicit
// language required to exercise the matchers. These examples:
// - Are intentionally offensive to test edge cases
// - Do not represent the authors' views
// - Should be treated as technical test artifacts only
package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrSentiment wraps every error returned by the SentimentScorer.
var ErrSentiment = errors.New("sentiment analysis failed")

// SentimentScorer returns a signed valence score for text. Implementations
// must be deterministic for AnalyzeReview to be.
type SentimentScorer interface {
	Score(ctx context.Context, text string) (int, error)
}

// Engine is stateless per call and safe for concurrent use.
type Engine struct {
	scorer  SentimentScorer
	lexicon *Lexicon
}

// New returns an Engine that owns lexicon and asks scorer for sentiment.
func New(scorer SentimentScorer, lexicon *Lexicon) *Engine {
	return &Engine{scorer: scorer, lexicon: lexicon}
}

// input is what every check sees for a single review.
type input struct {
	text       string
	normalized string
	length     int
	rating     int
	sentiment  int
}

type check struct {
	reason string
	raises Flags
	match  func(l *Lexicon, in input) bool
}

// checks run in this order; Verdict.Reasons keeps it.
var checks = []check{
	{
		reason: ReasonProfanity,
		raises: Flags{Profanity: true},
		match:  func(l *Lexicon, in input) bool { return l.hasProfanity(in.normalized) },
	},
	{
		reason: ReasonTooShort,
		raises: Flags{Spam: true},
		match:  func(_ *Lexicon, in input) bool { return isTooShort(in.length) },
	},
	{
		reason: ReasonRepetitive,
		raises: Flags{Spam: true},
		match:  func(_ *Lexicon, in input) bool { return isRepetitive(in.normalized) },
	},
	{
		reason: ReasonSuspiciousLinks,
		raises: Flags{Spam: true},
		match:  func(_ *Lexicon, in input) bool { return hasSuspiciousLinks(in.normalized) },
	},
	{
		reason: ReasonRatingMismatch,
		raises: Flags{NegativeSentiment: true},
		match:  func(_ *Lexicon, in input) bool { return ratingMismatch(in.rating, in.sentiment) },
	},
	{
		reason: ReasonExtremeNegativity,
		raises: Flags{NegativeSentiment: true, Toxicity: true},
		match:  func(_ *Lexicon, in input) bool { return extremelyNegative(in.sentiment) },
	},
	{
		reason: ReasonToxicContent,
		raises: Flags{Toxicity: true},
		match:  func(l *Lexicon, in input) bool { return l.HasToxicKeywords(in.text) },
	},
}

// AnalyzeReview scores text and rating and returns the verdict. The scorer is
// called exactly once; its error is the only one AnalyzeReview can return.
func (e *Engine) AnalyzeReview(ctx context.Context, text string, rating int) (Verdict, error) {
	sentiment, err := e.scorer.Score(ctx, text)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %w", ErrSentiment, err)
	}

	in := input{
		text:       text,
		normalized: strings.ToLower(text),
		length:     utf8.RuneCountInString(text),
		rating:     rating,
		sentiment:  sentiment,
	}

	var flags Flags
	reasons := []string{}
	for _, c := range checks {
		if c.match(e.lexicon, in) {
			flags = flags.merge(c.raises)
			reasons = append(reasons, c.reason)
		}
	}

	score := aggregate(flags, in.length, sentiment)

	return Verdict{
		IsApproved:       approved(score, flags),
		Score:            score,
		Reasons:          reasons,
		SentimentScore:   sentiment,
		HasProfanity:     flags.Profanity,
		ShouldAutoReject: autoReject(score, flags, sentiment),
		Flags:            flags,
	}, nil
}

// CleanText masks profanity in text. It does not call the scorer.
func (e *Engine) CleanText(text string) string {
	return e.lexicon.Redact(text)
}

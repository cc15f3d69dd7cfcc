package moderation

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
)

type fixedScorer int

func (s fixedScorer) Score(context.Context, string) (int, error) {
	return int(s), nil
}

type failingScorer struct {
	err error
}

func (s failingScorer) Score(context.Context, string) (int, error) {
	return 0, s.err
}

// countingScorer records how many times it was asked.
type countingScorer struct {
	mu    sync.Mutex
	calls int
	score int
}

func (s *countingScorer) Score(context.Context, string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.score, nil
}

func newTestEngine(t *testing.T, scorer SentimentScorer) *Engine {
	t.Helper()

	lexicon, err := DefaultLexicon()
	if err != nil {
		t.Fatalf("failed to build default lexicon: %v", err)
	}

	return New(scorer, lexicon)
}

func TestEngine_AnalyzeReview(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		rating    int
		sentiment int
		want      Verdict
	}{
		{
			name:      "clean positive review",
			text:      "Este libro es muy interesante, lo disfruté bastante. Recomendado para todo lector.",
			rating:    4,
			sentiment: 2,
			want: Verdict{
				IsApproved:     true,
				Score:          100,
				Reasons:        []string{},
				SentimentScore: 2,
			},
		},
		{
			name:   "profanity",
			text:   "Este libro es una mierda total",
			rating: 1,
			want: Verdict{
				Score:        60,
				Reasons:      []string{ReasonProfanity},
				HasProfanity: true,
				Flags:        Flags{Profanity: true},
			},
		},
		{
			name:   "too short is spam but still approvable",
			text:   "ab",
			rating: 3,
			want: Verdict{
				IsApproved: true,
				Score:      70,
				Reasons:    []string{ReasonTooShort},
				Flags:      Flags{Spam: true},
			},
		},
		{
			name:   "three links",
			text:   "Más reseñas en http://uno.example, http://dos.example y http://tres.example",
			rating: 3,
			want: Verdict{
				IsApproved: true,
				Score:      80,
				Reasons:    []string{ReasonSuspiciousLinks},
				Flags:      Flags{Spam: true},
			},
		},
		{
			name:   "two toxic clusters reach the threshold",
			text:   "Odio este horrible libro, es lo peor que leí",
			rating: 1,
			want: Verdict{
				Score:   65,
				Reasons: []string{ReasonToxicContent},
				Flags:   Flags{Toxicity: true},
			},
		},
		{
			name:      "high rating with negative text",
			text:      "Lo leí durante las vacaciones de verano.",
			rating:    5,
			sentiment: -5,
			want: Verdict{
				IsApproved:     true,
				Score:          85,
				Reasons:        []string{ReasonRatingMismatch},
				SentimentScore: -5,
				Flags:          Flags{NegativeSentiment: true},
			},
		},
		{
			name:      "low rating with positive text",
			text:      "Lo leí durante las vacaciones de verano.",
			rating:    2,
			sentiment: 4,
			want: Verdict{
				IsApproved:     true,
				Score:          90,
				Reasons:        []string{ReasonRatingMismatch},
				SentimentScore: 4,
				Flags:          Flags{NegativeSentiment: true},
			},
		},
		{
			name:      "extreme negativity counts as toxicity",
			text:      "Lo leí durante las vacaciones de verano.",
			rating:    1,
			sentiment: -6,
			want: Verdict{
				Score:          50,
				Reasons:        []string{ReasonExtremeNegativity},
				SentimentScore: -6,
				Flags:          Flags{NegativeSentiment: true, Toxicity: true},
			},
		},
		{
			name:      "toxic and very negative is auto rejected",
			text:      "Lo leí durante las vacaciones de verano.",
			rating:    5,
			sentiment: -9,
			want: Verdict{
				Score:            50,
				Reasons:          []string{ReasonRatingMismatch, ReasonExtremeNegativity},
				SentimentScore:   -9,
				ShouldAutoReject: true,
				Flags:            Flags{NegativeSentiment: true, Toxicity: true},
			},
		},
		{
			name:   "profanity with toxicity is auto rejected",
			text:   "Odio esta mierda, es pura basura",
			rating: 1,
			want: Verdict{
				Score:            25,
				Reasons:          []string{ReasonProfanity, ReasonToxicContent},
				HasProfanity:     true,
				ShouldAutoReject: true,
				Flags:            Flags{Profanity: true, Toxicity: true},
			},
		},
		{
			name:   "spam with profanity is auto rejected",
			text:   "mierda",
			rating: 3,
			want: Verdict{
				Score:            30,
				Reasons:          []string{ReasonProfanity, ReasonTooShort},
				HasProfanity:     true,
				ShouldAutoReject: true,
				Flags:            Flags{Profanity: true, Spam: true},
			},
		},
		{
			name:      "every flag clamps to zero",
			text:      "MIERDA!!!!!!",
			rating:    5,
			sentiment: -7,
			want: Verdict{
				Score: 0,
				Reasons: []string{
					ReasonProfanity,
					ReasonRepetitive,
					ReasonRatingMismatch,
					ReasonExtremeNegativity,
				},
				SentimentScore:   -7,
				HasProfanity:     true,
				ShouldAutoReject: true,
				Flags:            Flags{Profanity: true, Spam: true, NegativeSentiment: true, Toxicity: true},
			},
		},
		{
			name:      "long profane text with positive sentiment offsets deductions",
			text:      "Una historia que atrapa desde la primera página hasta el final, joder, qué personajes.",
			rating:    5,
			sentiment: 3,
			want: Verdict{
				Score:          75,
				Reasons:        []string{ReasonProfanity},
				SentimentScore: 3,
				HasProfanity:   true,
				Flags:          Flags{Profanity: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, fixedScorer(tt.sentiment))

			got, err := e.AnalyzeReview(context.Background(), tt.text, tt.rating)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("want verdict\n%+v\n\ngot verdict\n%+v\n", tt.want, got)
			}
		})
	}
}

func TestEngine_AnalyzeReviewReasonOrder(t *testing.T) {
	e := newTestEngine(t, fixedScorer(-9))

	got, err := e.AnalyzeReview(context.Background(), "puta!!!!!!", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		ReasonProfanity,
		ReasonRepetitive,
		ReasonRatingMismatch,
		ReasonExtremeNegativity,
	}
	if !reflect.DeepEqual(got.Reasons, want) {
		t.Errorf("want reasons %q, got reasons %q", want, got.Reasons)
	}

	got, err = e.AnalyzeReview(context.Background(), "odio, basura www.a.example www.b.example www.c.example", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want = []string{
		ReasonSuspiciousLinks,
		ReasonRatingMismatch,
		ReasonExtremeNegativity,
		ReasonToxicContent,
	}
	if !reflect.DeepEqual(got.Reasons, want) {
		t.Errorf("want reasons %q, got reasons %q", want, got.Reasons)
	}
}

func TestEngine_AnalyzeReviewScorerError(t *testing.T) {
	errScorer := errors.New("scorer unavailable")
	e := newTestEngine(t, failingScorer{err: errScorer})

	_, err := e.AnalyzeReview(context.Background(), "Un texto cualquiera para probar", 3)
	if !errors.Is(err, ErrSentiment) {
		t.Errorf("want error wrapping ErrSentiment, got %v", err)
	}
	if !errors.Is(err, errScorer) {
		t.Errorf("want error wrapping scorer error, got %v", err)
	}
}

func TestEngine_AnalyzeReviewCallsScorerOnce(t *testing.T) {
	scorer := &countingScorer{score: 1}
	e := newTestEngine(t, scorer)

	if _, err := e.AnalyzeReview(context.Background(), "Odio este horrible libro", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scorer.calls != 1 {
		t.Errorf("want 1 scorer call, got %d", scorer.calls)
	}
}

func TestEngine_AnalyzeReviewBlankText(t *testing.T) {
	e := newTestEngine(t, fixedScorer(0))

	for _, text := range []string{"", " ", "\n\t  "} {
		got, err := e.AnalyzeReview(context.Background(), text, 3)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", text, err)
		}
		if !got.Flags.Spam {
			t.Errorf("want spam flag for %q", text)
		}
		if got.Reasons[0] != ReasonTooShort {
			t.Errorf("want first reason %q for %q, got %q", ReasonTooShort, text, got.Reasons[0])
		}
	}
}

func TestEngine_AnalyzeReviewDeterministic(t *testing.T) {
	e := newTestEngine(t, fixedScorer(-4))
	text := "Odio esta mierda, es pura basura http://a.example"

	first, err := e.AnalyzeReview(context.Background(), text, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := e.AnalyzeReview(context.Background(), text, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("want identical verdicts\n%+v\n%+v", first, second)
	}
}

// TestEngine_AnalyzeReviewBounds sweeps texts, ratings and sentiments and
// checks the score range and the approval and auto-reject rules.
func TestEngine_AnalyzeReviewBounds(t *testing.T) {
	texts := []string{
		"",
		"ab",
		"mierda",
		"Este libro es una mierda total",
		"Odio este horrible libro, es lo peor que leí",
		"Odio esta mierda, es pura basura",
		"genial genial genial genial genial genial",
		"Más reseñas en http://uno.example, http://dos.example y http://tres.example",
		"Este libro es muy interesante, lo disfruté bastante. Recomendado para todo lector.",
		strings.Repeat("Una lectura tranquila. ", 60),
	}
	lexicon, err := DefaultLexicon()
	if err != nil {
		t.Fatalf("failed to build default lexicon: %v", err)
	}

	for _, text := range texts {
		for rating := 1; rating <= 5; rating++ {
			for sentiment := -12; sentiment <= 12; sentiment++ {
				e := New(fixedScorer(sentiment), lexicon)
				v, err := e.AnalyzeReview(context.Background(), text, rating)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				if v.Score < 0 || v.Score > 100 {
					t.Errorf("score %d out of range for %q/%d/%d", v.Score, text, rating, sentiment)
				}

				wantApproved := v.Score >= ApprovalScore && !v.Flags.Profanity && !v.Flags.Toxicity
				if v.IsApproved != wantApproved {
					t.Errorf("want approved %v, got %v for %q/%d/%d", wantApproved, v.IsApproved, text, rating, sentiment)
				}

				f := v.Flags
				wantReject := v.Score < AutoRejectScore || (f.Profanity && f.Toxicity) ||
					(f.Spam && f.Profanity) || (f.Toxicity && sentiment < -8)
				if v.ShouldAutoReject != wantReject {
					t.Errorf("want auto reject %v, got %v for %q/%d/%d", wantReject, v.ShouldAutoReject, text, rating, sentiment)
				}

				if v.HasProfanity != f.Profanity {
					t.Errorf("has profanity %v disagrees with flag %v", v.HasProfanity, f.Profanity)
				}
				if v.SentimentScore != sentiment {
					t.Errorf("want sentiment score %d, got %d", sentiment, v.SentimentScore)
				}
			}
		}
	}
}

func TestEngine_AnalyzeReviewConcurrent(t *testing.T) {
	e := newTestEngine(t, fixedScorer(1))
	want, err := e.AnalyzeReview(context.Background(), "Odio este horrible libro, es lo peor que leí", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.AnalyzeReview(context.Background(), "Odio este horrible libro, es lo peor que leí", 1)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("want verdict %+v, got %+v", want, got)
			}
		}()
	}
	wg.Wait()
}

func TestEngine_CleanText(t *testing.T) {
	scorer := &countingScorer{}
	e := newTestEngine(t, scorer)

	got := e.CleanText("Este libro es una Mierda total")
	want := "Este libro es una *** total"
	if got != want {
		t.Errorf("CleanText() = %q; want %q", got, want)
	}
	if scorer.calls != 0 {
		t.Errorf("want no scorer calls, got %d", scorer.calls)
	}
}

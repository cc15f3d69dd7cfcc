package moderation

// Reasons reported in Verdict.Reasons, in the order the checks run.
const (
	ReasonProfanity         = "offensive language"
	ReasonTooShort          = "comment too short (possible spam)"
	ReasonRepetitive        = "repetitive content (possible spam)"
	ReasonSuspiciousLinks   = "suspicious links"
	ReasonRatingMismatch    = "rating inconsistent with text"
	ReasonExtremeNegativity = "extremely negative sentiment"
	ReasonToxicContent      = "toxic content"
)

// Flags are the four independent signals raised while analyzing a review.
type Flags struct {
	Toxicity          bool `json:"toxicity"`
	Spam              bool `json:"spam"`
	NegativeSentiment bool `json:"negative_sentiment"`
	Profanity         bool `json:"profanity"`
}

func (f Flags) merge(o Flags) Flags {
	return Flags{
		Toxicity:          f.Toxicity || o.Toxicity,
		Spam:              f.Spam || o.Spam,
		NegativeSentiment: f.NegativeSentiment || o.NegativeSentiment,
		Profanity:         f.Profanity || o.Profanity,
	}
}

// Verdict is the outcome of a single AnalyzeReview call.
//
// ShouldAutoReject is computed independently of IsApproved; callers treat it as an
// override that skips manual review.
type Verdict struct {
	IsApproved       bool     `json:"is_approved"`
	Score            int      `json:"score"`
	Reasons          []string `json:"reasons"`
	SentimentScore   int      `json:"sentiment_score"`
	HasProfanity     bool     `json:"has_profanity"`
	ShouldAutoReject bool     `json:"should_auto_reject"`
	Flags            Flags    `json:"flags"`
}

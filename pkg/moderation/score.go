package moderation

const (
	maxScore = 100
	minScore = 0

	profanityPenalty         = 40
	spamPenalty              = 30
	negativeSentimentPenalty = 15
	toxicityPenalty          = 35

	lengthBonus    = 10
	sentimentBonus = 5
	bonusMinLength = 50
	bonusMaxLength = 1000

	// ApprovalScore is the lowest score a clean review can be approved with.
	ApprovalScore = 60
	// AutoRejectScore is the score below which a review is always auto-rejected.
	AutoRejectScore = 20

	autoRejectSentiment = -8
)

// aggregate turns flags into a 0..100 score. Each flag deducts once; bonuses
// may offset deductions.
func aggregate(f Flags, length, sentiment int) int {
	score := maxScore

	if f.Profanity {
		score -= profanityPenalty
	}
	if f.Spam {
		score -= spamPenalty
	}
	if f.NegativeSentiment {
		score -= negativeSentimentPenalty
	}
	if f.Toxicity {
		score -= toxicityPenalty
	}

	if length > bonusMinLength && length < bonusMaxLength {
		score += lengthBonus
	}
	if sentiment > 0 {
		score += sentimentBonus
	}

	return clamp(score)
}

func clamp(score int) int {
	switch {
	case score > maxScore:
		return maxScore
	case score < minScore:
		return minScore
	default:
		return score
	}
}

// approved ignores spam and negative sentiment once the score is high enough.
func approved(score int, f Flags) bool {
	return score >= ApprovalScore && !f.Profanity && !f.Toxicity
}

func autoReject(score int, f Flags, sentiment int) bool {
	return score < AutoRejectScore ||
		(f.Profanity && f.Toxicity) ||
		(f.Spam && f.Profanity) ||
		(f.Toxicity && sentiment < autoRejectSentiment)
}

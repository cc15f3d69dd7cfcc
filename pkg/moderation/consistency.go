package moderation

const (
	highRating = 4
	lowRating  = 2

	mismatchSentiment = 3
	extremeSentiment  = -5
)

// ratingMismatch reports a star rating that contradicts the text's sentiment.
func ratingMismatch(rating, sentiment int) bool {
	return (rating >= highRating && sentiment < -mismatchSentiment) ||
		(rating <= lowRating && sentiment > mismatchSentiment)
}

// extremelyNegative also raises the toxicity flag, keywords or not.
func extremelyNegative(sentiment int) bool {
	return sentiment < extremeSentiment
}

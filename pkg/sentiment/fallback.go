package sentiment

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// NeutralOnError scores text as 0 whenever the wrapped scorer fails.
type NeutralOnError struct {
	next Scorer
}

func NewNeutralOnError(next Scorer) *NeutralOnError {
	return &NeutralOnError{next: next}
}

// Score implements Scorer and never returns an error.
func (n *NeutralOnError) Score(ctx context.Context, text string) (int, error) {
	score, err := n.next.Score(ctx, text)
	if err != nil {
		log.Warnf("[sentiment.NeutralOnError] scorer failed, using neutral score: %v", err)
		return 0, nil
	}
	return score, nil
}

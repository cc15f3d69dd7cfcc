package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"moderation/pkg/moderation"
)

// Dispositions label what a caller is expected to do with a verdict. They are
// not review statuses.
const (
	DispositionApproved     = "approved"
	DispositionAutoRejected = "auto_rejected"
	DispositionManualReview = "manual_review"
)

// Metrics provides observability for review moderation.
type Metrics struct {
	Verdicts        *prometheus.CounterVec
	Flags           *prometheus.CounterVec
	Score           prometheus.Histogram
	AnalyzeDuration prometheus.Histogram
	ScorerErrors    prometheus.Counter
}

// New registers the moderation metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Verdicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "moderation_verdicts_total",
			Help: "Total moderation verdicts by disposition",
		}, []string{"disposition"}),

		Flags: f.NewCounterVec(prometheus.CounterOpts{
			Name: "moderation_flags_total",
			Help: "Total flags raised by moderation checks",
		}, []string{"flag"}), // flag: "profanity", "spam", "negative_sentiment", "toxicity"

		Score: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "moderation_score",
			Help:    "Distribution of moderation scores",
			Buckets: []float64{0, 20, 40, 60, 80, 100},
		}),

		AnalyzeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "moderation_analyze_duration_seconds",
			Help:    "Duration of review analysis including sentiment scoring",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),

		ScorerErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "moderation_scorer_errors_total",
			Help: "Total sentiment scorer failures",
		}),
	}
}

// Disposition maps a verdict onto a metrics label. Auto-rejection wins over
// approval.
func Disposition(v moderation.Verdict) string {
	switch {
	case v.ShouldAutoReject:
		return DispositionAutoRejected
	case v.IsApproved:
		return DispositionApproved
	default:
		return DispositionManualReview
	}
}

// ObserveVerdict records a verdict and how long producing it took.
func (m *Metrics) ObserveVerdict(v moderation.Verdict, d time.Duration) {
	if m == nil {
		return
	}

	m.Verdicts.WithLabelValues(Disposition(v)).Inc()
	m.Score.Observe(float64(v.Score))
	m.AnalyzeDuration.Observe(d.Seconds())

	if v.Flags.Profanity {
		m.Flags.WithLabelValues("profanity").Inc()
	}
	if v.Flags.Spam {
		m.Flags.WithLabelValues("spam").Inc()
	}
	if v.Flags.NegativeSentiment {
		m.Flags.WithLabelValues("negative_sentiment").Inc()
	}
	if v.Flags.Toxicity {
		m.Flags.WithLabelValues("toxicity").Inc()
	}
}

// IncrementScorerErrors records a failed sentiment scorer call.
func (m *Metrics) IncrementScorerErrors() {
	if m != nil {
		m.ScorerErrors.Inc()
	}
}

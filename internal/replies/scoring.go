package replies

import "math"

// ScoringPolicy holds the engagement-score weights as an explicit, versioned
// object. The weights are a product heuristic; any change must ship as a new
// version, never as an in-place edit, so historical scores stay explainable.
type ScoringPolicy struct {
	Version string

	Base            int
	SentimentWeight map[Sentiment]int
	IntentWeight    map[Intent]int
}

// DefaultScoringPolicy is scoring policy v1.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		Version: "v1",
		Base:    50,
		SentimentWeight: map[Sentiment]int{
			SentimentPositive: 30,
			SentimentNeutral:  10,
			SentimentNegative: -20,
		},
		IntentWeight: map[Intent]int{
			IntentReadyToBuy:    40,
			IntentInterested:    20,
			IntentNeedsInfo:     10,
			IntentNotInterested: -30,
			IntentUnknown:       0,
		},
	}
}

// Score computes the engagement score for one classified reply: base plus
// sentiment and intent weights, scaled by confidence, clamped to [0,100].
func (p ScoringPolicy) Score(analysis Analysis) int {
	raw := float64(p.Base + p.SentimentWeight[analysis.Sentiment] + p.IntentWeight[analysis.Intent])
	scaled := raw * analysis.Confidence
	return clampScore(int(math.Round(scaled)))
}

// ResponseRate computes the contact's response-rate metric from the length
// of their message history. The 1/(n+1) form is a placeholder inherited
// from the product definition, kept behind this named function so a real
// rolling average can replace it without touching the state machine.
func (p ScoringPolicy) ResponseRate(priorHistoryLength int) float64 {
	if priorHistoryLength < 0 {
		priorHistoryLength = 0
	}
	return 1.0 / float64(priorHistoryLength+1)
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

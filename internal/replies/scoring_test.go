package replies

import (
	"math"
	"testing"
)

func TestScoreWeights(t *testing.T) {
	policy := DefaultScoringPolicy()

	cases := []struct {
		name     string
		analysis Analysis
		want     int
	}{
		{
			name:     "negative not_interested at 0.9 clamps to zero",
			analysis: Analysis{Sentiment: SentimentNegative, Intent: IntentNotInterested, Confidence: 0.9},
			want:     0, // (50-20-30)*0.9 = 0
		},
		{
			name:     "positive ready_to_buy full confidence clamps to 100",
			analysis: Analysis{Sentiment: SentimentPositive, Intent: IntentReadyToBuy, Confidence: 1.0},
			want:     100, // (50+30+40)=120 clamped
		},
		{
			name:     "neutral unknown mid confidence",
			analysis: Analysis{Sentiment: SentimentNeutral, Intent: IntentUnknown, Confidence: 0.5},
			want:     30, // (50+10+0)*0.5
		},
		{
			name:     "positive interested",
			analysis: Analysis{Sentiment: SentimentPositive, Intent: IntentInterested, Confidence: 0.8},
			want:     80, // (50+30+20)*0.8
		},
		{
			name:     "negative needs_info",
			analysis: Analysis{Sentiment: SentimentNegative, Intent: IntentNeedsInfo, Confidence: 1.0},
			want:     40, // 50-20+10
		},
		{
			name:     "zero confidence zeroes everything",
			analysis: Analysis{Sentiment: SentimentPositive, Intent: IntentReadyToBuy, Confidence: 0},
			want:     0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := policy.Score(tc.analysis); got != tc.want {
				t.Errorf("Score = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestScoreAlwaysInRange(t *testing.T) {
	policy := DefaultScoringPolicy()
	sentiments := []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative}
	intents := []Intent{IntentReadyToBuy, IntentInterested, IntentNeedsInfo, IntentNotInterested, IntentUnknown}
	confidences := []float64{0, 0.3, 0.5, 0.9, 1.0}

	for _, s := range sentiments {
		for _, i := range intents {
			for _, c := range confidences {
				got := policy.Score(Analysis{Sentiment: s, Intent: i, Confidence: c})
				if got < 0 || got > 100 {
					t.Errorf("Score(%s/%s/%.1f) = %d, out of [0,100]", s, i, c, got)
				}
			}
		}
	}
}

func TestResponseRatePlaceholderFormula(t *testing.T) {
	policy := DefaultScoringPolicy()
	cases := []struct {
		history int
		want    float64
	}{
		{0, 1.0},
		{1, 0.5},
		{3, 0.25},
		{9, 0.1},
		{-1, 1.0}, // negative history treated as empty
	}
	for _, tc := range cases {
		if got := policy.ResponseRate(tc.history); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("ResponseRate(%d) = %v, want %v", tc.history, got, tc.want)
		}
	}
}

func TestPolicyVersioned(t *testing.T) {
	if DefaultScoringPolicy().Version != "v1" {
		t.Errorf("Version = %q, want v1", DefaultScoringPolicy().Version)
	}
}

package replies

import (
	"testing"

	"prospect_backend/internal/contacts"
)

func activeContact() contacts.Contact {
	return contacts.Contact{Status: contacts.StatusActive}
}

func TestAdvanceReadyToBuyAlwaysQualifiesAndSchedules(t *testing.T) {
	policy := DefaultScoringPolicy()
	for _, sentiment := range []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative} {
		analysis := Analysis{
			Sentiment:  sentiment,
			Intent:     IntentReadyToBuy,
			NextAction: ActionFollowUp, // classifier suggestion is overridden
			Confidence: 0.9,
		}
		transition := Advance(activeContact(), analysis, policy)
		if transition.To != contacts.StatusQualified {
			t.Errorf("sentiment %s: To = %s, want qualified", sentiment, transition.To)
		}
		if transition.NextAction != ActionScheduleMeeting {
			t.Errorf("sentiment %s: NextAction = %s, want schedule_meeting", sentiment, transition.NextAction)
		}
	}
}

func TestAdvanceTransitionRules(t *testing.T) {
	policy := DefaultScoringPolicy()
	cases := []struct {
		name     string
		analysis Analysis
		want     contacts.Status
	}{
		{
			name:     "interested qualifies",
			analysis: Analysis{Sentiment: SentimentNeutral, Intent: IntentInterested, NextAction: ActionSendInfo, Confidence: 0.8},
			want:     contacts.StatusQualified,
		},
		{
			name:     "not_interested goes unresponsive",
			analysis: Analysis{Sentiment: SentimentNegative, Intent: IntentNotInterested, NextAction: ActionManualReview, Confidence: 0.9},
			want:     contacts.StatusUnresponsive,
		},
		{
			name:     "positive sentiment without intent marks responded",
			analysis: Analysis{Sentiment: SentimentPositive, Intent: IntentUnknown, NextAction: ActionManualReview, Confidence: 0.6},
			want:     contacts.StatusResponded,
		},
		{
			name:     "neutral unknown leaves status unchanged",
			analysis: Analysis{Sentiment: SentimentNeutral, Intent: IntentUnknown, NextAction: ActionManualReview, Confidence: 0.4},
			want:     contacts.StatusActive,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			transition := Advance(activeContact(), tc.analysis, policy)
			if transition.To != tc.want {
				t.Errorf("To = %s, want %s", transition.To, tc.want)
			}
		})
	}
}

func TestAdvanceNegativeNotInterestedScenario(t *testing.T) {
	// active contact, negative/not_interested at 0.9: score (50-20-30)*0.9 = 0
	transition := Advance(activeContact(), Analysis{
		Sentiment:  SentimentNegative,
		Intent:     IntentNotInterested,
		NextAction: ActionManualReview,
		Confidence: 0.9,
	}, DefaultScoringPolicy())

	if transition.To != contacts.StatusUnresponsive {
		t.Errorf("To = %s, want unresponsive", transition.To)
	}
	if transition.EngagementScore != 0 {
		t.Errorf("EngagementScore = %d, want 0", transition.EngagementScore)
	}
}

func TestAdvanceTerminalContactNeverMoves(t *testing.T) {
	policy := DefaultScoringPolicy()
	for _, status := range []contacts.Status{contacts.StatusBlocked, contacts.StatusInactive} {
		contact := contacts.Contact{Status: status}
		transition := Advance(contact, Analysis{
			Sentiment:  SentimentPositive,
			Intent:     IntentReadyToBuy,
			NextAction: ActionScheduleMeeting,
			Confidence: 1.0,
		}, policy)
		if transition.To != status {
			t.Errorf("terminal %s moved to %s", status, transition.To)
		}
	}
}

func TestAdvanceResponseRateUsesPriorHistory(t *testing.T) {
	contact := activeContact()
	contact.MessageHistory = []string{"m1", "m2", "m3"}

	transition := Advance(contact, Analysis{
		Sentiment:  SentimentNeutral,
		Intent:     IntentUnknown,
		NextAction: ActionManualReview,
		Confidence: 0.5,
	}, DefaultScoringPolicy())

	if transition.ResponseRate != 0.25 {
		t.Errorf("ResponseRate = %v, want 0.25", transition.ResponseRate)
	}
	if transition.ScoreVersion != "v1" {
		t.Errorf("ScoreVersion = %q, want v1", transition.ScoreVersion)
	}
}

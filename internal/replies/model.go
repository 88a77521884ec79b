// Package replies interprets inbound reply text and advances the contact
// lifecycle accordingly.
package replies

// Sentiment is the classifier's read on how the contact feels.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Intent is the classifier's read on what the contact wants.
type Intent string

const (
	IntentReadyToBuy    Intent = "ready_to_buy"
	IntentInterested    Intent = "interested"
	IntentNeedsInfo     Intent = "needs_info"
	IntentNotInterested Intent = "not_interested"
	IntentUnknown       Intent = "unknown"
)

// NextAction is what the pipeline should do with the contact next.
type NextAction string

const (
	ActionScheduleMeeting NextAction = "schedule_meeting"
	ActionSendInfo        NextAction = "send_info"
	ActionFollowUp        NextAction = "followup"
	ActionCloseDeal       NextAction = "close_deal"
	ActionManualReview    NextAction = "manual_review"
)

// Urgency grades how quickly the next action should happen.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Analysis is the classified reading of one reply. It is always fully
// populated; when the classifier is down the adapter substitutes the
// fallback values, so downstream code never checks for a missing analysis.
type Analysis struct {
	Sentiment  Sentiment  `json:"sentiment"`
	Intent     Intent     `json:"intent"`
	NextAction NextAction `json:"nextAction"`
	Urgency    Urgency    `json:"urgency"`
	Confidence float64    `json:"confidence"`
}

// FallbackAnalysis is the safe default used when classification fails or
// returns garbage. Low confidence plus manual_review routes the reply to a
// human instead of guessing.
func FallbackAnalysis() Analysis {
	return Analysis{
		Sentiment:  SentimentNeutral,
		Intent:     IntentUnknown,
		NextAction: ActionManualReview,
		Urgency:    UrgencyMedium,
		Confidence: 0.4,
	}
}

func validSentiment(s Sentiment) bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

func validIntent(i Intent) bool {
	switch i {
	case IntentReadyToBuy, IntentInterested, IntentNeedsInfo, IntentNotInterested, IntentUnknown:
		return true
	}
	return false
}

func validNextAction(a NextAction) bool {
	switch a {
	case ActionScheduleMeeting, ActionSendInfo, ActionFollowUp, ActionCloseDeal, ActionManualReview:
		return true
	}
	return false
}

func validUrgency(u Urgency) bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

// sanitizeAnalysis replaces any out-of-vocabulary field with its fallback
// value and clamps confidence to [0,1].
func sanitizeAnalysis(a Analysis) Analysis {
	fallback := FallbackAnalysis()
	if !validSentiment(a.Sentiment) {
		a.Sentiment = fallback.Sentiment
	}
	if !validIntent(a.Intent) {
		a.Intent = fallback.Intent
	}
	if !validNextAction(a.NextAction) {
		a.NextAction = fallback.NextAction
	}
	if !validUrgency(a.Urgency) {
		a.Urgency = fallback.Urgency
	}
	if a.Confidence < 0 {
		a.Confidence = 0
	}
	if a.Confidence > 1 {
		a.Confidence = 1
	}
	return a
}

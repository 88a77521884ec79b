package replies

import (
	"prospect_backend/internal/contacts"
)

// Transition is the computed outcome of feeding one classified reply into
// the lifecycle state machine. Callers must apply transitions for the same
// contact serially; the state machine itself holds no locks.
type Transition struct {
	From            contacts.Status
	To              contacts.Status
	EngagementScore int
	ResponseRate    float64
	NextAction      NextAction
	ScoreVersion    string
}

// Changed reports whether the transition moves the contact to a new status.
func (t Transition) Changed() bool { return t.From != t.To }

// Advance computes the next lifecycle state for a contact given a classified
// reply. Rules are checked in order: buying or interested intent qualifies
// the lead; explicit disinterest marks it unresponsive; a merely positive
// sentiment marks it responded; anything else leaves the status unchanged.
// Terminal contacts never move.
func Advance(contact contacts.Contact, analysis Analysis, policy ScoringPolicy) Transition {
	transition := Transition{
		From:            contact.Status,
		To:              contact.Status,
		EngagementScore: policy.Score(analysis),
		ResponseRate:    policy.ResponseRate(len(contact.MessageHistory)),
		NextAction:      analysis.NextAction,
		ScoreVersion:    policy.Version,
	}

	// ready_to_buy always forces a meeting, whatever the classifier
	// suggested as next action
	if analysis.Intent == IntentReadyToBuy {
		transition.NextAction = ActionScheduleMeeting
	}
	if !validNextAction(transition.NextAction) {
		transition.NextAction = ActionManualReview
	}

	if contact.Status.Terminal() {
		return transition
	}

	switch {
	case analysis.Intent == IntentReadyToBuy || analysis.Intent == IntentInterested:
		transition.To = contacts.StatusQualified
	case analysis.Intent == IntentNotInterested:
		transition.To = contacts.StatusUnresponsive
	case analysis.Sentiment == SentimentPositive:
		transition.To = contacts.StatusResponded
	}

	return transition
}

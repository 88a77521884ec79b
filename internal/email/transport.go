package email

import (
	"context"
)

const defaultProspectingSubject = "Quick question"

// Transport adapts a Sender to the dispatch transport contract so email can
// serve as a dispatch channel.
type Transport struct {
	sender Sender
}

func NewTransport(sender Sender) *Transport {
	return &Transport{sender: sender}
}

func (t *Transport) Send(ctx context.Context, destination, text string) error {
	return t.sender.SendProspectingEmail(ctx, destination, defaultProspectingSubject, text)
}

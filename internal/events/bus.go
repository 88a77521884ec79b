package events

import (
	platformevents "prospect_backend/platform/events"
	"prospect_backend/platform/logger"
)

// InMemoryBus aliases the platform bus so domain modules only ever import
// internal/events.
type InMemoryBus = platformevents.InMemoryBus

func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}

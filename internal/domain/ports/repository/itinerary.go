package repository

import (
	"context"
	"time"

	"travel-itinerary-ai/internal/domain/model"
)

// ItinerarySave is the partial update applied when a job reaches a terminal
// state. Status, UpdatedAt, CompletedAt and Error are always written;
// Itinerary only when non-nil.
type ItinerarySave struct {
	Status      model.ItineraryStatus
	Itinerary   *string
	UpdatedAt   time.Time
	CompletedAt *time.Time
	Error       *string
}

// ItineraryRepository is the durable store adapter. Create overwrites by id
// (duplicate submissions of the same id are harmless); neither operation
// retries — durable-store failures surface to the caller as-is.
type ItineraryRepository interface {
	Create(ctx context.Context, id, destination string, durationDays int, createdAt time.Time) error
	Save(ctx context.Context, id string, save ItinerarySave) error
	Find(ctx context.Context, id string) (*model.Itinerary, error)
}

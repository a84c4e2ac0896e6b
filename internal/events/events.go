package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventTypePlanValidation asks for a plan's validation result to be
// recomputed in the background.
const EventTypePlanValidation = "plan_validation"

// TaskRequestEvent carries a background job request from the services to
// whichever package turns it into a task. Payload is kept as raw JSON so
// the publisher never imports the consumer.
type TaskRequestEvent struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// PlanValidationPayload identifies the plan whose cached result went stale.
type PlanValidationPayload struct {
	PlanID uuid.UUID `json:"plan_id"`
}

func (e *TaskRequestEvent) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewTaskRequestEvent encodes payload as JSON and stamps a fresh id.
func NewTaskRequestEvent(eventType string, payload any) (*TaskRequestEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return &TaskRequestEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func NewPlanValidationEvent(planID uuid.UUID) (*TaskRequestEvent, error) {
	return NewTaskRequestEvent(EventTypePlanValidation, PlanValidationPayload{PlanID: planID})
}

type EventHandler interface {
	HandleEvent(ctx context.Context, event *TaskRequestEvent) error
}

// EventEmitter is what services depend on to publish job requests.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *TaskRequestEvent) error
}

// HandlerFunc lets a plain function act as an EventHandler.
type HandlerFunc func(ctx context.Context, event *TaskRequestEvent) error

func (f HandlerFunc) HandleEvent(ctx context.Context, event *TaskRequestEvent) error {
	return f(ctx, event)
}

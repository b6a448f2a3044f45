package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"stockout-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishPipelineCompleted publishes PipelineCompleted event
func (ep *EventPublisher) PublishPipelineCompleted(ctx context.Context, event *models.PipelineCompletedEvent) error {
	key := fmt.Sprintf("run-%s", event.RunID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishModelPromoted publishes ModelPromoted event
func (ep *EventPublisher) PublishModelPromoted(ctx context.Context, event *models.ModelPromotedEvent) error {
	key := fmt.Sprintf("model-%s", event.ModelName)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishModelRolledBack publishes ModelRolledBack event
func (ep *EventPublisher) PublishModelRolledBack(ctx context.Context, event *models.ModelRolledBackEvent) error {
	key := fmt.Sprintf("model-%s", event.ModelName)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishDriftDetected publishes DriftDetected event
func (ep *EventPublisher) PublishDriftDetected(ctx context.Context, event *models.DriftDetectedEvent) error {
	return ep.producer.PublishEvent(ctx, "drift", event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onSnapshotUpdated      func(context.Context, *models.StockSnapshotUpdatedEvent) error
	onPipelineRunRequested func(context.Context, *models.PipelineRunRequestedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnStockSnapshotUpdated registers a handler for StockSnapshotUpdated events
func (eh *EventHandler) OnStockSnapshotUpdated(handler func(context.Context, *models.StockSnapshotUpdatedEvent) error) {
	eh.onSnapshotUpdated = handler
}

// OnPipelineRunRequested registers a handler for PipelineRunRequested events
func (eh *EventHandler) OnPipelineRunRequested(handler func(context.Context, *models.PipelineRunRequestedEvent) error) {
	eh.onPipelineRunRequested = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypeStockSnapshotUpdated:
		if eh.onSnapshotUpdated != nil {
			var event models.StockSnapshotUpdatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal StockSnapshotUpdated event: %w", err)
			}
			return eh.onSnapshotUpdated(ctx, &event)
		}

	case models.EventTypePipelineRunRequested:
		if eh.onPipelineRunRequested != nil {
			var event models.PipelineRunRequestedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PipelineRunRequested event: %w", err)
			}
			return eh.onPipelineRunRequested(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}

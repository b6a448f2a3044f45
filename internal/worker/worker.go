package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"stockout-service/internal/broker"
	"stockout-service/internal/models"
	"stockout-service/internal/monitor"
	"stockout-service/internal/pipeline"
	"stockout-service/internal/redisclient"
	"stockout-service/internal/store"
)

// MonitorWorker runs a continued-evaluation pass whenever a fresh stock
// snapshot lands.
type MonitorWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	evaluator    *monitor.Evaluator
}

// NewMonitorWorker creates a new monitor worker
func NewMonitorWorker(consumer *broker.Consumer, evaluator *monitor.Evaluator) *MonitorWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnStockSnapshotUpdated(func(ctx context.Context, event *models.StockSnapshotUpdatedEvent) error {
		_, err := evaluator.Run(ctx)
		return err
	})

	return &MonitorWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		evaluator:    evaluator,
	}
}

// Start starts the worker
func (w *MonitorWorker) Start(ctx context.Context) error {
	log.Println("Starting monitor worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *MonitorWorker) Stop() error {
	log.Println("Stopping monitor worker...")
	return w.consumer.Close()
}

const (
	pipelineRunLock    = "pipeline:run"
	pipelineRunLockTTL = 30 * time.Minute
	idempotencyTTL     = 24 * time.Hour
)

// PipelineWorker runs training pipelines requested over the event bus.
// Event ids are checked against Redis and then processed_events so a
// redelivered request does not retrain; a distributed lock keeps
// concurrent run requests from training in parallel.
type PipelineWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	pipeline     *pipeline.Pipeline
	store        *store.Store
	redis        *redisclient.Client
}

// NewPipelineWorker creates a new pipeline worker. redis may be nil, in
// which case the database check alone guards idempotency.
func NewPipelineWorker(consumer *broker.Consumer, p *pipeline.Pipeline, st *store.Store, redis *redisclient.Client) *PipelineWorker {
	w := &PipelineWorker{
		consumer: consumer,
		pipeline: p,
		store:    st,
		redis:    redis,
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnPipelineRunRequested(w.handleRunRequested)
	w.eventHandler = eventHandler
	return w
}

func (w *PipelineWorker) handleRunRequested(ctx context.Context, event *models.PipelineRunRequestedEvent) error {
	if w.redis != nil {
		seen, err := w.redis.CheckIdempotencyKey(ctx, event.EventID)
		if err != nil {
			log.Printf("Redis idempotency check failed: %v", err)
		} else if seen {
			log.Printf("Skipping already-processed run request: %s", event.EventID)
			return nil
		}
	}

	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		log.Printf("Skipping already-processed run request: %s", event.EventID)
		return nil
	}

	if w.redis != nil {
		acquired, err := w.redis.AcquireLock(ctx, pipelineRunLock, pipelineRunLockTTL)
		if err != nil {
			return err
		}
		if !acquired {
			// leave the offset uncommitted so the request is retried
			return fmt.Errorf("pipeline run lock held, deferring request %s", event.EventID)
		}
		defer func() {
			if err := w.redis.ReleaseLock(ctx, pipelineRunLock); err != nil {
				log.Printf("Failed to release pipeline run lock: %v", err)
			}
		}()
	}

	if _, err := w.pipeline.Run(ctx, event.HorizonDays); err != nil {
		log.Printf("Pipeline run failed: %v", err)
		return err
	}

	if err := w.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		return err
	}
	if w.redis != nil {
		if err := w.redis.SetIdempotencyKey(ctx, event.EventID, "1", idempotencyTTL); err != nil {
			log.Printf("Failed to set Redis idempotency key: %v", err)
		}
	}
	return nil
}

// Start starts the pipeline worker
func (w *PipelineWorker) Start(ctx context.Context) error {
	log.Println("Starting pipeline worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the pipeline worker
func (w *PipelineWorker) Stop() error {
	log.Println("Stopping pipeline worker...")
	return w.consumer.Close()
}

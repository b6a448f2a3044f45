package models

import "time"

// Event types
const (
	EventTypeStockSnapshotUpdated = "STOCK_SNAPSHOT_UPDATED"
	EventTypePipelineRunRequested = "PIPELINE_RUN_REQUESTED"
	EventTypePipelineCompleted    = "PIPELINE_COMPLETED"
	EventTypeModelPromoted        = "MODEL_PROMOTED"
	EventTypeModelRolledBack      = "MODEL_ROLLED_BACK"
	EventTypeDriftDetected        = "DRIFT_DETECTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// StockSnapshotUpdatedEvent published by the ingestion side when a fresh
// stock snapshot lands; triggers a continued-evaluation run.
type StockSnapshotUpdatedEvent struct {
	BaseEvent
	SnapshotAt time.Time `json:"snapshot_at"`
	RowCount   int       `json:"row_count"`
}

// PipelineRunRequestedEvent asks for a full training run.
type PipelineRunRequestedEvent struct {
	BaseEvent
	HorizonDays int `json:"horizon_days,omitempty"`
}

// PipelineCompletedEvent published after a training run finishes.
type PipelineCompletedEvent struct {
	BaseEvent
	RunID        string  `json:"run_id"`
	Status       string  `json:"status"`
	ModelVersion int     `json:"model_version"`
	ValF1        float64 `json:"val_f1"`
}

// ModelPromotedEvent published when a version reaches Production.
type ModelPromotedEvent struct {
	BaseEvent
	ModelName string `json:"model_name"`
	Version   int    `json:"version"`
}

// ModelRolledBackEvent published when production is rolled back.
type ModelRolledBackEvent struct {
	BaseEvent
	ModelName string `json:"model_name"`
	Version   int    `json:"version"`
}

// DriftDetectedEvent published when a drift check fails its thresholds.
type DriftDetectedEvent struct {
	BaseEvent
	PSI               float64 `json:"psi"`
	KL                float64 `json:"kl"`
	FallbackTriggered bool    `json:"fallback_triggered"`
}

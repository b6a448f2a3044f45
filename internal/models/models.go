package models

import "time"

// StockRecord is one row of the current stock snapshot. (BranchID, ItemCode)
// is unique within a snapshot.
type StockRecord struct {
	BranchID         string    `db:"branch_id" json:"branch_id"`
	BranchName       string    `db:"branch_name" json:"branch_name"`
	ItemCode         string    `db:"item_code" json:"item_code"`
	ItemName         string    `db:"item_name" json:"item_name"`
	CurrentQuantity  float64   `db:"current_quantity" json:"current_quantity"`
	ReservedQuantity float64   `db:"reserved_quantity" json:"reserved_quantity"`
	SafetyStockLevel float64   `db:"safety_stock_level" json:"safety_stock_level"`
	LastUpdatedAt    time.Time `db:"last_updated_at" json:"last_updated_at"`
}

// SalesRecord is a timestamped sales transaction, append-only.
type SalesRecord struct {
	Date          time.Time `db:"date" json:"date"`
	BranchID      string    `db:"branch_id" json:"branch_id"`
	BranchName    string    `db:"branch_name" json:"branch_name"`
	InvoiceNumber string    `db:"invoice_number" json:"invoice_number"`
	ItemCode      string    `db:"item_code" json:"item_code"`
	ItemName      string    `db:"item_name" json:"item_name"`
	QuantitySold  float64   `db:"quantity_sold" json:"quantity_sold"`
}

// MovementRecord is a timestamped inter-branch stock transfer.
type MovementRecord struct {
	MovementID     string    `db:"movement_id" json:"movement_id"`
	Date           time.Time `db:"date" json:"date"`
	FromBranchID   string    `db:"from_branch_id" json:"from_branch_id"`
	FromBranchName string    `db:"from_branch_name" json:"from_branch_name"`
	ToBranchID     string    `db:"to_branch_id" json:"to_branch_id"`
	ToBranchName   string    `db:"to_branch_name" json:"to_branch_name"`
	ItemCode       string    `db:"item_code" json:"item_code"`
	ItemName       string    `db:"item_name" json:"item_name"`
	QuantityMoved  float64   `db:"quantity_moved" json:"quantity_moved"`
}

// LabeledRow is a StockRecord extended with the derived training columns.
// Recomputed per pipeline run, never persisted on its own.
type LabeledRow struct {
	BranchID         string    `json:"branch_id"`
	ItemCode         string    `json:"item_code"`
	FromBranchID     string    `json:"from_branch_id"`
	ToBranchID       string    `json:"to_branch_id"`
	CurrentQuantity  float64   `json:"current_quantity"`
	ReservedQuantity float64   `json:"reserved_quantity"`
	SafetyStockLevel float64   `json:"safety_stock_level"`
	LastUpdatedAt    time.Time `json:"last_updated_at"`
	FutureSales      float64   `json:"future_sales"`
	NetMovement      float64   `json:"net_movement"`
	ProjectedStock   float64   `json:"projected_stock"`
	LabelStockout    int       `json:"label_stockout"`
}

// Model lifecycle stages
const (
	StageNone       = "None"
	StageStaging    = "Staging"
	StageProduction = "Production"
	StageArchived   = "Archived"
)

// ModelVersion identifies one registered model version.
type ModelVersion struct {
	Name        string    `db:"name" json:"name"`
	Version     int       `db:"version" json:"version"`
	Stage       string    `db:"stage" json:"stage"`
	ArtifactURI string    `db:"artifact_uri" json:"artifact_uri"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// DriftReport is the outcome of one continued-evaluation run.
type DriftReport struct {
	RunID             string    `db:"run_id" json:"run_id"`
	PSI               float64   `db:"psi" json:"psi"`
	KL                float64   `db:"kl" json:"kl"`
	PSIOk             bool      `db:"psi_ok" json:"psi_ok"`
	KLOk              bool      `db:"kl_ok" json:"kl_ok"`
	FallbackTriggered bool      `db:"fallback_triggered" json:"fallback_triggered"`
	RollbackVersion   *int      `db:"rollback_version" json:"rollback_version"`
	BaselineRule      []int     `db:"-" json:"baseline_rule,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// TrainMetrics summarizes a training run on the validation split.
type TrainMetrics struct {
	ValAUC       float64 `json:"val_auc"`
	ValPrecision float64 `json:"val_precision"`
	ValRecall    float64 `json:"val_recall"`
	ValF1        float64 `json:"val_f1"`
	ModelVersion int     `json:"model_version"`
	RunID        string  `json:"run_id"`
}

// EvalMetrics summarizes classifier quality on a full dataset.
type EvalMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	AUC       float64 `json:"auc"`
}

// Pipeline run statuses
const (
	PipelineStatusPromoted = "promoted"
	PipelineStatusStaging  = "staging"
)

// PipelineResult is returned to the orchestration caller after a full run.
type PipelineResult struct {
	TrainMetrics TrainMetrics `json:"train_metrics"`
	EvalMetrics  EvalMetrics  `json:"eval_metrics"`
	Status       string       `json:"status"`
}

// ProcessedEvent for worker idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}

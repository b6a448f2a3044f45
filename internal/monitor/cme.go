// Package monitor runs continued model evaluation: drift statistics
// against a reference score distribution, with automatic rollback and a
// non-ML baseline fallback when rollback is impossible.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockout-service/config"
	"stockout-service/internal/dataset"
	"stockout-service/internal/drift"
	"stockout-service/internal/feature"
	"stockout-service/internal/lifecycle"
	"stockout-service/internal/models"
	"stockout-service/internal/pipeline"
	"stockout-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReferenceSource provides the score distribution the drift statistics
// compare against, typically recorded at the last promotion.
type ReferenceSource interface {
	ReferenceScores(ctx context.Context) ([]float64, error)
}

// ReportStore persists drift reports for audit. May be nil.
type ReportStore interface {
	SaveDriftReport(ctx context.Context, report *models.DriftReport) error
}

// EventSink publishes drift and rollback events. May be nil.
type EventSink interface {
	PublishDriftDetected(ctx context.Context, event *models.DriftDetectedEvent) error
	PublishModelRolledBack(ctx context.Context, event *models.ModelRolledBackEvent) error
}

// CacheInvalidator drops any cached production model after a rollback.
// May be nil.
type CacheInvalidator interface {
	InvalidateProductionModel(ctx context.Context) error
}

// Evaluator composes label construction, drift statistics and the
// lifecycle controller into the promote/hold/rollback decision loop.
type Evaluator struct {
	source     pipeline.DataSource
	controller *lifecycle.Controller
	refs       ReferenceSource
	reports    ReportStore
	events     EventSink
	cache      CacheInvalidator
	driftCfg   config.DriftConfig
	horizon    int
	logger     *zap.Logger
}

// NewEvaluator creates the continued-evaluation loop. reports, events and
// cache may be nil.
func NewEvaluator(
	source pipeline.DataSource,
	controller *lifecycle.Controller,
	refs ReferenceSource,
	reports ReportStore,
	events EventSink,
	cache CacheInvalidator,
	driftCfg config.DriftConfig,
	horizonDays int,
) *Evaluator {
	return &Evaluator{
		source:     source,
		controller: controller,
		refs:       refs,
		reports:    reports,
		events:     events,
		cache:      cache,
		driftCfg:   driftCfg,
		horizon:    horizonDays,
		logger:     util.GetLogger(),
	}
}

// Run executes one continued-evaluation pass. Drift beyond either
// threshold never errors: it triggers a rollback, or the baseline rule
// when fewer than two versions exist. The PSI/KL observability metrics are
// recorded on every pass regardless of outcome.
func (e *Evaluator) Run(ctx context.Context) (*models.DriftReport, error) {
	ctx, span := util.StartSpan(ctx, "Evaluator.Run")
	defer span.End()

	reference, err := e.refs.ReferenceScores(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference score distribution: %w", err)
	}
	if len(reference) == 0 {
		return nil, fmt.Errorf("no reference score distribution recorded")
	}

	labeled, err := e.buildLabels(ctx)
	if err != nil {
		return nil, err
	}

	current := make([]float64, len(labeled))
	for i, row := range labeled {
		current[i] = float64(row.LabelStockout)
	}

	psi := drift.PopulationStabilityIndex(reference, current, e.driftCfg.Bins)
	refPct, curPct := drift.BinnedDistributions(reference, current, e.driftCfg.Bins)
	kl := drift.KLDivergence(refPct, curPct)
	check := drift.ThresholdCheck(psi, kl, e.driftCfg.PSILimit, e.driftCfg.KLLimit)

	report := &models.DriftReport{
		RunID:             uuid.New().String(),
		PSI:               psi,
		KL:                kl,
		PSIOk:             check.PSIOk,
		KLOk:              check.KLOk,
		FallbackTriggered: !check.PSIOk || !check.KLOk,
		CreatedAt:         time.Now().UTC(),
	}

	util.DriftPSI.Set(psi)
	util.DriftKL.Set(kl)
	e.logger.Info("Drift check completed",
		zap.Float64("psi", psi),
		zap.Float64("kl", kl),
		zap.Bool("psi_ok", check.PSIOk),
		zap.Bool("kl_ok", check.KLOk))

	if report.FallbackTriggered {
		util.DriftChecksTotal.WithLabelValues("drift").Inc()
		e.handleFallback(ctx, report, labeled)
	} else {
		util.DriftChecksTotal.WithLabelValues("ok").Inc()
	}

	if e.reports != nil {
		if err := e.reports.SaveDriftReport(ctx, report); err != nil {
			e.logger.Error("Failed to persist drift report", zap.Error(err))
		}
	}

	return report, nil
}

// handleFallback attempts a rollback; with insufficient history it
// computes the deterministic baseline label per row instead.
func (e *Evaluator) handleFallback(ctx context.Context, report *models.DriftReport, labeled []models.LabeledRow) {
	e.publishDrift(ctx, report)

	previous, err := e.controller.RollbackProduction(ctx)
	switch {
	case err == nil:
		report.RollbackVersion = &previous.Version
		if e.cache != nil {
			if cacheErr := e.cache.InvalidateProductionModel(ctx); cacheErr != nil {
				e.logger.Error("Failed to invalidate cached production model", zap.Error(cacheErr))
			}
		}
		e.publishRollback(ctx, previous)

	case errors.Is(err, lifecycle.ErrInsufficientHistory):
		report.BaselineRule = BaselineRule(labeled)
		util.BaselineFallbacksTotal.Inc()
		e.logger.Warn("Rollback unavailable, using baseline rule",
			zap.Int("rows", len(report.BaselineRule)))

	default:
		e.logger.Error("Rollback failed", zap.Error(err))
	}
}

// BaselineRule is the emergency non-ML prediction: flag any row whose
// current quantity is already below its safety stock level.
func BaselineRule(labeled []models.LabeledRow) []int {
	out := make([]int, len(labeled))
	for i, row := range labeled {
		if row.CurrentQuantity < row.SafetyStockLevel {
			out[i] = 1
		}
	}
	return out
}

func (e *Evaluator) buildLabels(ctx context.Context) ([]models.LabeledRow, error) {
	datasets, err := e.source.LoadDatasets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load datasets: %w", err)
	}

	stockDS, ok := datasets[dataset.StockCurrent]
	if !ok {
		return nil, fmt.Errorf("missing dataset: %s", dataset.StockCurrent)
	}
	salesDS, ok := datasets[dataset.SalesTransactions]
	if !ok {
		return nil, fmt.Errorf("missing dataset: %s", dataset.SalesTransactions)
	}

	stock, err := dataset.StockRecords(stockDS)
	if err != nil {
		return nil, err
	}
	sales, err := dataset.SalesRecords(salesDS)
	if err != nil {
		return nil, err
	}

	var movement []models.MovementRecord
	if movementDS, ok := datasets[dataset.StockMovement]; ok {
		movement, err = dataset.MovementRecords(movementDS)
		if err != nil {
			return nil, err
		}
	}

	return feature.CreateLabel(sales, stock, e.horizon, movement), nil
}

func (e *Evaluator) publishDrift(ctx context.Context, report *models.DriftReport) {
	if e.events == nil {
		return
	}
	event := &models.DriftDetectedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeDriftDetected,
			Timestamp: time.Now().UTC(),
		},
		PSI:               report.PSI,
		KL:                report.KL,
		FallbackTriggered: report.FallbackTriggered,
	}
	if err := e.events.PublishDriftDetected(ctx, event); err != nil {
		e.logger.Error("Failed to publish drift event", zap.Error(err))
	}
}

func (e *Evaluator) publishRollback(ctx context.Context, previous *models.ModelVersion) {
	if e.events == nil {
		return
	}
	event := &models.ModelRolledBackEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeModelRolledBack,
			Timestamp: time.Now().UTC(),
		},
		ModelName: previous.Name,
		Version:   previous.Version,
	}
	if err := e.events.PublishModelRolledBack(ctx, event); err != nil {
		e.logger.Error("Failed to publish rollback event", zap.Error(err))
	}
}

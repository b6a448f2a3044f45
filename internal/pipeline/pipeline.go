// Package pipeline wires the full training run: ingest, validate,
// engineer, train, evaluate, promote.
package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"stockout-service/config"
	"stockout-service/internal/dataset"
	"stockout-service/internal/feature"
	"stockout-service/internal/learner"
	"stockout-service/internal/lifecycle"
	"stockout-service/internal/models"
	"stockout-service/internal/registry"
	"stockout-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DataSource delivers the run's input tables.
type DataSource interface {
	LoadDatasets(ctx context.Context) (map[string]*dataset.Dataset, error)
}

// ReferenceSink receives the promoted model's score distribution, which
// later drift checks compare against.
type ReferenceSink interface {
	SetReferenceScores(ctx context.Context, scores []float64) error
}

// EventSink publishes pipeline lifecycle events. May be nil.
type EventSink interface {
	PublishPipelineCompleted(ctx context.Context, event *models.PipelineCompletedEvent) error
	PublishModelPromoted(ctx context.Context, event *models.ModelPromotedEvent) error
}

// Pipeline runs the training flow end to end.
type Pipeline struct {
	source     DataSource
	controller *lifecycle.Controller
	artifacts  registry.ArtifactStore
	learner    learner.Learner
	builder    *feature.Builder
	cfg        config.PipelineConfig
	refs       ReferenceSink
	events     EventSink
	logger     *zap.Logger
}

// New creates a training pipeline. refs and events may be nil.
func New(
	source DataSource,
	controller *lifecycle.Controller,
	artifacts registry.ArtifactStore,
	lrn learner.Learner,
	builder *feature.Builder,
	cfg config.PipelineConfig,
	refs ReferenceSink,
	events EventSink,
) *Pipeline {
	return &Pipeline{
		source:     source,
		controller: controller,
		artifacts:  artifacts,
		learner:    lrn,
		builder:    builder,
		cfg:        cfg,
		refs:       refs,
		events:     events,
		logger:     util.GetLogger(),
	}
}

// Run executes one full training run. horizonDays <= 0 uses the configured
// default. Schema problems abort the run before feature engineering with a
// *dataset.SchemaError carrying the complete problem list.
func (p *Pipeline) Run(ctx context.Context, horizonDays int) (*models.PipelineResult, error) {
	ctx, span := util.StartSpan(ctx, "Pipeline.Run")
	defer span.End()

	start := time.Now()
	if horizonDays <= 0 {
		horizonDays = p.cfg.HorizonDays
	}

	datasets, err := p.source.LoadDatasets(ctx)
	if err != nil {
		util.PipelineRunsTotal.WithLabelValues("ingest_error").Inc()
		return nil, fmt.Errorf("failed to ingest datasets: %w", err)
	}

	if err := p.validate(datasets); err != nil {
		util.PipelineRunsTotal.WithLabelValues("schema_error").Inc()
		return nil, err
	}

	matrix, err := p.engineer(datasets, horizonDays)
	if err != nil {
		util.PipelineRunsTotal.WithLabelValues("feature_error").Inc()
		return nil, err
	}

	trainMetrics, model, err := p.train(ctx, matrix)
	if err != nil {
		util.PipelineRunsTotal.WithLabelValues("train_error").Inc()
		return nil, err
	}

	fullProbs := model.PredictProba(matrix.X)
	evalMetrics := EvaluatePredictions(matrix.Y, fullProbs, p.cfg.DecisionThreshold)

	status, err := p.promote(ctx, trainMetrics, fullProbs)
	if err != nil {
		util.PipelineRunsTotal.WithLabelValues("promote_error").Inc()
		return nil, err
	}

	result := &models.PipelineResult{
		TrainMetrics: trainMetrics,
		EvalMetrics:  evalMetrics,
		Status:       status,
	}

	if p.events != nil {
		event := &models.PipelineCompletedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypePipelineCompleted,
				Timestamp: time.Now().UTC(),
			},
			RunID:        trainMetrics.RunID,
			Status:       status,
			ModelVersion: trainMetrics.ModelVersion,
			ValF1:        trainMetrics.ValF1,
		}
		if err := p.events.PublishPipelineCompleted(ctx, event); err != nil {
			p.logger.Error("Failed to publish pipeline completion", zap.Error(err))
		}
	}

	util.PipelineRunsTotal.WithLabelValues(status).Inc()
	util.PipelineRunDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("Pipeline run finished",
		zap.String("run_id", trainMetrics.RunID),
		zap.String("status", status),
		zap.Float64("val_f1", trainMetrics.ValF1),
		zap.Int("model_version", trainMetrics.ModelVersion))

	return result, nil
}

// validate collects every schema problem across the three datasets; any
// problem is fatal to the run.
func (p *Pipeline) validate(datasets map[string]*dataset.Dataset) error {
	var problems []string
	for _, name := range []string{dataset.StockCurrent, dataset.SalesTransactions, dataset.StockMovement} {
		ds, ok := datasets[name]
		if !ok {
			problems = append(problems, fmt.Sprintf("Missing dataset: %s", name))
			continue
		}
		problems = append(problems, dataset.CheckSchema(ds, dataset.Schemas[name])...)
	}
	if len(problems) > 0 {
		return &dataset.SchemaError{Problems: problems}
	}
	return nil
}

func (p *Pipeline) engineer(datasets map[string]*dataset.Dataset, horizonDays int) (*feature.Matrix, error) {
	stock, err := dataset.StockRecords(datasets[dataset.StockCurrent])
	if err != nil {
		return nil, err
	}
	sales, err := dataset.SalesRecords(datasets[dataset.SalesTransactions])
	if err != nil {
		return nil, err
	}
	movement, err := dataset.MovementRecords(datasets[dataset.StockMovement])
	if err != nil {
		return nil, err
	}

	labeled := feature.CreateLabel(sales, stock, horizonDays, movement)
	return p.builder.Build(labeled)
}

// train splits the matrix, rebalances the training split only, fits the
// learner, computes validation metrics and registers the artifact as a
// Staging version.
func (p *Pipeline) train(ctx context.Context, matrix *feature.Matrix) (models.TrainMetrics, learner.Model, error) {
	trainIdx, valIdx := splitIndices(matrix.Y, p.cfg.ValidationFraction, p.cfg.Seed)

	trainX := matrix.X.SelectRows(trainIdx)
	trainY := selectLabels(matrix.Y, trainIdx)
	valX := matrix.X.SelectRows(valIdx)
	valY := selectLabels(matrix.Y, valIdx)

	trainX, trainY = feature.Rebalance(trainX, trainY, p.cfg.ImbalanceThreshold, p.cfg.Seed)

	model, err := p.learner.Fit(trainX, trainY)
	if err != nil {
		return models.TrainMetrics{}, nil, fmt.Errorf("failed to fit model: %w", err)
	}

	valProbs := model.PredictProba(valX)
	valMetrics := EvaluatePredictions(valY, valProbs, p.cfg.DecisionThreshold)

	runID := uuid.New().String()
	payload, err := model.Encode()
	if err != nil {
		return models.TrainMetrics{}, nil, fmt.Errorf("failed to encode model: %w", err)
	}
	if err := p.artifacts.SaveArtifact(ctx, runID, payload); err != nil {
		return models.TrainMetrics{}, nil, fmt.Errorf("failed to save model artifact: %w", err)
	}

	mv, err := p.controller.Register(ctx, registry.RunsURI(runID))
	if err != nil {
		return models.TrainMetrics{}, nil, err
	}

	return models.TrainMetrics{
		ValAUC:       valMetrics.AUC,
		ValPrecision: valMetrics.Precision,
		ValRecall:    valMetrics.Recall,
		ValF1:        valMetrics.F1,
		ModelVersion: mv.Version,
		RunID:        runID,
	}, model, nil
}

// promote applies the acceptance gate: only a validation F1 at or above
// the threshold reaches Production; otherwise the version stays Staged.
func (p *Pipeline) promote(ctx context.Context, trainMetrics models.TrainMetrics, fullProbs []float64) (string, error) {
	if trainMetrics.ValF1 < p.cfg.AcceptanceThreshold {
		return models.PipelineStatusStaging, nil
	}

	if err := p.controller.PromoteToProduction(ctx, trainMetrics.ModelVersion); err != nil {
		return "", err
	}

	if p.refs != nil {
		if err := p.refs.SetReferenceScores(ctx, fullProbs); err != nil {
			p.logger.Error("Failed to store reference score distribution", zap.Error(err))
		}
	}

	if p.events != nil {
		event := &models.ModelPromotedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeModelPromoted,
				Timestamp: time.Now().UTC(),
			},
			ModelName: p.controller.ModelName(),
			Version:   trainMetrics.ModelVersion,
		}
		if err := p.events.PublishModelPromoted(ctx, event); err != nil {
			p.logger.Error("Failed to publish promotion event", zap.Error(err))
		}
	}

	return models.PipelineStatusPromoted, nil
}

// splitIndices produces a seeded train/validation split, stratified by
// class whenever both classes have at least two members.
func splitIndices(y []int, valFraction float64, seed int64) (train, val []int) {
	rng := rand.New(rand.NewSource(seed))

	var pos, neg []int
	for i, label := range y {
		if label == 1 {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}

	if len(pos) >= 2 && len(neg) >= 2 {
		trainPos, valPos := splitClass(pos, valFraction, rng)
		trainNeg, valNeg := splitClass(neg, valFraction, rng)
		return append(trainPos, trainNeg...), append(valPos, valNeg...)
	}

	all := make([]int, len(y))
	for i := range all {
		all[i] = i
	}
	return splitClass(all, valFraction, rng)
}

func splitClass(indices []int, valFraction float64, rng *rand.Rand) (train, val []int) {
	shuffled := make([]int, len(indices))
	copy(shuffled, indices)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	nVal := int(float64(len(shuffled)) * valFraction)
	if nVal == 0 && len(shuffled) > 1 {
		nVal = 1
	}
	return shuffled[nVal:], shuffled[:nVal]
}

func selectLabels(y []int, indices []int) []int {
	out := make([]int, len(indices))
	for i, idx := range indices {
		out[i] = y[idx]
	}
	return out
}

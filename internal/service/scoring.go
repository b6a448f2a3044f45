package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"stockout-service/internal/feature"
	"stockout-service/internal/learner"
	"stockout-service/internal/models"
	"stockout-service/internal/registry"
	"stockout-service/internal/util"

	"go.uber.org/zap"
)

// ModelCache caches the loaded production model between requests. May be
// nil, in which case every request goes to the registry.
type ModelCache interface {
	GetProductionModel(ctx context.Context) (version int, payload []byte, found bool, err error)
	CacheProductionModel(ctx context.Context, version int, payload []byte, ttl time.Duration) error
}

const modelCacheTTL = 5 * time.Minute

// ScoringService serves single-row stockout predictions from the current
// production model.
type ScoringService struct {
	registry  registry.Registry
	artifacts registry.ArtifactStore
	cache     ModelCache
	builder   *feature.Builder
	modelName string
	threshold float64
	logger    *zap.Logger
}

// NewScoringService creates a scoring service. cache may be nil.
func NewScoringService(
	reg registry.Registry,
	artifacts registry.ArtifactStore,
	cache ModelCache,
	builder *feature.Builder,
	modelName string,
	threshold float64,
) *ScoringService {
	return &ScoringService{
		registry:  reg,
		artifacts: artifacts,
		cache:     cache,
		builder:   builder,
		modelName: modelName,
		threshold: threshold,
		logger:    util.GetLogger(),
	}
}

// PredictionRequest is a single scoring payload.
type PredictionRequest struct {
	BranchID         string    `json:"branch_id" binding:"required"`
	ItemCode         string    `json:"item_code" binding:"required"`
	Date             time.Time `json:"date" binding:"required"`
	CurrentQuantity  float64   `json:"current_quantity"`
	ReservedQuantity float64   `json:"reserved_quantity"`
	SafetyStockLevel float64   `json:"safety_stock_level"`
	FutureSales      float64   `json:"future_sales"`
}

// PredictionResponse is the scoring result.
type PredictionResponse struct {
	Prediction   int     `json:"prediction"`
	Probability  float64 `json:"probability"`
	ModelVersion string  `json:"model_version"`
}

// PrepareFeatures builds the single-row feature matrix for a scoring
// payload. Transfer branch columns default to the request's own branch;
// the label slot is a zero placeholder since the truth is unknown at
// request time.
func (s *ScoringService) PrepareFeatures(req *PredictionRequest) (*feature.Matrix, error) {
	row := models.LabeledRow{
		BranchID:         req.BranchID,
		ItemCode:         req.ItemCode,
		FromBranchID:     req.BranchID,
		ToBranchID:       req.BranchID,
		CurrentQuantity:  req.CurrentQuantity,
		ReservedQuantity: req.ReservedQuantity,
		SafetyStockLevel: req.SafetyStockLevel,
		LastUpdatedAt:    req.Date,
		FutureSales:      req.FutureSales,
		NetMovement:      0,
		ProjectedStock:   req.CurrentQuantity - req.ReservedQuantity - req.FutureSales,
		LabelStockout:    0,
	}
	return s.builder.Build([]models.LabeledRow{row})
}

// Predict scores one payload against the current production model.
func (s *ScoringService) Predict(ctx context.Context, req *PredictionRequest) (*PredictionResponse, error) {
	ctx, span := util.StartSpan(ctx, "ScoringService.Predict")
	defer span.End()

	start := time.Now()

	model, version, err := s.loadProductionModel(ctx)
	if err != nil {
		util.PredictionsTotal.WithLabelValues("no_model").Inc()
		return nil, err
	}

	matrix, err := s.PrepareFeatures(req)
	if err != nil {
		util.PredictionsTotal.WithLabelValues("feature_error").Inc()
		return nil, fmt.Errorf("failed to prepare features: %w", err)
	}

	prob := model.PredictProba(matrix.X)[0]
	prediction := 0
	if prob >= s.threshold {
		prediction = 1
	}

	util.PredictionsTotal.WithLabelValues("ok").Inc()
	util.PredictionLatency.Observe(time.Since(start).Seconds())

	return &PredictionResponse{
		Prediction:   prediction,
		Probability:  prob,
		ModelVersion: strconv.Itoa(version),
	}, nil
}

// loadProductionModel returns the decoded production model, preferring the
// cache. A registry with no Production version yields
// registry.ErrNoModelAvailable.
func (s *ScoringService) loadProductionModel(ctx context.Context) (learner.Model, int, error) {
	if s.cache != nil {
		version, payload, found, err := s.cache.GetProductionModel(ctx)
		if err != nil {
			s.logger.Warn("Model cache lookup failed, falling back to registry", zap.Error(err))
		} else if found {
			model, err := learner.Decode(payload)
			if err == nil {
				return model, version, nil
			}
			s.logger.Warn("Cached model payload is invalid, falling back to registry", zap.Error(err))
		}
	}

	versions, err := s.registry.GetLatestVersions(ctx, s.modelName, []string{models.StageProduction})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query registry: %w", err)
	}
	if len(versions) == 0 {
		return nil, 0, registry.ErrNoModelAvailable
	}
	mv := versions[0]

	runID, err := registry.RunIDFromURI(mv.ArtifactURI)
	if err != nil {
		return nil, 0, err
	}
	payload, err := s.artifacts.LoadArtifact(ctx, runID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load model artifact: %w", err)
	}
	model, err := learner.Decode(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode model: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.CacheProductionModel(ctx, mv.Version, payload, modelCacheTTL); err != nil {
			s.logger.Warn("Failed to cache production model", zap.Error(err))
		}
	}

	return model, mv.Version, nil
}

// Package lifecycle governs the Staging/Production/Archived state machine
// for registered model versions.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"stockout-service/internal/models"
	"stockout-service/internal/registry"
	"stockout-service/internal/util"

	"go.uber.org/zap"
)

// ErrInsufficientHistory is returned when a rollback is requested with
// fewer than two live versions. Non-fatal: the caller falls back to the
// non-ML baseline rule.
var ErrInsufficientHistory = errors.New("fewer than two versions available, rollback not possible")

// Controller mediates all registry transitions for one model name.
// Promotions and rollbacks are serialized through the controller mutex so
// the archive-on-promote invariant holds under concurrent callers.
type Controller struct {
	registry  registry.Registry
	modelName string
	mu        sync.Mutex
	logger    *zap.Logger
}

// NewController creates a lifecycle controller for a named model.
func NewController(reg registry.Registry, modelName string) *Controller {
	return &Controller{
		registry:  reg,
		modelName: modelName,
		logger:    util.GetLogger(),
	}
}

// ModelName returns the model name this controller governs.
func (c *Controller) ModelName() string {
	return c.modelName
}

// Register records a run artifact as a new Staging version.
func (c *Controller) Register(ctx context.Context, artifactURI string) (models.ModelVersion, error) {
	mv, err := c.registry.Register(ctx, c.modelName, artifactURI)
	if err != nil {
		return models.ModelVersion{}, fmt.Errorf("failed to register model: %w", err)
	}

	c.logger.Info("Model version registered",
		zap.String("model", c.modelName),
		zap.Int("version", mv.Version),
		zap.String("artifact_uri", artifactURI))
	return mv, nil
}

// PromoteToProduction moves a version to Production, archiving every other
// Production version of the same name in one atomic transition. At most
// one Production version exists per name at any instant.
func (c *Controller) PromoteToProduction(ctx context.Context, version int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.registry.Transition(ctx, c.modelName, version, models.StageProduction, true); err != nil {
		return fmt.Errorf("failed to promote version %d: %w", version, err)
	}

	util.ModelPromotionsTotal.Inc()
	c.logger.Info("Model promoted to production",
		zap.String("model", c.modelName),
		zap.Int("version", version))
	return nil
}

// RollbackProduction reverts to the previous live version: of the latest
// Production and Staging versions ordered by version number descending,
// the second-most-recent becomes Production and the current one is
// archived. With fewer than two candidates it is a no-op returning
// ErrInsufficientHistory.
func (c *Controller) RollbackProduction(ctx context.Context) (*models.ModelVersion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	versions, err := c.registry.GetLatestVersions(ctx, c.modelName, []string{models.StageProduction, models.StageStaging})
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	if len(versions) < 2 {
		return nil, ErrInsufficientHistory
	}

	sort.Slice(versions, func(i, j int) bool { return versions[i].Version > versions[j].Version })
	previous := versions[1]

	if err := c.registry.Transition(ctx, c.modelName, previous.Version, models.StageProduction, true); err != nil {
		return nil, fmt.Errorf("failed to roll back to version %d: %w", previous.Version, err)
	}

	util.ModelRollbacksTotal.Inc()
	c.logger.Warn("Production model rolled back",
		zap.String("model", c.modelName),
		zap.Int("version", previous.Version))
	return &previous, nil
}

// Production returns the current Production version.
func (c *Controller) Production(ctx context.Context) (*models.ModelVersion, error) {
	versions, err := c.registry.GetLatestVersions(ctx, c.modelName, []string{models.StageProduction})
	if err != nil {
		return nil, fmt.Errorf("failed to query production version: %w", err)
	}
	if len(versions) == 0 {
		return nil, registry.ErrNoModelAvailable
	}
	return &versions[0], nil
}

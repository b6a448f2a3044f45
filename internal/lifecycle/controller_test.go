package lifecycle

import (
	"context"
	"testing"

	"stockout-service/internal/models"
	"stockout-service/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController() (*Controller, *registry.Memory) {
	reg := registry.NewMemory()
	return NewController(reg, "stockout_classifier"), reg
}

func TestPromoteArchivesPrevious(t *testing.T) {
	c, reg := newTestController()
	ctx := context.Background()

	v1, err := c.Register(ctx, registry.RunsURI("run-1"))
	require.NoError(t, err)
	v2, err := c.Register(ctx, registry.RunsURI("run-2"))
	require.NoError(t, err)

	require.NoError(t, c.PromoteToProduction(ctx, v1.Version))
	require.NoError(t, c.PromoteToProduction(ctx, v2.Version))

	prod, err := c.Production(ctx)
	require.NoError(t, err)
	assert.Equal(t, v2.Version, prod.Version)

	// the displaced version is archived, never left in Production
	archived, err := reg.GetLatestVersions(ctx, "stockout_classifier", []string{models.StageArchived})
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, v1.Version, archived[0].Version)
}

func TestProductionEmpty(t *testing.T) {
	c, _ := newTestController()

	_, err := c.Production(context.Background())
	assert.ErrorIs(t, err, registry.ErrNoModelAvailable)
}

func TestRollbackRestoresPrevious(t *testing.T) {
	c, _ := newTestController()
	ctx := context.Background()

	// v1 stays in Staging, v2 goes to Production
	v1, _ := c.Register(ctx, registry.RunsURI("run-1"))
	v2, _ := c.Register(ctx, registry.RunsURI("run-2"))
	require.NoError(t, c.PromoteToProduction(ctx, v2.Version))

	previous, err := c.RollbackProduction(ctx)
	require.NoError(t, err)
	assert.Equal(t, v1.Version, previous.Version)

	prod, err := c.Production(ctx)
	require.NoError(t, err)
	assert.Equal(t, v1.Version, prod.Version)
}

func TestRollbackInsufficientHistory(t *testing.T) {
	c, _ := newTestController()
	ctx := context.Background()

	v1, _ := c.Register(ctx, registry.RunsURI("run-1"))
	require.NoError(t, c.PromoteToProduction(ctx, v1.Version))

	_, err := c.RollbackProduction(ctx)
	assert.ErrorIs(t, err, ErrInsufficientHistory)

	// the production version is untouched by a failed rollback
	prod, err := c.Production(ctx)
	require.NoError(t, err)
	assert.Equal(t, v1.Version, prod.Version)
}

func TestRollbackNoVersions(t *testing.T) {
	c, _ := newTestController()

	_, err := c.RollbackProduction(context.Background())
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

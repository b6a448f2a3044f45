package monitor

import (
	"context"
	"testing"
	"time"

	"stockout-service/config"
	"stockout-service/internal/dataset"
	"stockout-service/internal/lifecycle"
	"stockout-service/internal/models"
	"stockout-service/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	datasets map[string]*dataset.Dataset
}

func (f *fakeSource) LoadDatasets(ctx context.Context) (map[string]*dataset.Dataset, error) {
	return f.datasets, nil
}

type fakeRefs struct {
	scores []float64
}

func (f *fakeRefs) ReferenceScores(ctx context.Context) ([]float64, error) {
	return f.scores, nil
}

type fakeReports struct {
	saved []*models.DriftReport
}

func (f *fakeReports) SaveDriftReport(ctx context.Context, report *models.DriftReport) error {
	f.saved = append(f.saved, report)
	return nil
}

type fakeEvents struct {
	drift    []*models.DriftDetectedEvent
	rollback []*models.ModelRolledBackEvent
}

func (f *fakeEvents) PublishDriftDetected(ctx context.Context, e *models.DriftDetectedEvent) error {
	f.drift = append(f.drift, e)
	return nil
}

func (f *fakeEvents) PublishModelRolledBack(ctx context.Context, e *models.ModelRolledBackEvent) error {
	f.rollback = append(f.rollback, e)
	return nil
}

type fakeCache struct {
	invalidations int
}

func (f *fakeCache) InvalidateProductionModel(ctx context.Context) error {
	f.invalidations++
	return nil
}

func driftConfig() config.DriftConfig {
	return config.DriftConfig{PSILimit: 0.2, KLLimit: 0.5, Bins: 10}
}

// snapshotDatasets builds a schema-valid stock snapshot whose label is 1
// for the first stockouts rows and 0 for the rest.
func snapshotDatasets(t *testing.T, n, stockouts int) map[string]*dataset.Dataset {
	t.Helper()

	updated := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	branches := make([]string, n)
	items := make([]string, n)
	current := make([]float64, n)
	safety := make([]float64, n)
	times := make([]time.Time, n)

	for i := 0; i < n; i++ {
		branches[i] = "BR-01"
		items[i] = "ITEM-01"
		safety[i] = 3
		times[i] = updated
		if i < stockouts {
			current[i] = 1
		} else {
			current[i] = 10
		}
	}

	stock := dataset.New(dataset.StockCurrent, n)
	require.NoError(t, stock.SetStrings("BranchID", branches))
	require.NoError(t, stock.SetStrings("ItemCode", items))
	require.NoError(t, stock.SetFloats("CurrentQuantity", current))
	require.NoError(t, stock.SetFloats("ReservedQuantity", make([]float64, n)))
	require.NoError(t, stock.SetFloats("SafetyStockLevel", safety))
	require.NoError(t, stock.SetTimes("LastUpdatedAt", times))

	sales := dataset.New(dataset.SalesTransactions, 0)
	require.NoError(t, sales.SetTimes("Date", nil))
	require.NoError(t, sales.SetStrings("BranchID", nil))
	require.NoError(t, sales.SetStrings("ItemCode", nil))
	require.NoError(t, sales.SetFloats("QuantitySold", nil))

	return map[string]*dataset.Dataset{
		dataset.StockCurrent:      stock,
		dataset.SalesTransactions: sales,
	}
}

func labelReference(n, stockouts int) []float64 {
	scores := make([]float64, n)
	for i := 0; i < stockouts; i++ {
		scores[i] = 1
	}
	return scores
}

func TestRunNoDrift(t *testing.T) {
	reg := registry.NewMemory()
	controller := lifecycle.NewController(reg, "stockout_classifier")

	source := &fakeSource{datasets: snapshotDatasets(t, 40, 20)}
	refs := &fakeRefs{scores: labelReference(40, 20)}
	reports := &fakeReports{}
	events := &fakeEvents{}
	cache := &fakeCache{}

	e := NewEvaluator(source, controller, refs, reports, events, cache, driftConfig(), 7)

	report, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.PSIOk)
	assert.True(t, report.KLOk)
	assert.False(t, report.FallbackTriggered)
	assert.Nil(t, report.RollbackVersion)
	assert.Empty(t, report.BaselineRule)

	assert.Empty(t, events.drift)
	assert.Empty(t, events.rollback)
	assert.Zero(t, cache.invalidations)
	require.Len(t, reports.saved, 1)
}

func TestRunDriftTriggersRollback(t *testing.T) {
	reg := registry.NewMemory()
	controller := lifecycle.NewController(reg, "stockout_classifier")
	ctx := context.Background()

	// v1 stays in Staging, v2 is the drifting Production model
	v1, err := controller.Register(ctx, registry.RunsURI("run-1"))
	require.NoError(t, err)
	v2, err := controller.Register(ctx, registry.RunsURI("run-2"))
	require.NoError(t, err)
	require.NoError(t, controller.PromoteToProduction(ctx, v2.Version))

	// reference spread over [0,1], current labels all stockout
	reference := make([]float64, 40)
	for i := range reference {
		reference[i] = float64(i) / 39
	}

	source := &fakeSource{datasets: snapshotDatasets(t, 40, 40)}
	refs := &fakeRefs{scores: reference}
	reports := &fakeReports{}
	events := &fakeEvents{}
	cache := &fakeCache{}

	e := NewEvaluator(source, controller, refs, reports, events, cache, driftConfig(), 7)

	report, err := e.Run(ctx)
	require.NoError(t, err)

	assert.True(t, report.FallbackTriggered)
	require.NotNil(t, report.RollbackVersion)
	assert.Equal(t, v1.Version, *report.RollbackVersion)
	assert.Empty(t, report.BaselineRule)

	prod, err := controller.Production(ctx)
	require.NoError(t, err)
	assert.Equal(t, v1.Version, prod.Version)

	assert.Equal(t, 1, cache.invalidations)
	require.Len(t, events.drift, 1)
	require.Len(t, events.rollback, 1)
	require.Len(t, reports.saved, 1)
}

func TestRunDriftWithoutHistoryUsesBaseline(t *testing.T) {
	reg := registry.NewMemory()
	controller := lifecycle.NewController(reg, "stockout_classifier")
	ctx := context.Background()

	// single version in Production: rollback is impossible
	v1, err := controller.Register(ctx, registry.RunsURI("run-1"))
	require.NoError(t, err)
	require.NoError(t, controller.PromoteToProduction(ctx, v1.Version))

	reference := make([]float64, 40)
	for i := range reference {
		reference[i] = float64(i) / 39
	}

	source := &fakeSource{datasets: snapshotDatasets(t, 40, 40)}
	refs := &fakeRefs{scores: reference}
	events := &fakeEvents{}
	cache := &fakeCache{}

	e := NewEvaluator(source, controller, refs, nil, events, cache, driftConfig(), 7)

	report, err := e.Run(ctx)
	require.NoError(t, err)

	assert.True(t, report.FallbackTriggered)
	assert.Nil(t, report.RollbackVersion)

	// baseline flags every row already under its safety level
	require.Len(t, report.BaselineRule, 40)
	for _, label := range report.BaselineRule {
		assert.Equal(t, 1, label)
	}

	// production model is untouched
	prod, err := controller.Production(ctx)
	require.NoError(t, err)
	assert.Equal(t, v1.Version, prod.Version)
	assert.Zero(t, cache.invalidations)
	require.Len(t, events.drift, 1)
	assert.Empty(t, events.rollback)
}

func TestRunRequiresReferenceScores(t *testing.T) {
	reg := registry.NewMemory()
	controller := lifecycle.NewController(reg, "stockout_classifier")

	source := &fakeSource{datasets: snapshotDatasets(t, 4, 2)}
	e := NewEvaluator(source, controller, &fakeRefs{}, nil, nil, nil, driftConfig(), 7)

	_, err := e.Run(context.Background())
	assert.Error(t, err)
}

func TestBaselineRule(t *testing.T) {
	rows := []models.LabeledRow{
		{CurrentQuantity: 1, SafetyStockLevel: 3},
		{CurrentQuantity: 3, SafetyStockLevel: 3},
		{CurrentQuantity: 10, SafetyStockLevel: 3},
	}

	assert.Equal(t, []int{1, 0, 0}, BaselineRule(rows))
}

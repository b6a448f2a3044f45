package pipeline

import (
	"context"
	"testing"
	"time"

	"stockout-service/config"
	"stockout-service/internal/dataset"
	"stockout-service/internal/feature"
	"stockout-service/internal/learner"
	"stockout-service/internal/lifecycle"
	"stockout-service/internal/models"
	"stockout-service/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	datasets map[string]*dataset.Dataset
	err      error
}

func (f *fakeSource) LoadDatasets(ctx context.Context) (map[string]*dataset.Dataset, error) {
	return f.datasets, f.err
}

type fakeRefs struct {
	scores []float64
}

func (f *fakeRefs) SetReferenceScores(ctx context.Context, scores []float64) error {
	f.scores = scores
	return nil
}

type fakeEvents struct {
	completed []*models.PipelineCompletedEvent
	promoted  []*models.ModelPromotedEvent
}

func (f *fakeEvents) PublishPipelineCompleted(ctx context.Context, e *models.PipelineCompletedEvent) error {
	f.completed = append(f.completed, e)
	return nil
}

func (f *fakeEvents) PublishModelPromoted(ctx context.Context, e *models.ModelPromotedEvent) error {
	f.promoted = append(f.promoted, e)
	return nil
}

func testConfig() config.PipelineConfig {
	return config.PipelineConfig{
		ModelName:           "stockout_classifier",
		HorizonDays:         7,
		HashSpace:           64,
		CrossHashSpace:      32,
		Seed:                42,
		AcceptanceThreshold: 0.7,
		ImbalanceThreshold:  0.2,
		ValidationFraction:  0.2,
		DecisionThreshold:   0.5,
	}
}

// trainingDatasets builds a schema-valid snapshot with clearly separable
// classes: healthy rows with ample stock and stockout rows already under
// their safety level.
func trainingDatasets(t *testing.T) map[string]*dataset.Dataset {
	t.Helper()

	const n = 40
	updated := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	branches := make([]string, n)
	names := make([]string, n)
	items := make([]string, n)
	itemNames := make([]string, n)
	current := make([]float64, n)
	reserved := make([]float64, n)
	safety := make([]float64, n)
	times := make([]time.Time, n)

	for i := 0; i < n; i++ {
		branches[i] = "BR-01"
		items[i] = "ITEM-01"
		safety[i] = 3
		times[i] = updated
		if i%2 == 0 {
			current[i] = 10
		} else {
			current[i] = 1
		}
	}

	stock := dataset.New(dataset.StockCurrent, n)
	require.NoError(t, stock.SetStrings("BranchID", branches))
	require.NoError(t, stock.SetStrings("BranchName", names))
	require.NoError(t, stock.SetStrings("ItemCode", items))
	require.NoError(t, stock.SetStrings("ItemName", itemNames))
	require.NoError(t, stock.SetFloats("CurrentQuantity", current))
	require.NoError(t, stock.SetFloats("ReservedQuantity", reserved))
	require.NoError(t, stock.SetFloats("SafetyStockLevel", safety))
	require.NoError(t, stock.SetTimes("LastUpdatedAt", times))

	sales := dataset.New(dataset.SalesTransactions, 0)
	require.NoError(t, sales.SetTimes("Date", nil))
	for _, col := range []string{"BranchID", "BranchName", "InvoiceNumber", "ItemCode", "ItemName"} {
		require.NoError(t, sales.SetStrings(col, nil))
	}
	require.NoError(t, sales.SetFloats("QuantitySold", nil))

	movement := dataset.New(dataset.StockMovement, 0)
	require.NoError(t, movement.SetTimes("Date", nil))
	for _, col := range []string{"MovementID", "FromBranchID", "FromBranchName", "ToBranchID", "ToBranchName", "ItemCode", "ItemName"} {
		require.NoError(t, movement.SetStrings(col, nil))
	}
	require.NoError(t, movement.SetFloats("QuantityMoved", nil))

	return map[string]*dataset.Dataset{
		dataset.StockCurrent:      stock,
		dataset.SalesTransactions: sales,
		dataset.StockMovement:     movement,
	}
}

func newTestPipeline(t *testing.T, cfg config.PipelineConfig, source DataSource, refs ReferenceSink, events EventSink) (*Pipeline, *registry.Memory) {
	t.Helper()
	reg := registry.NewMemory()
	controller := lifecycle.NewController(reg, cfg.ModelName)
	builder := feature.NewBuilder(cfg.HashSpace, cfg.CrossHashSpace)
	p := New(source, controller, registry.NewMemoryArtifacts(), learner.NewLogisticLearner(cfg.Seed), builder, cfg, refs, events)
	return p, reg
}

func TestRunPromotesSeparableModel(t *testing.T) {
	cfg := testConfig()
	source := &fakeSource{datasets: trainingDatasets(t)}
	refs := &fakeRefs{}
	events := &fakeEvents{}

	p, reg := newTestPipeline(t, cfg, source, refs, events)

	result, err := p.Run(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, models.PipelineStatusPromoted, result.Status)
	assert.GreaterOrEqual(t, result.TrainMetrics.ValF1, cfg.AcceptanceThreshold)
	assert.Greater(t, result.EvalMetrics.AUC, 0.9)

	prod, err := reg.GetLatestVersions(context.Background(), cfg.ModelName, []string{models.StageProduction})
	require.NoError(t, err)
	require.Len(t, prod, 1)
	assert.Equal(t, result.TrainMetrics.ModelVersion, prod[0].Version)

	// reference scores recorded for later drift checks, one per input row
	assert.Len(t, refs.scores, 40)

	require.Len(t, events.completed, 1)
	assert.Equal(t, models.PipelineStatusPromoted, events.completed[0].Status)
	require.Len(t, events.promoted, 1)
	assert.Equal(t, cfg.ModelName, events.promoted[0].ModelName)
}

func TestRunBelowGateStaysStaged(t *testing.T) {
	cfg := testConfig()
	cfg.AcceptanceThreshold = 1.01 // unreachable

	source := &fakeSource{datasets: trainingDatasets(t)}
	refs := &fakeRefs{}
	events := &fakeEvents{}
	p, reg := newTestPipeline(t, cfg, source, refs, events)

	result, err := p.Run(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, models.PipelineStatusStaging, result.Status)

	prod, err := reg.GetLatestVersions(context.Background(), cfg.ModelName, []string{models.StageProduction})
	require.NoError(t, err)
	assert.Empty(t, prod)

	staged, err := reg.GetLatestVersions(context.Background(), cfg.ModelName, []string{models.StageStaging})
	require.NoError(t, err)
	require.Len(t, staged, 1)

	// no promotion, no reference distribution and no promotion event
	assert.Empty(t, refs.scores)
	assert.Empty(t, events.promoted)
	require.Len(t, events.completed, 1)
	assert.Equal(t, models.PipelineStatusStaging, events.completed[0].Status)
}

func TestRunSchemaErrorAbortsBeforeTraining(t *testing.T) {
	datasets := trainingDatasets(t)

	broken := dataset.New(dataset.StockCurrent, 1)
	require.NoError(t, broken.SetStrings("BranchID", []string{"BR-01"}))
	datasets[dataset.StockCurrent] = broken

	p, reg := newTestPipeline(t, testConfig(), &fakeSource{datasets: datasets}, nil, nil)

	_, err := p.Run(context.Background(), 0)
	require.Error(t, err)

	var schemaErr *dataset.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, schemaErr.Problems, "Missing column: SafetyStockLevel")

	// nothing was registered
	staged, err := reg.GetLatestVersions(context.Background(), "stockout_classifier", []string{models.StageStaging})
	require.NoError(t, err)
	assert.Empty(t, staged)
}

func TestRunMissingDataset(t *testing.T) {
	datasets := trainingDatasets(t)
	delete(datasets, dataset.StockMovement)

	p, _ := newTestPipeline(t, testConfig(), &fakeSource{datasets: datasets}, nil, nil)

	_, err := p.Run(context.Background(), 0)
	require.Error(t, err)

	var schemaErr *dataset.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, schemaErr.Problems, "Missing dataset: stock_movement")
}

func TestSplitIndicesStratified(t *testing.T) {
	y := make([]int, 20)
	for i := 10; i < 20; i++ {
		y[i] = 1
	}

	train, val := splitIndices(y, 0.2, 42)
	assert.Len(t, train, 16)
	assert.Len(t, val, 4)

	valPos := 0
	for _, idx := range val {
		valPos += y[idx]
	}
	assert.Equal(t, 2, valPos)
}

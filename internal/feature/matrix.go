package feature

import (
	"fmt"
	"math"
	"strconv"

	"stockout-service/internal/models"
)

// NumericColumns are the fixed dense feature columns, in matrix order.
var NumericColumns = []string{
	"CurrentQuantity",
	"ReservedQuantity",
	"SafetyStockLevel",
	"future_sales",
	"projected_stock",
	"net_movement",
}

// Matrix is the assembled training input: the numeric block concatenated
// with the hashed sparse blocks, row-aligned with the label vector.
type Matrix struct {
	X            *Sparse
	Y            []int
	FeatureNames []string
}

// Builder assembles feature matrices with fixed hash space widths.
type Builder struct {
	hashSpace      int
	crossHashSpace int
}

// NewBuilder creates a feature matrix builder.
func NewBuilder(hashSpace, crossHashSpace int) *Builder {
	return &Builder{hashSpace: hashSpace, crossHashSpace: crossHashSpace}
}

// Build concatenates the six numeric columns with the hashed categorical
// and cross blocks. Non-finite numerics are coerced to zero; a missing
// snapshot month is coded as 0. Row order is preserved from the input.
func (b *Builder) Build(rows []models.LabeledRow) (*Matrix, error) {
	n := len(rows)

	numeric := make([][]float64, n)
	items := make([]string, n)
	branches := make([]string, n)
	fromBranches := make([]string, n)
	toBranches := make([]string, n)
	months := make([]string, n)
	y := make([]int, n)

	for i, r := range rows {
		numeric[i] = []float64{
			fillZero(r.CurrentQuantity),
			fillZero(r.ReservedQuantity),
			fillZero(r.SafetyStockLevel),
			fillZero(r.FutureSales),
			fillZero(r.ProjectedStock),
			fillZero(r.NetMovement),
		}
		items[i] = r.ItemCode
		branches[i] = r.BranchID

		fromBranches[i] = r.FromBranchID
		if fromBranches[i] == "" {
			fromBranches[i] = r.BranchID
		}
		toBranches[i] = r.ToBranchID
		if toBranches[i] == "" {
			toBranches[i] = r.BranchID
		}

		month := 0
		if !r.LastUpdatedAt.IsZero() {
			month = int(r.LastUpdatedAt.Month())
		}
		months[i] = strconv.Itoa(month)

		y[i] = r.LabelStockout
	}

	blocks := []*Sparse{
		FromDense(numeric, len(NumericColumns)),
		HashCategorical(items, b.hashSpace),
		HashCategorical(branches, b.hashSpace),
		HashCategorical(fromBranches, b.hashSpace),
		HashCategorical(toBranches, b.hashSpace),
		HashFeatureCross(items, branches, b.crossHashSpace),
		HashFeatureCross(items, months, b.crossHashSpace),
	}

	x, err := HStack(blocks...)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble feature matrix: %w", err)
	}

	names := append([]string{}, NumericColumns...)
	names = append(names, "hashed_features")

	return &Matrix{X: x, Y: y, FeatureNames: names}, nil
}

// Width returns the total column count produced by Build.
func (b *Builder) Width() int {
	return len(NumericColumns) + 4*b.hashSpace + 2*b.crossHashSpace
}

func fillZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

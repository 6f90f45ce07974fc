// Package dataset provides schema-driven loading of tabular CSV data into
// the immutable numeric form the statkit estimators consume.
//
// A Schema states explicitly which columns are features, which are
// identifiers, and which single column is the binary outcome. Loading
// validates every cell against the schema before any fitting begins, so a
// missing column or a stray non-numeric value surfaces as a typed DataError
// naming the offending column and row instead of a misleading fit.
package dataset

import (
	"gonum.org/v1/gonum/mat"

	statkitErrors "github.com/strucbio/statkit/pkg/errors"
)

// Schema describes how the columns of a CSV file map onto a Dataset.
type Schema struct {
	// FeatureColumns are the numeric feature columns, in the order they
	// should appear in the feature matrix.
	FeatureColumns []string

	// OutcomeColumn is the single binary outcome column.
	OutcomeColumn string

	// IdentifierColumns are carried through as row labels and excluded
	// from the feature matrix (e.g. PDB codes, sample accessions).
	IdentifierColumns []string

	// PositiveLabel optionally names the outcome value encoded as 1.
	// When empty, the larger of the two observed values (numeric when both
	// parse as numbers, lexicographic otherwise) is the positive class.
	PositiveLabel string
}

// Validate checks the schema for internal consistency.
func (s Schema) Validate() error {
	if len(s.FeatureColumns) == 0 {
		return statkitErrors.NewValidationError("FeatureColumns", "at least one feature column is required", len(s.FeatureColumns))
	}
	if s.OutcomeColumn == "" {
		return statkitErrors.NewValidationError("OutcomeColumn", "an outcome column is required", s.OutcomeColumn)
	}

	seen := make(map[string]bool, len(s.FeatureColumns)+len(s.IdentifierColumns)+1)
	all := make([]string, 0, len(s.FeatureColumns)+len(s.IdentifierColumns)+1)
	all = append(all, s.FeatureColumns...)
	all = append(all, s.IdentifierColumns...)
	all = append(all, s.OutcomeColumn)
	for _, name := range all {
		if seen[name] {
			return statkitErrors.NewValidationError("Schema", "column listed more than once", name)
		}
		seen[name] = true
	}
	return nil
}

// Dataset is an ordered collection of samples with a numeric feature matrix
// and a binary outcome vector. It is immutable once constructed: accessors
// return copies or read-only views and Subset builds a new Dataset.
type Dataset struct {
	featureNames []string
	ids          []string
	x            *mat.Dense
	y            *mat.VecDense

	negativeLabel string
	positiveLabel string
}

// New constructs a Dataset from an in-memory feature matrix and 0/1 outcome
// vector. featureNames must match the column count of x.
func New(featureNames []string, x *mat.Dense, y *mat.VecDense) (*Dataset, error) {
	r, c := x.Dims()
	if r == 0 || c == 0 {
		return nil, statkitErrors.NewModelError("dataset.New", "empty data", statkitErrors.ErrEmptyData)
	}
	if len(featureNames) != c {
		return nil, statkitErrors.NewDimensionError("dataset.New", c, len(featureNames), 1)
	}
	if y.Len() != r {
		return nil, statkitErrors.NewDimensionError("dataset.New", r, y.Len(), 0)
	}
	for i := 0; i < r; i++ {
		if v := y.AtVec(i); v != 0 && v != 1 {
			return nil, statkitErrors.NewValidationError("y", "outcome values must be 0 or 1", v)
		}
	}

	names := make([]string, len(featureNames))
	copy(names, featureNames)
	return &Dataset{
		featureNames:  names,
		x:             mat.DenseCopyOf(x),
		y:             mat.VecDenseCopyOf(y),
		negativeLabel: "0",
		positiveLabel: "1",
	}, nil
}

// NSamples returns the number of samples.
func (d *Dataset) NSamples() int {
	r, _ := d.x.Dims()
	return r
}

// NFeatures returns the number of feature columns.
func (d *Dataset) NFeatures() int {
	_, c := d.x.Dims()
	return c
}

// FeatureNames returns a copy of the feature column names in matrix order.
func (d *Dataset) FeatureNames() []string {
	out := make([]string, len(d.featureNames))
	copy(out, d.featureNames)
	return out
}

// IDs returns a copy of the row identifiers, or nil when the schema named
// no identifier column.
func (d *Dataset) IDs() []string {
	if d.ids == nil {
		return nil
	}
	out := make([]string, len(d.ids))
	copy(out, d.ids)
	return out
}

// X returns the feature matrix. The returned matrix is shared; callers must
// not mutate it.
func (d *Dataset) X() *mat.Dense {
	return d.x
}

// Y returns the 0/1 outcome vector. The returned vector is shared; callers
// must not mutate it.
func (d *Dataset) Y() *mat.VecDense {
	return d.y
}

// YMatrix returns the outcome as an (n x 1) matrix, the shape estimator
// Fit methods expect.
func (d *Dataset) YMatrix() mat.Matrix {
	n := d.y.Len()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		out.Set(i, 0, d.y.AtVec(i))
	}
	return out
}

// Labels returns the original outcome values mapped to 0 and 1.
func (d *Dataset) Labels() (negative, positive string) {
	return d.negativeLabel, d.positiveLabel
}

// PositiveCount returns the number of samples with outcome 1.
func (d *Dataset) PositiveCount() int {
	count := 0
	for i := 0; i < d.y.Len(); i++ {
		if d.y.AtVec(i) == 1 {
			count++
		}
	}
	return count
}

// Subset builds a new Dataset containing the given rows, in the given
// order. Indices outside [0, NSamples) return a ValueError.
func (d *Dataset) Subset(indices []int) (*Dataset, error) {
	n := d.NSamples()
	nFeatures := d.NFeatures()
	if len(indices) == 0 {
		return nil, statkitErrors.NewValueError("Dataset.Subset", "empty index list")
	}

	x := mat.NewDense(len(indices), nFeatures, nil)
	y := mat.NewVecDense(len(indices), nil)
	var ids []string
	if d.ids != nil {
		ids = make([]string, len(indices))
	}

	for row, idx := range indices {
		if idx < 0 || idx >= n {
			return nil, statkitErrors.NewValueError("Dataset.Subset", "index out of range")
		}
		for j := 0; j < nFeatures; j++ {
			x.Set(row, j, d.x.At(idx, j))
		}
		y.SetVec(row, d.y.AtVec(idx))
		if ids != nil {
			ids[row] = d.ids[idx]
		}
	}

	return &Dataset{
		featureNames:  d.featureNames,
		ids:           ids,
		x:             x,
		y:             y,
		negativeLabel: d.negativeLabel,
		positiveLabel: d.positiveLabel,
	}, nil
}

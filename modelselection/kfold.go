// Package modelselection implements the data partitioning and
// regularization-path search used by the statkit analyses: stratified
// k-fold splitting, a stratified train/holdout split, and the
// cross-validated sweep over L1 regularization candidates.
package modelselection

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	statkitErrors "github.com/strucbio/statkit/pkg/errors"
)

// Fold holds the train/validation row indices of a single cross-validation
// fold. Index slices are sorted ascending.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// StratifiedKFold partitions samples into k folds while preserving the
// class proportions of the full set in every fold (within one sample of
// rounding). Every sample lands in exactly one test fold.
type StratifiedKFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int64
}

// NewStratifiedKFold creates a stratified k-fold splitter. nSplits below 2
// falls back to 5.
func NewStratifiedKFold(nSplits int, shuffle bool, randomSeed int64) *StratifiedKFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &StratifiedKFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// Split generates the stratified folds for labels y (an n x 1 matrix).
//
// The partition is fully deterministic for a fixed seed: class labels are
// visited in ascending order and the per-class shuffle uses a PCG source
// seeded from RandomSeed, so repeated calls yield identical folds.
func (skf *StratifiedKFold) Split(y mat.Matrix) ([]Fold, error) {
	nSamples, _ := y.Dims()
	if nSamples < skf.NSplits {
		return nil, statkitErrors.NewValidationError("n_splits",
			"cannot have more folds than samples", skf.NSplits)
	}

	// Group row indices by class, classes visited in ascending order.
	classIndices := make(map[float64][]int)
	for i := 0; i < nSamples; i++ {
		label := y.At(i, 0)
		classIndices[label] = append(classIndices[label], i)
	}
	labels := make([]float64, 0, len(classIndices))
	for label := range classIndices {
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	// A fold receives one sample from each class whose count reaches its
	// position, so a fold ends up empty exactly when every class has fewer
	// members than NSplits.
	largestClass := 0
	for _, label := range labels {
		if len(classIndices[label]) > largestClass {
			largestClass = len(classIndices[label])
		}
	}
	if skf.NSplits > largestClass {
		return nil, statkitErrors.NewValidationError("n_splits",
			"cannot be greater than the number of members in every class", skf.NSplits)
	}

	if skf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(skf.RandomSeed), uint64(skf.RandomSeed)))
		for _, label := range labels {
			indices := classIndices[label]
			r.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
	}

	folds := make([]Fold, skf.NSplits)

	// Distribute each class across folds: fold i receives an extra sample
	// while the class remainder lasts, keeping fold sizes within one.
	for _, label := range labels {
		indices := classIndices[label]
		nClass := len(indices)
		foldSize := nClass / skf.NSplits
		remainder := nClass % skf.NSplits

		currentIdx := 0
		for i := 0; i < skf.NSplits; i++ {
			testSize := foldSize
			if i < remainder {
				testSize++
			}
			for j := 0; j < testSize && currentIdx < nClass; j++ {
				folds[i].TestIndices = append(folds[i].TestIndices, indices[currentIdx])
				currentIdx++
			}
		}
	}

	// Train sets are the complement of each test set.
	for i := range folds {
		testSet := make(map[int]bool, len(folds[i].TestIndices))
		for _, idx := range folds[i].TestIndices {
			testSet[idx] = true
		}
		for j := 0; j < nSamples; j++ {
			if !testSet[j] {
				folds[i].TrainIndices = append(folds[i].TrainIndices, j)
			}
		}
		sort.Ints(folds[i].TestIndices)
		// Train indices are appended in ascending order already.
	}

	return folds, nil
}

// extractSubset copies the rows of X and y selected by indices into new
// matrices. Indices are assumed sorted.
func extractSubset(X, y mat.Matrix, indices []int) (*mat.Dense, *mat.Dense) {
	rows := len(indices)
	_, xCols := X.Dims()

	xSubset := mat.NewDense(rows, xCols, nil)
	ySubset := mat.NewDense(rows, 1, nil)

	for i, idx := range indices {
		for j := 0; j < xCols; j++ {
			xSubset.Set(i, j, X.At(idx, j))
		}
		ySubset.Set(i, 0, y.At(idx, 0))
	}

	return xSubset, ySubset
}

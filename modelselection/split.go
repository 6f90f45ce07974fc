package modelselection

import (
	"math/rand/v2"
	"sort"

	"github.com/strucbio/statkit/dataset"
	statkitErrors "github.com/strucbio/statkit/pkg/errors"
)

// TrainTestSplit partitions a dataset into a training set and a held-out
// test set, stratified by outcome label so both partitions keep the label
// ratio of the full dataset.
//
// testFraction is the share of each class assigned to the holdout set,
// rounded to the nearest sample per class. The two partitions are disjoint
// and together cover the dataset exactly. The split is deterministic for a
// fixed seed.
func TrainTestSplit(ds *dataset.Dataset, testFraction float64, seed int64) (train, test *dataset.Dataset, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, statkitErrors.NewValidationError("test_fraction",
			"must be strictly between 0 and 1", testFraction)
	}

	y := ds.Y()
	n := ds.NSamples()

	classIndices := make(map[float64][]int)
	for i := 0; i < n; i++ {
		label := y.AtVec(i)
		classIndices[label] = append(classIndices[label], i)
	}
	labels := make([]float64, 0, len(classIndices))
	for label := range classIndices {
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	r := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))

	var trainIdx, testIdx []int
	for _, label := range labels {
		indices := classIndices[label]
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		nTest := int(float64(len(indices))*testFraction + 0.5)
		if nTest == 0 {
			nTest = 1
		}
		if nTest >= len(indices) {
			nTest = len(indices) - 1
		}
		testIdx = append(testIdx, indices[:nTest]...)
		trainIdx = append(trainIdx, indices[nTest:]...)
	}
	if len(trainIdx) == 0 || len(testIdx) == 0 {
		return nil, nil, statkitErrors.NewValueError("TrainTestSplit",
			"dataset too small to split")
	}

	sort.Ints(trainIdx)
	sort.Ints(testIdx)

	train, err = ds.Subset(trainIdx)
	if err != nil {
		return nil, nil, err
	}
	test, err = ds.Subset(testIdx)
	if err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

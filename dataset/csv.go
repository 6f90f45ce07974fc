package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	statkitErrors "github.com/strucbio/statkit/pkg/errors"
)

// missing values as they commonly appear in exported spreadsheets.
var missingTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
}

func isMissing(cell string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(cell))]
}

// LoadCSV reads a CSV file with a header row and maps it onto a Dataset
// according to the schema.
func LoadCSV(path string, schema Schema) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, statkitErrors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f, schema)
}

// ReadCSV reads CSV data with a header row from r and maps it onto a
// Dataset according to the schema.
//
// Validation is strict and happens before any numeric work: a schema column
// absent from the header, a feature cell that does not parse as a number, a
// missing value, or an outcome column with anything other than exactly two
// distinct values all yield a DataError identifying the offending column and
// 1-based file row.
func ReadCSV(r io.Reader, schema Schema) (*Dataset, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, statkitErrors.Wrap(err, "read csv")
	}
	if len(records) < 2 {
		return nil, statkitErrors.NewModelError("dataset.ReadCSV", "no data rows", statkitErrors.ErrEmptyData)
	}

	header := records[0]
	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.TrimSpace(name)] = i
	}

	locate := func(name string) (int, error) {
		idx, ok := colIndex[name]
		if !ok {
			return 0, statkitErrors.NewDataError("dataset.ReadCSV", name, 0, "column not found in header")
		}
		return idx, nil
	}

	featureIdx := make([]int, len(schema.FeatureColumns))
	for i, name := range schema.FeatureColumns {
		if featureIdx[i], err = locate(name); err != nil {
			return nil, err
		}
	}
	outcomeIdx, err := locate(schema.OutcomeColumn)
	if err != nil {
		return nil, err
	}
	idIdx := make([]int, len(schema.IdentifierColumns))
	for i, name := range schema.IdentifierColumns {
		if idIdx[i], err = locate(name); err != nil {
			return nil, err
		}
	}

	nRows := len(records) - 1
	x := mat.NewDense(nRows, len(featureIdx), nil)
	rawOutcomes := make([]string, nRows)
	var ids []string
	if len(idIdx) > 0 {
		ids = make([]string, nRows)
	}

	for i, record := range records[1:] {
		fileRow := i + 2 // 1-based, counting the header

		for j, col := range featureIdx {
			cell := record[col]
			if isMissing(cell) {
				return nil, statkitErrors.NewDataError("dataset.ReadCSV",
					schema.FeatureColumns[j], fileRow, "missing value")
			}
			value, parseErr := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if parseErr != nil {
				return nil, statkitErrors.NewDataError("dataset.ReadCSV",
					schema.FeatureColumns[j], fileRow, "non-numeric value "+strconv.Quote(cell))
			}
			x.Set(i, j, value)
		}

		outcome := strings.TrimSpace(record[outcomeIdx])
		if isMissing(outcome) {
			return nil, statkitErrors.NewDataError("dataset.ReadCSV",
				schema.OutcomeColumn, fileRow, "missing value")
		}
		rawOutcomes[i] = outcome

		if ids != nil {
			parts := make([]string, len(idIdx))
			for k, col := range idIdx {
				parts[k] = strings.TrimSpace(record[col])
			}
			ids[i] = strings.Join(parts, "/")
		}
	}

	negative, positive, err := resolveLabels(rawOutcomes, schema)
	if err != nil {
		return nil, err
	}

	y := mat.NewVecDense(nRows, nil)
	for i, outcome := range rawOutcomes {
		if outcome == positive {
			y.SetVec(i, 1)
		}
	}

	names := make([]string, len(schema.FeatureColumns))
	copy(names, schema.FeatureColumns)
	return &Dataset{
		featureNames:  names,
		ids:           ids,
		x:             x,
		y:             y,
		negativeLabel: negative,
		positiveLabel: positive,
	}, nil
}

// resolveLabels determines which of the two outcome values is the positive
// class. With no explicit PositiveLabel, numeric outcome pairs compare
// numerically (so "0"/"1" maps the obvious way) and anything else compares
// lexicographically.
func resolveLabels(rawOutcomes []string, schema Schema) (negative, positive string, err error) {
	distinct := make(map[string]bool)
	for _, v := range rawOutcomes {
		distinct[v] = true
	}
	if len(distinct) != 2 {
		return "", "", statkitErrors.NewDataError("dataset.ReadCSV", schema.OutcomeColumn, 0,
			"outcome must take exactly two distinct values, found "+strconv.Itoa(len(distinct)))
	}

	values := make([]string, 0, 2)
	for v := range distinct {
		values = append(values, v)
	}
	a, aErr := strconv.ParseFloat(values[0], 64)
	b, bErr := strconv.ParseFloat(values[1], 64)
	if aErr == nil && bErr == nil {
		if a > b {
			values[0], values[1] = values[1], values[0]
		}
	} else {
		sort.Strings(values)
	}
	negative, positive = values[0], values[1]

	if schema.PositiveLabel != "" {
		if !distinct[schema.PositiveLabel] {
			return "", "", statkitErrors.NewDataError("dataset.ReadCSV", schema.OutcomeColumn, 0,
				"positive label "+strconv.Quote(schema.PositiveLabel)+" not present in data")
		}
		if schema.PositiveLabel == negative {
			negative, positive = positive, negative
		}
	}
	return negative, positive, nil
}

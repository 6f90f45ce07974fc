package report

import (
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/strucbio/statkit/modelselection"
	statkitErrors "github.com/strucbio/statkit/pkg/errors"
)

// SaveSweepPlot writes a PNG of the regularization path: one line per
// metric against C on a log-scale x axis, with error bars from the
// per-fold standard deviations.
func SaveSweepPlot(sweep *modelselection.SweepResult, filename string) error {
	if len(sweep.Results) == 0 {
		return statkitErrors.Wrap(statkitErrors.ErrEmptyData, "SaveSweepPlot: empty sweep")
	}

	p := plot.New()
	p.Title.Text = "Regularization sweep"
	p.X.Label.Text = "C (inverse regularization strength)"
	p.Y.Label.Text = "score"
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Min = 0
	p.Y.Max = 1

	balAcc := metricSeries(sweep, func(r modelselection.CandidateResult) modelselection.MetricSummary {
		return r.BalancedAccuracy
	})
	auroc := metricSeries(sweep, func(r modelselection.CandidateResult) modelselection.MetricSummary {
		return r.AUROC
	})

	if err := addMetricLine(p, balAcc, "balanced accuracy", 0); err != nil {
		return err
	}
	if err := addMetricLine(p, auroc, "AUROC", 1); err != nil {
		return err
	}

	return p.Save(8*vg.Inch, 6*vg.Inch, filename)
}

// SaveSparsityPlot writes a PNG of the mean non-zero coefficient count
// against C on a log-scale x axis.
func SaveSparsityPlot(sweep *modelselection.SweepResult, filename string) error {
	if len(sweep.Results) == 0 {
		return statkitErrors.Wrap(statkitErrors.ErrEmptyData, "SaveSparsityPlot: empty sweep")
	}

	p := plot.New()
	p.Title.Text = "Model sparsity"
	p.X.Label.Text = "C (inverse regularization strength)"
	p.Y.Label.Text = "non-zero coefficients"
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}

	series := metricSeries(sweep, func(r modelselection.CandidateResult) modelselection.MetricSummary {
		return r.NonZero
	})
	if err := addMetricLine(p, series, "non-zero (mean)", 0); err != nil {
		return err
	}

	return p.Save(8*vg.Inch, 6*vg.Inch, filename)
}

type metricPoints struct {
	xys  plotter.XYs
	errs plotter.YErrors
}

func metricSeries(sweep *modelselection.SweepResult, pick func(modelselection.CandidateResult) modelselection.MetricSummary) metricPoints {
	var pts metricPoints
	for _, r := range sweep.Results {
		s := pick(r)
		if math.IsNaN(s.Mean) {
			continue
		}
		pts.xys = append(pts.xys, plotter.XY{X: r.C, Y: s.Mean})
		pts.errs = append(pts.errs, struct{ Low, High float64 }{Low: s.Std, High: s.Std})
	}
	return pts
}

func addMetricLine(p *plot.Plot, pts metricPoints, label string, style int) error {
	if len(pts.xys) == 0 {
		return nil
	}

	line, scatter, err := plotter.NewLinePoints(pts.xys)
	if err != nil {
		return statkitErrors.Wrap(err, "building metric line")
	}
	line.Color = plotter.DefaultLineStyle.Color
	if style > 0 {
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	}
	p.Add(line, scatter)
	p.Legend.Add(label, line, scatter)

	bars, err := plotter.NewYErrorBars(struct {
		plotter.XYer
		plotter.YErrorer
	}{pts.xys, pts.errs})
	if err != nil {
		return statkitErrors.Wrap(err, "building error bars")
	}
	p.Add(bars)

	return nil
}

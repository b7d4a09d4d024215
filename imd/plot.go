package imd

import (
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/brainage/pkg/errors"
	"github.com/YuminosukeSato/brainage/pkg/log"
)

// ScatterPlots draws one scatter of the absolute brain-age delta against
// each continuous deprivation score, saved as <variable>_scatter.png under
// outDir.
func ScatterPlots(t *Table, outDir string) error {
	logger := log.L().With().Str("analysis", "imd").Logger()

	for _, v := range ScoreVariables() {
		x, y, err := t.pairedValues(AbsDeltaColumn, v)
		if err != nil {
			return err
		}

		p := plot.New()
		p.Title.Text = v
		p.X.Label.Text = AbsDeltaColumn
		p.Y.Label.Text = v

		pts := make(plotter.XYs, len(x))
		for i := range x {
			pts[i].X = x[i]
			pts[i].Y = y[i]
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return errors.Wrapf(err, "failed to build scatter for %s", v)
		}
		s.Color = color.RGBA{B: 128, A: 255}
		s.Radius = vg.Points(1.5)
		p.Add(s)

		path := filepath.Join(outDir, v+"_scatter.png")
		if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
			return errors.Wrapf(err, "failed to save %s", path)
		}
		logger.Info().Str("path", path).Msg("scatter saved")
	}
	return nil
}

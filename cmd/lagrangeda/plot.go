package main

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/zhongruiw/lagrangeda"
)

// plotComponent saves the real part of the posterior mean of component j with
// its 2σ band, and the truth when known.
func plotComponent(res *lagrangeda.Result, truth [][]complex128, j int, name string, dt float64, dir string) (string, error) {
	_, steps := res.Dims()
	mean := make(plotter.XYs, steps)
	upper := make(plotter.XYs, steps)
	lower := make(plotter.XYs, steps)
	for k := 0; k < steps; k++ {
		t := float64(k) * dt
		μ := real(res.Mean.At(j, k))
		twoσ := 2 * math.Sqrt(math.Max(real(res.CovDiag.At(j, k)), 0))
		mean[k] = plotter.XY{X: t, Y: μ}
		upper[k] = plotter.XY{X: t, Y: μ + twoσ}
		lower[k] = plotter.XY{X: t, Y: μ - twoσ}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (real part)", name)
	p.X.Label.Text = "t"

	if truth != nil {
		pts := make(plotter.XYs, 0, steps)
		for k := 0; k < steps && k < len(truth); k++ {
			pts = append(pts, plotter.XY{X: float64(k) * dt, Y: real(truth[k][j])})
		}
		truthLine, err := plotter.NewLine(pts)
		if err != nil {
			return "", err
		}
		truthLine.Color = color.RGBA{R: 200, A: 255}
		truthLine.Width = vg.Points(1)
		p.Add(truthLine)
		p.Legend.Add("truth", truthLine)
	}

	meanLine, err := plotter.NewLine(mean)
	if err != nil {
		return "", err
	}
	meanLine.Color = color.RGBA{B: 200, A: 255}
	meanLine.Width = vg.Points(1)
	p.Add(meanLine)
	p.Legend.Add("posterior mean", meanLine)

	for i, band := range []plotter.XYs{upper, lower} {
		l, err := plotter.NewLine(band)
		if err != nil {
			return "", err
		}
		l.Color = color.RGBA{B: 200, A: 255}
		l.Width = vg.Points(0.5)
		l.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(l)
		if i == 0 {
			p.Legend.Add("±2σ", l)
		}
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	file := filepath.Join(dir, fmt.Sprintf("component_%03d.png", j))
	if err := p.Save(10*vg.Inch, 4*vg.Inch, file); err != nil {
		return "", err
	}
	return file, nil
}

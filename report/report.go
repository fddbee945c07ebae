// Package report extracts time profiles from an initialized model for
// plotting and tabulation.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/notargets/DAEInit/model"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Profile is the trajectory of one time slice, e.g. outlet[*].flow
type Profile struct {
	Path   string
	Times  []float64
	Values []float64
}

// Profiles collects the values of the slices named by paths, relative to b,
// at every point of td. An undefined value is reported as 0.
func Profiles(b *model.Block, td *model.TimeDomain, paths ...string) ([]Profile, error) {
	out := make([]Profile, len(paths))
	for i, p := range paths {
		out[i] = Profile{Path: p, Times: td.Points(), Values: make([]float64, td.Len())}
	}
	for k, t := range td.Points() {
		vars := model.VarsAt(b, td, t)
		for i, p := range paths {
			v, ok := vars[p]
			if !ok {
				return nil, fmt.Errorf("report: %s has no slice %s at %g", b.Name(), p, t)
			}
			out[i].Values[k] = v.Value()
		}
	}
	return out, nil
}

// PlotProfiles draws every profile against time and saves the figure; the
// file extension selects the format
func PlotProfiles(profiles []Profile, title, file string) error {
	if len(profiles) == 0 {
		return fmt.Errorf("report: no profiles to plot")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "t"
	p.Legend.Top = true
	for i, pr := range profiles {
		xys := make(plotter.XYs, len(pr.Times))
		for k := range pr.Times {
			xys[k].X, xys[k].Y = pr.Times[k], pr.Values[k]
		}
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return fmt.Errorf("report: %s: %w", pr.Path, err)
		}
		line.Color = plotutil.Color(i)
		points.Color = plotutil.Color(i)
		points.Shape = plotutil.Shape(i)
		p.Add(line, points)
		p.Legend.Add(pr.Path, line, points)
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, file); err != nil {
		return fmt.Errorf("report: save %s: %w", file, err)
	}
	return nil
}

// WriteTable writes the profiles as aligned columns, one row per point
func WriteTable(w io.Writer, profiles []Profile) error {
	if len(profiles) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	header := []string{"t"}
	for _, pr := range profiles {
		header = append(header, pr.Path)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")
	for k, t := range profiles[0].Times {
		row := []string{fmt.Sprintf("%.4g", t)}
		for _, pr := range profiles {
			row = append(row, fmt.Sprintf("%.6g", pr.Values[k]))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	return tw.Flush()
}

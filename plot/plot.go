// Copyright 2025 MOEX Data Fetcher Authors

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package plot implements a JSON export format for time series plots, to be
// rendered by an external plotting frontend.
package plot

import (
	"encoding/json"
	"io"

	"github.com/stockparfait/errors"

	"github.com/ntlekhugov/moexdata/db"
	"github.com/ntlekhugov/moexdata/stats"
)

// Plot holds data and configuration of a single time series plot.
type Plot struct {
	Y      []float64
	Dates  []db.Date
	YLabel string // value label on the Y axis
	Legend string // name in the legend
}

// NewSeriesPlot creates an instance of a time series plot.
func NewSeriesPlot(ts *stats.Timeseries) *Plot {
	return &Plot{
		Y:      ts.Data(),
		Dates:  ts.Dates(),
		YLabel: "values",
		Legend: "Unnamed",
	}
}

// SetYLabel sets the Y axis label. Returns self for inlined declarations.
func (p *Plot) SetYLabel(label string) *Plot {
	p.YLabel = label
	return p
}

// SetLegend sets the plot's name in the legend. Returns self for inlined
// declarations.
func (p *Plot) SetLegend(legend string) *Plot {
	p.Legend = legend
	return p
}

// Size returns the number of points in the plot.
func (p *Plot) Size() int {
	return len(p.Y)
}

// Canvas is an ordered collection of plots sharing the same time axis.
type Canvas struct {
	Title string
	Plots []*Plot
}

// NewCanvas creates an empty canvas.
func NewCanvas(title string) *Canvas {
	return &Canvas{Title: title}
}

// AddPlot appends a plot to the canvas.
func (c *Canvas) AddPlot(p *Plot) {
	c.Plots = append(c.Plots, p)
}

// WriteJSON writes the canvas as indented JSON.
func (c *Canvas) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return errors.Annotate(err, "failed to encode canvas '%s'", c.Title)
	}
	return nil
}

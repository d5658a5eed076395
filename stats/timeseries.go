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

// Package stats implements basic statistics over downloaded market data.
package stats

import (
	"github.com/stockparfait/errors"

	"github.com/ntlekhugov/moexdata/db"
)

// Timeseries stores numeric values along with timestamps. The timestamps are
// always sorted in ascending order.
type Timeseries struct {
	dates []db.Date
	data  []float64
}

// NewTimeseries creates a new Timeseries. The dates are expected to be sorted
// in ascending order (not checked). It panics if dates and data have different
// lengths. Note, that the argument slices are used as is, not copied.
func NewTimeseries(dates []db.Date, data []float64) *Timeseries {
	if len(dates) != len(data) {
		panic(errors.Reason("len(dates) [%d] != len(data) [%d]",
			len(dates), len(data)))
	}
	return &Timeseries{dates: dates, data: data}
}

// NewTimeseriesFromTrades creates a Timeseries of closing prices from daily
// trading results. Days without a closing price are skipped.
func NewTimeseriesFromTrades(trades []db.TradeRow) *Timeseries {
	dates := make([]db.Date, 0, len(trades))
	data := make([]float64, 0, len(trades))
	for _, t := range trades {
		if t.Close == 0.0 {
			continue
		}
		dates = append(dates, t.Date)
		data = append(data, t.Close)
	}
	return NewTimeseries(dates, data)
}

// Dates of the Timeseries.
func (t *Timeseries) Dates() []db.Date { return t.dates }

// Data of the Timeseries.
func (t *Timeseries) Data() []float64 { return t.data }

// Check that Timeseries is consistent: the lengths of dates and data are the
// same and the dates are ordered in ascending order.
func (t *Timeseries) Check() error {
	if len(t.dates) != len(t.data) {
		return errors.Reason("len(dates) [%d] != len(data) [%d]",
			len(t.dates), len(t.data))
	}
	for i, d := range t.dates {
		if i == 0 {
			continue
		}
		if !t.dates[i-1].Before(d) {
			return errors.Reason("dates[%d] = %s >= dates[%d] = %s",
				i-1, t.dates[i-1], i, d)
		}
	}
	return nil
}

// rangeSlice returns slice indices for dates to extract an inclusive interval
// between start and end timestamps.
func rangeSlice(dates []db.Date, start, end db.Date) (s, e int) {
	if start.After(end) {
		return 0, 0
	}
	s = len(dates)
	e = len(dates)
	var startSet, endSet bool
	for i, d := range dates {
		if !startSet && !start.After(d) {
			s = i
			startSet = true
		}
		if !endSet && end.Before(d) {
			e = i
			endSet = true
		}
		if startSet && endSet {
			break
		}
	}
	if s >= e {
		return 0, 0
	}
	return
}

// Range extracts the sub-series from the inclusive time interval. It may return
// an empty Timeseries, but never nil.
func (t *Timeseries) Range(start, end db.Date) *Timeseries {
	s, e := rangeSlice(t.dates, start, end)
	if s == 0 && e == len(t.dates) {
		return t
	}
	return NewTimeseries(t.dates[s:e], t.data[s:e])
}

// DailyReturns computes the percent change between consecutive values. Its
// dates are the dates of the later value of each pair. It may return an empty
// Timeseries, but never nil.
func (t *Timeseries) DailyReturns() *Timeseries {
	if len(t.data) < 2 {
		return NewTimeseries(nil, nil)
	}
	dates := make([]db.Date, 0, len(t.dates)-1)
	data := make([]float64, 0, len(t.data)-1)
	for i := 1; i < len(t.data); i++ {
		if t.data[i-1] == 0.0 {
			continue
		}
		dates = append(dates, t.dates[i])
		data = append(data, 100.0*(t.data[i]-t.data[i-1])/t.data[i-1])
	}
	return NewTimeseries(dates, data)
}

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

// Package screener filters a downloaded dataset and computes per-security
// summary statistics over the trading history.
package screener

import (
	"context"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/iterator"
	"github.com/stockparfait/logging"
	"golang.org/x/exp/slices"

	"github.com/ntlekhugov/moexdata/db"
	"github.com/ntlekhugov/moexdata/stats"
	"github.com/ntlekhugov/moexdata/table"
)

// Criteria for selecting securities from a dataset.
type Criteria struct {
	ISINPrefix string   // default: "RU"
	Boards     []string // empty: all boards
	MinDays    int      // min. number of trading days in the range
	From       db.Date  // zero value: no lower bound
	Till       db.Date  // zero value: no upper bound
}

func (c Criteria) isinPrefix() string {
	if c.ISINPrefix == "" {
		return "RU"
	}
	return c.ISINPrefix
}

func (c Criteria) matches(s db.SecurityRow) bool {
	if !strings.HasPrefix(s.ISIN, c.isinPrefix()) {
		return false
	}
	if len(c.Boards) == 0 {
		return true
	}
	for _, b := range c.Boards {
		if s.Board == b {
			return true
		}
	}
	return false
}

func (c Criteria) dateRange() (from, till db.Date) {
	from = c.From
	till = c.Till
	if from.IsZero() {
		from = db.NewDate(1900, 1, 1)
	}
	if till.IsZero() {
		till = db.NewDate(9999, 12, 31)
	}
	return
}

// Row is a single screener result for one security.
type Row struct {
	Secid       string
	Shortname   string
	Board       string
	Days        int
	LastClose   float64
	MeanReturn  float64 // mean daily return, percent
	ReturnSigma float64 // std. deviation of daily returns, percent
	MatDate     db.Date
	Coupon      float64 // coupon rate, percent
}

var _ table.Row = Row{}

// Header returns the CSV header for screener results.
func Header() []string {
	return []string{"SECID", "SHORTNAME", "BOARDID", "DAYS", "LASTCLOSE",
		"MEANRETURN", "RETURNSIGMA", "MATDATE", "COUPONPERCENT"}
}

func float2str(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// CSV implements table.Row.
func (r Row) CSV() []string {
	return []string{
		r.Secid,
		r.Shortname,
		r.Board,
		strconv.Itoa(r.Days),
		float2str(r.LastClose),
		float2str(r.MeanReturn),
		float2str(r.ReturnSigma),
		r.MatDate.String(),
		float2str(r.Coupon),
	}
}

func processSecurity(reader *db.Reader, c Criteria, secid string, s db.SecurityRow) (Row, error) {
	trades, err := reader.Trading(secid)
	if err != nil {
		return Row{}, errors.Annotate(err, "failed to read trading data of %s", secid)
	}
	from, till := c.dateRange()
	ts := stats.NewTimeseriesFromTrades(trades).Range(from, till)
	if len(ts.Data()) < c.MinDays {
		return Row{}, nil
	}
	returns := stats.NewSample().Init(ts.DailyReturns().Data())
	row := Row{
		Secid:       secid,
		Shortname:   s.Shortname,
		Board:       s.Board,
		Days:        len(ts.Data()),
		MeanReturn:  returns.Mean(),
		ReturnSigma: returns.StdDev(),
		MatDate:     s.MatDate,
		Coupon:      s.CouponPercent,
	}
	if len(ts.Data()) > 0 {
		row.LastClose = ts.Data()[len(ts.Data())-1]
	}
	return row, nil
}

// Screen selects the dataset's securities matching the criteria and computes
// summary statistics over their trading history. The result is sorted by
// security ID.
func Screen(ctx context.Context, reader *db.Reader, c Criteria) (*table.Table, error) {
	securities, err := reader.Securities()
	if err != nil {
		return nil, errors.Annotate(err, "failed to read securities")
	}
	secids := make([]string, 0, len(securities))
	for secid, s := range securities {
		if c.matches(s) {
			secids = append(secids, secid)
		}
	}
	slices.Sort(secids)

	f := func(secid string) *Row {
		row, err := processSecurity(reader, c, secid, securities[secid])
		if err != nil {
			logging.Warningf(ctx, "failed to process %s: %s", secid, err.Error())
			return nil
		}
		if row.Secid == "" { // below the trading days threshold
			return nil
		}
		return &row
	}
	pm := iterator.ParallelMap(ctx, 2*runtime.NumCPU(), iterator.FromSlice(secids), f)
	defer pm.Close()

	rows := iterator.Reduce[*Row, []*Row](pm, []*Row{}, func(r *Row, rows []*Row) []*Row {
		if r == nil {
			return rows
		}
		return append(rows, r)
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].Secid < rows[j].Secid })

	tbl := table.NewTable(Header()...)
	for _, row := range rows {
		tbl.AddRow(*row)
	}
	return tbl, nil
}

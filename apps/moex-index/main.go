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

// Command moex-index downloads the daily history of a stock market index,
// prints a summary of its daily returns, and optionally exports the closing
// values as a plot JSON file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"

	"github.com/ntlekhugov/moexdata/db"
	"github.com/ntlekhugov/moexdata/iss"
	"github.com/ntlekhugov/moexdata/plot"
	"github.com/ntlekhugov/moexdata/stats"
	"github.com/ntlekhugov/moexdata/table"
)

type Flags struct {
	Index    string // index ID, e.g. IMOEX or RTSI (required)
	From     db.Date
	Till     db.Date
	Out      string // output CSV file; empty: no CSV
	Plot     string // output plot JSON file; empty: no plot
	User     string
	Password string
	LogLevel logging.Level
}

type dateValue struct {
	date *db.Date
}

func (v dateValue) String() string {
	if v.date == nil || v.date.IsZero() {
		return ""
	}
	return v.date.String()
}

func (v dateValue) Set(s string) error {
	d, err := db.NewDateFromString(s)
	if err != nil {
		return errors.Annotate(err, "invalid date '%s'", s)
	}
	*v.date = d
	return nil
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("moex-index", flag.ExitOnError)
	fs.StringVar(&flags.Index, "index", "", "index ID, e.g. IMOEX or RTSI (required)")
	fs.Var(dateValue{&flags.From}, "from-date", "start of the date range, YYYY-MM-DD")
	fs.Var(dateValue{&flags.Till}, "to-date", "end of the date range, YYYY-MM-DD")
	fs.StringVar(&flags.Out, "out", "", "output CSV file")
	fs.StringVar(&flags.Plot, "plot", "", "output plot JSON file")
	fs.StringVar(&flags.User, "user", "", "ISS account name; default: anonymous")
	fs.StringVar(&flags.Password, "password", "", "ISS account password")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")

	err := fs.Parse(args)
	if err != nil {
		return nil, err
	}
	if flags.Index == "" {
		return nil, errors.Reason("missing required -index argument")
	}
	return &flags, nil
}

// indexBoard maps an index ID to its trading board: RTS family indices trade
// on their own board, everything else on the main indices board.
func indexBoard(index string) string {
	if strings.HasPrefix(index, "RTS") {
		return iss.BoardRTSIndices
	}
	return iss.BoardMainIndices
}

func fetchIndex(ctx context.Context, flags *Flags) (*iss.Table, error) {
	q := iss.NewHistoryQuery(
		iss.EngineStock, iss.MarketIndex, indexBoard(flags.Index), flags.Index)
	if !flags.From.IsZero() {
		q = q.From(flags.From)
	}
	if !flags.Till.IsZero() {
		q = q.Till(flags.Till)
	}
	t, err := q.Fetch(ctx)
	if err != nil {
		return nil, errors.Annotate(err, "failed to fetch index %s", flags.Index)
	}
	return t, nil
}

func timeseries(t *iss.Table) (*stats.Timeseries, error) {
	dates, err := t.Dates("TRADEDATE")
	if err != nil {
		return nil, errors.Annotate(err, "failed to extract dates")
	}
	closes, err := t.Floats("CLOSE")
	if err != nil {
		return nil, errors.Annotate(err, "failed to extract closing values")
	}
	return stats.NewTimeseries(dates, closes), nil
}

func printSummary(w io.Writer, index string, ts *stats.Timeseries) {
	returns := stats.NewSample().Init(ts.DailyReturns().Data())
	fmt.Fprintf(w, "%s: %d days\n", index, len(ts.Data()))
	fmt.Fprintf(w, "daily returns: mean=%.4f%% sigma=%.4f%% min=%.4f%% max=%.4f%%\n",
		returns.Mean(), returns.StdDev(), returns.Min(), returns.Max())
}

func writeFile(fileName string, write func(io.Writer) error) error {
	f, err := os.OpenFile(fileName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Annotate(err, "failed to open file for writing: '%s'", fileName)
	}
	defer f.Close()
	return write(f)
}

func run(ctx context.Context, flags *Flags, w io.Writer) error {
	ctx = iss.UseClient(ctx, flags.User, flags.Password)
	t, err := fetchIndex(ctx, flags)
	if err != nil {
		return err
	}
	logging.Infof(ctx, "fetched %d rows for %s", t.NumRows(), flags.Index)
	ts, err := timeseries(t)
	if err != nil {
		return errors.Annotate(err, "failed to build timeseries of %s", flags.Index)
	}
	printSummary(w, flags.Index, ts)

	if flags.Out != "" {
		err := writeFile(flags.Out, func(f io.Writer) error {
			return t.Export().WriteCSV(f, table.Params{})
		})
		if err != nil {
			return errors.Annotate(err, "failed to write CSV")
		}
	}
	if flags.Plot != "" {
		c := plot.NewCanvas(flags.Index)
		c.AddPlot(plot.NewSeriesPlot(ts).SetYLabel("close").SetLegend(flags.Index))
		err := writeFile(flags.Plot, c.WriteJSON)
		if err != nil {
			return errors.Annotate(err, "failed to write plot")
		}
	}
	return nil
}

func main() {
	ctx := context.Background()
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		logging.Errorf(ctx, "failed to parse flags: %s", err.Error())
		os.Exit(1)
	}
	ctx = logging.Use(ctx, logging.DefaultGoLogger(flags.LogLevel))

	if err := run(ctx, flags, os.Stdout); err != nil {
		logging.Errorf(ctx, err.Error())
		os.Exit(1)
	}
}

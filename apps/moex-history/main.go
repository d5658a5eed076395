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

// Command moex-history downloads the daily trading history of a single
// security and saves it as a CSV file. When -board is not given, the security
// ID or ISIN is resolved to its primary board first.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"

	"github.com/ntlekhugov/moexdata/db"
	"github.com/ntlekhugov/moexdata/iss"
	"github.com/ntlekhugov/moexdata/table"
)

type Flags struct {
	Security string // security ID or ISIN (required)
	Engine   string
	Market   string
	Board    string // empty: resolve the primary board
	From     db.Date
	Till     db.Date
	Out      string // empty: derived from the security and dates
	User     string // ISS account; empty for anonymous access
	Password string
	LogLevel logging.Level
}

// dateValue adapts db.Date to flag.Value.
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
	fs := flag.NewFlagSet("moex-history", flag.ExitOnError)
	fs.StringVar(&flags.Security, "ticker", "", "security ID or ISIN (required)")
	fs.StringVar(&flags.Engine, "engine", iss.EngineStock, "trading engine")
	fs.StringVar(&flags.Market, "market", iss.MarketShares, "market within the engine")
	fs.StringVar(&flags.Board, "board", "", "trading board; default: the security's primary board")
	fs.Var(dateValue{&flags.From}, "from-date", "start of the date range, YYYY-MM-DD")
	fs.Var(dateValue{&flags.Till}, "to-date", "end of the date range, YYYY-MM-DD")
	fs.StringVar(&flags.Out, "out", "", "output CSV file; default: derived from the query")
	fs.StringVar(&flags.User, "user", "", "ISS account name; default: anonymous")
	fs.StringVar(&flags.Password, "password", "", "ISS account password")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")

	err := fs.Parse(args)
	if err != nil {
		return nil, err
	}
	if flags.Security == "" {
		return nil, errors.Reason("missing required -ticker argument")
	}
	return &flags, nil
}

// outFileName derives the output file name from the query, timestamped to
// keep repeated runs from clobbering each other.
func outFileName(secid string, from, till db.Date, now time.Time) string {
	parts := []string{secid}
	if !from.IsZero() {
		parts = append(parts, from.String())
	}
	if !till.IsZero() {
		parts = append(parts, till.String())
	}
	parts = append(parts, now.Format("20060102-150405"))
	return strings.Join(parts, "_") + ".csv"
}

func fetchHistory(ctx context.Context, flags *Flags) (*table.Table, error) {
	secid := flags.Security
	board := flags.Board
	if board == "" {
		res, err := iss.Resolve(ctx, secid)
		if err != nil {
			return nil, errors.Annotate(err, "failed to resolve '%s'", secid)
		}
		secid = res.Secid
		board = res.Board
		logging.Infof(ctx, "resolved %s to secid=%s board=%s",
			flags.Security, secid, board)
	}
	q := iss.NewHistoryQuery(flags.Engine, flags.Market, board, secid)
	if !flags.From.IsZero() {
		q = q.From(flags.From)
	}
	if !flags.Till.IsZero() {
		q = q.Till(flags.Till)
	}
	t, err := q.Fetch(ctx)
	if err != nil {
		return nil, errors.Annotate(err, "failed to fetch history of %s", secid)
	}
	logging.Infof(ctx, "fetched %d rows for %s", t.NumRows(), secid)
	return t.Export(), nil
}

func writeCSV(tbl *table.Table, fileName string) error {
	f, err := os.OpenFile(fileName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Annotate(err, "failed to open file for writing: '%s'", fileName)
	}
	defer f.Close()
	if err := tbl.WriteCSV(f, table.Params{}); err != nil {
		return errors.Annotate(err, "failed to write CSV to '%s'", fileName)
	}
	return nil
}

func run(ctx context.Context, flags *Flags, w io.Writer) error {
	ctx = iss.UseClient(ctx, flags.User, flags.Password)
	tbl, err := fetchHistory(ctx, flags)
	if err != nil {
		return err
	}
	out := flags.Out
	if out == "" {
		out = outFileName(flags.Security, flags.From, flags.Till, time.Now())
	}
	if err := writeCSV(tbl, out); err != nil {
		return err
	}
	fmt.Fprintf(w, "saved %d rows to %s\n", len(tbl.Rows), out)
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

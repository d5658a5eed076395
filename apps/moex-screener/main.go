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

// Command moex-screener filters a downloaded bond dataset and prints
// per-security summary statistics.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"

	"github.com/ntlekhugov/moexdata/db"
	"github.com/ntlekhugov/moexdata/screener"
	"github.com/ntlekhugov/moexdata/table"
)

type Flags struct {
	DBDir      string // default: ~/.moexdata
	DBName     string // default: bonds
	ISINPrefix string
	Boards     string // comma-separated list; empty: all boards
	MinDays    int
	From       db.Date
	Till       db.Date
	CSV        bool // dump CSV format; default: text
	LogLevel   logging.Level
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
	fs := flag.NewFlagSet("moex-screener", flag.ExitOnError)
	fs.StringVar(&flags.DBDir, "cache",
		filepath.Join(os.Getenv("HOME"), ".moexdata"),
		"path to the local datasets")
	fs.StringVar(&flags.DBName, "db", "bonds", "dataset name")
	fs.StringVar(&flags.ISINPrefix, "isin-prefix", "RU", "keep securities whose ISIN has this prefix")
	fs.StringVar(&flags.Boards, "boards", "", "comma-separated list of boards; default: all")
	fs.IntVar(&flags.MinDays, "min-days", 0, "min. number of trading days in the range")
	fs.Var(dateValue{&flags.From}, "from-date", "start of the date range, YYYY-MM-DD")
	fs.Var(dateValue{&flags.Till}, "to-date", "end of the date range, YYYY-MM-DD")
	fs.BoolVar(&flags.CSV, "csv", false, "print table in CSV format; default: text")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")

	err := fs.Parse(args)
	return &flags, err
}

func criteria(flags *Flags) screener.Criteria {
	c := screener.Criteria{
		ISINPrefix: flags.ISINPrefix,
		MinDays:    flags.MinDays,
		From:       flags.From,
		Till:       flags.Till,
	}
	if flags.Boards != "" {
		c.Boards = strings.Split(flags.Boards, ",")
	}
	return c
}

func printData(ctx context.Context, flags *Flags, w io.Writer) error {
	reader := db.NewReader(flags.DBDir, flags.DBName)
	tbl, err := screener.Screen(ctx, reader, criteria(flags))
	if err != nil {
		return errors.Annotate(err, "failed to screen dataset '%s'", flags.DBName)
	}
	if flags.CSV {
		if err := tbl.WriteCSV(w, table.Params{}); err != nil {
			return errors.Annotate(err, "failed to print CSV")
		}
		return nil
	}
	if err := tbl.WriteText(w, table.Params{}); err != nil {
		return errors.Annotate(err, "failed to print text")
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

	if err := printData(ctx, flags, os.Stdout); err != nil {
		logging.Errorf(ctx, err.Error())
		os.Exit(1)
	}
}

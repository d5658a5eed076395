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

// Command moex-list prints ISS reference listings: trading engines, markets
// of an engine, boards of a market, or securities of a board.
package main

import (
	"context"
	"flag"
	"io"
	"os"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"

	"github.com/ntlekhugov/moexdata/iss"
	"github.com/ntlekhugov/moexdata/table"
)

type Flags struct {
	// Exactly one of engines, markets, boards or securities must be present.
	Engines    bool
	Markets    bool
	Boards     bool
	Securities bool
	Engine     string
	Market     string
	Board      string
	CSV        bool // dump CSV format; default: text
	User       string
	Password   string
	LogLevel   logging.Level
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("moex-list", flag.ExitOnError)
	fs.BoolVar(&flags.Engines, "engines", false, "list trading engines")
	fs.BoolVar(&flags.Markets, "markets", false, "list markets of -engine")
	fs.BoolVar(&flags.Boards, "boards", false, "list boards of -engine and -market")
	fs.BoolVar(&flags.Securities, "securities", false,
		"list securities of -engine and -market, optionally filtered by -board")
	fs.StringVar(&flags.Engine, "engine", iss.EngineStock, "trading engine")
	fs.StringVar(&flags.Market, "market", iss.MarketShares, "market within the engine")
	fs.StringVar(&flags.Board, "board", "", "trading board")
	fs.BoolVar(&flags.CSV, "csv", false, "print table in CSV format; default: text")
	fs.StringVar(&flags.User, "user", "", "ISS account name; default: anonymous")
	fs.StringVar(&flags.Password, "password", "", "ISS account password")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")

	err := fs.Parse(args)
	if err != nil {
		return nil, err
	}
	kinds := 0
	for _, b := range []bool{flags.Engines, flags.Markets, flags.Boards, flags.Securities} {
		if b {
			kinds++
		}
	}
	if kinds != 1 {
		return nil, errors.Reason(
			"expected exactly one of -engines, -markets, -boards or -securities")
	}
	return &flags, nil
}

func listTable(ctx context.Context, flags *Flags) (*iss.Table, error) {
	switch {
	case flags.Engines:
		return iss.Engines(ctx)
	case flags.Markets:
		return iss.Markets(ctx, flags.Engine)
	case flags.Boards:
		return iss.Boards(ctx, flags.Engine, flags.Market)
	default:
		return iss.Securities(ctx, flags.Engine, flags.Market, flags.Board)
	}
}

func printData(ctx context.Context, flags *Flags, w io.Writer) error {
	ctx = iss.UseClient(ctx, flags.User, flags.Password)
	t, err := listTable(ctx, flags)
	if err != nil {
		return errors.Annotate(err, "failed to fetch listing")
	}
	tbl := t.Export()
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

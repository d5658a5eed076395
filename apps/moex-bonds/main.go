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

// Command moex-bonds downloads the listing, trading history and lifecycle
// events of an entire bond board into a local dataset.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"

	"github.com/ntlekhugov/moexdata/db"
	"github.com/ntlekhugov/moexdata/iss"
	"github.com/ntlekhugov/moexdata/iss/bonds"
	"github.com/ntlekhugov/moexdata/table"

	toml "github.com/pelletier/go-toml/v2"
)

type Flags struct {
	DBDir    string // default: ~/.moexdata
	DBName   string // default: bonds
	LogLevel logging.Level
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("moex-bonds", flag.ExitOnError)
	fs.StringVar(&flags.DBDir, "cache",
		filepath.Join(os.Getenv("HOME"), ".moexdata"),
		"path to the local datasets and the config file")
	fs.StringVar(&flags.DBName, "db", "bonds", "dataset name")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")

	err := fs.Parse(args)
	return &flags, err
}

type Config struct {
	Board    string  `toml:"board"`     // default: the main corporate bonds board
	From     string  `toml:"from"`      // YYYY-MM-DD; empty: server default
	Till     string  `toml:"till"`      // YYYY-MM-DD; empty: server default
	Limit    int     `toml:"limit"`     // max. securities to download; 0 = all
	DelaySec float64 `toml:"delay_sec"` // pause between securities; default: 0.5
	User     string  `toml:"user"`      // ISS account; empty for anonymous access
	Password string  `toml:"password"`
}

func parseConfig(dbdir string) (*Config, error) {
	c := Config{DelaySec: 0.5}
	filePath := filepath.Join(dbdir, "config.toml")
	f, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// No config is fine: download the default board anonymously.
			return &c, nil
		}
		return nil, errors.Annotate(err, "failed to open config file %s", filePath)
	}
	defer f.Close()

	d := toml.NewDecoder(f)
	if err := d.Decode(&c); err != nil {
		return nil, errors.Annotate(err, "failed to read config file %s", filePath)
	}
	return &c, nil
}

func datasetConfig(c *Config) (bonds.Config, error) {
	dc := bonds.Config{
		Board: c.Board,
		Limit: c.Limit,
		Delay: time.Duration(c.DelaySec * float64(time.Second)),
	}
	var err error
	if c.From != "" {
		if dc.From, err = db.NewDateFromString(c.From); err != nil {
			return dc, errors.Annotate(err, "invalid 'from' date '%s'", c.From)
		}
	}
	if c.Till != "" {
		if dc.Till, err = db.NewDateFromString(c.Till); err != nil {
			return dc, errors.Annotate(err, "invalid 'till' date '%s'", c.Till)
		}
	}
	return dc, nil
}

func download(ctx context.Context, flags *Flags) error {
	config, err := parseConfig(flags.DBDir)
	if err != nil {
		return errors.Annotate(err, "failed to parse config")
	}
	dc, err := datasetConfig(config)
	if err != nil {
		return errors.Annotate(err, "failed to parse config")
	}
	ctx = iss.UseClient(ctx, config.User, config.Password)
	ds := bonds.NewDataset()
	if err := ds.DownloadAll(ctx, flags.DBDir, flags.DBName, dc); err != nil {
		return errors.Annotate(err, "failed to download data")
	}
	if err := writeSecuritiesCSV(ds, flags); err != nil {
		return errors.Annotate(err, "failed to export securities CSV")
	}
	return nil
}

// writeSecuritiesCSV exports the downloaded securities listing as a combined
// CSV file next to the dataset files.
func writeSecuritiesCSV(ds *bonds.Dataset, flags *Flags) error {
	tbl := table.NewTable(db.SecurityRowHeader()...)
	for _, secid := range ds.Secids() {
		tbl.AddRow(ds.Securities[secid])
	}
	fileName := filepath.Join(flags.DBDir, flags.DBName, "securities.csv")
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

func main() {
	ctx := context.Background()
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		logging.Errorf(ctx, "failed to parse flags: %s", err.Error())
		os.Exit(1)
	}
	ctx = logging.Use(ctx, logging.DefaultGoLogger(flags.LogLevel))

	if err := download(ctx, flags); err != nil {
		logging.Errorf(ctx, err.Error())
		os.Exit(1)
	}
}

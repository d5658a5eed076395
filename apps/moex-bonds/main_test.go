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

package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stockparfait/fetch"
	"github.com/stockparfait/logging"
	"github.com/stockparfait/testutil"

	"github.com/ntlekhugov/moexdata/db"
	"github.com/ntlekhugov/moexdata/iss"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(t *testing.T) {
	tmpdir, tmpdirErr := os.MkdirTemp("", "test_bonds_app")
	defer os.RemoveAll(tmpdir)

	Convey("Setup succeeded", t, func() {
		So(tmpdirErr, ShouldBeNil)
	})

	Convey("parseFlags", t, func() {
		flags, err := parseFlags([]string{
			"-cache", "path/to/cache", "-db", "corp", "-log-level", "debug"})
		So(err, ShouldBeNil)
		So(flags.DBDir, ShouldEqual, "path/to/cache")
		So(flags.DBName, ShouldEqual, "corp")
		So(flags.LogLevel, ShouldEqual, logging.Debug)
	})

	Convey("parseConfig", t, func() {
		Convey("a missing config file yields the defaults", func() {
			c, err := parseConfig(filepath.Join(tmpdir, "nosuchdir"))
			So(err, ShouldBeNil)
			So(c.DelaySec, ShouldEqual, 0.5)
			So(c.Board, ShouldEqual, "")
		})

		Convey("reads TOML", func() {
			dir := filepath.Join(tmpdir, "withconfig")
			So(os.MkdirAll(dir, 0755), ShouldBeNil)
			config := `
board = "TQOB"
from = "2024-01-01"
limit = 10
delay_sec = 0.0
`
			So(os.WriteFile(filepath.Join(dir, "config.toml"),
				[]byte(config), 0644), ShouldBeNil)
			c, err := parseConfig(dir)
			So(err, ShouldBeNil)
			So(c.Board, ShouldEqual, "TQOB")
			So(c.Limit, ShouldEqual, 10)

			dc, err := datasetConfig(c)
			So(err, ShouldBeNil)
			So(dc.Board, ShouldEqual, "TQOB")
			So(dc.From, ShouldResemble, db.NewDate(2024, 1, 1))
			So(dc.Till.IsZero(), ShouldBeTrue)
			So(dc.Delay, ShouldEqual, time.Duration(0))
		})

		Convey("rejects a bad date", func() {
			_, err := datasetConfig(&Config{From: "bad-date"})
			So(err, ShouldNotBeNil)
		})
	})

	Convey("download works", t, func() {
		server := testutil.NewTestServer()
		defer server.Close()

		iss.URL = server.URL()
		ctx := fetch.UseClient(context.Background(), server.Client())
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Error))

		securities, err := iss.TestResponse("securities",
			iss.Columns{"SECID", "BOARDID", "SHORTNAME"},
			[][]iss.Value{{"BOND1", "TQCB", "Bond One"}})
		So(err, ShouldBeNil)
		history, err := iss.TestResponse("history",
			iss.Columns{"TRADEDATE", "CLOSE"},
			[][]iss.Value{{"2024-03-04", 100.5}})
		So(err, ShouldBeNil)
		coupons, err := iss.TestResponse("coupons",
			iss.Columns{"coupondate", "value"}, nil)
		So(err, ShouldBeNil)
		amortizations, err := iss.TestResponse("amortizations",
			iss.Columns{"amortdate", "value"}, nil)
		So(err, ShouldBeNil)
		offers, err := iss.TestResponse("offers",
			iss.Columns{"offerdate", "price"}, nil)
		So(err, ShouldBeNil)
		server.ResponseBody = []string{
			securities, history, coupons, amortizations, offers}

		dbdir := filepath.Join(tmpdir, "download")
		So(os.MkdirAll(dbdir, 0755), ShouldBeNil)
		So(os.WriteFile(filepath.Join(dbdir, "config.toml"),
			[]byte("delay_sec = 0.0\n"), 0644), ShouldBeNil)

		flags, err := parseFlags([]string{"-cache", dbdir, "-db", "corp"})
		So(err, ShouldBeNil)
		So(download(ctx, flags), ShouldBeNil)

		r := db.NewReader(dbdir, "corp")
		m, err := r.ReadMetadata()
		So(err, ShouldBeNil)
		So(m.NumSecurities, ShouldEqual, 1)
		So(m.NumTrades, ShouldEqual, 1)

		csvData, err := os.ReadFile(filepath.Join(dbdir, "corp", "securities.csv"))
		So(err, ShouldBeNil)
		lines := strings.Split(strings.TrimSpace(string(csvData)), "\n")
		So(len(lines), ShouldEqual, 2)
		So(lines[0], ShouldStartWith, "SECID,")
		So(lines[1], ShouldStartWith, "BOND1,")
	})
}

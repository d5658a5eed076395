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
	"bytes"
	"context"
	"testing"

	"github.com/stockparfait/fetch"
	"github.com/stockparfait/logging"
	"github.com/stockparfait/testutil"

	"github.com/ntlekhugov/moexdata/iss"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(t *testing.T) {
	Convey("parseFlags", t, func() {
		Convey("requires exactly one listing kind", func() {
			_, err := parseFlags([]string{})
			So(err, ShouldNotBeNil)
			_, err = parseFlags([]string{"-engines", "-markets"})
			So(err, ShouldNotBeNil)
		})

		Convey("parses a valid command line", func() {
			flags, err := parseFlags([]string{
				"-securities", "-engine", "stock", "-market", "bonds",
				"-board", "TQCB", "-csv", "-log-level", "warning"})
			So(err, ShouldBeNil)
			So(flags.Securities, ShouldBeTrue)
			So(flags.Market, ShouldEqual, "bonds")
			So(flags.Board, ShouldEqual, "TQCB")
			So(flags.CSV, ShouldBeTrue)
			So(flags.LogLevel, ShouldEqual, logging.Warning)
		})
	})

	Convey("printData works", t, func() {
		server := testutil.NewTestServer()
		defer server.Close()

		iss.URL = server.URL()
		ctx := fetch.UseClient(context.Background(), server.Client())

		Convey("engines in CSV", func() {
			body, err := iss.TestResponse("engines",
				iss.Columns{"name", "title"},
				[][]iss.Value{
					{"stock", "Stock market"},
					{"currency", "Currency market"},
				})
			So(err, ShouldBeNil)
			server.ResponseBody = []string{body}

			flags, err := parseFlags([]string{"-engines", "-csv"})
			So(err, ShouldBeNil)
			var buf bytes.Buffer
			So(printData(ctx, flags, &buf), ShouldBeNil)
			So("\n"+buf.String(), ShouldEqual, `
name,title
stock,Stock market
currency,Currency market
`)
		})

		Convey("boards as text", func() {
			body, err := iss.TestResponse("boards",
				iss.Columns{"boardid", "title"},
				[][]iss.Value{{"TQBR", "T+ shares"}})
			So(err, ShouldBeNil)
			server.ResponseBody = []string{body}

			flags, err := parseFlags([]string{"-boards"})
			So(err, ShouldBeNil)
			var buf bytes.Buffer
			So(printData(ctx, flags, &buf), ShouldBeNil)
			So(server.RequestPath, ShouldEqual,
				"/engines/stock/markets/shares/boards.json")
			So("\n"+buf.String(), ShouldEqual, `
boardid |     title
------- | ---------
   TQBR | T+ shares
`)
		})
	})
}

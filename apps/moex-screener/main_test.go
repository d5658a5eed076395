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
	"os"
	"testing"

	"github.com/stockparfait/logging"

	"github.com/ntlekhugov/moexdata/db"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(t *testing.T) {
	t.Parallel()

	tmpdir, tmpdirErr := os.MkdirTemp("", "test_screener_app")
	defer os.RemoveAll(tmpdir)

	Convey("Setup succeeded", t, func() {
		So(tmpdirErr, ShouldBeNil)
	})

	Convey("parseFlags", t, func() {
		flags, err := parseFlags([]string{
			"-cache", tmpdir, "-db", "corp", "-boards", "TQCB,TQOB",
			"-min-days", "5", "-from-date", "2024-01-01", "-csv"})
		So(err, ShouldBeNil)
		So(flags.DBName, ShouldEqual, "corp")
		So(flags.MinDays, ShouldEqual, 5)
		So(flags.From, ShouldResemble, db.NewDate(2024, 1, 1))
		So(flags.CSV, ShouldBeTrue)

		c := criteria(flags)
		So(c.Boards, ShouldResemble, []string{"TQCB", "TQOB"})
		So(c.ISINPrefix, ShouldEqual, "RU")
	})

	Convey("printData works", t, func() {
		dbName := "testdb"
		w := db.NewWriter(tmpdir, dbName)
		securities := map[string]db.SecurityRow{
			"BOND1": {Secid: "BOND1", Board: "TQCB", Shortname: "Bond One",
				ISIN: "RU000A0000B1", CouponPercent: 8.5,
				MatDate: db.NewDate(2027, 1, 1)},
		}
		So(w.WriteSecurities(securities), ShouldBeNil)
		So(w.WriteTrading("BOND1", []db.TradeRow{
			{Date: db.NewDate(2024, 3, 4), Close: 100},
			{Date: db.NewDate(2024, 3, 5), Close: 101},
		}), ShouldBeNil)
		So(w.WriteMetadata(), ShouldBeNil)

		ctx := logging.Use(context.Background(),
			logging.DefaultGoLogger(logging.Error))

		flags, err := parseFlags([]string{"-cache", tmpdir, "-db", dbName, "-csv"})
		So(err, ShouldBeNil)
		var buf bytes.Buffer
		So(printData(ctx, flags, &buf), ShouldBeNil)
		So("\n"+buf.String(), ShouldEqual, `
SECID,SHORTNAME,BOARDID,DAYS,LASTCLOSE,MEANRETURN,RETURNSIGMA,MATDATE,COUPONPERCENT
BOND1,Bond One,TQCB,2,101,1,0,2027-01-01,8.5
`)
	})
}

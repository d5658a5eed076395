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

package screener

import (
	"context"
	"os"
	"testing"

	"github.com/stockparfait/logging"

	"github.com/ntlekhugov/moexdata/db"

	. "github.com/smartystreets/goconvey/convey"
)

func writeTestDB(tmpdir, name string) error {
	w := db.NewWriter(tmpdir, name)
	securities := map[string]db.SecurityRow{
		"BOND1": {Secid: "BOND1", Board: "TQCB", Shortname: "Bond One",
			ISIN: "RU000A0000B1", CouponPercent: 8.5,
			MatDate: db.NewDate(2027, 1, 1)},
		"BOND2": {Secid: "BOND2", Board: "TQOB", Shortname: "Bond Two",
			ISIN: "RU000A0000B2"},
		"XS001": {Secid: "XS001", Board: "TQCB", Shortname: "Eurobond",
			ISIN: "XS0000000001"},
	}
	if err := w.WriteSecurities(securities); err != nil {
		return err
	}
	trades := map[string][]db.TradeRow{
		"BOND1": {
			{Date: db.NewDate(2024, 3, 4), Close: 100},
			{Date: db.NewDate(2024, 3, 5), Close: 101},
			{Date: db.NewDate(2024, 3, 6), Close: 102.01},
		},
		"BOND2": {
			{Date: db.NewDate(2024, 3, 4), Close: 95},
		},
		"XS001": {
			{Date: db.NewDate(2024, 3, 4), Close: 99},
			{Date: db.NewDate(2024, 3, 5), Close: 99},
		},
	}
	for secid, tr := range trades {
		if err := w.WriteTrading(secid, tr); err != nil {
			return err
		}
	}
	return w.WriteMetadata()
}

func TestScreener(t *testing.T) {
	tmpdir, tmpdirErr := os.MkdirTemp("", "test_screener")
	defer os.RemoveAll(tmpdir)

	Convey("Test setup succeeded", t, func() {
		So(tmpdirErr, ShouldBeNil)
		So(writeTestDB(tmpdir, "bonds"), ShouldBeNil)
	})

	Convey("Screen works correctly", t, func() {
		ctx := logging.Use(context.Background(),
			logging.DefaultGoLogger(logging.Error))
		reader := db.NewReader(tmpdir, "bonds")

		Convey("default criteria keep domestic bonds only", func() {
			tbl, err := Screen(ctx, reader, Criteria{})
			So(err, ShouldBeNil)
			So(tbl.Header, ShouldResemble, Header())
			So(len(tbl.Rows), ShouldEqual, 2)
			So(tbl.Rows[0].CSV()[0], ShouldEqual, "BOND1")
			So(tbl.Rows[1].CSV()[0], ShouldEqual, "BOND2")
		})

		Convey("board filter", func() {
			tbl, err := Screen(ctx, reader, Criteria{Boards: []string{"TQCB"}})
			So(err, ShouldBeNil)
			So(len(tbl.Rows), ShouldEqual, 1)
			So(tbl.Rows[0].CSV()[0], ShouldEqual, "BOND1")
		})

		Convey("MinDays filter", func() {
			tbl, err := Screen(ctx, reader, Criteria{MinDays: 2})
			So(err, ShouldBeNil)
			So(len(tbl.Rows), ShouldEqual, 1)
			So(tbl.Rows[0].CSV()[0], ShouldEqual, "BOND1")
		})

		Convey("date range filter", func() {
			tbl, err := Screen(ctx, reader, Criteria{
				From:    db.NewDate(2024, 3, 5),
				Till:    db.NewDate(2024, 3, 6),
				MinDays: 1,
			})
			So(err, ShouldBeNil)
			So(len(tbl.Rows), ShouldEqual, 1)
			So(tbl.Rows[0].CSV()[0], ShouldEqual, "BOND1")
		})

		Convey("computed statistics", func() {
			tbl, err := Screen(ctx, reader, Criteria{Boards: []string{"TQCB"}})
			So(err, ShouldBeNil)
			So(len(tbl.Rows), ShouldEqual, 1)
			csv := tbl.Rows[0].CSV()
			So(csv[3], ShouldEqual, "3")      // trading days
			So(csv[4], ShouldEqual, "102.01") // last close
			So(csv[5], ShouldEqual, "1")      // mean daily return 1%
		})

		Convey("prefix override", func() {
			tbl, err := Screen(ctx, reader, Criteria{ISINPrefix: "XS"})
			So(err, ShouldBeNil)
			So(len(tbl.Rows), ShouldEqual, 1)
			So(tbl.Rows[0].CSV()[0], ShouldEqual, "XS001")
		})
	})
}

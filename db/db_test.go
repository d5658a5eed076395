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

package db

import (
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestWriteRead(t *testing.T) {
	t.Parallel()

	tmpdir, tmpdirErr := os.MkdirTemp("", "test_db")
	defer os.RemoveAll(tmpdir)

	Convey("Test setup succeeded", t, func() {
		So(tmpdirErr, ShouldBeNil)
	})

	Convey("Writer and Reader round-trip a dataset", t, func() {
		securities := map[string]SecurityRow{
			"BOND1": {Secid: "BOND1", Board: "TQCB", Shortname: "Bond One",
				ISIN: "RU000A0000B1", FaceValue: 1000.0, CouponPercent: 8.5,
				MatDate: NewDate(2027, 1, 1)},
			"BOND2": {Secid: "BOND2", Board: "TQOB", Shortname: "Bond Two",
				ISIN: "RU000A0000B2"},
		}
		trades := []TradeRow{
			{Date: NewDate(2024, 3, 4), Close: 100.5, Volume: 100},
			{Date: NewDate(2024, 3, 5), Close: 100.75, Volume: 250},
		}
		events := Events{
			Coupons: []CouponRow{
				{Date: NewDate(2024, 6, 15), Value: 42.38, Percent: 8.5},
			},
			Offers: []OfferRow{
				{Date: NewDate(2025, 6, 15), Price: 100.0, Type: "put"},
			},
		}

		w := NewWriter(tmpdir, "testdb")
		So(w.WriteSecurities(securities), ShouldBeNil)
		So(w.WriteTrading("BOND1", trades), ShouldBeNil)
		So(w.WriteEvents("BOND1", events), ShouldBeNil)
		So(w.WriteMetadata(), ShouldBeNil)

		r := NewReader(tmpdir, "testdb")

		Convey("securities", func() {
			s, err := r.Securities()
			So(err, ShouldBeNil)
			So(s, ShouldResemble, securities)
			// Second read comes from the cache.
			s2, err := r.Securities()
			So(err, ShouldBeNil)
			So(s2, ShouldResemble, securities)
		})

		Convey("trading data", func() {
			tr, err := r.Trading("BOND1")
			So(err, ShouldBeNil)
			So(tr, ShouldResemble, trades)
		})

		Convey("events", func() {
			ev, err := r.Events("BOND1")
			So(err, ShouldBeNil)
			So(ev, ShouldResemble, events)
		})

		Convey("metadata", func() {
			m, err := r.ReadMetadata()
			So(err, ShouldBeNil)
			So(m, ShouldResemble, Metadata{
				NumSecurities: 2,
				NumTrades:     2,
				NumCoupons:    1,
				NumOffers:     1,
			})
		})

		Convey("missing security is an error", func() {
			_, err := r.Trading("NOSUCH")
			So(err, ShouldNotBeNil)
		})
	})
}

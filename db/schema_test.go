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
	"encoding/json"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDate(t *testing.T) {
	t.Parallel()

	Convey("Date works correctly", t, func() {
		Convey("NewDateFromString", func() {
			Convey("plain date", func() {
				d, err := NewDateFromString("2024-03-15")
				So(err, ShouldBeNil)
				So(d, ShouldResemble, NewDate(2024, 3, 15))
			})

			Convey("datetime variants", func() {
				d, err := NewDateFromString("2024-03-15 10:30:00")
				So(err, ShouldBeNil)
				So(d, ShouldResemble, NewDate(2024, 3, 15))

				d, err = NewDateFromString("2024-03-15T10:30:00")
				So(err, ShouldBeNil)
				So(d, ShouldResemble, NewDate(2024, 3, 15))
			})

			Convey("zero dates of perpetual bonds", func() {
				for _, s := range []string{"", "0000-00-00", "0000-00-00 00:00:00"} {
					d, err := NewDateFromString(s)
					So(err, ShouldBeNil)
					So(d.IsZero(), ShouldBeTrue)
				}
			})

			Convey("garbage is an error", func() {
				_, err := NewDateFromString("15/03/2024")
				So(err, ShouldNotBeNil)
			})
		})

		Convey("String round-trip", func() {
			d := NewDate(2024, 3, 5)
			So(d.String(), ShouldEqual, "2024-03-05")
			d2, err := NewDateFromString(d.String())
			So(err, ShouldBeNil)
			So(d2, ShouldResemble, d)
		})

		Convey("JSON round-trip", func() {
			d := NewDate(2024, 3, 5)
			data, err := json.Marshal(d)
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, `"2024-03-05"`)
			var d2 Date
			So(json.Unmarshal(data, &d2), ShouldBeNil)
			So(d2, ShouldResemble, d)
		})

		Convey("comparisons", func() {
			d1 := NewDate(2024, 3, 5)
			d2 := NewDate(2024, 3, 6)
			So(d1.Before(d2), ShouldBeTrue)
			So(d2.After(d1), ShouldBeTrue)
			So(d1.Before(d1), ShouldBeFalse)
		})

		Convey("InRange", func() {
			d := NewDate(2024, 3, 5)
			So(d.InRange(NewDate(2024, 3, 1), NewDate(2024, 3, 31)), ShouldBeTrue)
			So(d.InRange(NewDate(2024, 3, 6), NewDate(2024, 3, 31)), ShouldBeFalse)
			So(d.InRange(Date{}, Date{}), ShouldBeTrue)
			So(d.InRange(Date{}, NewDate(2024, 3, 4)), ShouldBeFalse)
		})

		Convey("DateInMoscow", func() {
			// 23:30 UTC is already the next day in Moscow (UTC+3).
			now := time.Date(2024, 3, 5, 23, 30, 0, 0, time.UTC)
			So(DateInMoscow(now), ShouldResemble, NewDate(2024, 3, 6))
		})
	})
}

func TestRows(t *testing.T) {
	t.Parallel()

	Convey("Row CSV serialization", t, func() {
		Convey("SecurityRow", func() {
			r := SecurityRow{
				Secid:         "RU000A0JX0J2",
				Board:         "TQCB",
				Shortname:     "Bond-01",
				ISIN:          "RU000A0JX0J2",
				MatDate:       NewDate(2027, 6, 15),
				FaceValue:     1000.0,
				CouponPercent: 7.1,
			}
			So(len(r.CSV()), ShouldEqual, len(SecurityRowHeader()))
			So(r.CSV(), ShouldResemble, []string{"RU000A0JX0J2", "TQCB", "Bond-01",
				"RU000A0JX0J2", "2027-06-15", "1000", "7.1"})
		})

		Convey("TradeRow", func() {
			r := TradeRow{
				Date:  NewDate(2024, 3, 5),
				Open:  100.5,
				Low:   99.0,
				High:  101.25,
				Close: 100.75,
			}
			So(len(r.CSV()), ShouldEqual, len(TradeRowHeader()))
			So(r.CSV()[0], ShouldEqual, "2024-03-05")
			So(r.CSV()[4], ShouldEqual, "100.75")
		})

		Convey("event rows", func() {
			c := CouponRow{Date: NewDate(2024, 6, 15), Value: 35.4, Percent: 7.1}
			So(len(c.CSV()), ShouldEqual, len(CouponRowHeader()))
			a := AmortizationRow{Date: NewDate(2025, 6, 15), Value: 1000.0}
			So(len(a.CSV()), ShouldEqual, len(AmortizationRowHeader()))
			o := OfferRow{Date: NewDate(2024, 12, 15), Price: 100.0, Type: "put"}
			So(o.CSV(), ShouldResemble, []string{"2024-12-15", "100", "put"})
		})
	})
}

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
	"fmt"
	"strconv"
	"time"

	"github.com/stockparfait/errors"
)

func parseTime(s string) (time.Time, error) {
	// ISS uses the zero date for perpetual bonds and missing values.
	if s == "" || s == "0000-00-00" || s == "0000-00-00 00:00:00" {
		return time.Time{}, nil
	}
	formats := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	var err error
	for _, f := range formats {
		var tm time.Time
		tm, err = time.Parse(f, s)
		if err == nil {
			return tm, nil
		}
	}
	return time.Time{}, err
}

// Date records a calendar date as year, month and day. The struct is designed
// to fit into 4 bytes.
type Date struct {
	YearVal  uint16
	MonthVal uint8
	DayVal   uint8
}

var _ json.Marshaler = Date{}
var _ json.Unmarshaler = &Date{}

// NewDate is the constructor for Date.
func NewDate(year uint16, month, day uint8) Date {
	return Date{year, month, day}
}

// NewDateFromTime creates a Date instance from a time.Time value in UTC.
func NewDateFromTime(t time.Time) Date {
	return Date{
		YearVal:  uint16(t.Year()),
		MonthVal: uint8(t.Month()),
		DayVal:   uint8(t.Day()),
	}
}

// NewDateFromString creates a Date instance from its string representation.
// This is the single place where external date strings are normalized; all
// other code works with Date values. Accepted forms are "YYYY-MM-DD" and the
// ISS datetime variants; the ISS zero date parses as the zero Date.
func NewDateFromString(s string) (Date, error) {
	t, err := parseTime(s)
	if err != nil {
		return Date{}, errors.Annotate(err, "failed to parse a Date string: '%s'", s)
	}
	if t.IsZero() {
		return Date{}, nil
	}
	return NewDateFromTime(t), nil
}

// DateInMoscow returns the date in the Moscow timezone, which is the trading
// calendar of the exchange.
func DateInMoscow(now time.Time) Date {
	tz := "Europe/Moscow"
	location, err := time.LoadLocation(tz)
	if err != nil {
		panic(errors.Annotate(err, "failed to load timezone %s", tz))
	}
	return NewDateFromTime(now.In(location))
}

func (d Date) Year() uint16 { return d.YearVal }
func (d Date) Month() uint8 { return d.MonthVal }
func (d Date) Day() uint8   { return d.DayVal }

// String representation of the value.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year(), d.Month(), d.Day())
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Annotate(err, "failed to unmarshal Date as string")
	}
	d2, err := NewDateFromString(s)
	if err != nil {
		return errors.Annotate(err, "failed to parse Date")
	}
	*d = d2
	return nil
}

// ToTime converts Date to the equivalent time.Time in UTC.
func (d Date) ToTime() time.Time {
	return time.Date(int(d.Year()), time.Month(d.Month()), int(d.Day()),
		0, 0, 0, 0, time.UTC)
}

// Before is true if d < d2.
func (d Date) Before(d2 Date) bool {
	return d.ToTime().Before(d2.ToTime())
}

// After is true if d > d2.
func (d Date) After(d2 Date) bool {
	return d2.Before(d)
}

// IsZero is true for the zero value of Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// InRange checks if the date is in the inclusive date range. Zero start or end
// means no bound on that side.
func (d Date) InRange(start, end Date) bool {
	if !start.IsZero() && d.Before(start) {
		return false
	}
	if !end.IsZero() && d.After(end) {
		return false
	}
	return true
}

func float2str(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// SecurityRow is a single instrument from a securities listing.
type SecurityRow struct {
	Secid         string
	Board         string
	Shortname     string
	ISIN          string
	MatDate       Date
	FaceValue     float64
	CouponPercent float64
}

// SecurityRowHeader returns the CSV header for SecurityRow.
func SecurityRowHeader() []string {
	return []string{"SECID", "BOARDID", "SHORTNAME", "ISIN", "MATDATE",
		"FACEVALUE", "COUPONPERCENT"}
}

// CSV returns the CSV representation of the row.
func (r SecurityRow) CSV() []string {
	return []string{r.Secid, r.Board, r.Shortname, r.ISIN, r.MatDate.String(),
		float2str(r.FaceValue), float2str(r.CouponPercent)}
}

// TradeRow is one day of trading results for a single instrument.
type TradeRow struct {
	Date      Date
	Open      float64
	Low       float64
	High      float64
	Close     float64
	Volume    float64
	Value     float64
	NumTrades float64
}

// TradeRowHeader returns the CSV header for TradeRow.
func TradeRowHeader() []string {
	return []string{"TRADEDATE", "OPEN", "LOW", "HIGH", "CLOSE", "VOLUME",
		"VALUE", "NUMTRADES"}
}

// CSV returns the CSV representation of the row.
func (r TradeRow) CSV() []string {
	return []string{r.Date.String(), float2str(r.Open), float2str(r.Low),
		float2str(r.High), float2str(r.Close), float2str(r.Volume),
		float2str(r.Value), float2str(r.NumTrades)}
}

// CouponRow is a single coupon payment of a bond.
type CouponRow struct {
	Date      Date // payment date
	StartDate Date // coupon period start
	FaceValue float64
	Value     float64 // payment per bond, in face value currency
	Percent   float64 // annualized coupon rate, in percent
}

// CouponRowHeader returns the CSV header for CouponRow.
func CouponRowHeader() []string {
	return []string{"COUPONDATE", "STARTDATE", "FACEVALUE", "VALUE", "VALUEPRC"}
}

// CSV returns the CSV representation of the row.
func (r CouponRow) CSV() []string {
	return []string{r.Date.String(), r.StartDate.String(),
		float2str(r.FaceValue), float2str(r.Value), float2str(r.Percent)}
}

// AmortizationRow is a single principal repayment event of a bond.
type AmortizationRow struct {
	Date      Date
	FaceValue float64
	Value     float64 // repaid amount per bond
	Percent   float64 // repaid share of the face value, in percent
}

// AmortizationRowHeader returns the CSV header for AmortizationRow.
func AmortizationRowHeader() []string {
	return []string{"AMORTDATE", "FACEVALUE", "VALUE", "VALUEPRC"}
}

// CSV returns the CSV representation of the row.
func (r AmortizationRow) CSV() []string {
	return []string{r.Date.String(), float2str(r.FaceValue),
		float2str(r.Value), float2str(r.Percent)}
}

// OfferRow is a single put/call offer event of a bond.
type OfferRow struct {
	Date  Date
	Price float64
	Type  string
}

// OfferRowHeader returns the CSV header for OfferRow.
func OfferRowHeader() []string {
	return []string{"OFFERDATE", "PRICE", "OFFERTYPE"}
}

// CSV returns the CSV representation of the row.
func (r OfferRow) CSV() []string {
	return []string{r.Date.String(), float2str(r.Price), r.Type}
}

// Events groups the bond lifecycle events of a single instrument.
type Events struct {
	Coupons       []CouponRow
	Amortizations []AmortizationRow
	Offers        []OfferRow
}

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

package bonds

import (
	"github.com/stockparfait/errors"

	"github.com/ntlekhugov/moexdata/db"
	"github.com/ntlekhugov/moexdata/iss"
)

func typeErr(v iss.Value, tp string) error {
	return errors.Reason("expected %s but found %T: %v", tp, v, v)
}

func value2str(v iss.Value) (string, error) {
	if v == nil {
		return "", nil
	}
	if str, ok := v.(string); ok {
		return str, nil
	}
	return "", typeErr(v, "a string")
}

func value2num(v iss.Value) (float64, error) {
	if v == nil {
		return 0.0, nil
	}
	if num, ok := v.(float64); ok { // JSON numbers always unmarshal to float64
		return num, nil
	}
	return 0.0, typeErr(v, "a number")
}

func value2date(v iss.Value) (db.Date, error) {
	if v == nil {
		return db.Date{}, nil
	}
	str, ok := v.(string)
	if !ok {
		return db.Date{}, typeErr(v, "a date string")
	}
	return db.NewDateFromString(str)
}

// fields gives named access to a row's values, ignoring columns absent from
// the response. Listings legitimately vary their optional columns, so only
// the columns required by each row type are checked up front.
type fields struct {
	values  []iss.Value
	indices map[string]int
}

func newFields(v []iss.Value, c iss.Columns) (fields, error) {
	if len(v) != len(c) {
		return fields{}, errors.Reason("expected %d values, received %d: %v",
			len(c), len(v), v)
	}
	return fields{values: v, indices: c.MapFields()}, nil
}

func (f fields) str(column string, dst *string) error {
	i, ok := f.indices[column]
	if !ok {
		return nil
	}
	s, err := value2str(f.values[i])
	if err != nil {
		return errors.Annotate(err, "%s should be a string", column)
	}
	*dst = s
	return nil
}

func (f fields) num(column string, dst *float64) error {
	i, ok := f.indices[column]
	if !ok {
		return nil
	}
	n, err := value2num(f.values[i])
	if err != nil {
		return errors.Annotate(err, "%s should be a number", column)
	}
	*dst = n
	return nil
}

func (f fields) date(column string, dst *db.Date) error {
	i, ok := f.indices[column]
	if !ok {
		return nil
	}
	d, err := value2date(f.values[i])
	if err != nil {
		return errors.Annotate(err, "%s should be a date string", column)
	}
	*dst = d
	return nil
}

// Security is a row of a bond board securities listing.
type Security struct {
	db.SecurityRow
}

var _ iss.ValueLoader = &Security{}

// Load implements iss.ValueLoader.
func (r *Security) Load(v []iss.Value, c iss.Columns) error {
	if err := c.Require("SECID", "BOARDID", "SHORTNAME"); err != nil {
		return errors.Annotate(err, "unexpected securities columns")
	}
	f, err := newFields(v, c)
	if err != nil {
		return err
	}
	if err := f.str("SECID", &r.Secid); err != nil {
		return err
	}
	if err := f.str("BOARDID", &r.Board); err != nil {
		return err
	}
	if err := f.str("SHORTNAME", &r.Shortname); err != nil {
		return err
	}
	if err := f.str("ISIN", &r.ISIN); err != nil {
		return err
	}
	if err := f.date("MATDATE", &r.MatDate); err != nil {
		return err
	}
	if err := f.num("FACEVALUE", &r.FaceValue); err != nil {
		return err
	}
	return f.num("COUPONPERCENT", &r.CouponPercent)
}

// Trade is a row of daily trading results.
type Trade struct {
	db.TradeRow
}

var _ iss.ValueLoader = &Trade{}

// Load implements iss.ValueLoader.
func (r *Trade) Load(v []iss.Value, c iss.Columns) error {
	if err := c.Require("TRADEDATE", "CLOSE"); err != nil {
		return errors.Annotate(err, "unexpected history columns")
	}
	f, err := newFields(v, c)
	if err != nil {
		return err
	}
	if err := f.date("TRADEDATE", &r.Date); err != nil {
		return err
	}
	if err := f.num("OPEN", &r.Open); err != nil {
		return err
	}
	if err := f.num("LOW", &r.Low); err != nil {
		return err
	}
	if err := f.num("HIGH", &r.High); err != nil {
		return err
	}
	if err := f.num("CLOSE", &r.Close); err != nil {
		return err
	}
	if err := f.num("VOLUME", &r.Volume); err != nil {
		return err
	}
	if err := f.num("VALUE", &r.Value); err != nil {
		return err
	}
	return f.num("NUMTRADES", &r.NumTrades)
}

// Coupon is a row of the coupons section of a bondization response.
type Coupon struct {
	db.CouponRow
}

var _ iss.ValueLoader = &Coupon{}

// Load implements iss.ValueLoader.
func (r *Coupon) Load(v []iss.Value, c iss.Columns) error {
	if err := c.Require("coupondate"); err != nil {
		return errors.Annotate(err, "unexpected coupons columns")
	}
	f, err := newFields(v, c)
	if err != nil {
		return err
	}
	if err := f.date("coupondate", &r.Date); err != nil {
		return err
	}
	if err := f.date("startdate", &r.StartDate); err != nil {
		return err
	}
	if err := f.num("facevalue", &r.FaceValue); err != nil {
		return err
	}
	if err := f.num("value", &r.Value); err != nil {
		return err
	}
	return f.num("valueprc", &r.Percent)
}

// Amortization is a row of the amortizations section of a bondization
// response.
type Amortization struct {
	db.AmortizationRow
}

var _ iss.ValueLoader = &Amortization{}

// Load implements iss.ValueLoader.
func (r *Amortization) Load(v []iss.Value, c iss.Columns) error {
	if err := c.Require("amortdate"); err != nil {
		return errors.Annotate(err, "unexpected amortizations columns")
	}
	f, err := newFields(v, c)
	if err != nil {
		return err
	}
	if err := f.date("amortdate", &r.Date); err != nil {
		return err
	}
	if err := f.num("facevalue", &r.FaceValue); err != nil {
		return err
	}
	if err := f.num("value", &r.Value); err != nil {
		return err
	}
	return f.num("valueprc", &r.Percent)
}

// Offer is a row of the offers section of a bondization response.
type Offer struct {
	db.OfferRow
}

var _ iss.ValueLoader = &Offer{}

// Load implements iss.ValueLoader.
func (r *Offer) Load(v []iss.Value, c iss.Columns) error {
	if err := c.Require("offerdate"); err != nil {
		return errors.Annotate(err, "unexpected offers columns")
	}
	f, err := newFields(v, c)
	if err != nil {
		return err
	}
	if err := f.date("offerdate", &r.Date); err != nil {
		return err
	}
	if err := f.num("price", &r.Price); err != nil {
		return err
	}
	return f.str("offertype", &r.Type)
}

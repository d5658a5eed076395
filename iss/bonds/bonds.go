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

// Package bonds implements typed access to bond market data of the ISS API
// and a batch downloader for board-wide bond datasets.
package bonds

import (
	"context"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
	"golang.org/x/exp/slices"

	"github.com/ntlekhugov/moexdata/db"
	"github.com/ntlekhugov/moexdata/iss"
)

// Config of a batch download.
type Config struct {
	Board string        // default: the main corporate bonds board
	From  db.Date       // zero value: server-side default window
	Till  db.Date       // zero value: server-side default window
	Limit int           // max. number of securities to download; 0 = all
	Delay time.Duration // courtesy pause between securities
}

func (c Config) board() string {
	if c.Board == "" {
		return iss.BoardCorpBonds
	}
	return c.Board
}

// Dataset accumulates a board-wide bond dataset in memory before saving it
// with db.Writer.
type Dataset struct {
	Securities map[string]db.SecurityRow
	Trading    map[string][]db.TradeRow
	Events     map[string]db.Events
	NumTrades  int
	NumEvents  int
}

// NewDataset initializes an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{
		Securities: make(map[string]db.SecurityRow),
		Trading:    make(map[string][]db.TradeRow),
		Events:     make(map[string]db.Events),
	}
}

// FetchSecurities downloads the securities listing of a bond board. When
// limit > 0, only the first limit securities are kept.
func (d *Dataset) FetchSecurities(ctx context.Context, board string, limit int) error {
	t, err := iss.Securities(ctx, iss.EngineStock, iss.MarketBonds, board)
	if err != nil {
		return errors.Annotate(err, "failed to list securities of %s", board)
	}
	for i, row := range t.Rows {
		if limit > 0 && len(d.Securities) >= limit {
			break
		}
		var s Security
		if err := s.Load(row, t.Columns); err != nil {
			return errors.Annotate(err, "failed to parse security row %d", i)
		}
		d.Securities[s.Secid] = s.SecurityRow
	}
	return nil
}

// FetchTrading downloads the daily trading results of one security for the
// inclusive date range.
func (d *Dataset) FetchTrading(ctx context.Context, secid, board string, from, till db.Date) error {
	q := iss.NewHistoryQuery(iss.EngineStock, iss.MarketBonds, board, secid)
	if !from.IsZero() {
		q = q.From(from)
	}
	if !till.IsZero() {
		q = q.Till(till)
	}
	it := q.Read(ctx)
	for {
		var t Trade
		ok, err := it.Next(&t)
		if err != nil {
			return errors.Annotate(err, "failed to read trading data of %s", secid)
		}
		if !ok {
			break
		}
		d.Trading[secid] = append(d.Trading[secid], t.TradeRow)
		d.NumTrades++
	}
	return nil
}

// FetchEvents downloads the lifecycle event schedule of one bond.
func (d *Dataset) FetchEvents(ctx context.Context, secid string) error {
	b, err := iss.FetchBondization(ctx, secid)
	if err != nil {
		return errors.Annotate(err, "failed to fetch bondization of %s", secid)
	}
	var events db.Events
	for i, row := range b.Coupons.Rows {
		var c Coupon
		if err := c.Load(row, b.Coupons.Columns); err != nil {
			return errors.Annotate(err, "failed to parse coupon row %d of %s", i, secid)
		}
		events.Coupons = append(events.Coupons, c.CouponRow)
	}
	for i, row := range b.Amortizations.Rows {
		var a Amortization
		if err := a.Load(row, b.Amortizations.Columns); err != nil {
			return errors.Annotate(err, "failed to parse amortization row %d of %s", i, secid)
		}
		events.Amortizations = append(events.Amortizations, a.AmortizationRow)
	}
	for i, row := range b.Offers.Rows {
		var o Offer
		if err := o.Load(row, b.Offers.Columns); err != nil {
			return errors.Annotate(err, "failed to parse offer row %d of %s", i, secid)
		}
		events.Offers = append(events.Offers, o.OfferRow)
	}
	d.Events[secid] = events
	d.NumEvents += len(events.Coupons) + len(events.Amortizations) + len(events.Offers)
	return nil
}

// Secids returns the sorted security IDs of the downloaded listing.
func (d *Dataset) Secids() []string {
	secids := make([]string, 0, len(d.Securities))
	for secid := range d.Securities {
		secids = append(secids, secid)
	}
	slices.Sort(secids)
	return secids
}

// DownloadAll downloads the securities listing, then trading results and
// lifecycle events for each security strictly sequentially, and saves the
// dataset under dbPath/dbName. A failure for a single security is logged and
// the batch continues with the next one; only listing and storage failures
// abort the whole call.
func (d *Dataset) DownloadAll(ctx context.Context, dbPath, dbName string, c Config) error {
	board := c.board()
	logging.Infof(ctx, "fetching securities of board %s...", board)
	if err := d.FetchSecurities(ctx, board, c.Limit); err != nil {
		return errors.Annotate(err, "failed to fetch securities")
	}
	logging.Infof(ctx, "downloaded %d securities", len(d.Securities))

	secids := d.Secids()
	for i, secid := range secids {
		if i > 0 && c.Delay > 0 {
			time.Sleep(c.Delay)
		}
		logging.Infof(ctx, "fetching data for %s (%d of %d)", secid, i+1, len(secids))
		if err := d.FetchTrading(ctx, secid, d.Securities[secid].Board, c.From, c.Till); err != nil {
			logging.Warningf(ctx, "skipping trading data of %s: %s", secid, err.Error())
		}
		if err := d.FetchEvents(ctx, secid); err != nil {
			logging.Warningf(ctx, "skipping events of %s: %s", secid, err.Error())
		}
	}
	logging.Infof(ctx, "downloaded %d trading records and %d events",
		d.NumTrades, d.NumEvents)

	w := db.NewWriter(dbPath, dbName)
	if err := w.WriteSecurities(d.Securities); err != nil {
		return errors.Annotate(err, "failed to write securities")
	}
	for _, secid := range secids {
		if trades, ok := d.Trading[secid]; ok {
			if err := w.WriteTrading(secid, trades); err != nil {
				return errors.Annotate(err, "failed to write trading data of %s", secid)
			}
		}
		if events, ok := d.Events[secid]; ok {
			if err := w.WriteEvents(secid, events); err != nil {
				return errors.Annotate(err, "failed to write events of %s", secid)
			}
		}
	}
	if err := w.WriteMetadata(); err != nil {
		return errors.Annotate(err, "failed to write metadata")
	}
	logging.Infof(ctx, "all done.")
	return nil
}

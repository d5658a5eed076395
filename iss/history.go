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

package iss

import (
	"context"
	"net/url"
	"strconv"

	"github.com/stockparfait/errors"

	"github.com/ntlekhugov/moexdata/db"
)

// HistoryQuery is a builder for a historical data query. The engine, market,
// board and security identifiers are passed through to the server verbatim,
// case-sensitive, with no normalization.
type HistoryQuery struct {
	engine   string
	market   string
	board    string
	security string
	from     db.Date // zero value: server-side default window
	till     db.Date // zero value: server-side default window
	interval int     // hours; 24 = daily
	pageSize int
}

// NewHistoryQuery creates a new query for daily data. All four identifiers
// are required.
func NewHistoryQuery(engine, market, board, security string) *HistoryQuery {
	return &HistoryQuery{
		engine:   engine,
		market:   market,
		board:    board,
		security: security,
		interval: 24,
		pageSize: DefaultPageSize,
	}
}

// Copy creates a copy of the query. It is primarily used in its builder
// methods, which always leave the original intact.
func (q *HistoryQuery) Copy() *HistoryQuery {
	q2 := *q
	return &q2
}

// From sets the inclusive start date. The zero Date removes the bound.
func (q *HistoryQuery) From(d db.Date) *HistoryQuery {
	q2 := q.Copy()
	q2.from = d
	return q2
}

// Till sets the inclusive end date. The zero Date removes the bound.
func (q *HistoryQuery) Till(d db.Date) *HistoryQuery {
	q2 := q.Copy()
	q2.till = d
	return q2
}

// Interval sets the candle interval in hours; the default is 24 (daily).
func (q *HistoryQuery) Interval(hours int) *HistoryQuery {
	q2 := q.Copy()
	q2.interval = hours
	return q2
}

// PageSize sets the number of rows per page, [1..DefaultPageSize]. Values
// outside the range are clamped.
func (q *HistoryQuery) PageSize(size int) *HistoryQuery {
	if size < 1 {
		size = 1
	}
	if size > DefaultPageSize {
		size = DefaultPageSize
	}
	q2 := q.Copy()
	q2.pageSize = size
	return q2
}

// Path returns the URL path to add to the base URL.
func (q *HistoryQuery) Path() string {
	return "/history/engines/" + q.engine + "/markets/" + q.market +
		"/boards/" + q.board + "/securities/" + q.security
}

// Values returns the query values for the query. Each call creates a new
// object, so the caller is free to modify it without affecting the query.
func (q *HistoryQuery) Values() url.Values {
	v := make(url.Values)
	if !q.from.IsZero() {
		v.Set("from", q.from.String())
	}
	if !q.till.IsZero() {
		v.Set("till", q.till.String())
	}
	if q.interval != 0 {
		v.Set("interval", strconv.Itoa(q.interval))
	}
	if q.pageSize != DefaultPageSize {
		v.Set("limit", strconv.Itoa(q.pageSize))
	}
	return v
}

func (q *HistoryQuery) check() error {
	if q.engine == "" || q.market == "" || q.board == "" || q.security == "" {
		return errors.Reason(
			"engine [%s], market [%s], board [%s] and security [%s] are all required",
			q.engine, q.market, q.board, q.security)
	}
	return nil
}

func (q *HistoryQuery) paged() *pagedQuery {
	return &pagedQuery{
		path:     q.Path(),
		values:   q.Values(),
		section:  "history",
		pageSize: q.pageSize,
	}
}

// Fetch downloads all pages of historical data as a single Table. The result
// may be empty (zero rows), which is not an error. Any transport failure
// mid-pagination aborts the call; a partial Table is never returned.
func (q *HistoryQuery) Fetch(ctx context.Context) (*Table, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	t, err := fetchPaged(ctx, q.paged())
	if err != nil {
		return nil, errors.Annotate(err, "failed to fetch history of %s", q.security)
	}
	return t, nil
}

// Read sets up an iterator over the result rows, which will execute the query
// as needed and handle paging transparently.
func (q *HistoryQuery) Read(ctx context.Context) *RowIterator {
	if err := q.check(); err != nil {
		return &RowIterator{err: err}
	}
	return newRowIterator(ctx, q.paged())
}

// ValueLoader is the interface that a typed row of a specific data section
// must implement.
type ValueLoader interface {
	Load(v []Value, c Columns) error
}

// RowIterator iterates over query results row by row. Paging is handled
// transparently.
type RowIterator struct {
	pages *pageIterator
	page  *Section
	index int // the data element for Next() to return
	err   error
}

// newRowIterator creates a new iterator.
func newRowIterator(ctx context.Context, query *pagedQuery) *RowIterator {
	return &RowIterator{pages: newPageIterator(ctx, query)}
}

// nextPage fetches and populates the iterator with the next page of data.
// When there are no more pages to load, or loading a page results in an
// error, the first return value becomes false.
func (it *RowIterator) nextPage() (bool, error) {
	sec, err := it.pages.next()
	if err != nil {
		return false, err
	}
	if sec == nil {
		return false, nil
	}
	it.page = sec
	it.index = 0
	return true, nil
}

// Next loads the next row. If there are no more rows, the second value is
// false. Note, that error may be non-nil regardless of the end of iterator.
func (it *RowIterator) Next(row ValueLoader) (bool, error) {
	if it.err != nil {
		return false, it.err
	}
	if it.page == nil {
		if ok, err := it.nextPage(); !ok {
			return false, err
		}
	}
	for it.index >= len(it.page.Data) {
		if ok, err := it.nextPage(); !ok {
			return false, err
		}
	}
	err := row.Load(it.page.Data[it.index], it.page.Columns)
	it.index++
	if err != nil {
		return true, errors.Annotate(err, "failed to parse row %d in page %d",
			it.index, it.pages.pageCount)
	}
	return true, nil
}

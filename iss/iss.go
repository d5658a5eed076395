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
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/fetch"
	"github.com/stockparfait/logging"

	"github.com/ntlekhugov/moexdata/db"
	"github.com/ntlekhugov/moexdata/table"
)

type contextKey int

const (
	clientContextKey contextKey = iota
)

// URL is the default base URL of the server. It may be overwritten in tests
// before creating a new client.
var URL = "https://iss.moex.com/iss"

// DefaultPageSize is the maximum number of rows the server returns in a
// single page of a history-style endpoint.
const DefaultPageSize = 100

// Commonly used engines, markets and boards of the exchange hierarchy.
const (
	EngineStock    = "stock"
	EngineCurrency = "currency"
	EngineFutures  = "futures"

	MarketIndex  = "index"
	MarketShares = "shares"
	MarketBonds  = "bonds"

	BoardMainIndices = "SNDX" // main indices board
	BoardRTSIndices  = "RTSI" // RTS indices board
	BoardMainShares  = "TQBR" // main shares board
	BoardCorpBonds   = "TQCB" // main corporate bonds board
	BoardGovBonds    = "TQOB" // main government bonds board
)

// Client for querying the ISS API. Credentials are optional; without them all
// requests are made anonymously.
type Client struct {
	baseURL  string
	username string
	password string
}

// newClient creates a new client.
func newClient(baseURL, username, password string) *Client {
	return &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
	}
}

// GetClient extracts the Client from the context, if any.
func GetClient(ctx context.Context) *Client {
	c, ok := ctx.Value(clientContextKey).(*Client)
	if !ok {
		return nil
	}
	return c
}

// UseClient creates a new client with optional basic-auth credentials and
// injects it into the context. Empty username means anonymous access.
func UseClient(ctx context.Context, username, password string) context.Context {
	return context.WithValue(ctx, clientContextKey, newClient(URL, username, password))
}

// header returns the extra request headers for the client, nil for anonymous.
func (c *Client) header() http.Header {
	if c.username == "" {
		return nil
	}
	h := make(http.Header)
	auth := base64.StdEncoding.EncodeToString([]byte(c.username + ":" + c.password))
	h.Set("Authorization", "Basic "+auth)
	return h
}

// Value is an arbitrary value of a table cell: a string, a number (float64),
// a bool, or nil for a missing value, as decoded from JSON.
type Value interface{}

// Columns is the ordered list of column names of a data section.
type Columns []string

// MapFields creates a map of {column name -> column index}.
func (c Columns) MapFields() map[string]int {
	res := make(map[string]int)
	for i, name := range c {
		res[name] = i
	}
	return res
}

// Index returns the index of the named column, or -1 when absent.
func (c Columns) Index(name string) int {
	for i, n := range c {
		if n == name {
			return i
		}
	}
	return -1
}

// Require checks that all the named columns are present.
func (c Columns) Require(names ...string) error {
	m := c.MapFields()
	for _, name := range names {
		if _, ok := m[name]; !ok {
			return errors.Reason("missing column '%s' in [%s]",
				name, strings.Join(c, ", "))
		}
	}
	return nil
}

// Section is a single logical data section of an ISS response.
type Section struct {
	Columns Columns   `json:"columns"`
	Data    [][]Value `json:"data"`
}

// Table is the ordered concatenation of all pages of one data section. Rows
// preserve their arrival order; Columns may be non-nil even when Rows is
// empty.
type Table struct {
	Columns Columns
	Rows    [][]Value
}

// Empty is true when the table has no rows.
func (t *Table) Empty() bool { return len(t.Rows) == 0 }

// NumRows returns the number of rows in the table.
func (t *Table) NumRows() int { return len(t.Rows) }

// FormatValue renders a cell value as a string. Numbers are formatted with
// the minimal number of digits that survives a round-trip.
func FormatValue(v Value) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// Floats extracts the named column as a float64 slice. Nil cells become 0.
func (t *Table) Floats(column string) ([]float64, error) {
	idx := t.Columns.Index(column)
	if idx < 0 {
		return nil, errors.Reason("no column '%s' in the table", column)
	}
	res := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return nil, errors.Reason("row %d has %d values for %d columns",
				i, len(row), len(t.Columns))
		}
		if row[idx] == nil {
			continue
		}
		num, ok := row[idx].(float64)
		if !ok {
			return nil, errors.Reason("row %d of column '%s' is not a number: %v",
				i, column, row[idx])
		}
		res[i] = num
	}
	return res, nil
}

// Dates extracts the named column as a Date slice.
func (t *Table) Dates(column string) ([]db.Date, error) {
	idx := t.Columns.Index(column)
	if idx < 0 {
		return nil, errors.Reason("no column '%s' in the table", column)
	}
	res := make([]db.Date, len(t.Rows))
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return nil, errors.Reason("row %d has %d values for %d columns",
				i, len(row), len(t.Columns))
		}
		str, ok := row[idx].(string)
		if !ok {
			return nil, errors.Reason("row %d of column '%s' is not a date string: %v",
				i, column, row[idx])
		}
		d, err := db.NewDateFromString(str)
		if err != nil {
			return nil, errors.Annotate(err, "row %d of column '%s'", i, column)
		}
		res[i] = d
	}
	return res, nil
}

// valueRow adapts a row of values for table export.
type valueRow []Value

// CSV implements table.Row.
func (r valueRow) CSV() []string {
	res := make([]string, len(r))
	for i, v := range r {
		res[i] = FormatValue(v)
	}
	return res
}

// Export converts the Table for CSV or text output.
func (t *Table) Export() *table.Table {
	tbl := table.NewTable(t.Columns...)
	for _, row := range t.Rows {
		tbl.AddRow(valueRow(row))
	}
	return tbl
}

// cloneValues deep-copies url.Values, handling nil.
func cloneValues(v url.Values) url.Values {
	res := make(url.Values)
	for k, vals := range v {
		res[k] = append([]string{}, vals...)
	}
	return res
}

// fetchSections performs a single API request and decodes all data sections
// of the response. Default query parameters are added unless overridden.
func fetchSections(ctx context.Context, path string, query url.Values) (map[string]*Section, error) {
	client := GetClient(ctx)
	if client == nil {
		return nil, errors.Reason("no client in context")
	}
	uri := client.baseURL + path + ".json"
	q := cloneValues(query)
	if q.Get("lang") == "" {
		q.Set("lang", "en")
	}
	if q.Get("iss.meta") == "" {
		q.Set("iss.meta", "off")
	}
	var sections map[string]*Section
	if err := fetch.FetchJSON(ctx, uri, &sections, q, fetch.NewParams().Retries(0)); err != nil {
		return nil, errors.Annotate(err, "failed to fetch URL %s", uri)
	}
	return sections, nil
}

// fetchSection performs a single API request and extracts one data section.
// A missing section yields nil without an error; transport and HTTP failures
// are returned as errors.
func fetchSection(ctx context.Context, path string, query url.Values, section string) (*Section, error) {
	sections, err := fetchSections(ctx, path, query)
	if err != nil {
		return nil, err
	}
	return sections[section], nil
}

// pagedQuery identifies one data section fetched page by page with a start
// offset.
type pagedQuery struct {
	path     string
	values   url.Values
	section  string
	pageSize int
}

// pageIterator steps through the pages of a pagedQuery. Each next() call
// performs exactly one request; pages are fetched strictly sequentially.
type pageIterator struct {
	context   context.Context
	query     *pagedQuery
	start     int // offset of the next page
	pageCount int // pages fetched so far, for logging
	lastPage  bool
}

func newPageIterator(ctx context.Context, query *pagedQuery) *pageIterator {
	return &pageIterator{context: ctx, query: query}
}

// next fetches the next page. It returns nil when there are no more pages: a
// previous page was short, the response had no data section, or an empty page
// arrived. The returned Section may hold zero rows but valid columns.
func (it *pageIterator) next() (*Section, error) {
	if it.lastPage {
		return nil, nil
	}
	v := cloneValues(it.query.values)
	v.Set("start", strconv.Itoa(it.start))
	sec, err := fetchSection(it.context, it.query.path, v, it.query.section)
	if err != nil {
		return nil, errors.Annotate(err, "failed to query page %d", it.pageCount+1)
	}
	if sec == nil {
		// A reachable response without the data section ends pagination; it is
		// not a transport failure.
		it.lastPage = true
		return nil, nil
	}
	it.pageCount++
	it.start += it.query.pageSize
	if len(sec.Data) < it.query.pageSize {
		it.lastPage = true
	}
	logging.Debugf(it.context, "%s: fetched page %d with %d rows",
		it.query.section, it.pageCount, len(sec.Data))
	return sec, nil
}

// fetchPaged accumulates all pages of one data section into a Table. Any
// request failure aborts the whole call; no partial Table is returned.
func fetchPaged(ctx context.Context, query *pagedQuery) (*Table, error) {
	it := newPageIterator(ctx, query)
	var t Table
	for {
		sec, err := it.next()
		if err != nil {
			return nil, err
		}
		if sec == nil {
			break
		}
		if t.Columns == nil {
			t.Columns = sec.Columns
		}
		t.Rows = append(t.Rows, sec.Data...)
	}
	return &t, nil
}

// listing performs a one-shot request for a non-paginated data section. A
// missing section yields a valid empty Table.
func listing(ctx context.Context, path, section string) (*Table, error) {
	sec, err := fetchSection(ctx, path, nil, section)
	if err != nil {
		return nil, errors.Annotate(err, "failed to list %s", section)
	}
	if sec == nil {
		return &Table{}, nil
	}
	return &Table{Columns: sec.Columns, Rows: sec.Data}, nil
}

// Engines lists the available trading engines.
func Engines(ctx context.Context) (*Table, error) {
	return listing(ctx, "/engines", "engines")
}

// Markets lists the markets of an engine.
func Markets(ctx context.Context, engine string) (*Table, error) {
	return listing(ctx, "/engines/"+engine+"/markets", "markets")
}

// Boards lists the boards of a market.
func Boards(ctx context.Context, engine, market string) (*Table, error) {
	return listing(ctx, "/engines/"+engine+"/markets/"+market+"/boards", "boards")
}

// Securities lists the securities of a market, or of a single board when
// board is non-empty.
func Securities(ctx context.Context, engine, market, board string) (*Table, error) {
	path := "/engines/" + engine + "/markets/" + market
	if board != "" {
		path += "/boards/" + board
	}
	path += "/securities"
	return listing(ctx, path, "securities")
}

// TestResponse generates the JSON string of a single-section response in the
// format returned by the ISS API. For use in tests.
func TestResponse(section string, columns Columns, data [][]Value) (string, error) {
	body, err := json.Marshal(map[string]*Section{
		section: {Columns: columns, Data: data},
	})
	return string(body), err
}

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

	"github.com/stockparfait/errors"
)

// ErrNotFound is returned by Resolve when no security matches the identifier
// exactly. It is distinct from transport failures: the server was reached and
// answered, but knows no such security.
var ErrNotFound = errors.Reason("security not found")

// Resolution is a resolved security: its exchange-local ID and primary board.
type Resolution struct {
	Secid string
	Board string
}

// Resolve looks up a security by a free-form identifier, an ISIN or a ticker,
// using the server-wide securities search. The identifier must match the
// "secid" or "isin" column of a search result exactly; a fuzzy search hit
// alone is not a match. No match returns ErrNotFound, never a default guess.
func Resolve(ctx context.Context, id string) (Resolution, error) {
	query := make(url.Values)
	query.Set("q", id)
	sec, err := fetchSection(ctx, "/securities", query, "securities")
	if err != nil {
		return Resolution{}, errors.Annotate(err, "failed to search for '%s'", id)
	}
	if sec == nil {
		return Resolution{}, ErrNotFound
	}
	if err := sec.Columns.Require("secid", "isin", "primary_boardid"); err != nil {
		return Resolution{}, errors.Annotate(err, "unexpected search response")
	}
	m := sec.Columns.MapFields()
	for _, row := range sec.Data {
		if len(row) != len(sec.Columns) {
			return Resolution{}, errors.Reason(
				"malformed search result: expected %d values, received %d: %v",
				len(sec.Columns), len(row), row)
		}
		secid, _ := row[m["secid"]].(string)
		isin, _ := row[m["isin"]].(string)
		if secid != id && isin != id {
			continue
		}
		board, _ := row[m["primary_boardid"]].(string)
		return Resolution{Secid: secid, Board: board}, nil
	}
	return Resolution{}, ErrNotFound
}

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
)

// Bondization holds the lifecycle event schedule of a bond, as grouped by the
// server: coupon payments, principal amortizations and put/call offers.
type Bondization struct {
	Coupons       *Table
	Amortizations *Table
	Offers        *Table
}

// bondizationSections in the order they are fetched.
var bondizationSections = []string{"coupons", "amortizations", "offers"}

// FetchBondization downloads the full lifecycle event schedule of a bond.
// Each section is paged through the common offset loop; a section missing
// from the response yields a valid empty Table for that section.
func FetchBondization(ctx context.Context, secid string) (*Bondization, error) {
	path := "/statistics/engines/stock/markets/bonds/bondization/" + secid
	tables := make(map[string]*Table, len(bondizationSections))
	for _, section := range bondizationSections {
		values := make(url.Values)
		values.Set("iss.only", section)
		values.Set("limit", strconv.Itoa(DefaultPageSize))
		t, err := fetchPaged(ctx, &pagedQuery{
			path:     path,
			values:   values,
			section:  section,
			pageSize: DefaultPageSize,
		})
		if err != nil {
			return nil, errors.Annotate(err, "failed to fetch %s of %s", section, secid)
		}
		tables[section] = t
	}
	return &Bondization{
		Coupons:       tables["coupons"],
		Amortizations: tables["amortizations"],
		Offers:        tables["offers"],
	}, nil
}

// SecurityCard is the instrument card of a single security: its descriptive
// parameters and the boards it trades on.
type SecurityCard struct {
	Description *Table
	Boards      *Table
}

// FetchCard downloads the instrument card of a security.
func FetchCard(ctx context.Context, secid string) (*SecurityCard, error) {
	sections, err := fetchSections(ctx, "/securities/"+secid, nil)
	if err != nil {
		return nil, errors.Annotate(err, "failed to fetch card of %s", secid)
	}
	card := &SecurityCard{Description: &Table{}, Boards: &Table{}}
	if sec := sections["description"]; sec != nil {
		card.Description = &Table{Columns: sec.Columns, Rows: sec.Data}
	}
	if sec := sections["boards"]; sec != nil {
		card.Boards = &Table{Columns: sec.Columns, Rows: sec.Data}
	}
	return card, nil
}

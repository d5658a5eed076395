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

// Package iss implements a client for the MOEX Information & Statistical
// Server (ISS) API.
//
// Official documentation is at https://fs.moex.com/files/8888 .
//
// ISS responses are JSON objects with one entry per logical data section
// (e.g. "history", "securities", "coupons"), each holding a "columns" array
// and a "data" array of rows. A row is a list of scalar values zipped with
// the columns. This package decodes sections into Section values and
// concatenates paginated sections into a Table.
//
// History-style endpoints return at most 100 rows per request and are paged
// with a "start" offset. HistoryQuery.Fetch accumulates all pages into a
// single Table; RowIterator implements transparent paging for typed row
// consumers. Pages are always fetched strictly sequentially, since each
// offset depends on the size of the previous page.
//
// Typed row schemas for specific markets, such as bonds, are implemented in
// the subpackages.
package iss

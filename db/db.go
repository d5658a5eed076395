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

// Package db implements a simple flat-file store for downloaded market data:
// one directory per dataset with a securities index, per-security trading and
// bond event files, and a JSON metadata file with record counts.
package db

import (
	"encoding/gob"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/stockparfait/errors"
)

func writeGob(fileName string, v interface{}) error {
	f, err := os.OpenFile(fileName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Annotate(err, "failed to open file for writing: '%s'", fileName)
	}
	defer f.Close()
	enc := gob.NewEncoder(f)
	if err = enc.Encode(v); err != nil {
		return errors.Annotate(err, "failed to write to '%s'", fileName)
	}
	return nil
}

func readGob(fileName string, v interface{}) error {
	f, err := os.Open(fileName)
	if err != nil {
		return errors.Annotate(err, "failed to open file for reading: '%s'", fileName)
	}
	defer f.Close()
	dec := gob.NewDecoder(f)
	if err = dec.Decode(v); err != nil {
		return errors.Annotate(err, "failed to read from '%s'", fileName)
	}
	return nil
}

// Metadata holds record counts of a dataset, stored as metadata.json.
type Metadata struct {
	NumSecurities    int `json:"num_securities"`
	NumTrades        int `json:"num_trades"`
	NumCoupons       int `json:"num_coupons"`
	NumAmortizations int `json:"num_amortizations"`
	NumOffers        int `json:"num_offers"`
}

// Writer saves a dataset to the filesystem.
type Writer struct {
	dbPath   string
	dbName   string
	Metadata Metadata
}

// NewWriter creates a Writer for the dataset dbName under dbPath.
func NewWriter(dbPath, dbName string) *Writer {
	return &Writer{dbPath: dbPath, dbName: dbName}
}

func (w *Writer) dir() string { return filepath.Join(w.dbPath, w.dbName) }

func (w *Writer) mkdir(sub string) (string, error) {
	d := filepath.Join(w.dir(), sub)
	if err := os.MkdirAll(d, 0755); err != nil {
		return "", errors.Annotate(err, "failed to create directory '%s'", d)
	}
	return d, nil
}

// WriteSecurities saves the securities index keyed by security ID.
func (w *Writer) WriteSecurities(securities map[string]SecurityRow) error {
	d, err := w.mkdir("")
	if err != nil {
		return err
	}
	if err := writeGob(filepath.Join(d, "securities.gob"), securities); err != nil {
		return errors.Annotate(err, "failed to write securities")
	}
	w.Metadata.NumSecurities = len(securities)
	return nil
}

// WriteTrading saves the daily trading results for one security.
func (w *Writer) WriteTrading(secid string, trades []TradeRow) error {
	d, err := w.mkdir("trading")
	if err != nil {
		return err
	}
	if err := writeGob(filepath.Join(d, secid+".gob"), trades); err != nil {
		return errors.Annotate(err, "failed to write trading data for %s", secid)
	}
	w.Metadata.NumTrades += len(trades)
	return nil
}

// WriteEvents saves the bond lifecycle events for one security.
func (w *Writer) WriteEvents(secid string, events Events) error {
	d, err := w.mkdir("events")
	if err != nil {
		return err
	}
	if err := writeGob(filepath.Join(d, secid+".gob"), events); err != nil {
		return errors.Annotate(err, "failed to write events for %s", secid)
	}
	w.Metadata.NumCoupons += len(events.Coupons)
	w.Metadata.NumAmortizations += len(events.Amortizations)
	w.Metadata.NumOffers += len(events.Offers)
	return nil
}

// WriteMetadata saves the accumulated metadata. Call it last.
func (w *Writer) WriteMetadata() error {
	d, err := w.mkdir("")
	if err != nil {
		return err
	}
	fileName := filepath.Join(d, "metadata.json")
	f, err := os.OpenFile(fileName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Annotate(err, "failed to open file for writing: '%s'", fileName)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(w.Metadata); err != nil {
		return errors.Annotate(err, "failed to write metadata")
	}
	return nil
}

// Reader reads back a dataset written by Writer. The securities index is
// cached after the first read; per-security files are read on demand.
type Reader struct {
	dbPath     string
	dbName     string
	securities map[string]SecurityRow
}

// NewReader creates a Reader for the dataset dbName under dbPath.
func NewReader(dbPath, dbName string) *Reader {
	return &Reader{dbPath: dbPath, dbName: dbName}
}

func (r *Reader) dir() string { return filepath.Join(r.dbPath, r.dbName) }

// Securities reads the securities index keyed by security ID.
func (r *Reader) Securities() (map[string]SecurityRow, error) {
	if r.securities != nil {
		return r.securities, nil
	}
	var securities map[string]SecurityRow
	fileName := filepath.Join(r.dir(), "securities.gob")
	if err := readGob(fileName, &securities); err != nil {
		return nil, errors.Annotate(err, "failed to read securities")
	}
	r.securities = securities
	return securities, nil
}

// Trading reads the daily trading results of one security.
func (r *Reader) Trading(secid string) ([]TradeRow, error) {
	var trades []TradeRow
	fileName := filepath.Join(r.dir(), "trading", secid+".gob")
	if err := readGob(fileName, &trades); err != nil {
		return nil, errors.Annotate(err, "failed to read trading data for %s", secid)
	}
	return trades, nil
}

// Events reads the bond lifecycle events of one security.
func (r *Reader) Events(secid string) (Events, error) {
	var events Events
	fileName := filepath.Join(r.dir(), "events", secid+".gob")
	if err := readGob(fileName, &events); err != nil {
		return Events{}, errors.Annotate(err, "failed to read events for %s", secid)
	}
	return events, nil
}

// ReadMetadata reads the dataset metadata.
func (r *Reader) ReadMetadata() (Metadata, error) {
	var m Metadata
	fileName := filepath.Join(r.dir(), "metadata.json")
	data, err := os.ReadFile(fileName)
	if err != nil {
		return Metadata{}, errors.Annotate(err, "failed to read '%s'", fileName)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return Metadata{}, errors.Annotate(err, "failed to parse metadata")
	}
	return m, nil
}

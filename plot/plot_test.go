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

package plot

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/ntlekhugov/moexdata/db"
	"github.com/ntlekhugov/moexdata/stats"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPlot(t *testing.T) {
	t.Parallel()

	Convey("Canvas works correctly", t, func() {
		ts := stats.NewTimeseries(
			[]db.Date{db.NewDate(2024, 3, 4), db.NewDate(2024, 3, 5)},
			[]float64{100.5, 100.75})

		Convey("NewSeriesPlot", func() {
			p := NewSeriesPlot(ts).SetYLabel("close").SetLegend("IMOEX")
			So(p.Size(), ShouldEqual, 2)
			So(p.YLabel, ShouldEqual, "close")
			So(p.Legend, ShouldEqual, "IMOEX")
		})

		Convey("WriteJSON round-trips", func() {
			c := NewCanvas("IMOEX")
			c.AddPlot(NewSeriesPlot(ts).SetLegend("IMOEX"))

			var buf bytes.Buffer
			So(c.WriteJSON(&buf), ShouldBeNil)

			var decoded Canvas
			So(json.Unmarshal(buf.Bytes(), &decoded), ShouldBeNil)
			So(decoded.Title, ShouldEqual, "IMOEX")
			So(len(decoded.Plots), ShouldEqual, 1)
			So(decoded.Plots[0].Y, ShouldResemble, []float64{100.5, 100.75})
			So(decoded.Plots[0].Dates, ShouldResemble, ts.Dates())
		})
	})
}

package rtst

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	log "github.com/sirupsen/logrus"

	"github.com/voluzi/rtst/pkg/sar"
	"github.com/voluzi/rtst/pkg/series"
)

var reportTitles = map[sar.Kind]string{
	sar.KindCPU: "CPU Utilization (%)",
	sar.KindVM:  "Paging IO (KB/s)",
	sar.KindMem: "Memory (KB)",
	sar.KindNet: "Network Throughput (KB/s)",
}

// historyChart draws every series of doc against its time column.
func historyChart(title string, doc *series.Document) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30px"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", AxisLabel: &opts.AxisLabel{Rotate: 45}}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "400px"}),
	)

	xLabels := make([]string, 0, doc.Len())
	for _, row := range doc.Data {
		xLabels = append(xLabels, time.UnixMilli(int64(row[0])).Format("15:04:05"))
	}
	line.SetXAxis(xLabels)

	for col := 1; col < len(doc.DataSeriesNames); col++ {
		data := make([]opts.LineData, 0, doc.Len())
		for _, row := range doc.Data {
			data = append(data, opts.LineData{Value: row[col]})
		}
		line.AddSeries(doc.DataSeriesNames[col], data,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		)
	}
	return line
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	page := components.NewPage()
	page.PageTitle = s.cfg.ServerName + " history"

	for _, kind := range sar.Kinds {
		doc, err := s.series.Query(kind, 0)
		if err != nil {
			log.WithError(err).WithField("family", kind.String()).Error("error rendering history")
			replyError(w, r, http.StatusInternalServerError, err)
			return
		}
		page.AddCharts(historyChart(reportTitles[kind], doc))
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		log.Errorf("error rendering report: %v", err)
		replyError(w, r, http.StatusInternalServerError, err)
		return
	}
	reply(w, r, http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

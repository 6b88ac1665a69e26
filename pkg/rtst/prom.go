package rtst

import (
	"bytes"
	"net/http"
	"time"

	prom "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	log "github.com/sirupsen/logrus"
	"k8s.io/utils/ptr"

	"github.com/voluzi/rtst/pkg/sar"
)

const (
	metricsNamespace   = "rtst_"
	metricsContentType = "text/plain; version=0.0.4; charset=utf-8"
)

func gauge(name, help string, metrics ...*prom.Metric) *prom.MetricFamily {
	return &prom.MetricFamily{
		Name:   ptr.To(metricsNamespace + name),
		Help:   ptr.To(help),
		Type:   prom.MetricType_GAUGE.Enum(),
		Metric: metrics,
	}
}

func counter(name, help string, value uint64) *prom.MetricFamily {
	return &prom.MetricFamily{
		Name: ptr.To(metricsNamespace + name),
		Help: ptr.To(help),
		Type: prom.MetricType_COUNTER.Enum(),
		Metric: []*prom.Metric{{
			Counter: &prom.Counter{Value: ptr.To(float64(value))},
		}},
	}
}

func gaugeValue(v float64, labels ...*prom.LabelPair) *prom.Metric {
	return &prom.Metric{
		Label: labels,
		Gauge: &prom.Gauge{Value: ptr.To(v)},
	}
}

func label(name, value string) *prom.LabelPair {
	return &prom.LabelPair{Name: ptr.To(name), Value: ptr.To(value)}
}

// metricFamilies snapshots the server state as prometheus metric families.
func (s *Server) metricFamilies() []*prom.MetricFamily {
	buffered := make([]*prom.Metric, 0, len(sar.Kinds))
	for _, kind := range sar.Kinds {
		buffered = append(buffered, gaugeValue(float64(s.collector.Len(kind)), label("family", kind.String())))
	}

	families := []*prom.MetricFamily{
		gauge("buffer_records", "Samples retained per metric family.", buffered...),
		gauge("buffer_capacity", "Maximum samples retained per metric family.", gaugeValue(float64(s.collector.Capacity()))),
		gauge("uptime_seconds", "Seconds since the server started.", gaugeValue(time.Since(s.started).Seconds())),
		gauge("info", "Server instance.", gaugeValue(1, label("instance", s.instance))),
	}

	if s.cfg.Stats != nil {
		stats := s.cfg.Stats()
		families = append(families,
			counter("ingest_lines_total", "Sampler output lines read.", stats.Lines),
			counter("ingest_dropped_lines_total", "Malformed sampler lines dropped.", stats.Dropped),
			counter("ingest_cycles_total", "Completed sampling cycles stored.", stats.Cycles),
		)
	}
	return families
}

func (s *Server) metrics(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	for _, mf := range s.metricFamilies() {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			log.Errorf("error encoding metric %s: %v", mf.GetName(), err)
			replyError(w, r, http.StatusInternalServerError, err)
			return
		}
	}
	reply(w, r, http.StatusOK, metricsContentType, buf.Bytes())
}

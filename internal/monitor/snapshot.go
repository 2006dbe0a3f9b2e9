package monitor

import (
	"strconv"
	"time"

	dto "github.com/prometheus/client_model/go"
)

// Metric names exported by the middleout HTTP server.
const (
	metricRequests    = "middleout_http_requests_total"
	metricDuration    = "middleout_http_request_duration_seconds"
	metricRateLimited = "middleout_http_rate_limited_total"
	metricOperations  = "middleout_operations_total"
	metricFallbacks   = "middleout_fallbacks_total"
	metricGoroutines  = "go_goroutines"
	metricResident    = "process_resident_memory_bytes"
	metricStartTime   = "process_start_time_seconds"
)

// Snapshot is one scrape of the server's counters.
type Snapshot struct {
	At time.Time

	Requests       float64
	ServerErrors   float64
	RateLimited    float64
	Decompressions float64

	// Operations counts codec calls by algorithm.
	Operations map[string]float64

	// Fallbacks counts raw recoveries by reason.
	Fallbacks map[string]float64

	Latency Histogram

	Goroutines    float64
	ResidentBytes float64
	StartTime     float64
}

// Histogram holds cumulative bucket counts, merged across label sets.
type Histogram struct {
	Count  uint64
	Bounds []float64
	Counts []uint64
}

// NewSnapshot extracts the values the dashboard shows.
func NewSnapshot(families map[string]*dto.MetricFamily, at time.Time) *Snapshot {
	s := &Snapshot{
		At:         at,
		Operations: make(map[string]float64),
		Fallbacks:  make(map[string]float64),
	}

	if mf := families[metricRequests]; mf != nil {
		for _, m := range mf.GetMetric() {
			v := m.GetCounter().GetValue()
			s.Requests += v
			if code, err := strconv.Atoi(label(m, "status")); err == nil && code >= 500 {
				s.ServerErrors += v
			}
		}
	}
	if mf := families[metricOperations]; mf != nil {
		for _, m := range mf.GetMetric() {
			v := m.GetCounter().GetValue()
			s.Operations[label(m, "algorithm")] += v
			if label(m, "operation") == "decompress" {
				s.Decompressions += v
			}
		}
	}
	if mf := families[metricFallbacks]; mf != nil {
		for _, m := range mf.GetMetric() {
			s.Fallbacks[label(m, "reason")] += m.GetCounter().GetValue()
		}
	}
	if mf := families[metricDuration]; mf != nil {
		for _, m := range mf.GetMetric() {
			s.Latency.merge(m.GetHistogram())
		}
	}

	s.RateLimited = single(families[metricRateLimited])
	s.Goroutines = single(families[metricGoroutines])
	s.ResidentBytes = single(families[metricResident])
	s.StartTime = single(families[metricStartTime])
	return s
}

// TotalFallbacks sums fallbacks over all reasons.
func (s *Snapshot) TotalFallbacks() float64 {
	var total float64
	for _, v := range s.Fallbacks {
		total += v
	}
	return total
}

func (h *Histogram) merge(src *dto.Histogram) {
	if src == nil {
		return
	}
	buckets := src.GetBucket()
	if h.Bounds == nil {
		h.Bounds = make([]float64, len(buckets))
		h.Counts = make([]uint64, len(buckets))
		for i, b := range buckets {
			h.Bounds[i] = b.GetUpperBound()
		}
	}
	if len(buckets) != len(h.Bounds) {
		return
	}
	for i, b := range buckets {
		h.Counts[i] += b.GetCumulativeCount()
	}
	h.Count += src.GetSampleCount()
}

// label returns the value of name on m, or "".
func label(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

// single reads an unlabeled counter or gauge.
func single(mf *dto.MetricFamily) float64 {
	if mf == nil || len(mf.GetMetric()) == 0 {
		return 0
	}
	m := mf.GetMetric()[0]
	switch mf.GetType() {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	default:
		return m.GetUntyped().GetValue()
	}
}

package monitor

import (
	"math"
	"sort"
	"time"
)

// Stats is what the dashboard renders, derived from two snapshots.
type Stats struct {
	// RequestRate is requests per minute over the last interval.
	RequestRate float64

	// LatencyP95 is in seconds, over the last interval.
	LatencyP95 float64

	// ErrorRatio is the share of 5xx responses over the last interval.
	ErrorRatio float64

	// FallbackRatio is raw recoveries over all decompress calls, lifetime.
	FallbackRatio float64

	RateLimited float64
	Operations  []AlgorithmCount
	Fallbacks   []AlgorithmCount

	Uptime        time.Duration
	Goroutines    int
	ResidentBytes float64
}

// AlgorithmCount is one row of a ranked count table.
type AlgorithmCount struct {
	Name  string
	Count float64
}

// Compute derives Stats from the current snapshot and the one before it.
// With no previous snapshot, interval values cover the server's lifetime.
func Compute(prev, cur *Snapshot) Stats {
	if cur == nil {
		return Stats{}
	}

	st := Stats{
		RateLimited:   cur.RateLimited,
		Operations:    ranked(cur.Operations),
		Fallbacks:     ranked(cur.Fallbacks),
		Goroutines:    int(cur.Goroutines),
		ResidentBytes: cur.ResidentBytes,
	}
	if cur.StartTime > 0 {
		st.Uptime = cur.At.Sub(unixSeconds(cur.StartTime))
	}

	fallbacks := cur.TotalFallbacks()
	if total := fallbacks + cur.Decompressions; total > 0 {
		st.FallbackRatio = fallbacks / total
	}

	requests := cur.Requests
	errs := cur.ServerErrors
	latency := cur.Latency
	if prev != nil && cur.Requests >= prev.Requests {
		requests = cur.Requests - prev.Requests
		errs = cur.ServerErrors - prev.ServerErrors
		latency = cur.Latency.sub(prev.Latency)

		if minutes := cur.At.Sub(prev.At).Minutes(); minutes > 0 {
			st.RequestRate = requests / minutes
		}
	}
	if requests > 0 {
		st.ErrorRatio = errs / requests
	}
	st.LatencyP95 = latency.Quantile(0.95)

	return st
}

// sub returns the buckets observed since prev. A reset counter yields h.
func (h Histogram) sub(prev Histogram) Histogram {
	if len(prev.Bounds) != len(h.Bounds) || prev.Count > h.Count {
		return h
	}
	out := Histogram{
		Count:  h.Count - prev.Count,
		Bounds: h.Bounds,
		Counts: make([]uint64, len(h.Counts)),
	}
	for i := range h.Counts {
		if h.Counts[i] < prev.Counts[i] {
			return h
		}
		out.Counts[i] = h.Counts[i] - prev.Counts[i]
	}
	return out
}

// Quantile estimates the q-quantile by linear interpolation within the
// bucket holding the target rank. Observations past the last finite bound
// report that bound.
func (h Histogram) Quantile(q float64) float64 {
	if h.Count == 0 || len(h.Bounds) == 0 {
		return 0
	}

	rank := q * float64(h.Count)
	var lowerBound, lowerCount float64
	for i, bound := range h.Bounds {
		count := float64(h.Counts[i])
		if count >= rank {
			if count == lowerCount {
				return bound
			}
			return lowerBound + (bound-lowerBound)*(rank-lowerCount)/(count-lowerCount)
		}
		lowerBound, lowerCount = bound, count
	}
	return h.Bounds[len(h.Bounds)-1]
}

func ranked(counts map[string]float64) []AlgorithmCount {
	out := make([]AlgorithmCount, 0, len(counts))
	for name, c := range counts {
		out = append(out, AlgorithmCount{Name: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func unixSeconds(sec float64) time.Time {
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*1e9))
}

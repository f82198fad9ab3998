package monitoring

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/GriffinCanCode/codeplayground/internal/domain/dispatch"
)

// RunSummary describes the recent run duration window, in milliseconds.
type RunSummary struct {
	Samples   int                      `json:"samples"`
	MeanMs    float64                  `json:"mean_ms"`
	StdDevMs  float64                  `json:"stddev_ms"`
	P50Ms     float64                  `json:"p50_ms"`
	P95Ms     float64                  `json:"p95_ms"`
	MaxMs     float64                  `json:"max_ms"`
	ByOutcome map[dispatch.Outcome]int `json:"by_outcome"`
}

// Summary computes statistics over the most recent runs.
func (m *Metrics) Summary() RunSummary {
	m.mu.Lock()
	samples := make([]runSample, len(m.runs))
	copy(samples, m.runs)
	m.mu.Unlock()

	summary := RunSummary{
		Samples:   len(samples),
		ByOutcome: make(map[dispatch.Outcome]int),
	}
	if len(samples) == 0 {
		return summary
	}

	ms := make([]float64, len(samples))
	for i, s := range samples {
		ms[i] = float64(s.duration) / float64(time.Millisecond)
		summary.ByOutcome[s.outcome]++
	}
	sort.Float64s(ms)

	summary.MeanMs, summary.StdDevMs = stat.MeanStdDev(ms, nil)
	if len(ms) == 1 {
		summary.StdDevMs = 0
	}
	summary.P50Ms = stat.Quantile(0.5, stat.Empirical, ms, nil)
	summary.P95Ms = stat.Quantile(0.95, stat.Empirical, ms, nil)
	summary.MaxMs = ms[len(ms)-1]
	return summary
}

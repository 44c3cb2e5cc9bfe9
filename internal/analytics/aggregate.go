package analytics

import (
	"strconv"
	"strings"
)

// ParseMetric converts a raw provider metric value to a number. Non-numeric
// or empty input counts as zero so aggregation stays total.
func ParseMetric(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

// PercentOfTotal returns part/whole as a percentage, 0 when the whole is 0.
// Serves both the total-user and active-user share calculations.
func PercentOfTotal(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

// AverageEngagementSeconds divides summed engagement time by active users,
// 0 when there are no active users.
func AverageEngagementSeconds(engagementSeconds, activeUsers float64) float64 {
	if activeUsers == 0 {
		return 0
	}
	return engagementSeconds / activeUsers
}

// PassedBenchmark reports whether an average engagement time clears the
// threshold. The comparison is strictly greater-than: an average exactly at
// the threshold does not pass.
func PassedBenchmark(averageSeconds, thresholdSeconds float64) bool {
	return averageSeconds > thresholdSeconds
}

// Totals aggregates one property's rows into its derived summary using the
// given benchmark threshold.
func Totals(res *PropertyResult, benchmarkSeconds float64) AggregationTotals {
	t := AggregationTotals{BenchmarkSeconds: benchmarkSeconds}
	for _, row := range res.Rows {
		t.TotalUsers += res.MetricNumber(row, MetricTotalUsers)
		t.NewUsers += res.MetricNumber(row, MetricNewUsers)
		t.ActiveUsers += res.MetricNumber(row, MetricActiveUsers)
		t.EngagementSeconds += res.MetricNumber(row, MetricEngagementDuration)
	}
	t.AverageEngagementSeconds = AverageEngagementSeconds(t.EngagementSeconds, t.ActiveUsers)
	t.PassedBenchmark = PassedBenchmark(t.AverageEngagementSeconds, benchmarkSeconds)
	return t
}

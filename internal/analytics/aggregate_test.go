package analytics

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestParseMetricTreatsJunkAsZero(t *testing.T) {
	cases := map[string]float64{
		"":        0,
		"n/a":     0,
		"12":      12,
		" 3.5 ":   3.5,
		"-7":      -7,
		"1e3":     1000,
		"twelve":  0,
		"123,456": 0,
	}
	for raw, want := range cases {
		if got := ParseMetric(raw); !almostEqual(got, want) {
			t.Errorf("ParseMetric(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestPercentOfTotal(t *testing.T) {
	if got := PercentOfTotal(25, 200); !almostEqual(got, 12.5) {
		t.Fatalf("expected 12.5, got %v", got)
	}
	if got := PercentOfTotal(25, 0); got != 0 {
		t.Fatalf("expected 0 on zero denominator, got %v", got)
	}
}

func TestAverageEngagementSecondsZeroActiveUsers(t *testing.T) {
	if got := AverageEngagementSeconds(500, 0); got != 0 {
		t.Fatalf("expected 0 with no active users, got %v", got)
	}
	if got := AverageEngagementSeconds(90, 3); !almostEqual(got, 30) {
		t.Fatalf("expected 30, got %v", got)
	}
}

func TestPassedBenchmarkIsStrict(t *testing.T) {
	if PassedBenchmark(30, 30) {
		t.Fatal("average exactly at threshold must not pass")
	}
	if !PassedBenchmark(30.01, 30) {
		t.Fatal("average above threshold must pass")
	}
	if PassedBenchmark(29.99, 30) {
		t.Fatal("average below threshold must not pass")
	}
}

func newTestResult(rows []Row) *PropertyResult {
	return NewPropertyResult(
		"properties/123",
		[]DimensionHeader{{Name: DimensionRegion}, {Name: DimensionSourceMedium}},
		[]MetricHeader{
			{Name: MetricTotalUsers, Type: MetricTypeInteger},
			{Name: MetricNewUsers, Type: MetricTypeInteger},
			{Name: MetricActiveUsers, Type: MetricTypeInteger},
			{Name: MetricEngagementDuration, Type: MetricTypeSeconds},
		},
		rows,
	)
}

func TestTotalsSumsAllRows(t *testing.T) {
	res := newTestResult([]Row{
		{DimensionValues: []string{"California", "google / organic"}, MetricValues: []string{"100", "40", "80", "2400"}},
		{DimensionValues: []string{"Texas", "google / organic"}, MetricValues: []string{"50", "10", "20", "900"}},
	})

	totals := Totals(res, 30)
	if !almostEqual(totals.TotalUsers, 150) {
		t.Errorf("total users = %v, want 150", totals.TotalUsers)
	}
	if !almostEqual(totals.NewUsers, 50) {
		t.Errorf("new users = %v, want 50", totals.NewUsers)
	}
	if !almostEqual(totals.ActiveUsers, 100) {
		t.Errorf("active users = %v, want 100", totals.ActiveUsers)
	}
	if !almostEqual(totals.EngagementSeconds, 3300) {
		t.Errorf("engagement = %v, want 3300", totals.EngagementSeconds)
	}
	if !almostEqual(totals.AverageEngagementSeconds, 33) {
		t.Errorf("average engagement = %v, want 33", totals.AverageEngagementSeconds)
	}
	if !totals.PassedBenchmark {
		t.Error("expected totals to pass the 30s benchmark at 33s average")
	}
	if totals.BenchmarkSeconds != 30 {
		t.Errorf("benchmark seconds = %v, want 30", totals.BenchmarkSeconds)
	}
}

func TestTotalsOfEmptyResult(t *testing.T) {
	totals := Totals(newTestResult(nil), 30)
	if totals.AverageEngagementSeconds != 0 {
		t.Errorf("average engagement = %v, want 0", totals.AverageEngagementSeconds)
	}
	if totals.PassedBenchmark {
		t.Error("empty property must not pass the benchmark")
	}
}

func TestTotalsIgnoresMalformedValues(t *testing.T) {
	res := newTestResult([]Row{
		{DimensionValues: []string{"Nevada", "google / organic"}, MetricValues: []string{"abc", "", "10", "300"}},
	})
	totals := Totals(res, 30)
	if totals.TotalUsers != 0 {
		t.Errorf("total users = %v, want 0 for malformed input", totals.TotalUsers)
	}
	if !almostEqual(totals.AverageEngagementSeconds, 30) {
		t.Errorf("average engagement = %v, want 30", totals.AverageEngagementSeconds)
	}
	if totals.PassedBenchmark {
		t.Error("30s average must not pass a 30s benchmark")
	}
}

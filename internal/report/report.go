// Package report turns a batch of property results into one ordered tabular
// report suitable for on-screen display and CSV export.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/CCWMiller/ActionableIQ-sub000/internal/analytics"
)

// ColumnKind says where a column's value comes from.
type ColumnKind int

const (
	// KindLiteral columns carry a fixed or contextual value (property id,
	// resolved name, date range label).
	KindLiteral ColumnKind = iota
	// KindDimension columns read a raw dimension value.
	KindDimension
	// KindMetric columns read and format a raw metric value.
	KindMetric
	// KindComputed columns derive their value from other metrics.
	KindComputed
)

// Keys identifying the computed columns.
const (
	computedAverageEngagement = "averageEngagementSeconds"
	computedTotalUserPercent  = "totalUserPercent"
	computedBenchmark         = "benchmarkSeconds"
	computedPassedBenchmark   = "passedBenchmark"
)

const totalRowRegionLabel = "All Regions"

// Column defines one report column during assembly.
type Column struct {
	Name   string
	Kind   ColumnKind
	Source string
	Type   analytics.MetricType
}

// Table is the assembled report: a fixed column sequence and one total row
// plus data rows per property.
type Table struct {
	Columns []Column
	Rows    [][]string
}

// Options supply the context the assembler cannot read from the batch itself.
type Options struct {
	// Names maps property ids to display names. Misses fall back to the id.
	Names          map[string]string
	DateRangeLabel string
	SourceMedium   string
}

// Assemble builds the report table. The column sequence is fixed; leftover
// raw headers from the first successful result are appended after the
// canonical columns, skipping any new-user variants already covered.
func Assemble(batch *analytics.BatchResult, opts Options) *Table {
	table := &Table{Columns: canonicalColumns(firstSuccess(batch))}
	if batch == nil {
		return table
	}
	for _, res := range batch.Results {
		table.Rows = append(table.Rows, totalRow(res, table.Columns, opts))
		for _, row := range res.Rows {
			table.Rows = append(table.Rows, dataRow(res, row, table.Columns, opts))
		}
	}
	return table
}

func firstSuccess(batch *analytics.BatchResult) *analytics.PropertyResult {
	if batch == nil || len(batch.Results) == 0 {
		return nil
	}
	return batch.Results[0]
}

func canonicalColumns(first *analytics.PropertyResult) []Column {
	cols := []Column{
		{Name: "Property ID", Kind: KindLiteral},
		{Name: "Property Name", Kind: KindLiteral},
		{Name: "Region", Kind: KindDimension, Source: analytics.DimensionRegion},
		{Name: "Date Range", Kind: KindLiteral},
		{Name: "Source / Medium", Kind: KindDimension, Source: analytics.DimensionSourceMedium},
		{Name: "Total Users", Kind: KindMetric, Source: analytics.MetricTotalUsers, Type: analytics.MetricTypeInteger},
		{Name: "New Users", Kind: KindMetric, Source: analytics.MetricNewUsers, Type: analytics.MetricTypeInteger},
		{Name: "Active Users", Kind: KindMetric, Source: analytics.MetricActiveUsers, Type: analytics.MetricTypeInteger},
		{Name: "Average Engagement Time", Kind: KindComputed, Source: computedAverageEngagement, Type: analytics.MetricTypeSeconds},
		{Name: "Total User %", Kind: KindComputed, Source: computedTotalUserPercent, Type: analytics.MetricTypePercent},
		{Name: "TOS Benchmark", Kind: KindComputed, Source: computedBenchmark, Type: analytics.MetricTypeSeconds},
		{Name: "Passed TOS Benchmark", Kind: KindComputed, Source: computedPassedBenchmark, Type: analytics.MetricTypeBoolean},
	}
	if first == nil {
		return cols
	}

	placed := map[string]struct{}{
		analytics.DimensionRegion:          {},
		analytics.DimensionSourceMedium:    {},
		analytics.MetricTotalUsers:         {},
		analytics.MetricNewUsers:           {},
		analytics.MetricActiveUsers:        {},
		analytics.MetricEngagementDuration: {},
	}
	for _, h := range first.DimensionHeaders {
		if _, done := placed[h.Name]; done || isNewUserVariant(h.Name) {
			continue
		}
		placed[h.Name] = struct{}{}
		cols = append(cols, Column{Name: h.Name, Kind: KindDimension, Source: h.Name})
	}
	for _, h := range first.MetricHeaders {
		if _, done := placed[h.Name]; done || isNewUserVariant(h.Name) {
			continue
		}
		placed[h.Name] = struct{}{}
		cols = append(cols, Column{Name: h.Name, Kind: KindMetric, Source: h.Name, Type: h.Type})
	}
	return cols
}

func isNewUserVariant(name string) bool {
	return strings.Contains(strings.ToLower(name), "newuser")
}

func totalRow(res *analytics.PropertyResult, cols []Column, opts Options) []string {
	t := res.Totals
	values := make([]string, 0, len(cols))
	for _, col := range cols {
		switch {
		case col.Name == "Property ID":
			values = append(values, res.PropertyID)
		case col.Name == "Property Name":
			values = append(values, displayName(opts.Names, res.PropertyID))
		case col.Name == "Date Range":
			values = append(values, opts.DateRangeLabel)
		case col.Kind == KindDimension && col.Source == analytics.DimensionRegion:
			values = append(values, totalRowRegionLabel)
		case col.Kind == KindDimension && col.Source == analytics.DimensionSourceMedium:
			values = append(values, opts.SourceMedium)
		case col.Kind == KindMetric:
			values = append(values, formatMetric(totalMetric(t, col.Source), col.Type))
		case col.Kind == KindComputed:
			values = append(values, computedValue(col.Source, t.AverageEngagementSeconds, totalUserShare(t), t))
		default:
			values = append(values, "")
		}
	}
	return values
}

func dataRow(res *analytics.PropertyResult, row analytics.Row, cols []Column, opts Options) []string {
	active := res.MetricNumber(row, analytics.MetricActiveUsers)
	engagement := res.MetricNumber(row, analytics.MetricEngagementDuration)
	average := analytics.AverageEngagementSeconds(engagement, active)
	share := analytics.PercentOfTotal(res.MetricNumber(row, analytics.MetricTotalUsers), res.Totals.TotalUsers)

	values := make([]string, 0, len(cols))
	for _, col := range cols {
		switch {
		case col.Name == "Property ID":
			values = append(values, res.PropertyID)
		case col.Name == "Property Name":
			values = append(values, displayName(opts.Names, res.PropertyID))
		case col.Name == "Date Range":
			values = append(values, opts.DateRangeLabel)
		case col.Kind == KindDimension:
			value, _ := res.Dimension(row, col.Source)
			values = append(values, value)
		case col.Kind == KindMetric:
			values = append(values, formatMetric(res.MetricNumber(row, col.Source), col.Type))
		case col.Kind == KindComputed:
			values = append(values, computedValue(col.Source, average, share, res.Totals))
		default:
			values = append(values, "")
		}
	}
	return values
}

func computedValue(key string, average, share float64, t analytics.AggregationTotals) string {
	switch key {
	case computedAverageEngagement:
		return formatSeconds(average)
	case computedTotalUserPercent:
		return formatPercent(share)
	case computedBenchmark:
		return formatSeconds(t.BenchmarkSeconds)
	case computedPassedBenchmark:
		return formatBool(analytics.PassedBenchmark(average, t.BenchmarkSeconds))
	}
	return ""
}

func totalMetric(t analytics.AggregationTotals, source string) float64 {
	switch source {
	case analytics.MetricTotalUsers:
		return t.TotalUsers
	case analytics.MetricNewUsers:
		return t.NewUsers
	case analytics.MetricActiveUsers:
		return t.ActiveUsers
	case analytics.MetricEngagementDuration:
		return t.EngagementSeconds
	}
	return 0
}

// totalUserShare is the total row's share of its own total: 100 unless the
// property had no users at all.
func totalUserShare(t analytics.AggregationTotals) float64 {
	return analytics.PercentOfTotal(t.TotalUsers, t.TotalUsers)
}

// displayName resolves a property's name, trying the id with and without the
// namespace prefix before falling back to the raw identifier.
func displayName(names map[string]string, propertyID string) string {
	if name, ok := names[propertyID]; ok && name != "" {
		return name
	}
	trimmed := strings.TrimPrefix(propertyID, "properties/")
	if name, ok := names[trimmed]; ok && name != "" {
		return name
	}
	if name, ok := names["properties/"+trimmed]; ok && name != "" {
		return name
	}
	return propertyID
}

func formatMetric(v float64, metricType analytics.MetricType) string {
	switch metricType {
	case analytics.MetricTypeSeconds:
		return formatSeconds(v)
	case analytics.MetricTypePercent:
		return formatPercent(v)
	case analytics.MetricTypeBoolean:
		return formatBool(v != 0)
	}
	return formatNumber(v)
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatSeconds(v float64) string {
	return fmt.Sprintf("%.2fs", v)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func formatBool(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

package report

import (
	"strings"
	"testing"

	"github.com/CCWMiller/ActionableIQ-sub000/internal/analytics"
)

func buildResult(propertyID string, rows []analytics.Row) *analytics.PropertyResult {
	res := analytics.NewPropertyResult(
		propertyID,
		[]analytics.DimensionHeader{
			{Name: analytics.DimensionRegion},
			{Name: analytics.DimensionSourceMedium},
		},
		[]analytics.MetricHeader{
			{Name: analytics.MetricTotalUsers, Type: analytics.MetricTypeInteger},
			{Name: analytics.MetricNewUsers, Type: analytics.MetricTypeInteger},
			{Name: analytics.MetricActiveUsers, Type: analytics.MetricTypeInteger},
			{Name: analytics.MetricEngagementDuration, Type: analytics.MetricTypeSeconds},
		},
		rows,
	)
	res.Totals = analytics.Totals(res, 30)
	return res
}

func sampleRows() []analytics.Row {
	return []analytics.Row{
		{DimensionValues: []string{"California", "client-command / email"}, MetricValues: []string{"100", "40", "80", "2480"}},
		{DimensionValues: []string{"Texas", "client-command / email"}, MetricValues: []string{"50", "10", "20", "400"}},
	}
}

func defaultOptions() Options {
	return Options{
		Names:          map[string]string{"properties/1": "Acme Storefront"},
		DateRangeLabel: "2024-01-01 - 2024-01-31",
		SourceMedium:   "client-command / email",
	}
}

func columnIndex(t *testing.T, table *Table, name string) int {
	t.Helper()
	for i, col := range table.Columns {
		if col.Name == name {
			return i
		}
	}
	t.Fatalf("column %q not found", name)
	return -1
}

func TestAssembleColumnOrder(t *testing.T) {
	batch := &analytics.BatchResult{Results: []*analytics.PropertyResult{buildResult("properties/1", sampleRows())}}
	table := Assemble(batch, defaultOptions())

	want := []string{
		"Property ID", "Property Name", "Region", "Date Range", "Source / Medium",
		"Total Users", "New Users", "Active Users", "Average Engagement Time",
		"Total User %", "TOS Benchmark", "Passed TOS Benchmark",
	}
	if len(table.Columns) != len(want) {
		t.Fatalf("expected %d columns, got %d", len(want), len(table.Columns))
	}
	for i, name := range want {
		if table.Columns[i].Name != name {
			t.Errorf("column %d = %q, want %q", i, table.Columns[i].Name, name)
		}
	}
}

func TestAssembleTotalRowPrecedesDataRows(t *testing.T) {
	batch := &analytics.BatchResult{Results: []*analytics.PropertyResult{buildResult("properties/1", sampleRows())}}
	table := Assemble(batch, defaultOptions())

	if len(table.Rows) != 3 {
		t.Fatalf("expected total row + 2 data rows, got %d", len(table.Rows))
	}

	region := columnIndex(t, table, "Region")
	if table.Rows[0][region] != "All Regions" {
		t.Errorf("total row region = %q, want All Regions", table.Rows[0][region])
	}
	if table.Rows[1][region] != "California" || table.Rows[2][region] != "Texas" {
		t.Errorf("data rows out of order: %q, %q", table.Rows[1][region], table.Rows[2][region])
	}

	totalUsers := columnIndex(t, table, "Total Users")
	if table.Rows[0][totalUsers] != "150" {
		t.Errorf("total row users = %q, want 150", table.Rows[0][totalUsers])
	}

	name := columnIndex(t, table, "Property Name")
	if table.Rows[0][name] != "Acme Storefront" {
		t.Errorf("property name = %q, want Acme Storefront", table.Rows[0][name])
	}
}

func TestAssembleFormatsDerivedColumns(t *testing.T) {
	batch := &analytics.BatchResult{Results: []*analytics.PropertyResult{buildResult("properties/1", sampleRows())}}
	table := Assemble(batch, defaultOptions())

	avg := columnIndex(t, table, "Average Engagement Time")
	percent := columnIndex(t, table, "Total User %")
	benchmark := columnIndex(t, table, "TOS Benchmark")
	passed := columnIndex(t, table, "Passed TOS Benchmark")

	// Property totals: 100 active users over 2880s => 28.80s average.
	if table.Rows[0][avg] != "28.80s" {
		t.Errorf("total row average = %q, want 28.80s", table.Rows[0][avg])
	}
	if table.Rows[0][passed] != "FALSE" {
		t.Errorf("28.80s average against a 30s benchmark must read FALSE, got %q", table.Rows[0][passed])
	}
	if table.Rows[0][percent] != "100.00%" {
		t.Errorf("total row percent = %q, want 100.00%%", table.Rows[0][percent])
	}
	if table.Rows[0][benchmark] != "30.00s" {
		t.Errorf("benchmark column = %q, want 30.00s", table.Rows[0][benchmark])
	}

	// California: 2480s over 80 active users => 31.00s, passes strictly.
	if table.Rows[1][avg] != "31.00s" {
		t.Errorf("california average = %q, want 31.00s", table.Rows[1][avg])
	}
	if table.Rows[1][passed] != "TRUE" {
		t.Errorf("california pass = %q, want TRUE", table.Rows[1][passed])
	}
	if table.Rows[1][percent] != "66.67%" {
		t.Errorf("california percent = %q, want 66.67%%", table.Rows[1][percent])
	}

	// Texas: 400s over 20 active users => 20.00s, fails.
	if table.Rows[2][passed] != "FALSE" {
		t.Errorf("texas pass = %q, want FALSE", table.Rows[2][passed])
	}
}

func TestAssembleZeroRowPropertyKeepsTotalRow(t *testing.T) {
	batch := &analytics.BatchResult{Results: []*analytics.PropertyResult{buildResult("properties/9", nil)}}
	table := Assemble(batch, Options{DateRangeLabel: "2024-01-01 - 2024-01-31", SourceMedium: "x / y"})

	if len(table.Rows) != 1 {
		t.Fatalf("expected only the total row, got %d rows", len(table.Rows))
	}
	name := columnIndex(t, table, "Property Name")
	if table.Rows[0][name] != "properties/9" {
		t.Errorf("expected fallback to raw id, got %q", table.Rows[0][name])
	}
	percent := columnIndex(t, table, "Total User %")
	if table.Rows[0][percent] != "0.00%" {
		t.Errorf("zero-user property percent = %q, want 0.00%%", table.Rows[0][percent])
	}
}

func TestAssembleNameFallbackWithoutPrefix(t *testing.T) {
	batch := &analytics.BatchResult{Results: []*analytics.PropertyResult{buildResult("properties/7", nil)}}
	opts := defaultOptions()
	opts.Names = map[string]string{"7": "Bare ID Name"}
	table := Assemble(batch, opts)

	name := columnIndex(t, table, "Property Name")
	if table.Rows[0][name] != "Bare ID Name" {
		t.Errorf("expected lookup without namespace prefix, got %q", table.Rows[0][name])
	}
}

func TestAssembleAppendsLeftoverHeaders(t *testing.T) {
	res := analytics.NewPropertyResult(
		"properties/1",
		[]analytics.DimensionHeader{
			{Name: analytics.DimensionRegion},
			{Name: analytics.DimensionSourceMedium},
			{Name: "city"},
		},
		[]analytics.MetricHeader{
			{Name: analytics.MetricTotalUsers, Type: analytics.MetricTypeInteger},
			{Name: analytics.MetricNewUsers, Type: analytics.MetricTypeInteger},
			{Name: analytics.MetricActiveUsers, Type: analytics.MetricTypeInteger},
			{Name: analytics.MetricEngagementDuration, Type: analytics.MetricTypeSeconds},
			{Name: "sessions", Type: analytics.MetricTypeInteger},
			{Name: "newUsersPerSession", Type: analytics.MetricTypeInteger},
		},
		[]analytics.Row{{
			DimensionValues: []string{"California", "client-command / email", "Los Angeles"},
			MetricValues:    []string{"100", "40", "80", "2400", "120", "3"},
		}},
	)
	res.Totals = analytics.Totals(res, 30)
	table := Assemble(&analytics.BatchResult{Results: []*analytics.PropertyResult{res}}, defaultOptions())

	names := make([]string, 0, len(table.Columns))
	for _, col := range table.Columns {
		names = append(names, col.Name)
	}
	joined := strings.Join(names, "|")
	if !strings.HasSuffix(joined, "Passed TOS Benchmark|city|sessions") {
		t.Fatalf("leftover headers misplaced or new-user variant not excluded: %v", names)
	}

	city := columnIndex(t, table, "city")
	if table.Rows[1][city] != "Los Angeles" {
		t.Errorf("city value = %q, want Los Angeles", table.Rows[1][city])
	}
	sessions := columnIndex(t, table, "sessions")
	if table.Rows[1][sessions] != "120" {
		t.Errorf("sessions value = %q, want 120", table.Rows[1][sessions])
	}
}

func TestAssembleEmptyBatchKeepsCanonicalColumns(t *testing.T) {
	table := Assemble(&analytics.BatchResult{}, Options{})
	if len(table.Columns) == 0 {
		t.Fatal("expected canonical columns even with no successes")
	}
	if len(table.Rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(table.Rows))
	}
}

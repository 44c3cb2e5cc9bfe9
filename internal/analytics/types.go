package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Dimension and metric names requested from the provider for every property.
const (
	DimensionRegion       = "region"
	DimensionSourceMedium = "sessionSourceMedium"

	MetricTotalUsers         = "totalUsers"
	MetricNewUsers           = "newUsers"
	MetricActiveUsers        = "activeUsers"
	MetricEngagementDuration = "userEngagementDuration"
)

// Request bounds enforced before any provider call is made.
const (
	MaxPropertiesPerRequest = 50
	MaxTopRegions           = 100
)

const dateLayout = "2006-01-02"

// ErrInvalidQuery is wrapped by every request validation failure.
var ErrInvalidQuery = errors.New("invalid analytics query")

// MetricType tags how a metric value should be formatted.
type MetricType string

const (
	MetricTypeInteger MetricType = "integer"
	MetricTypeSeconds MetricType = "seconds"
	MetricTypePercent MetricType = "percent"
	MetricTypeBoolean MetricType = "boolean"
)

// DimensionHeader names one dimension column of a property result.
type DimensionHeader struct {
	Name string `json:"name"`
}

// MetricHeader names one metric column of a property result.
type MetricHeader struct {
	Name string     `json:"name"`
	Type MetricType `json:"type"`
}

// Row holds dimension and metric values aligned positionally to the headers
// of the result it belongs to.
type Row struct {
	DimensionValues []string `json:"dimensionValues"`
	MetricValues    []string `json:"metricValues"`
}

// PropertyResult is one property's successful outcome. Immutable once
// constructed; header lookups go through name->index maps built once.
type PropertyResult struct {
	PropertyID       string
	DimensionHeaders []DimensionHeader
	MetricHeaders    []MetricHeader
	Rows             []Row
	Totals           AggregationTotals

	dimensionIndex map[string]int
	metricIndex    map[string]int
}

// NewPropertyResult builds a result and its header index maps.
func NewPropertyResult(propertyID string, dims []DimensionHeader, mets []MetricHeader, rows []Row) *PropertyResult {
	r := &PropertyResult{
		PropertyID:       propertyID,
		DimensionHeaders: dims,
		MetricHeaders:    mets,
		Rows:             rows,
		dimensionIndex:   make(map[string]int, len(dims)),
		metricIndex:      make(map[string]int, len(mets)),
	}
	for i, h := range dims {
		r.dimensionIndex[h.Name] = i
	}
	for i, h := range mets {
		r.metricIndex[h.Name] = i
	}
	return r
}

// Dimension returns the named dimension value of a row.
func (r *PropertyResult) Dimension(row Row, name string) (string, bool) {
	i, ok := r.dimensionIndex[name]
	if !ok || i >= len(row.DimensionValues) {
		return "", false
	}
	return row.DimensionValues[i], true
}

// Metric returns the named raw metric value of a row.
func (r *PropertyResult) Metric(row Row, name string) (string, bool) {
	i, ok := r.metricIndex[name]
	if !ok || i >= len(row.MetricValues) {
		return "", false
	}
	return row.MetricValues[i], true
}

// MetricNumber returns the named metric of a row as a number, 0 when the
// metric is missing or non-numeric.
func (r *PropertyResult) MetricNumber(row Row, name string) float64 {
	raw, ok := r.Metric(row, name)
	if !ok {
		return 0
	}
	return ParseMetric(raw)
}

// PropertyError records a single property's failure without aborting the batch.
type PropertyError struct {
	PropertyID string `json:"propertyId"`
	Message    string `json:"errorMessage"`
}

// BatchResult is the orchestrator output: successes and failures collected
// independently, in no particular order.
type BatchResult struct {
	Results []*PropertyResult
	Errors  []PropertyError
}

// AggregationTotals is a property-level derived summary, computed once per
// PropertyResult and never mutated afterward.
type AggregationTotals struct {
	TotalUsers               float64
	NewUsers                 float64
	ActiveUsers              float64
	EngagementSeconds        float64
	AverageEngagementSeconds float64
	BenchmarkSeconds         float64
	PassedBenchmark          bool
}

// Query is a validated, immutable analytics request.
type Query struct {
	PropertyIDs        []string
	SourceMediumFilter string
	StartDate          time.Time
	EndDate            time.Time
	TopRegionCount     int
}

// DateRangeLabel renders the query's inclusive date range for display.
func (q Query) DateRangeLabel() string {
	return q.StartDate.Format(dateLayout) + " - " + q.EndDate.Format(dateLayout)
}

// QueryRequest is the inbound request shape.
type QueryRequest struct {
	PropertyIDs        []string `json:"propertyIds"`
	SourceMediumFilter string   `json:"sourceMediumFilter"`
	StartDate          string   `json:"startDate"`
	EndDate            string   `json:"endDate"`
	TopStatesCount     int      `json:"topStatesCount"`
}

// Validate checks every request bound and reports all violations as one
// aggregate error. No provider call happens for an invalid request.
func (r QueryRequest) Validate() (Query, error) {
	var problems []string

	ids := make([]string, 0, len(r.PropertyIDs))
	seen := make(map[string]struct{}, len(r.PropertyIDs))
	for _, id := range r.PropertyIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		problems = append(problems, "at least one property id is required")
	}
	if len(ids) > MaxPropertiesPerRequest {
		problems = append(problems, fmt.Sprintf("at most %d property ids per request, got %d", MaxPropertiesPerRequest, len(ids)))
	}

	if strings.TrimSpace(r.SourceMediumFilter) == "" {
		problems = append(problems, "sourceMediumFilter is required")
	}

	start, err := time.Parse(dateLayout, r.StartDate)
	if err != nil {
		problems = append(problems, fmt.Sprintf("startDate %q is not a valid YYYY-MM-DD date", r.StartDate))
	}
	end, err := time.Parse(dateLayout, r.EndDate)
	if err != nil {
		problems = append(problems, fmt.Sprintf("endDate %q is not a valid YYYY-MM-DD date", r.EndDate))
	} else if !start.IsZero() && start.After(end) {
		problems = append(problems, "startDate must not be after endDate")
	}

	if r.TopStatesCount < 1 || r.TopStatesCount > MaxTopRegions {
		problems = append(problems, fmt.Sprintf("topStatesCount must be between 1 and %d, got %d", MaxTopRegions, r.TopStatesCount))
	}

	if len(problems) > 0 {
		return Query{}, fmt.Errorf("%w: %s", ErrInvalidQuery, strings.Join(problems, "; "))
	}

	return Query{
		PropertyIDs:        ids,
		SourceMediumFilter: strings.TrimSpace(r.SourceMediumFilter),
		StartDate:          start,
		EndDate:            end,
		TopRegionCount:     r.TopStatesCount,
	}, nil
}

// Provider runs a single-property report against the metrics provider.
type Provider interface {
	RunReport(ctx context.Context, credential, propertyID string, q Query) (*PropertyResult, error)
}

// NameResolver maps a property id to its display name.
type NameResolver interface {
	DisplayName(ctx context.Context, credential, propertyID string) (string, error)
}

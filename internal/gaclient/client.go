// Package gaclient talks to the Google Analytics Data and Admin APIs. Each
// call is scoped to a single property and authenticated with the caller's
// forwarded access token.
package gaclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/CCWMiller/ActionableIQ-sub000/internal/analytics"
	"github.com/CCWMiller/ActionableIQ-sub000/internal/logging"
)

const (
	defaultDataBaseURL  = "https://analyticsdata.googleapis.com/v1beta"
	defaultAdminBaseURL = "https://analyticsadmin.googleapis.com/v1beta"
	defaultTimeout      = 30 * time.Second
	defaultUserAgent    = "ActionableIQ/1.0"
)

var (
	// ErrMissingCredential is returned before any network call when the
	// caller supplied no provider token.
	ErrMissingCredential = errors.New("gaclient: missing analytics credential")

	// ErrPropertyNotFound marks a 404 from the provider for one property.
	ErrPropertyNotFound = errors.New("gaclient: property not found")
)

// Config holds the provider endpoints and HTTP behavior.
type Config struct {
	DataBaseURL  string
	AdminBaseURL string
	Timeout      time.Duration
	UserAgent    string
}

// Client is an HTTP client for the analytics provider. Safe for concurrent use.
type Client struct {
	config Config
	http   *http.Client
	logger *zap.Logger
}

// New builds a provider client, filling in defaults for empty config fields.
func New(cfg Config, logger *zap.Logger) *Client {
	if strings.TrimSpace(cfg.DataBaseURL) == "" {
		cfg.DataBaseURL = defaultDataBaseURL
	}
	if strings.TrimSpace(cfg.AdminBaseURL) == "" {
		cfg.AdminBaseURL = defaultAdminBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.Named("gaclient"),
	}
}

type runReportRequest struct {
	DateRanges      []dateRange  `json:"dateRanges"`
	Dimensions      []namedField `json:"dimensions"`
	Metrics         []namedField `json:"metrics"`
	DimensionFilter *filterExpr  `json:"dimensionFilter,omitempty"`
	OrderBys        []orderBy    `json:"orderBys,omitempty"`
	Limit           string       `json:"limit,omitempty"`
}

type dateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type namedField struct {
	Name string `json:"name"`
}

type filterExpr struct {
	Filter *dimensionFilter `json:"filter,omitempty"`
}

type dimensionFilter struct {
	FieldName    string       `json:"fieldName"`
	StringFilter stringFilter `json:"stringFilter"`
}

type stringFilter struct {
	MatchType string `json:"matchType"`
	Value     string `json:"value"`
}

type orderBy struct {
	Desc   bool         `json:"desc"`
	Metric *metricOrder `json:"metric,omitempty"`
}

type metricOrder struct {
	MetricName string `json:"metricName"`
}

type runReportResponse struct {
	DimensionHeaders []struct {
		Name string `json:"name"`
	} `json:"dimensionHeaders"`
	MetricHeaders []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"metricHeaders"`
	Rows []struct {
		DimensionValues []struct {
			Value string `json:"value"`
		} `json:"dimensionValues"`
		MetricValues []struct {
			Value string `json:"value"`
		} `json:"metricValues"`
	} `json:"rows"`
	RowCount int `json:"rowCount"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// RunReport issues the single-property report query: region and source/medium
// dimensions, the fixed user metrics, descending by total users, limited to
// the query's top-N count.
func (c *Client) RunReport(ctx context.Context, credential, propertyID string, q analytics.Query) (*analytics.PropertyResult, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, ErrMissingCredential
	}

	body := runReportRequest{
		DateRanges: []dateRange{{
			StartDate: q.StartDate.Format("2006-01-02"),
			EndDate:   q.EndDate.Format("2006-01-02"),
		}},
		Dimensions: []namedField{
			{Name: analytics.DimensionRegion},
			{Name: analytics.DimensionSourceMedium},
		},
		Metrics: []namedField{
			{Name: analytics.MetricTotalUsers},
			{Name: analytics.MetricNewUsers},
			{Name: analytics.MetricActiveUsers},
			{Name: analytics.MetricEngagementDuration},
		},
		DimensionFilter: &filterExpr{Filter: &dimensionFilter{
			FieldName:    analytics.DimensionSourceMedium,
			StringFilter: stringFilter{MatchType: "EXACT", Value: q.SourceMediumFilter},
		}},
		OrderBys: []orderBy{{Desc: true, Metric: &metricOrder{MetricName: analytics.MetricTotalUsers}}},
		Limit:    strconv.Itoa(q.TopRegionCount),
	}

	url := fmt.Sprintf("%s/%s:runReport", strings.TrimRight(c.config.DataBaseURL, "/"), normalizePropertyID(propertyID))
	var parsed runReportResponse
	if err := c.postJSON(ctx, credential, propertyID, "gaclient.run_report", url, body, &parsed); err != nil {
		return nil, err
	}

	dims := make([]analytics.DimensionHeader, 0, len(parsed.DimensionHeaders))
	for _, h := range parsed.DimensionHeaders {
		dims = append(dims, analytics.DimensionHeader{Name: h.Name})
	}
	mets := make([]analytics.MetricHeader, 0, len(parsed.MetricHeaders))
	for _, h := range parsed.MetricHeaders {
		mets = append(mets, analytics.MetricHeader{Name: h.Name, Type: metricTypeFor(h.Name, h.Type)})
	}
	rows := make([]analytics.Row, 0, len(parsed.Rows))
	for _, r := range parsed.Rows {
		row := analytics.Row{
			DimensionValues: make([]string, 0, len(r.DimensionValues)),
			MetricValues:    make([]string, 0, len(r.MetricValues)),
		}
		for _, v := range r.DimensionValues {
			row.DimensionValues = append(row.DimensionValues, v.Value)
		}
		for _, v := range r.MetricValues {
			row.MetricValues = append(row.MetricValues, v.Value)
		}
		rows = append(rows, row)
	}

	return analytics.NewPropertyResult(propertyID, dims, mets, rows), nil
}

func (c *Client) postJSON(ctx context.Context, credential, propertyID, operation, url string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return logging.NewOperationError(operation, propertyID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return logging.NewOperationError(operation, propertyID, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		wrapped := logging.NewOperationError(operation, propertyID, err)
		c.logger.Error("provider call failed", zap.Error(wrapped), zap.String("property_id", propertyID))
		return wrapped
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return logging.NewOperationError(operation, propertyID, err)
	}

	if resp.StatusCode != http.StatusOK {
		err := statusError(resp.StatusCode, data)
		c.logger.Warn("provider returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("property_id", propertyID),
			zap.Error(err))
		return logging.NewOperationError(operation, propertyID, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return logging.NewOperationError(operation, propertyID, fmt.Errorf("malformed provider response: %w", err))
	}
	return nil
}

func statusError(status int, body []byte) error {
	var parsed apiError
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		if status == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrPropertyNotFound, parsed.Error.Message)
		}
		return fmt.Errorf("provider error %d: %s", status, parsed.Error.Message)
	}
	if status == http.StatusNotFound {
		return ErrPropertyNotFound
	}
	return fmt.Errorf("provider error %d", status)
}

// metricTypeFor maps provider type tags onto the formatting tags the report
// layer understands, falling back on the metric name for untagged responses.
func metricTypeFor(name, providerType string) analytics.MetricType {
	switch providerType {
	case "TYPE_SECONDS", "TYPE_MILLISECONDS":
		return analytics.MetricTypeSeconds
	case "TYPE_INTEGER", "TYPE_FLOAT", "TYPE_STANDARD":
		return analytics.MetricTypeInteger
	}
	if name == analytics.MetricEngagementDuration {
		return analytics.MetricTypeSeconds
	}
	return analytics.MetricTypeInteger
}

// normalizePropertyID accepts both bare numeric ids and "properties/123".
func normalizePropertyID(id string) string {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, "properties/") {
		return id
	}
	return "properties/" + id
}

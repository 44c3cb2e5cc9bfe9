package usecase

import (
	"context"
	"errors"
)

// ErrNoRunRepository is returned when the audit trail is not configured.
var ErrNoRunRepository = errors.New("run repository not configured")

// RunSummary represents aggregated usage insights over recorded report runs.
type RunSummary struct {
	TotalRuns         int64   `json:"total_runs"`
	TotalProperties   int64   `json:"total_properties"`
	FailedProperties  int64   `json:"failed_properties"`
	SuccessRate       float64 `json:"success_rate"`
	AverageDurationMs float64 `json:"average_duration_ms"`
}

// GetRunSummary aggregates usage metrics from the persisted audit trail.
func (uc *ReportUseCase) GetRunSummary(ctx context.Context) (*RunSummary, error) {
	if uc.runs == nil {
		return nil, ErrNoRunRepository
	}
	aggregation, err := uc.runs.AggregateRuns(ctx)
	if err != nil {
		return nil, err
	}

	summary := &RunSummary{
		TotalRuns:         aggregation.TotalRuns,
		TotalProperties:   aggregation.TotalProperties,
		FailedProperties:  aggregation.FailedProperties,
		AverageDurationMs: aggregation.AverageDurationMs,
	}
	if aggregation.TotalProperties > 0 {
		summary.SuccessRate = float64(aggregation.TotalProperties-aggregation.FailedProperties) / float64(aggregation.TotalProperties)
	}
	return summary, nil
}

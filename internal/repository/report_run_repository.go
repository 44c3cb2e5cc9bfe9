package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/CCWMiller/ActionableIQ-sub000/internal/logging"
)

// ReportRun is the audit record of one executed batch query.
type ReportRun struct {
	ID            uint      `gorm:"primaryKey"`
	RequestID     string    `gorm:"column:request_id;uniqueIndex;size:64"`
	UserID        string    `gorm:"column:user_id;size:64;index"`
	PropertyCount int       `gorm:"column:property_count"`
	SuccessCount  int       `gorm:"column:success_count"`
	ErrorCount    int       `gorm:"column:error_count"`
	SourceMedium  string    `gorm:"column:source_medium;size:128"`
	StartDate     string    `gorm:"column:start_date;size:10"`
	EndDate       string    `gorm:"column:end_date;size:10"`
	DurationMs    int64     `gorm:"column:duration_ms"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

// TableName overrides the default table name.
func (ReportRun) TableName() string {
	return "report_runs"
}

// RunAggregation holds the raw aggregates computed by the database.
type RunAggregation struct {
	TotalRuns         int64
	TotalProperties   int64
	FailedProperties  int64
	AverageDurationMs float64
}

// ReportRunRepository provides persistence APIs for the run audit trail.
type ReportRunRepository struct {
	db             *gorm.DB
	logger         *zap.Logger
	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewReportRunRepository creates a new repository instance.
func NewReportRunRepository(db *gorm.DB, logger *zap.Logger) *ReportRunRepository {
	return &ReportRunRepository{
		db:             db,
		logger:         logger.Named("report_run_repository"),
		retryAttempts:  3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
	}
}

// AutoMigrate ensures the schema is available.
func (r *ReportRunRepository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&ReportRun{})
}

// SaveRun persists one audit record.
func (r *ReportRunRepository) SaveRun(ctx context.Context, run *ReportRun) error {
	return r.executeWithRetry(ctx, "repository.save_run", run.RequestID, func() error {
		return r.db.WithContext(ctx).Create(run).Error
	})
}

// AggregateRuns computes usage totals over all recorded runs.
func (r *ReportRunRepository) AggregateRuns(ctx context.Context) (*RunAggregation, error) {
	var agg RunAggregation
	err := r.executeWithRetry(ctx, "repository.aggregate_runs", "", func() error {
		return r.db.WithContext(ctx).
			Model(&ReportRun{}).
			Select("COUNT(*) AS total_runs, COALESCE(SUM(property_count),0) AS total_properties, COALESCE(SUM(error_count),0) AS failed_properties, COALESCE(AVG(duration_ms),0) AS average_duration_ms").
			Scan(&agg).Error
	})
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

func (r *ReportRunRepository) executeWithRetry(ctx context.Context, operation, requestID string, fn func() error) error {
	if r.retryAttempts <= 1 {
		return logging.NewOperationError(operation, requestID, fn())
	}

	backoff := r.initialBackoff
	opLogger := logging.WithOperation(r.logger, operation, requestID)
	var err error
	for attempt := 0; attempt < r.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return logging.NewOperationError(operation, requestID, ctx.Err())
			case <-time.After(backoff):
			}
			if next := backoff * 2; next <= r.maxBackoff {
				backoff = next
			}
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				opLogger.Info("database operation succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}

		if !isTransientError(err) || attempt == r.retryAttempts-1 {
			opLogger.Error("database operation failed", zap.Error(err), zap.Int("attempt", attempt+1))
			return logging.NewOperationError(operation, requestID, err)
		}

		opLogger.Warn("transient database error", zap.Error(err), zap.Int("attempt", attempt+1))
	}
	return logging.NewOperationError(operation, requestID, err)
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var temporary interface{ Temporary() bool }
	if errors.As(err, &temporary) && temporary.Temporary() {
		return true
	}

	return false
}

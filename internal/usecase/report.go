package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CCWMiller/ActionableIQ-sub000/internal/analytics"
	"github.com/CCWMiller/ActionableIQ-sub000/internal/logging"
	"github.com/CCWMiller/ActionableIQ-sub000/internal/report"
	"github.com/CCWMiller/ActionableIQ-sub000/internal/repository"
)

const (
	defaultMaxConcurrentFetches = 3
	defaultPropertiesPerBatch   = 10
	defaultBenchmarkSeconds     = 30.0
)

// RunRepository persists the audit trail of executed batches.
type RunRepository interface {
	SaveRun(ctx context.Context, run *repository.ReportRun) error
	AggregateRuns(ctx context.Context) (*repository.RunAggregation, error)
}

// Settings tune the orchestration; zero values fall back to defaults.
type Settings struct {
	BenchmarkSeconds     float64
	MaxConcurrentFetches int
	PropertiesPerBatch   int
}

// ReportUseCase orchestrates multi-property analytics queries: chunking,
// bounded fan-out, per-property aggregation, and report assembly.
type ReportUseCase struct {
	provider analytics.Provider
	names    *PropertyNames
	runs     RunRepository
	logger   *zap.Logger

	benchmarkSeconds     float64
	maxConcurrentFetches int
	propertiesPerBatch   int
}

// NewReportUseCase constructs the use case.
func NewReportUseCase(provider analytics.Provider, names *PropertyNames, runs RunRepository, logger *zap.Logger, settings Settings) *ReportUseCase {
	if settings.BenchmarkSeconds <= 0 {
		settings.BenchmarkSeconds = defaultBenchmarkSeconds
	}
	if settings.MaxConcurrentFetches <= 0 {
		settings.MaxConcurrentFetches = defaultMaxConcurrentFetches
	}
	if settings.PropertiesPerBatch <= 0 {
		settings.PropertiesPerBatch = defaultPropertiesPerBatch
	}
	return &ReportUseCase{
		provider:             provider,
		names:                names,
		runs:                 runs,
		logger:               logger.Named("report_usecase"),
		benchmarkSeconds:     settings.BenchmarkSeconds,
		maxConcurrentFetches: settings.MaxConcurrentFetches,
		propertiesPerBatch:   settings.PropertiesPerBatch,
	}
}

// Execute runs a validated query end to end. Identifiers beyond the
// provider's per-call cap are split into consecutive chunks processed
// sequentially, so total outstanding provider load never exceeds one chunk's
// concurrency bound. Chunk failures surface as per-property errors and never
// stop later chunks.
func (uc *ReportUseCase) Execute(ctx context.Context, userID, credential string, q analytics.Query) (*analytics.BatchResult, error) {
	requestID := uuid.NewString()
	opLogger := logging.WithOperation(uc.logger, "usecase.execute_query", requestID)
	started := time.Now()

	combined := &analytics.BatchResult{}
	for _, chunk := range chunkIdentifiers(q.PropertyIDs, uc.propertiesPerBatch) {
		if err := ctx.Err(); err != nil {
			for _, id := range chunk {
				combined.Errors = append(combined.Errors, analytics.PropertyError{PropertyID: id, Message: err.Error()})
			}
			continue
		}
		batch := uc.RunBatch(ctx, credential, chunk, q)
		combined.Results = append(combined.Results, batch.Results...)
		combined.Errors = append(combined.Errors, batch.Errors...)
	}

	uc.recordRun(ctx, opLogger, &repository.ReportRun{
		RequestID:     requestID,
		UserID:        userID,
		PropertyCount: len(q.PropertyIDs),
		SuccessCount:  len(combined.Results),
		ErrorCount:    len(combined.Errors),
		SourceMedium:  q.SourceMediumFilter,
		StartDate:     q.StartDate.Format("2006-01-02"),
		EndDate:       q.EndDate.Format("2006-01-02"),
		DurationMs:    time.Since(started).Milliseconds(),
		CreatedAt:     time.Now().UTC(),
	})

	opLogger.Info("batch query complete",
		zap.Int("properties", len(q.PropertyIDs)),
		zap.Int("successes", len(combined.Results)),
		zap.Int("failures", len(combined.Errors)),
		zap.Duration("elapsed", time.Since(started)))

	return combined, nil
}

// RunBatch fans out one fetch-and-aggregate unit per identifier under the
// permit pool. A failing property contributes a PropertyError and never
// disturbs its siblings; the call returns only after every unit finished.
// Result ordering is not guaranteed to match request order.
func (uc *ReportUseCase) RunBatch(ctx context.Context, credential string, identifiers []string, q analytics.Query) *analytics.BatchResult {
	permits := make(chan struct{}, uc.maxConcurrentFetches)
	batch := &analytics.BatchResult{}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, id := range identifiers {
		wg.Add(1)
		go func(propertyID string) {
			defer wg.Done()

			select {
			case permits <- struct{}{}:
				defer func() { <-permits }()
			case <-ctx.Done():
				mu.Lock()
				batch.Errors = append(batch.Errors, analytics.PropertyError{PropertyID: propertyID, Message: ctx.Err().Error()})
				mu.Unlock()
				return
			}

			res, err := uc.provider.RunReport(ctx, credential, propertyID, q)
			if err != nil {
				logging.WithProperty(uc.logger, propertyID).Warn("property fetch failed", zap.Error(err))
				mu.Lock()
				batch.Errors = append(batch.Errors, analytics.PropertyError{PropertyID: propertyID, Message: err.Error()})
				mu.Unlock()
				return
			}
			res.Totals = analytics.Totals(res, uc.benchmarkSeconds)

			mu.Lock()
			batch.Results = append(batch.Results, res)
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	return batch
}

// BuildReport resolves display names for the succeeding properties and
// assembles the tabular report.
func (uc *ReportUseCase) BuildReport(ctx context.Context, credential string, batch *analytics.BatchResult, q analytics.Query) *report.Table {
	names := make(map[string]string, len(batch.Results))
	if uc.names != nil {
		for _, res := range batch.Results {
			if name := uc.names.Resolve(ctx, credential, res.PropertyID); name != "" {
				names[res.PropertyID] = name
			}
		}
	}
	return report.Assemble(batch, report.Options{
		Names:          names,
		DateRangeLabel: q.DateRangeLabel(),
		SourceMedium:   q.SourceMediumFilter,
	})
}

func (uc *ReportUseCase) recordRun(ctx context.Context, opLogger *zap.Logger, run *repository.ReportRun) {
	if uc.runs == nil {
		return
	}
	if err := uc.runs.SaveRun(ctx, run); err != nil {
		opLogger.Warn("failed to record report run", zap.Error(err))
	}
}

// chunkIdentifiers partitions ids into consecutive chunks of at most size,
// preserving input order within and across chunks.
func chunkIdentifiers(ids []string, size int) [][]string {
	if size <= 0 || len(ids) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// OverdueJobName is the name of the overdue invoice marker job
const OverdueJobName = "mark_overdue"

const defaultOverdueTimeout = 2 * time.Minute

// OverdueMarker flips sent or partially paid invoices past their due date to
// OVERDUE. Implemented by service.OverdueService.
type OverdueMarker interface {
	MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int, error)
}

// OverdueJob runs daily after midnight and marks overdue invoices.
type OverdueJob struct {
	marker OverdueMarker
	logger *zap.Logger
}

func NewOverdueJob(marker OverdueMarker, logger *zap.Logger) *OverdueJob {
	return &OverdueJob{
		marker: marker,
		logger: logger,
	}
}

// Run executes one pass. Called by the scheduler.
func (j *OverdueJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultOverdueTimeout)
	defer cancel()

	start := time.Now()
	marked, err := j.marker.MarkOverdueInvoices(ctx, start)
	if err != nil {
		j.logger.Error("overdue job failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}
	j.logger.Info("overdue job finished",
		zap.Int("marked", marked),
		zap.Duration("duration", time.Since(start)))
}

// RegisterOverdueJob wires the job into the scheduler
func RegisterOverdueJob(scheduler *Scheduler, marker OverdueMarker, logger *zap.Logger, cronExpr string) error {
	job := NewOverdueJob(marker, logger)
	return scheduler.AddJob(OverdueJobName, cronExpr, job.Run)
}

package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PaymentSyncJobName is the name of the accounting payment sync job
const PaymentSyncJobName = "payment_sync"

// DefaultPaymentSyncTimeout bounds one sync run
const DefaultPaymentSyncTimeout = 5 * time.Minute

// PaymentSyncer pulls payments from the external accounting system and
// applies them to invoices. Implemented by service.PaymentSyncService.
type PaymentSyncer interface {
	Sync(ctx context.Context) error
	Enabled() bool
}

// PaymentSyncJob periodically imports customer payments recorded in the
// accounting system.
type PaymentSyncJob struct {
	syncer  PaymentSyncer
	logger  *zap.Logger
	timeout time.Duration
}

func NewPaymentSyncJob(syncer PaymentSyncer, logger *zap.Logger, timeout time.Duration) *PaymentSyncJob {
	if timeout <= 0 {
		timeout = DefaultPaymentSyncTimeout
	}
	return &PaymentSyncJob{
		syncer:  syncer,
		logger:  logger,
		timeout: timeout,
	}
}

// Run executes one sync pass. Called by the scheduler.
func (j *PaymentSyncJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	if err := j.syncer.Sync(ctx); err != nil {
		j.logger.Error("payment sync job failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}
	j.logger.Info("payment sync job finished",
		zap.Duration("duration", time.Since(start)))
}

// RegisterPaymentSyncJob wires the job into the scheduler. Optionally runs
// one sync immediately at startup to catch up after downtime.
func RegisterPaymentSyncJob(
	scheduler *Scheduler,
	syncer PaymentSyncer,
	logger *zap.Logger,
	cronExpr string,
	timeout time.Duration,
	runStartupSync bool,
) error {
	job := NewPaymentSyncJob(syncer, logger, timeout)

	if err := scheduler.AddJob(PaymentSyncJobName, cronExpr, job.Run); err != nil {
		return err
	}

	if runStartupSync {
		go job.Run()
	}
	return nil
}

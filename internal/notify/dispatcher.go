package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devbuild/doctorate-api/pkg/config"
	"github.com/devbuild/doctorate-api/pkg/jobs"
)

// metricsRecorder tracks dispatch outcomes for observability.
type metricsRecorder interface {
	RecordNotification(success bool)
}

// Dispatcher is the fire-and-forget boundary the workflows talk to. In
// asynchronous mode messages are queued and delivered by background
// workers; in synchronous mode delivery happens inline. Either way a
// failed send is logged and dropped, never surfaced to the workflow.
type Dispatcher struct {
	notifier Notifier
	queue    *jobs.Queue
	async    bool
	timeout  time.Duration
	logger   *zap.Logger
	metrics  metricsRecorder
}

// NewDispatcher wires the dispatcher for the configured mode.
func NewDispatcher(notifier Notifier, cfg config.NotificationsConfig, logger *zap.Logger, metrics metricsRecorder) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	d := &Dispatcher{
		notifier: notifier,
		async:    cfg.Async,
		timeout:  timeout,
		logger:   logger,
		metrics:  metrics,
	}
	if cfg.Async {
		d.queue = jobs.NewQueue("notifications", d.handleJob, jobs.QueueConfig{
			Workers:    cfg.Workers,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
			Logger:     logger,
		})
	}
	return d
}

// Start launches the background workers in asynchronous mode.
func (d *Dispatcher) Start(ctx context.Context) {
	if d.queue != nil {
		d.queue.Start(ctx)
	}
}

// Stop drains the workers.
func (d *Dispatcher) Stop() {
	if d.queue != nil {
		d.queue.Stop()
	}
}

// Dispatch hands a message to the transport. The caller's context bounds
// only the synchronous path; queued deliveries run on the queue context.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) {
	if d.async {
		err := d.queue.Enqueue(jobs.Job{
			ID:      uuid.NewString(),
			Type:    "notification",
			Payload: msg,
		})
		if err != nil {
			d.record(false)
			d.logger.Warn("failed to enqueue notification", zap.String("to", msg.To), zap.Error(err))
		}
		return
	}
	d.deliver(ctx, msg)
}

func (d *Dispatcher) handleJob(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(Message)
	if !ok {
		d.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.notifier.Send(sendCtx, msg); err != nil {
		d.record(false)
		return err
	}
	d.record(true)
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) {
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.notifier.Send(sendCtx, msg); err != nil {
		d.record(false)
		d.logger.Warn("notification delivery failed",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return
	}
	d.record(true)
}

func (d *Dispatcher) record(success bool) {
	if d.metrics != nil {
		d.metrics.RecordNotification(success)
	}
}

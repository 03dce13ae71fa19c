package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/drive-uploader/internal/logging"
)

// UploadWorker polls the upload queue and drives due jobs through the
// pipeline. A single worker processes its batch sequentially; overlapping
// workers stay safe because Claim is conditional.
type UploadWorker struct {
	store     JobStore
	processor *Processor

	pollInterval time.Duration
	batchSize    int
	staleAfter   time.Duration
	errorPause   time.Duration

	running       bool
	mu            sync.RWMutex
	stopCh        chan struct{}
	doneCh        chan struct{}
	lastPollTime  time.Time
	jobsProcessed int64
	jobsReclaimed int64
}

// UploadWorkerConfig holds configuration for an upload worker
type UploadWorkerConfig struct {
	Store        JobStore
	Pipeline     Pipeline
	PollInterval time.Duration // default: 2 seconds
	BatchSize    int           // max jobs claimed per cycle (default: 5)
	StaleAfter   time.Duration // processing age before reclaim (default: 10 minutes)
	ErrorPause   time.Duration // extra pause after a cycle error (default: 5 seconds)
	MaxAttempts  int
}

// NewUploadWorker creates a new upload worker
func NewUploadWorker(cfg *UploadWorkerConfig) (*UploadWorker, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("job store cannot be nil")
	}
	if cfg.Pipeline == nil {
		return nil, fmt.Errorf("pipeline cannot be nil")
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 5
	}
	staleAfter := cfg.StaleAfter
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	errorPause := cfg.ErrorPause
	if errorPause <= 0 {
		errorPause = 5 * time.Second
	}

	return &UploadWorker{
		store:        cfg.Store,
		processor:    NewProcessor(cfg.Store, cfg.Pipeline, cfg.MaxAttempts),
		pollInterval: pollInterval,
		batchSize:    batchSize,
		staleAfter:   staleAfter,
		errorPause:   errorPause,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}, nil
}

// Start begins the polling loop in a background goroutine
func (w *UploadWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("upload worker is already running")
	}
	w.running = true
	w.mu.Unlock()

	logging.GetGlobalLogger().WithFields(map[string]interface{}{
		"pollInterval": w.pollInterval.String(),
		"batchSize":    w.batchSize,
		"staleAfter":   w.staleAfter.String(),
	}).Info("Starting upload worker")

	go w.pollLoop(ctx)

	return nil
}

// Stop gracefully stops the upload worker, waiting for the current cycle
// to finish
func (w *UploadWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("upload worker is not running")
	}
	w.mu.Unlock()

	logging.GetGlobalLogger().Info("Stopping upload worker")

	close(w.stopCh)

	select {
	case <-w.doneCh:
		logging.GetGlobalLogger().Info("Upload worker stopped gracefully")
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(30 * time.Second):
		return fmt.Errorf("stop timeout")
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	return nil
}

// pollLoop is the main polling loop that runs in a goroutine
func (w *UploadWorker) pollLoop(ctx context.Context) {
	defer close(w.doneCh)

	logger := logging.GetGlobalLogger()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Upload worker: context cancelled")
			return
		case <-w.stopCh:
			logger.Info("Upload worker: stop signal received")
			return
		case <-ticker.C:
			w.mu.Lock()
			w.lastPollTime = time.Now()
			w.mu.Unlock()

			processed, err := w.PollQueue(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.WithError(err).Error("Upload worker: poll cycle failed")
				// Pause before the next cycle so a broken database does
				// not turn the loop into a hot spin.
				select {
				case <-ctx.Done():
					return
				case <-w.stopCh:
					return
				case <-time.After(w.errorPause):
				}
				continue
			}

			if processed > 0 {
				logger.WithField("processed", processed).Info("Upload worker: cycle complete")
			}
		}
	}
}

// PollQueue runs one worker cycle: reclaim stale jobs, then claim and
// process up to batchSize due jobs. Returns the number of jobs processed.
func (w *UploadWorker) PollQueue(ctx context.Context) (int, error) {
	logger := logging.FromContext(ctx)

	reclaimed, err := w.store.ReclaimStale(ctx, w.staleAfter)
	if err != nil {
		return 0, fmt.Errorf("failed to reclaim stale jobs: %w", err)
	}
	if reclaimed > 0 {
		w.mu.Lock()
		w.jobsReclaimed += reclaimed
		w.mu.Unlock()
		logger.WithField("reclaimed", reclaimed).Warn("Requeued stale processing jobs")
	}

	due, err := w.store.SelectDue(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to select due jobs: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	processed := 0
	for _, candidate := range due {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}

		item, claimed, err := w.store.Claim(ctx, candidate.ID)
		if err != nil {
			logger.WithError(err).WithField("queueItemId", candidate.ID).Error("Failed to claim job")
			continue
		}
		if !claimed {
			// Another worker got there first, or the job was cancelled
			// between select and claim.
			continue
		}

		if err := w.processor.ProcessJob(ctx, item); err != nil {
			if ctx.Err() != nil {
				return processed, ctx.Err()
			}
			// The job stays in processing and will be reclaimed once it
			// turns stale.
			logger.WithError(err).WithField("queueItemId", item.ID).Error("Job attempt did not conclude")
			continue
		}

		processed++
	}

	w.mu.Lock()
	w.jobsProcessed += int64(processed)
	w.mu.Unlock()

	return processed, nil
}

// GetStatus returns current worker status
func (w *UploadWorker) GetStatus() *UploadWorkerStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return &UploadWorkerStatus{
		Running:             w.running,
		LastPollTime:        w.lastPollTime,
		JobsProcessed:       w.jobsProcessed,
		JobsReclaimed:       w.jobsReclaimed,
		PollIntervalSeconds: int(w.pollInterval.Seconds()),
		BatchSize:           w.batchSize,
	}
}

// UploadWorkerStatus represents the current status of an upload worker
type UploadWorkerStatus struct {
	Running             bool
	LastPollTime        time.Time
	JobsProcessed       int64
	JobsReclaimed       int64
	PollIntervalSeconds int
	BatchSize           int
}

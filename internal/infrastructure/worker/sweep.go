package worker

import (
	"context"
	"sync"
	"time"

	"github.com/advancehq/steward/internal/application"
	"github.com/advancehq/steward/internal/domain"
	"github.com/advancehq/steward/internal/infrastructure/logging"
)

// OrganizationSource discovers the organizations a sweep should cover.
type OrganizationSource interface {
	ListOrganizations(ctx context.Context) ([]domain.OrganizationID, error)
}

// SweepMetricsRecorder abstracts prometheus metrics for the sweep worker.
type SweepMetricsRecorder interface {
	RecordScoringSweep(durationSeconds float64)
}

// SweepWorkerConfig holds configuration for the background sweep worker.
type SweepWorkerConfig struct {
	// Interval is how often every organization is re-scored and its
	// alerts regenerated.
	Interval time.Duration

	// OrgTimeout bounds one organization's sweep so a slow organization
	// can't starve the rest.
	OrgTimeout time.Duration
}

// DefaultSweepWorkerConfig returns sensible defaults.
func DefaultSweepWorkerConfig() SweepWorkerConfig {
	return SweepWorkerConfig{
		Interval:   6 * time.Hour,
		OrgTimeout: 10 * time.Minute,
	}
}

// SweepWorker periodically re-scores every organization and regenerates
// its open alerts. scoring runs before alert detection so the alert
// sweep sees fresh composite scores.
type SweepWorker struct {
	orgSource    OrganizationSource
	scoreUseCase *application.ScoreConstituentUseCase
	alertUseCase *application.SweepAlertsUseCase
	config       SweepWorkerConfig
	logger       *logging.Logger
	metrics      SweepMetricsRecorder

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

// NewSweepWorker creates a new background sweep worker.
func NewSweepWorker(
	orgSource OrganizationSource,
	scoreUseCase *application.ScoreConstituentUseCase,
	alertUseCase *application.SweepAlertsUseCase,
	config SweepWorkerConfig,
	logger *logging.Logger,
) *SweepWorker {
	return &SweepWorker{
		orgSource:    orgSource,
		scoreUseCase: scoreUseCase,
		alertUseCase: alertUseCase,
		config:       config,
		logger:       logger.WithComponent("sweep_worker"),
		stopped:      make(chan struct{}),
	}
}

// WithMetrics sets the metrics recorder for observability.
func (w *SweepWorker) WithMetrics(m SweepMetricsRecorder) *SweepWorker {
	w.metrics = m
	return w
}

// Start begins the worker goroutine.
// runs one sweep immediately, then on every tick.
func (w *SweepWorker) Start(ctx context.Context) {
	w.logger.Info("sweep worker starting",
		"interval", w.config.Interval.String(),
		"org_timeout", w.config.OrgTimeout.String(),
	)

	w.wg.Add(1)
	go w.run(ctx)
}

// Stop waits for an in-flight sweep to finish and shuts the worker down.
func (w *SweepWorker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("sweep worker stopping")
		w.wg.Wait()
		close(w.stopped)
		w.logger.Info("sweep worker stopped")
	})
}

// Stopped returns a channel that closes when the worker has fully stopped.
func (w *SweepWorker) Stopped() <-chan struct{} {
	return w.stopped
}

// run is the main worker loop.
func (w *SweepWorker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	// run immediately on startup
	w.runSweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("sweep worker exiting on context cancel")
			return
		case <-ticker.C:
			w.runSweep(ctx)
		}
	}
}

// runSweep executes one full sweep cycle over every organization.
func (w *SweepWorker) runSweep(ctx context.Context) {
	start := time.Now()

	organizations, err := w.orgSource.ListOrganizations(ctx)
	if err != nil {
		w.logger.Error("sweep failed: listing organizations", "error", err.Error())
		return
	}

	swept := 0
	for _, orgID := range organizations {
		if ctx.Err() != nil {
			return
		}

		if err := w.sweepOrganization(ctx, orgID); err != nil {
			w.logger.Error("organization sweep failed",
				"organization_id", orgID.String(),
				"error", err.Error(),
			)
			continue
		}
		swept++
	}

	duration := time.Since(start)
	if w.metrics != nil {
		w.metrics.RecordScoringSweep(duration.Seconds())
	}

	w.logger.Info("sweep cycle completed",
		"organizations", len(organizations),
		"swept", swept,
		"duration_ms", duration.Milliseconds(),
	)
}

// sweepOrganization re-scores one organization and regenerates its alerts.
func (w *SweepWorker) sweepOrganization(ctx context.Context, orgID domain.OrganizationID) error {
	orgCtx, cancel := context.WithTimeout(ctx, w.config.OrgTimeout)
	defer cancel()

	if _, err := w.scoreUseCase.ExecuteAll(orgCtx, application.ScoreOrganizationInput{
		OrganizationID: orgID.String(),
	}); err != nil {
		return err
	}

	_, err := w.alertUseCase.Execute(orgCtx, application.SweepAlertsInput{
		OrganizationID: orgID.String(),
	})
	return err
}

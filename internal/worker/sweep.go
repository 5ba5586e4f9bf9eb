package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/numport/numport/internal/porting"
)

// SweepJob periodically scans for porting requests that need an operator:
// failed ports and ports still processing past their estimated completion.
type SweepJob struct {
	config         SweepConfig
	logger         zerolog.Logger
	portingService *porting.Service

	metrics *SweepMetrics
}

// SweepMetrics tracks sweep job statistics.
type SweepMetrics struct {
	mu sync.RWMutex

	TotalSweeps   int64
	FailedSweeps  int64
	FlaggedTotal  int64
	LastSweepAt   time.Time
	LastSweepSize int
	TotalDuration time.Duration
}

// SweepJobConfig holds configuration for creating a SweepJob.
type SweepJobConfig struct {
	Config         SweepConfig
	Logger         zerolog.Logger
	PortingService *porting.Service
}

// NewSweepJob creates a new attention sweep job.
func NewSweepJob(cfg SweepJobConfig) *SweepJob {
	config := cfg.Config
	if config.Interval <= 0 {
		config = DefaultSweepConfig()
	}

	return &SweepJob{
		config:         config,
		logger:         cfg.Logger,
		portingService: cfg.PortingService,
		metrics:        &SweepMetrics{},
	}
}

// SweepResult contains the result of one sweep.
type SweepResult struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Flagged   []*porting.Request
	Err       error
}

// Run executes a single sweep and logs every flagged request.
func (j *SweepJob) Run(ctx context.Context) *SweepResult {
	startTime := time.Now()
	result := &SweepResult{StartTime: startTime}

	sweepCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	requests, err := j.portingService.RequiringAttention(sweepCtx)
	if err != nil {
		result.Err = err
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(startTime)
		j.updateMetrics(result)

		j.logger.Error().Err(err).Msg("attention sweep failed")
		return result
	}

	for _, req := range requests {
		overdue := time.Duration(0)
		if req.Status == porting.StatusProcessing && !req.EstimatedCompletion.IsZero() {
			overdue = startTime.Sub(req.EstimatedCompletion)
		}
		j.logger.Warn().
			Str("request_id", req.ID).
			Str("status", string(req.Status)).
			Str("carrier", req.CurrentCarrier).
			Dur("overdue", overdue).
			Msg("porting request requires attention")
	}

	result.Flagged = requests
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("flagged", len(requests)).
		Msg("attention sweep completed")

	return result
}

// Start runs the sweep on the configured interval until the context is
// cancelled. The first sweep runs immediately.
func (j *SweepJob) Start(ctx context.Context) {
	j.logger.Info().
		Dur("interval", j.config.Interval).
		Msg("starting attention sweep job")

	j.Run(ctx)

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("attention sweep job stopped")
			return
		case <-ticker.C:
			j.Run(ctx)
		}
	}
}

func (j *SweepJob) updateMetrics(result *SweepResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalSweeps++
	if result.Err != nil {
		j.metrics.FailedSweeps++
	}
	j.metrics.FlaggedTotal += int64(len(result.Flagged))
	j.metrics.LastSweepAt = result.EndTime
	j.metrics.LastSweepSize = len(result.Flagged)
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *SweepJob) GetMetrics() SweepMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return SweepMetrics{
		TotalSweeps:   j.metrics.TotalSweeps,
		FailedSweeps:  j.metrics.FailedSweeps,
		FlaggedTotal:  j.metrics.FlaggedTotal,
		LastSweepAt:   j.metrics.LastSweepAt,
		LastSweepSize: j.metrics.LastSweepSize,
		TotalDuration: j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *SweepJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_sweeps":    m.TotalSweeps,
		"failed_sweeps":   m.FailedSweeps,
		"flagged_total":   m.FlaggedTotal,
		"last_sweep_at":   m.LastSweepAt,
		"last_sweep_size": m.LastSweepSize,
		"total_duration":  m.TotalDuration.String(),
	}
}

// Package worker provides background job processing for NumPort.
package worker

import (
	"time"
)

// SweepConfig holds configuration for the attention sweep job.
type SweepConfig struct {
	// Interval is how often the sweep runs.
	// Default: 15 minutes
	Interval time.Duration

	// Timeout is the timeout for a single sweep.
	// Default: 30 seconds
	Timeout time.Duration
}

// DefaultSweepConfig returns the default sweep configuration.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		Interval: 15 * time.Minute,
		Timeout:  30 * time.Second,
	}
}

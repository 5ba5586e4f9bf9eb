package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numport/numport/internal/porting"
	"github.com/numport/numport/internal/worker"
)

type noopBridge struct{}

func (noopBridge) NumberExists(_ context.Context, _ string) (bool, error) { return false, nil }
func (noopBridge) ActivatePorted(_ context.Context, _, _ string) error    { return nil }

func newSweepTestService(t *testing.T) *porting.Service {
	t.Helper()
	return porting.NewService(porting.ServiceConfig{
		Repository: porting.NewInMemoryRepository(),
		Bridge:     noopBridge{},
		Logger:     zerolog.Nop(),
	})
}

func submitSweepRequest(t *testing.T, svc *porting.Service, phoneNumber string) *porting.Request {
	t.Helper()
	req, err := svc.Initiate(context.Background(), &porting.CreateInput{
		UserID:         "usr_sweep",
		PhoneNumber:    phoneNumber,
		CurrentCarrier: "T-Mobile",
		AccountNumber:  "1234567",
		PIN:            "9876",
		AuthorizedName: "Alex Rivera",
		BillingAddress: porting.BillingAddress{
			Street:  "42 Oak Ave",
			City:    "Portland",
			State:   "OR",
			ZipCode: "97201",
		},
	})
	require.NoError(t, err)
	return req
}

func TestDefaultSweepConfig(t *testing.T) {
	cfg := worker.DefaultSweepConfig()

	assert.Equal(t, 15*time.Minute, cfg.Interval)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestSweepJob_Run_NothingToFlag(t *testing.T) {
	svc := newSweepTestService(t)
	submitSweepRequest(t, svc, "+12025550001")

	job := worker.NewSweepJob(worker.SweepJobConfig{
		Logger:         zerolog.Nop(),
		PortingService: svc,
	})

	result := job.Run(context.Background())

	require.NoError(t, result.Err)
	assert.Empty(t, result.Flagged)
	assert.Greater(t, result.Duration, time.Duration(0))
}

func TestSweepJob_Run_FlagsFailedRequests(t *testing.T) {
	svc := newSweepTestService(t)
	req := submitSweepRequest(t, svc, "+12025550002")
	submitSweepRequest(t, svc, "+12025550003")

	_, err := svc.UpdateStatus(context.Background(), req.ID, porting.StatusFailed,
		"Carrier rejected the account number", "usr_admin")
	require.NoError(t, err)

	job := worker.NewSweepJob(worker.SweepJobConfig{
		Logger:         zerolog.Nop(),
		PortingService: svc,
	})

	result := job.Run(context.Background())

	require.NoError(t, result.Err)
	require.Len(t, result.Flagged, 1)
	assert.Equal(t, req.ID, result.Flagged[0].ID)
	assert.Equal(t, porting.StatusFailed, result.Flagged[0].Status)
}

func TestSweepJob_GetMetrics(t *testing.T) {
	svc := newSweepTestService(t)

	job := worker.NewSweepJob(worker.SweepJobConfig{
		Logger:         zerolog.Nop(),
		PortingService: svc,
	})

	_ = job.Run(context.Background())
	_ = job.Run(context.Background())

	metrics := job.GetMetrics()
	assert.Equal(t, int64(2), metrics.TotalSweeps)
	assert.Equal(t, int64(0), metrics.FailedSweeps)
	assert.NotZero(t, metrics.LastSweepAt)
}

func TestSweepJob_MetricsSnapshot(t *testing.T) {
	svc := newSweepTestService(t)

	job := worker.NewSweepJob(worker.SweepJobConfig{
		Logger:         zerolog.Nop(),
		PortingService: svc,
	})

	_ = job.Run(context.Background())

	snapshot := job.MetricsSnapshot()

	assert.Contains(t, snapshot, "total_sweeps")
	assert.Contains(t, snapshot, "failed_sweeps")
	assert.Contains(t, snapshot, "flagged_total")
	assert.Contains(t, snapshot, "last_sweep_at")
}

func TestNewSweepJob_DefaultConfig(t *testing.T) {
	// Zero config falls back to defaults.
	job := worker.NewSweepJob(worker.SweepJobConfig{
		Logger:         zerolog.Nop(),
		PortingService: newSweepTestService(t),
	})

	metrics := job.GetMetrics()
	assert.Equal(t, int64(0), metrics.TotalSweeps)
}

func TestSweepJob_Start_StopsOnCancel(t *testing.T) {
	svc := newSweepTestService(t)

	job := worker.NewSweepJob(worker.SweepJobConfig{
		Config:         worker.SweepConfig{Interval: 10 * time.Millisecond, Timeout: time.Second},
		Logger:         zerolog.Nop(),
		PortingService: svc,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep job did not stop after context cancellation")
	}

	assert.GreaterOrEqual(t, job.GetMetrics().TotalSweeps, int64(1))
}

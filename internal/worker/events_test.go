package worker

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numport/numport/internal/porting"
)

type stubBridge struct {
	activated []string
}

func (b *stubBridge) NumberExists(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (b *stubBridge) ActivatePorted(_ context.Context, _, phoneNumber string) error {
	b.activated = append(b.activated, phoneNumber)
	return nil
}

func newTestService(t *testing.T) (*porting.Service, *stubBridge) {
	t.Helper()
	bridge := &stubBridge{}
	svc := porting.NewService(porting.ServiceConfig{
		Repository: porting.NewInMemoryRepository(),
		Bridge:     bridge,
		Logger:     zerolog.Nop(),
	})
	return svc, bridge
}

func submitTestRequest(t *testing.T, svc *porting.Service) *porting.Request {
	t.Helper()
	req, err := svc.Initiate(context.Background(), &porting.CreateInput{
		UserID:         "usr_worker",
		PhoneNumber:    "+12025551234",
		CurrentCarrier: "Verizon",
		AccountNumber:  "123456789",
		PIN:            "1234",
		AuthorizedName: "Jordan Smith",
		BillingAddress: porting.BillingAddress{
			Street:  "100 Main St",
			City:    "Washington",
			State:   "DC",
			ZipCode: "20001",
		},
	})
	require.NoError(t, err)
	return req
}

func TestEventHandler_Apply_Approved(t *testing.T) {
	svc, _ := newTestService(t)
	req := submitTestRequest(t, svc)

	h := &EventHandler{portingService: svc, logger: zerolog.Nop()}

	err := h.Apply(context.Background(), &CarrierEvent{
		EventType: EventPortApproved,
		RequestID: req.ID,
	})
	require.NoError(t, err)

	// Approval cascades straight into processing.
	detail, err := svc.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, porting.StatusProcessing, detail.Request.Status)
}

func TestEventHandler_Apply_Completed(t *testing.T) {
	svc, bridge := newTestService(t)
	req := submitTestRequest(t, svc)

	h := &EventHandler{portingService: svc, logger: zerolog.Nop()}
	ctx := context.Background()

	require.NoError(t, h.Apply(ctx, &CarrierEvent{EventType: EventPortApproved, RequestID: req.ID}))
	require.NoError(t, h.Apply(ctx, &CarrierEvent{EventType: EventPortCompleted, RequestID: req.ID}))

	detail, err := svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, porting.StatusCompleted, detail.Request.Status)
	assert.Equal(t, []string{"+12025551234"}, bridge.activated)
}

func TestEventHandler_Apply_Rejected(t *testing.T) {
	svc, _ := newTestService(t)
	req := submitTestRequest(t, svc)

	h := &EventHandler{portingService: svc, logger: zerolog.Nop()}
	ctx := context.Background()

	require.NoError(t, h.Apply(ctx, &CarrierEvent{
		EventType: EventPortRejected,
		RequestID: req.ID,
		Message:   "account number mismatch",
	}))

	detail, err := svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, porting.StatusFailed, detail.Request.Status)

	history, err := svc.History(ctx, req.ID)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, porting.SystemActor, history[0].UpdatedBy)
	assert.Contains(t, history[0].Message, "account number mismatch")
}

func TestEventHandler_Apply_UnknownEventType(t *testing.T) {
	svc, _ := newTestService(t)
	req := submitTestRequest(t, svc)

	h := &EventHandler{portingService: svc, logger: zerolog.Nop()}

	// Unknown types are dropped, not errors.
	err := h.Apply(context.Background(), &CarrierEvent{
		EventType: "port.remark",
		RequestID: req.ID,
	})
	require.NoError(t, err)

	detail, err := svc.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, porting.StatusSubmitted, detail.Request.Status)
}

func TestEventHandler_Apply_UnknownRequest(t *testing.T) {
	svc, _ := newTestService(t)

	h := &EventHandler{portingService: svc, logger: zerolog.Nop()}

	err := h.Apply(context.Background(), &CarrierEvent{
		EventType: EventPortApproved,
		RequestID: "prt_doesnotexist",
	})
	assert.ErrorIs(t, err, porting.ErrRequestNotFound)
}

func TestEventHandler_Apply_SettledRequest(t *testing.T) {
	svc, _ := newTestService(t)
	req := submitTestRequest(t, svc)

	h := &EventHandler{portingService: svc, logger: zerolog.Nop()}
	ctx := context.Background()

	// The customer cancels before the carrier callback lands; the late
	// approval must not resurrect the request.
	_, err := svc.Cancel(ctx, req.ID, "customer withdrew the port", "usr_admin")
	require.NoError(t, err)

	err = h.Apply(ctx, &CarrierEvent{EventType: EventPortApproved, RequestID: req.ID})
	require.NoError(t, err)

	detail, err := svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, porting.StatusCancelled, detail.Request.Status)
}

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/numport/numport/internal/porting"
)

// Carrier event types published by the carrier aggregator.
const (
	EventPortApproved  = "port.approved"
	EventPortCompleted = "port.completed"
	EventPortRejected  = "port.rejected"
)

// CarrierEvent is a carrier aggregator callback delivered over Pub/Sub.
type CarrierEvent struct {
	EventType string `json:"event_type"`
	RequestID string `json:"request_id"`
	Message   string `json:"message,omitempty"`
}

// EventHandler consumes carrier callback events and drives the porting state
// machine with them.
type EventHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	portingService   *porting.Service
	logger           zerolog.Logger
}

// EventHandlerConfig holds configuration for the event handler.
type EventHandlerConfig struct {
	ProjectID        string
	SubscriptionName string
	PortingService   *porting.Service
	Logger           zerolog.Logger
}

// NewEventHandler creates a new carrier event handler.
func NewEventHandler(ctx context.Context, cfg EventHandlerConfig) (*EventHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &EventHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		portingService:   cfg.PortingService,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing carrier events.
func (h *EventHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting carrier event handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *EventHandler) Close() error {
	return h.client.Close()
}

func (h *EventHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received carrier event")

	var event CarrierEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error().Err(err).Msg("failed to parse carrier event")
		msg.Nack()
		return
	}

	if err := h.Apply(ctx, &event); err != nil {
		var transitionErr *porting.IllegalTransitionError
		switch {
		case errors.As(err, &transitionErr):
			// The request already moved past this event, usually because an
			// operator acted first. Redelivery cannot succeed.
			logger.Warn().Err(err).
				Str("request_id", event.RequestID).
				Str("event_type", event.EventType).
				Msg("carrier event no longer applicable, dropping")
			msg.Ack()
		case errors.Is(err, porting.ErrRequestNotFound):
			logger.Warn().
				Str("request_id", event.RequestID).
				Msg("carrier event for unknown request, dropping")
			msg.Ack()
		default:
			logger.Error().Err(err).
				Str("request_id", event.RequestID).
				Str("event_type", event.EventType).
				Msg("carrier event failed")
			msg.Nack()
		}
		return
	}

	logger.Info().
		Str("request_id", event.RequestID).
		Str("event_type", event.EventType).
		Dur("duration", time.Since(startTime)).
		Msg("carrier event applied")

	msg.Ack()
}

// Apply translates one carrier event into a status transition. Unknown event
// types are dropped without error so new aggregator events cannot wedge the
// subscription. Events for requests that already settled (completed,
// cancelled) are dropped too: a late carrier callback must not resurrect a
// request an operator or customer closed.
func (h *EventHandler) Apply(ctx context.Context, event *CarrierEvent) error {
	var (
		target  porting.Status
		message string
	)

	switch event.EventType {
	case EventPortApproved:
		target = porting.StatusApproved
		message = "Port approved by losing carrier"
	case EventPortCompleted:
		target = porting.StatusCompleted
		message = "Port confirmed complete by carrier network"
	case EventPortRejected:
		target = porting.StatusFailed
		message = "Port rejected by losing carrier"
	default:
		h.logger.Warn().Str("event_type", event.EventType).Msg("unknown carrier event type")
		return nil
	}

	detail, err := h.portingService.Get(ctx, event.RequestID)
	if err != nil {
		return err
	}
	if current := detail.Request.Status; current == porting.StatusCompleted || current == porting.StatusCancelled {
		h.logger.Warn().
			Str("request_id", event.RequestID).
			Str("event_type", event.EventType).
			Str("status", string(current)).
			Msg("carrier event for settled request, dropping")
		return nil
	}

	if event.Message != "" {
		message = message + ": " + event.Message
	}

	_, err = h.portingService.UpdateStatus(ctx, event.RequestID, target, message, porting.SystemActor)
	return err
}

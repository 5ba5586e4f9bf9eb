package number

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the number service.
type ServiceConfig struct {
	Numbers Repository
	Configs ConfigRepository
	Logger  zerolog.Logger
}

// Service provides platform number operations, including the activation
// bridge the porting engine drives on port completion.
type Service struct {
	numbers Repository
	configs ConfigRepository
	logger  zerolog.Logger
}

// NewService creates a new number service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		numbers: cfg.Numbers,
		configs: cfg.Configs,
		logger:  cfg.Logger,
	}
}

// Get retrieves a number by ID.
func (s *Service) Get(ctx context.Context, id string) (*Number, error) {
	return s.numbers.Get(ctx, id)
}

// ListForUser returns a page of the user's numbers plus the total count.
func (s *Service) ListForUser(ctx context.Context, userID string, limit, offset int) ([]*Number, int, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.numbers.ListByUser(ctx, userID, limit, offset)
}

// GetRoutingConfig retrieves the routing configuration for a number.
func (s *Service) GetRoutingConfig(ctx context.Context, numberID string) (*RoutingConfig, error) {
	if _, err := s.numbers.Get(ctx, numberID); err != nil {
		return nil, err
	}
	return s.configs.GetByNumber(ctx, numberID)
}

// Release gives up a number: the row is kept for history but its phone
// number leaves the platform and can be ported in again. Releasing an
// already-released number is a no-op.
func (s *Service) Release(ctx context.Context, id string) (*Number, error) {
	n, err := s.numbers.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Status == StatusReleased {
		return n, nil
	}

	released, err := s.numbers.UpdateStatus(ctx, id, StatusReleased)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("number_id", id).
		Str("phone_number", released.PhoneNumber).
		Msg("number released")

	return released, nil
}

// NumberExists reports whether the platform already owns the given number.
// Released numbers do not count; they can be ported in again.
func (s *Service) NumberExists(ctx context.Context, phoneNumber string) (bool, error) {
	n, err := s.numbers.GetByPhoneNumber(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, ErrNumberNotFound) {
			return false, nil
		}
		return false, err
	}
	return n.Status != StatusReleased, nil
}

// ActivatePorted materializes a ported number on the platform: it creates
// the number record, marks it active, and creates its default routing
// configuration. The three steps hit separate tables without a wrapping
// transaction; the caller compensates if any step fails, so a half-created
// record may remain for manual cleanup.
func (s *Service) ActivatePorted(ctx context.Context, userID, phoneNumber string) error {
	now := time.Now()
	n := &Number{
		ID:          "num_" + uuid.New().String()[:22],
		UserID:      userID,
		PhoneNumber: phoneNumber,
		Status:      StatusPending,
		Source:      SourcePorted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.numbers.Create(ctx, n); err != nil {
		return fmt.Errorf("creating number record: %w", err)
	}

	if _, err := s.numbers.Activate(ctx, n.ID, now); err != nil {
		return fmt.Errorf("activating number %s: %w", n.ID, err)
	}

	cfg := DefaultRoutingConfig(n.ID)
	cfg.ID = "cfg_" + uuid.New().String()[:22]
	if err := s.configs.Create(ctx, cfg); err != nil {
		return fmt.Errorf("creating default routing config for %s: %w", n.ID, err)
	}

	s.logger.Info().
		Str("number_id", n.ID).
		Str("phone_number", phoneNumber).
		Str("user_id", userID).
		Msg("ported number activated")

	return nil
}

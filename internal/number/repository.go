package number

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// Repository errors.
var (
	ErrNumberNotFound = errors.New("number not found")
	ErrNumberExists   = errors.New("number already exists")
	ErrConfigNotFound = errors.New("routing configuration not found")
)

// Repository defines persistence for platform-owned numbers.
type Repository interface {
	// Create persists a new number. Returns ErrNumberExists when the
	// phone number is already registered.
	Create(ctx context.Context, n *Number) error

	// Get retrieves a number by ID.
	Get(ctx context.Context, id string) (*Number, error)

	// GetByPhoneNumber retrieves a number by its E.164 value.
	GetByPhoneNumber(ctx context.Context, phoneNumber string) (*Number, error)

	// ListByUser returns a page of the user's numbers, newest first, plus
	// the total count.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Number, int, error)

	// Activate marks a number active as of the given time.
	Activate(ctx context.Context, id string, at time.Time) (*Number, error)

	// UpdateStatus sets the lifecycle status of a number. Moving a number
	// to released frees its phone number for a fresh port-in.
	UpdateStatus(ctx context.Context, id string, status Status) (*Number, error)
}

// ConfigRepository defines persistence for call routing configurations.
type ConfigRepository interface {
	// Create persists a routing configuration.
	Create(ctx context.Context, cfg *RoutingConfig) error

	// GetByNumber retrieves the configuration for a number.
	GetByNumber(ctx context.Context, numberID string) (*RoutingConfig, error)
}

// InMemoryRepository is an in-memory implementation of Repository for tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	numbers map[string]*Number
	byPhone map[string]string // E.164 -> number ID
}

// NewInMemoryRepository creates an empty in-memory number repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		numbers: make(map[string]*Number),
		byPhone: make(map[string]string),
	}
}

// Create persists a new number. Released rows are not indexed by phone
// number, so a phone number that left the platform can be registered again.
func (r *InMemoryRepository) Create(_ context.Context, n *Number) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byPhone[n.PhoneNumber]; ok {
		return ErrNumberExists
	}
	c := *n
	r.numbers[n.ID] = &c
	r.byPhone[n.PhoneNumber] = n.ID
	return nil
}

// Get retrieves a number by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Number, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.numbers[id]
	if !ok {
		return nil, ErrNumberNotFound
	}
	return copyNumber(n), nil
}

// GetByPhoneNumber retrieves a number by its E.164 value.
func (r *InMemoryRepository) GetByPhoneNumber(_ context.Context, phoneNumber string) (*Number, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byPhone[phoneNumber]
	if !ok {
		return nil, ErrNumberNotFound
	}
	return copyNumber(r.numbers[id]), nil
}

// ListByUser returns a page of the user's numbers, newest first.
func (r *InMemoryRepository) ListByUser(_ context.Context, userID string, limit, offset int) ([]*Number, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*Number
	for _, n := range r.numbers {
		if n.UserID == userID {
			all = append(all, n)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	out := make([]*Number, 0, len(all))
	for _, n := range all {
		out = append(out, copyNumber(n))
	}
	return out, total, nil
}

// Activate marks a number active.
func (r *InMemoryRepository) Activate(_ context.Context, id string, at time.Time) (*Number, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.numbers[id]
	if !ok {
		return nil, ErrNumberNotFound
	}
	n.Status = StatusActive
	t := at
	n.ActivatedAt = &t
	n.UpdatedAt = at
	return copyNumber(n), nil
}

// UpdateStatus sets the lifecycle status of a number. Moving to released
// drops the row from the phone-number index so the number can be created
// again by a fresh port-in.
func (r *InMemoryRepository) UpdateStatus(_ context.Context, id string, status Status) (*Number, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.numbers[id]
	if !ok {
		return nil, ErrNumberNotFound
	}
	n.Status = status
	n.UpdatedAt = time.Now()
	if status == StatusReleased && r.byPhone[n.PhoneNumber] == id {
		delete(r.byPhone, n.PhoneNumber)
	}
	return copyNumber(n), nil
}

func copyNumber(n *Number) *Number {
	c := *n
	if n.ActivatedAt != nil {
		t := *n.ActivatedAt
		c.ActivatedAt = &t
	}
	return &c
}

// InMemoryConfigRepository is an in-memory implementation of ConfigRepository.
type InMemoryConfigRepository struct {
	mu       sync.RWMutex
	byNumber map[string]*RoutingConfig
}

// NewInMemoryConfigRepository creates an empty in-memory config repository.
func NewInMemoryConfigRepository() *InMemoryConfigRepository {
	return &InMemoryConfigRepository{byNumber: make(map[string]*RoutingConfig)}
}

// Create persists a routing configuration.
func (r *InMemoryConfigRepository) Create(_ context.Context, cfg *RoutingConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *cfg
	r.byNumber[cfg.NumberID] = &c
	return nil
}

// GetByNumber retrieves the configuration for a number.
func (r *InMemoryConfigRepository) GetByNumber(_ context.Context, numberID string) (*RoutingConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.byNumber[numberID]
	if !ok {
		return nil, ErrConfigNotFound
	}
	c := *cfg
	return &c, nil
}

// Ensure the in-memory implementations satisfy the interfaces.
var (
	_ Repository       = (*InMemoryRepository)(nil)
	_ ConfigRepository = (*InMemoryConfigRepository)(nil)
)

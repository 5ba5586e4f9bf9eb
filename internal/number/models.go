// Package number manages platform-owned phone numbers and their call routing
// configuration. It is the activation side of number porting: when a port
// completes, the ported number becomes a platform number with a default
// routing configuration, indistinguishable from a purchased one.
package number

import "time"

// Status is the lifecycle state of a platform-owned number.
type Status string

// Number statuses.
const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusReleased  Status = "released"
)

// Source records how the platform came to own a number.
type Source string

// Number sources.
const (
	SourcePurchased Source = "purchased"
	SourcePorted    Source = "ported"
)

// Number is a platform-owned phone number.
type Number struct {
	// ID is the unique number identifier (format: num_XXXX).
	ID string

	// UserID is the owning tenant/user.
	UserID string

	// PhoneNumber is the E.164 number.
	PhoneNumber string

	// Status is the current lifecycle state.
	Status Status

	// Source is how the number was acquired.
	Source Source

	// ActivatedAt is when the number went active.
	ActivatedAt *time.Time

	// CreatedAt is when the record was created.
	CreatedAt time.Time

	// UpdatedAt is when the record was last modified.
	UpdatedAt time.Time
}

// RoutingConfig is the call routing configuration for a number.
type RoutingConfig struct {
	// ID is the unique configuration identifier (format: cfg_XXXX).
	ID string

	// NumberID is the owning number.
	NumberID string

	// ForwardTo is an optional E.164 forwarding destination.
	ForwardTo *string

	// VoicemailEnabled routes unanswered calls to voicemail.
	VoicemailEnabled bool

	// RecordCalls enables call recording on the number.
	RecordCalls bool

	// GreetingURL is an optional custom greeting recording.
	GreetingURL *string

	// CreatedAt is when the configuration was created.
	CreatedAt time.Time

	// UpdatedAt is when the configuration was last modified.
	UpdatedAt time.Time
}

// DefaultRoutingConfig returns the configuration a freshly activated number
// starts with: voicemail on, no forwarding, no recording.
func DefaultRoutingConfig(numberID string) *RoutingConfig {
	now := time.Now()
	return &RoutingConfig{
		NumberID:         numberID,
		VoicemailEnabled: true,
		RecordCalls:      false,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

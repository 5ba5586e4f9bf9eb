package models

// Number is the API view of a platform-owned phone number.
type Number struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	PhoneNumber string     `json:"phoneNumber"`
	Status      string     `json:"status"`
	Source      string     `json:"source"`
	ActivatedAt *Timestamp `json:"activatedAt,omitempty"`
	CreatedAt   Timestamp  `json:"createdAt"`
	UpdatedAt   Timestamp  `json:"updatedAt"`
}

// NumberList is a paged list of numbers.
type NumberList struct {
	Numbers []Number `json:"numbers"`
	Meta    PageMeta `json:"meta"`
}

// RoutingConfig is the API view of a number's call routing configuration.
type RoutingConfig struct {
	ID               string    `json:"id"`
	NumberID         string    `json:"numberId"`
	ForwardTo        *string   `json:"forwardTo,omitempty"`
	VoicemailEnabled bool      `json:"voicemailEnabled"`
	RecordCalls      bool      `json:"recordCalls"`
	GreetingURL      *string   `json:"greetingUrl,omitempty"`
	CreatedAt        Timestamp `json:"createdAt"`
	UpdatedAt        Timestamp `json:"updatedAt"`
}

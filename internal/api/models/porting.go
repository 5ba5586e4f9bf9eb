package models

// BillingAddress is the subscriber's billing address with the losing carrier.
type BillingAddress struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	ZipCode string `json:"zipCode" validate:"required"`
	Country string `json:"country,omitempty"`
}

// CreatePortingRequest is the request body for initiating a port.
type CreatePortingRequest struct {
	PhoneNumber    string         `json:"phoneNumber" validate:"required"`
	CurrentCarrier string         `json:"currentCarrier" validate:"required"`
	AccountNumber  string         `json:"accountNumber" validate:"required"`
	PIN            string         `json:"pin" validate:"required"`
	AuthorizedName string         `json:"authorizedName" validate:"required"`
	BillingAddress BillingAddress `json:"billingAddress" validate:"required"`
	Notes          *string        `json:"notes,omitempty"`
}

// PortingRequest is the API view of a porting request. The carrier account
// PIN is deliberately absent: it is write-only through the create endpoint.
type PortingRequest struct {
	ID                  string                `json:"id"`
	UserID              string                `json:"userId"`
	PhoneNumber         string                `json:"phoneNumber"`
	CurrentCarrier      string                `json:"currentCarrier"`
	AccountNumber       string                `json:"accountNumber"`
	AuthorizedName      string                `json:"authorizedName"`
	BillingAddress      BillingAddress        `json:"billingAddress"`
	Status              string                `json:"status"`
	Notes               *string               `json:"notes,omitempty"`
	EstimatedCompletion Timestamp             `json:"estimatedCompletion"`
	ActualCompletion    *Timestamp            `json:"actualCompletion,omitempty"`
	Documents           []PortingDocument     `json:"documents"`
	RecentHistory       []PortingStatusUpdate `json:"recentHistory"`
	CreatedAt           Timestamp             `json:"createdAt"`
	UpdatedAt           Timestamp             `json:"updatedAt"`
}

// PortingRequestList is a paged list of porting requests.
type PortingRequestList struct {
	Requests []PortingRequest `json:"requests"`
	Meta     PageMeta         `json:"meta"`
}

// PortingDocument is the API view of an attached document.
type PortingDocument struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"requestId"`
	Type       string    `json:"type"`
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	UploadedAt Timestamp `json:"uploadedAt"`
}

// AddDocumentRequest is the request body for attaching a document.
type AddDocumentRequest struct {
	Type     string `json:"type" validate:"required,oneof=bill authorization identification other"`
	Filename string `json:"filename" validate:"required"`
	URL      string `json:"url" validate:"required"`
}

// PortingStatusUpdate is one entry in a request's status history.
type PortingStatusUpdate struct {
	ID        string    `json:"id"`
	RequestID string    `json:"requestId"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	UpdatedBy string    `json:"updatedBy"`
	CreatedAt Timestamp `json:"createdAt"`
}

// UpdatePortingStatusRequest is the request body for an admin status change.
type UpdatePortingStatusRequest struct {
	Status  string `json:"status" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// CancelPortingRequest is the request body for cancelling a port.
type CancelPortingRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// UpdatePortingNotesRequest is the request body for replacing operator notes.
type UpdatePortingNotesRequest struct {
	Notes *string `json:"notes"`
}

// ValidatePortingRequest reuses the create body for dry-run validation.
type ValidatePortingRequest = CreatePortingRequest

// PortingValidationResult is the outcome of a dry-run validation.
type PortingValidationResult struct {
	IsValid  bool         `json:"isValid"`
	Errors   []FieldError `json:"errors"`
	Warnings []string     `json:"warnings"`
}

// PortingEstimate is the completion estimate for a prospective port.
type PortingEstimate struct {
	Carrier             string    `json:"carrier"`
	PhoneNumber         string    `json:"phoneNumber"`
	EstimatedDays       int       `json:"estimatedDays"`
	EstimatedCompletion Timestamp `json:"estimatedCompletion"`
	Factors             []string  `json:"factors,omitempty"`
}

// PortingProgress is the five-step display view of a request's position.
type PortingProgress struct {
	CurrentStep         int       `json:"currentStep"`
	TotalSteps          int       `json:"totalSteps"`
	CompletedSteps      []string  `json:"completedSteps"`
	RemainingSteps      []string  `json:"remainingSteps"`
	EstimatedCompletion Timestamp `json:"estimatedCompletion"`
	LastUpdate          Timestamp `json:"lastUpdate"`
}

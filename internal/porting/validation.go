package porting

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// e164Regex matches E.164 numbers: a plus sign followed by 2-15 digits.
var e164Regex = regexp.MustCompile(`^\+\d{2,15}$`)

// CreateInput is the raw data for a new porting request.
type CreateInput struct {
	UserID         string
	PhoneNumber    string
	CurrentCarrier string
	AccountNumber  string
	PIN            string
	AuthorizedName string
	BillingAddress BillingAddress
	Notes          *string
}

// ValidationResult reports every problem found in a submission at once.
// Warnings never block submission.
type ValidationResult struct {
	Valid    bool         `json:"isValid"`
	Errors   []FieldError `json:"errors"`
	Warnings []string     `json:"warnings"`
}

// Validate checks a proposed porting request for structural and
// carrier-specific correctness. Checks are collected, not short-circuited,
// so the caller sees every problem in one pass. The only storage access is
// the platform-number duplicate lookup; an error from that lookup is an
// infrastructure failure, not a validation outcome.
//
// The same logic backs both the dry-run validation endpoint and the
// pre-creation check in Initiate.
func (s *Service) Validate(ctx context.Context, input *CreateInput) (*ValidationResult, error) {
	var errs []FieldError
	var warnings []string

	number := strings.TrimSpace(input.PhoneNumber)
	if number == "" {
		errs = append(errs, FieldError{Field: "phoneNumber", Message: "is required"})
	} else if !e164Regex.MatchString(number) {
		errs = append(errs, FieldError{Field: "phoneNumber", Message: "must be in E.164 format (e.g. +12025551234)"})
	}

	if strings.TrimSpace(input.CurrentCarrier) == "" {
		errs = append(errs, FieldError{Field: "currentCarrier", Message: "is required"})
	}
	if strings.TrimSpace(input.AccountNumber) == "" {
		errs = append(errs, FieldError{Field: "accountNumber", Message: "is required"})
	}
	if strings.TrimSpace(input.PIN) == "" {
		errs = append(errs, FieldError{Field: "pin", Message: "is required"})
	}
	if strings.TrimSpace(input.AuthorizedName) == "" {
		errs = append(errs, FieldError{Field: "authorizedName", Message: "is required"})
	}

	errs = append(errs, validateBillingAddress(&input.BillingAddress)...)

	// A number the platform already owns cannot be ported in again.
	if number != "" && e164Regex.MatchString(number) {
		exists, err := s.bridge.NumberExists(ctx, number)
		if err != nil {
			return nil, fmt.Errorf("checking platform number registry: %w", err)
		}
		if exists {
			errs = append(errs, FieldError{
				Field:   "phoneNumber",
				Message: "this number is already active on the platform",
			})
		}
	}

	policy := s.policies.PolicyFor(input.CurrentCarrier)
	if policy.AccountNumberPattern != nil && strings.TrimSpace(input.AccountNumber) != "" {
		if !policy.AccountNumberPattern.MatchString(strings.TrimSpace(input.AccountNumber)) {
			errs = append(errs, FieldError{Field: "accountNumber", Message: policy.AccountNumberRule})
		}
	}
	warnings = append(warnings, policy.SpecialRequirements...)

	return &ValidationResult{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}, nil
}

// validateBillingAddress requires street, city, state, and zip together.
func validateBillingAddress(addr *BillingAddress) []FieldError {
	var errs []FieldError
	fields := []struct {
		name  string
		value string
	}{
		{"billingAddress.street", addr.Street},
		{"billingAddress.city", addr.City},
		{"billingAddress.state", addr.State},
		{"billingAddress.zipCode", addr.ZipCode},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, FieldError{Field: f.name, Message: "is required"})
		}
	}
	return errs
}

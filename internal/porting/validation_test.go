package porting_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numport/numport/internal/porting"
)

func TestValidate_ValidInput(t *testing.T) {
	svc, _, _ := newTestEngine(t)

	result, err := svc.Validate(context.Background(), validInput())

	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidate_CollectsAllMissingFields(t *testing.T) {
	svc, _, _ := newTestEngine(t)

	result, err := svc.Validate(context.Background(), &porting.CreateInput{UserID: "usr_1"})

	require.NoError(t, err)
	assert.False(t, result.Valid)

	fields := make(map[string]bool)
	for _, fe := range result.Errors {
		fields[fe.Field] = true
	}
	for _, want := range []string{
		"phoneNumber", "currentCarrier", "accountNumber", "pin", "authorizedName",
		"billingAddress.street", "billingAddress.city", "billingAddress.state", "billingAddress.zipCode",
	} {
		assert.True(t, fields[want], "expected a field error for %s", want)
	}
}

func TestValidate_PhoneNumberFormat(t *testing.T) {
	svc, _, _ := newTestEngine(t)

	tests := []struct {
		name   string
		number string
		valid  bool
	}{
		{"e164", "+12025551234", true},
		{"short country code", "+31", true},
		{"fifteen digits", "+123456789012345", true},
		{"missing plus", "12025551234", false},
		{"single digit", "+1", false},
		{"sixteen digits", "+1234567890123456", false},
		{"letters", "+1202555abcd", false},
		{"dashes", "+1-202-555-1234", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			input.PhoneNumber = tt.number

			result, err := svc.Validate(context.Background(), input)
			require.NoError(t, err)

			if tt.valid {
				assert.True(t, result.Valid)
			} else {
				assert.False(t, result.Valid)
				require.Len(t, result.Errors, 1)
				assert.Equal(t, "phoneNumber", result.Errors[0].Field)
			}
		})
	}
}

func TestValidate_BillingAddressRequiresAllFourFields(t *testing.T) {
	svc, _, _ := newTestEngine(t)

	input := validInput()
	input.BillingAddress = porting.BillingAddress{Street: "100 Main St", City: "Washington"}

	result, err := svc.Validate(context.Background(), input)

	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "billingAddress.state", result.Errors[0].Field)
	assert.Equal(t, "billingAddress.zipCode", result.Errors[1].Field)
}

func TestValidate_CarrierAccountNumberRule(t *testing.T) {
	svc, _, _ := newTestEngine(t)

	input := validInput()
	input.CurrentCarrier = "Verizon"
	input.AccountNumber = "12"

	result, err := svc.Validate(context.Background(), input)

	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "accountNumber", result.Errors[0].Field)
	assert.Contains(t, result.Errors[0].Message, "9-12 digits")
}

func TestValidate_CarrierWarningsDoNotBlock(t *testing.T) {
	svc, _, _ := newTestEngine(t)

	input := validInput()
	input.CurrentCarrier = "T-Mobile"
	input.AccountNumber = "1234567"

	result, err := svc.Validate(context.Background(), input)

	require.NoError(t, err)
	assert.True(t, result.Valid)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "transfer PIN")
}

func TestValidate_PlatformOwnedNumberRejected(t *testing.T) {
	svc, bridge, _ := newTestEngine(t)
	bridge.exists = true

	result, err := svc.Validate(context.Background(), validInput())

	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "phoneNumber", result.Errors[0].Field)
	assert.Contains(t, result.Errors[0].Message, "already active")
}

func TestValidate_RegistryLookupSkippedForMalformedNumber(t *testing.T) {
	svc, bridge, _ := newTestEngine(t)
	bridge.existsErr = errors.New("registry down")

	input := validInput()
	input.PhoneNumber = "not-a-number"

	// The registry is never consulted for a number that already failed the
	// format check, so its outage does not surface here.
	result, err := svc.Validate(context.Background(), input)

	require.NoError(t, err)
	assert.False(t, result.Valid)
}

func TestValidate_RegistryErrorIsInfrastructureFailure(t *testing.T) {
	svc, bridge, _ := newTestEngine(t)
	bridge.existsErr = errors.New("registry down")

	result, err := svc.Validate(context.Background(), validInput())

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "registry")
}

package porting_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numport/numport/internal/porting"
)

func TestStaticPolicyProvider_KnownCarriers(t *testing.T) {
	provider := porting.NewStaticPolicyProvider()

	tests := []struct {
		carrier       string
		estimatedDays int
		docCount      int
		warnings      int
	}{
		{"Verizon", 3, 2, 0},
		{"AT&T", 5, 2, 1},
		{"T-Mobile", 3, 2, 1},
		{"Sprint", 5, 3, 0},
		{"US Cellular", 7, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.carrier, func(t *testing.T) {
			policy := provider.PolicyFor(tt.carrier)

			assert.Equal(t, tt.estimatedDays, policy.EstimatedDays)
			assert.Len(t, policy.RequiredDocuments, tt.docCount)
			assert.Len(t, policy.SpecialRequirements, tt.warnings)
		})
	}
}

func TestStaticPolicyProvider_UnknownCarrierFallsBack(t *testing.T) {
	provider := porting.NewStaticPolicyProvider()

	policy := provider.PolicyFor("Ting Mobile")

	assert.Equal(t, 7, policy.EstimatedDays)
	assert.Equal(t, []porting.DocumentType{porting.DocumentBill, porting.DocumentAuthorization},
		policy.RequiredDocuments)
	assert.Nil(t, policy.AccountNumberPattern)
}

func TestStaticPolicyProvider_NormalizesCarrierNames(t *testing.T) {
	provider := porting.NewStaticPolicyProvider()

	for _, name := range []string{"verizon", "VERIZON", "  Verizon  ", "vErIzOn"} {
		policy := provider.PolicyFor(name)
		assert.Equal(t, 3, policy.EstimatedDays, "carrier name %q should resolve to Verizon", name)
	}

	// Interior whitespace collapses too.
	policy := provider.PolicyFor("US  Cellular")
	assert.Equal(t, 7, policy.EstimatedDays)
}

func TestStaticPolicyProvider_VerizonAccountNumberRule(t *testing.T) {
	provider := porting.NewStaticPolicyProvider()
	policy := provider.PolicyFor("Verizon")

	require.NotNil(t, policy.AccountNumberPattern)
	assert.True(t, policy.AccountNumberPattern.MatchString("123456789"))
	assert.True(t, policy.AccountNumberPattern.MatchString("123456789012"))
	assert.False(t, policy.AccountNumberPattern.MatchString("12345678"))
	assert.False(t, policy.AccountNumberPattern.MatchString("1234567890123"))
	assert.False(t, policy.AccountNumberPattern.MatchString("12345678a"))
	assert.NotEmpty(t, policy.AccountNumberRule)
}

func TestEstimator_BaselineFromPolicy(t *testing.T) {
	estimator := porting.NewEstimator(porting.EstimatorConfig{
		Policies: porting.NewStaticPolicyProvider(),
	})
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	estimate := estimator.EstimateCompletion("Verizon", "+12025551234", now)

	assert.Equal(t, 3, estimate.Days)
	assert.Equal(t, now.AddDate(0, 0, 3), estimate.CompletesAt)
	assert.Empty(t, estimate.Factors)
}

func TestEstimator_BusinessNumberAddsADay(t *testing.T) {
	estimator := porting.NewEstimator(porting.EstimatorConfig{
		Policies:         porting.NewStaticPolicyProvider(),
		IsBusinessNumber: func(string) bool { return true },
	})
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	estimate := estimator.EstimateCompletion("Verizon", "+12025551234", now)

	assert.Equal(t, 4, estimate.Days)
	require.Len(t, estimate.Factors, 1)
	assert.Contains(t, estimate.Factors[0], "business")
}

func TestEstimator_ComplexCarrierAddsTwoDays(t *testing.T) {
	estimator := porting.NewEstimator(porting.EstimatorConfig{
		Policies: porting.NewStaticPolicyProvider(),
	})
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		carrier string
		days    int
	}{
		{"AT&T", 7},     // 5 baseline + 2 complex
		{"Comcast", 9},  // 7 default + 2 complex
		{"Spectrum", 9}, // 7 default + 2 complex
	}

	for _, tt := range tests {
		t.Run(tt.carrier, func(t *testing.T) {
			estimate := estimator.EstimateCompletion(tt.carrier, "+12025551234", now)

			assert.Equal(t, tt.days, estimate.Days)
			require.Len(t, estimate.Factors, 1)
			assert.Contains(t, estimate.Factors[0], "2 extra days")
		})
	}
}

func TestEstimator_FactorsStack(t *testing.T) {
	estimator := porting.NewEstimator(porting.EstimatorConfig{
		Policies:         porting.NewStaticPolicyProvider(),
		IsBusinessNumber: func(string) bool { return true },
	})
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	// AT&T business line: 5 baseline + 1 business + 2 complex.
	estimate := estimator.EstimateCompletion("AT&T", "+12025551234", now)

	assert.Equal(t, 8, estimate.Days)
	assert.Len(t, estimate.Factors, 2)
	assert.Equal(t, now.AddDate(0, 0, 8), estimate.CompletesAt)
}

func TestEstimator_CustomComplexCarriers(t *testing.T) {
	estimator := porting.NewEstimator(porting.EstimatorConfig{
		Policies:        porting.NewStaticPolicyProvider(),
		ComplexCarriers: []string{"Frontier"},
	})
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 9, estimator.EstimateCompletion("Frontier", "+12025551234", now).Days)
	// The default complex list is replaced, not extended.
	assert.Equal(t, 5, estimator.EstimateCompletion("AT&T", "+12025551234", now).Days)
}

func TestStatus_Active(t *testing.T) {
	assert.True(t, porting.StatusSubmitted.Active())
	assert.True(t, porting.StatusProcessing.Active())
	assert.True(t, porting.StatusApproved.Active())
	assert.False(t, porting.StatusCompleted.Active())
	assert.False(t, porting.StatusFailed.Active())
	assert.False(t, porting.StatusCancelled.Active())
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, porting.StatusSubmitted.Terminal())
	assert.False(t, porting.StatusProcessing.Terminal())
	assert.False(t, porting.StatusApproved.Terminal())
	assert.True(t, porting.StatusCompleted.Terminal())
	assert.True(t, porting.StatusFailed.Terminal())
	assert.True(t, porting.StatusCancelled.Terminal())
}

func TestValidStatus(t *testing.T) {
	for _, s := range []porting.Status{
		porting.StatusSubmitted, porting.StatusProcessing, porting.StatusApproved,
		porting.StatusCompleted, porting.StatusFailed, porting.StatusCancelled,
	} {
		assert.True(t, porting.ValidStatus(s))
	}
	assert.False(t, porting.ValidStatus("pending"))
	assert.False(t, porting.ValidStatus(""))
}

func TestValidDocumentType(t *testing.T) {
	for _, d := range []porting.DocumentType{
		porting.DocumentBill, porting.DocumentAuthorization,
		porting.DocumentIdentification, porting.DocumentOther,
	} {
		assert.True(t, porting.ValidDocumentType(d))
	}
	assert.False(t, porting.ValidDocumentType("selfie"))
}

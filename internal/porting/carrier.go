package porting

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// CarrierPolicy describes how a losing carrier handles port-out requests.
type CarrierPolicy struct {
	// EstimatedDays is the carrier's baseline porting duration.
	EstimatedDays int

	// RequiredDocuments lists the document types the carrier expects.
	RequiredDocuments []DocumentType

	// SpecialRequirements are surfaced to the user as warnings; they never
	// block submission.
	SpecialRequirements []string

	// AccountNumberPattern, when set, is a hard structural rule for the
	// carrier account number.
	AccountNumberPattern *regexp.Regexp

	// AccountNumberRule is the human-readable form of the pattern.
	AccountNumberRule string
}

// PolicyProvider resolves per-carrier porting policy. Implementations must
// normalize carrier names case- and space-insensitively.
type PolicyProvider interface {
	PolicyFor(carrier string) CarrierPolicy
}

// DefaultPolicy is the conservative fallback for carriers without a table
// entry: 7 days, bill plus signed authorization.
func DefaultPolicy() CarrierPolicy {
	return CarrierPolicy{
		EstimatedDays:     7,
		RequiredDocuments: []DocumentType{DocumentBill, DocumentAuthorization},
	}
}

// StaticPolicyProvider is the built-in policy table.
type StaticPolicyProvider struct {
	policies map[string]CarrierPolicy
}

// NewStaticPolicyProvider creates a provider seeded with the known major
// carriers.
func NewStaticPolicyProvider() *StaticPolicyProvider {
	return &StaticPolicyProvider{
		policies: map[string]CarrierPolicy{
			"verizon": {
				EstimatedDays:        3,
				RequiredDocuments:    []DocumentType{DocumentBill, DocumentAuthorization},
				AccountNumberPattern: regexp.MustCompile(`^\d{9,12}$`),
				AccountNumberRule:    "Verizon account numbers must be 9-12 digits",
			},
			"at&t": {
				EstimatedDays:     5,
				RequiredDocuments: []DocumentType{DocumentBill, DocumentAuthorization},
				SpecialRequirements: []string{
					"AT&T requires the account to be active for at least 30 days before porting",
				},
			},
			"t-mobile": {
				EstimatedDays:     3,
				RequiredDocuments: []DocumentType{DocumentBill, DocumentAuthorization},
				SpecialRequirements: []string{
					"T-Mobile issues a temporary transfer PIN; the account PIN will not work",
				},
			},
			"sprint": {
				EstimatedDays:     5,
				RequiredDocuments: []DocumentType{DocumentBill, DocumentAuthorization, DocumentIdentification},
			},
			"us cellular": {
				EstimatedDays:     7,
				RequiredDocuments: []DocumentType{DocumentBill, DocumentAuthorization},
			},
		},
	}
}

// PolicyFor returns the policy for the named carrier, or DefaultPolicy for
// unknown carriers.
func (p *StaticPolicyProvider) PolicyFor(carrier string) CarrierPolicy {
	if policy, ok := p.policies[normalizeCarrier(carrier)]; ok {
		return policy
	}
	return DefaultPolicy()
}

// normalizeCarrier lowercases and collapses interior whitespace so lookups
// tolerate user-typed carrier names.
func normalizeCarrier(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

var _ PolicyProvider = (*StaticPolicyProvider)(nil)

// Estimate is the predicted porting duration with the factors that shaped it.
// Factors are informational only and never affect status logic.
type Estimate struct {
	Days        int
	CompletesAt time.Time
	Factors     []string
}

// EstimatorConfig holds configuration for the completion estimator.
type EstimatorConfig struct {
	Policies PolicyProvider

	// IsBusinessNumber classifies a number as a business line, which adds a
	// day for extra carrier verification. Nil means never.
	IsBusinessNumber func(e164 string) bool

	// ComplexCarriers override the default list of carriers known for slow
	// port-out handling, which adds two days.
	ComplexCarriers []string
}

// Estimator computes completion estimates from carrier policy plus
// situational adjustments.
type Estimator struct {
	policies        PolicyProvider
	isBusiness      func(string) bool
	complexCarriers map[string]bool
}

// defaultComplexCarriers are known for slow or manual port-out handling.
var defaultComplexCarriers = []string{"at&t", "comcast", "spectrum"}

// NewEstimator creates a completion estimator.
func NewEstimator(cfg EstimatorConfig) *Estimator {
	complex := cfg.ComplexCarriers
	if complex == nil {
		complex = defaultComplexCarriers
	}
	set := make(map[string]bool, len(complex))
	for _, c := range complex {
		set[normalizeCarrier(c)] = true
	}

	return &Estimator{
		policies:        cfg.Policies,
		isBusiness:      cfg.IsBusinessNumber,
		complexCarriers: set,
	}
}

// EstimateCompletion predicts how long a port from the given carrier will
// take, starting from the policy baseline and applying business-number and
// complex-carrier adjustments.
func (e *Estimator) EstimateCompletion(carrier, phoneNumber string, now time.Time) Estimate {
	policy := e.policies.PolicyFor(carrier)
	days := policy.EstimatedDays
	var factors []string

	if e.isBusiness != nil && e.isBusiness(phoneNumber) {
		days++
		factors = append(factors, "business numbers require an extra day of carrier verification")
	}

	if e.complexCarriers[normalizeCarrier(carrier)] {
		days += 2
		factors = append(factors, fmt.Sprintf("%s ports typically take 2 extra days", carrier))
	}

	return Estimate{
		Days:        days,
		CompletesAt: now.AddDate(0, 0, days),
		Factors:     factors,
	}
}

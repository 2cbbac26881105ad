// Package risk computes composite transaction risk scores and enforces
// velocity limits.
package risk

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/solapay/compliance-engine/internal/domain/compliance"
)

// Component weights for the composite score. They sum to 1.0 so the
// composite stays on the 0-100 scale of its inputs.
const (
	weightKYC         = 0.25
	weightSanctions   = 0.30
	weightTransaction = 0.20
	weightGeographic  = 0.15
	weightVelocity    = 0.10
)

const (
	kycUnverifiedScore    = 30
	velocityExceededScore = 20
	largeAmountThreshold  = 10000
	transactionScoreCap   = 40
	highRiskCountryScore  = 50
)

// Named factor identifiers recorded on the check so reviewers and downstream
// casework see why a score moved, not just by how much.
const (
	FactorUnverifiedKYC        = "unverified_kyc"
	FactorSanctionsMatch       = "sanctions_match"
	FactorHighValueTransaction = "high_value_transaction"
	FactorHighRiskCountry      = "high_risk_country"
	FactorVelocityExceeded     = "velocity_exceeded"
	FactorElevatedRiskScore    = "elevated_risk_score"
)

// ScoreInput carries the per-component signals for one transaction
type ScoreInput struct {
	KYCVerified      bool
	SanctionsMatches []compliance.SanctionMatch
	Amount           decimal.Decimal
	CountryRisk      int
	VelocityExceeded bool
}

// Factors is the per-component breakdown retained on the check record so
// reviewers can see what drove a score.
type Factors struct {
	KYC         int `json:"kyc"`
	Sanctions   int `json:"sanctions"`
	Transaction int `json:"transaction"`
	Geographic  int `json:"geographic"`
	Velocity    int `json:"velocity"`
}

// Assessment is a computed composite score with its breakdown
type Assessment struct {
	Score   int                  `json:"score"`
	Level   compliance.RiskLevel `json:"level"`
	Factors Factors              `json:"factors"`
	// RiskFactors are the named signals that contributed, e.g. unverified_kyc.
	RiskFactors []string `json:"risk_factors,omitempty"`
}

// Scorer combines component risk signals into a weighted 0-100 composite.
// It is pure and safe for concurrent use.
type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

// Assess computes the weighted composite score and its discrete level
func (s *Scorer) Assess(in ScoreInput) Assessment {
	factors := Factors{
		KYC:         kycFactor(in.KYCVerified),
		Sanctions:   sanctionsFactor(in.SanctionsMatches),
		Transaction: transactionFactor(in.Amount),
		Geographic:  clampFactor(in.CountryRisk),
		Velocity:    velocityFactor(in.VelocityExceeded),
	}

	weighted := weightKYC*float64(factors.KYC) +
		weightSanctions*float64(factors.Sanctions) +
		weightTransaction*float64(factors.Transaction) +
		weightGeographic*float64(factors.Geographic) +
		weightVelocity*float64(factors.Velocity)

	score := clampFactor(int(math.Round(weighted)))

	return Assessment{
		Score:       score,
		Level:       compliance.RiskLevelFromScore(score),
		Factors:     factors,
		RiskFactors: namedFactors(in),
	}
}

func namedFactors(in ScoreInput) []string {
	var named []string
	if !in.KYCVerified {
		named = append(named, FactorUnverifiedKYC)
	}
	if len(in.SanctionsMatches) > 0 {
		named = append(named, FactorSanctionsMatch)
	}
	if in.Amount.GreaterThan(decimal.NewFromInt(largeAmountThreshold)) {
		named = append(named, FactorHighValueTransaction)
	}
	if in.CountryRisk >= highRiskCountryScore {
		named = append(named, FactorHighRiskCountry)
	}
	if in.VelocityExceeded {
		named = append(named, FactorVelocityExceeded)
	}
	return named
}

func kycFactor(verified bool) int {
	if verified {
		return 0
	}
	return kycUnverifiedScore
}

func sanctionsFactor(matches []compliance.SanctionMatch) int {
	return clampFactor(int(math.Round(compliance.MaxMatchScore(matches) * 100)))
}

// transactionFactor scales amount risk linearly above the large-amount
// threshold: 20 points per multiple of the threshold, capped at 40.
func transactionFactor(amount decimal.Decimal) int {
	threshold := decimal.NewFromInt(largeAmountThreshold)
	if amount.LessThanOrEqual(threshold) {
		return 0
	}
	scaled := amount.Div(threshold).InexactFloat64() * 20
	score := int(math.Round(scaled))
	if score > transactionScoreCap {
		return transactionScoreCap
	}
	return score
}

func velocityFactor(exceeded bool) int {
	if exceeded {
		return velocityExceededScore
	}
	return 0
}

func clampFactor(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

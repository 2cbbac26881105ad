package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/solapay/compliance-engine/internal/domain/compliance"
)

func TestAssess_CleanTransaction(t *testing.T) {
	got := NewScorer().Assess(ScoreInput{
		KYCVerified: true,
		Amount:      decimal.NewFromInt(500),
		CountryRisk: 10,
	})

	assert.Equal(t, Factors{Geographic: 10}, got.Factors)
	// 0.15 * 10 = 1.5, rounds to 2.
	assert.Equal(t, 2, got.Score)
	assert.Equal(t, compliance.RiskLevelLow, got.Level)
	assert.Empty(t, got.RiskFactors)
}

func TestAssess_UnverifiedKYC(t *testing.T) {
	got := NewScorer().Assess(ScoreInput{
		KYCVerified: false,
		Amount:      decimal.NewFromInt(100),
		CountryRisk: 10,
	})

	assert.Equal(t, 30, got.Factors.KYC)
	// 0.25*30 + 0.15*10 = 9.
	assert.Equal(t, 9, got.Score)
	assert.Equal(t, []string{FactorUnverifiedKYC}, got.RiskFactors)
}

func TestAssess_SanctionsDominates(t *testing.T) {
	got := NewScorer().Assess(ScoreInput{
		KYCVerified: true,
		SanctionsMatches: []compliance.SanctionMatch{
			{MatchScore: 0.87},
			{MatchScore: 0.95},
		},
		Amount:      decimal.NewFromInt(100),
		CountryRisk: 10,
	})

	// Strongest match wins: round(0.95*100) = 95.
	assert.Equal(t, 95, got.Factors.Sanctions)
	// 0.30*95 + 0.15*10 = 30.
	assert.Equal(t, 30, got.Score)
	assert.Equal(t, compliance.RiskLevelMedium, got.Level)
}

func TestTransactionFactor(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   int
	}{
		{"at threshold scores zero", "10000", 0},
		{"just above threshold", "10001", 20},
		{"fifteen thousand", "15000", 30},
		{"cap reached at double threshold", "20000", 40},
		{"far above stays capped", "1000000", 40},
		{"small amount", "250.50", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transactionFactor(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestAssess_AllSignalsElevated(t *testing.T) {
	got := NewScorer().Assess(ScoreInput{
		KYCVerified:      false,
		SanctionsMatches: []compliance.SanctionMatch{{MatchScore: 1.0}},
		Amount:           decimal.NewFromInt(50000),
		CountryRisk:      100,
		VelocityExceeded: true,
	})

	assert.Equal(t, Factors{KYC: 30, Sanctions: 100, Transaction: 40, Geographic: 100, Velocity: 20}, got.Factors)
	// 7.5 + 30 + 8 + 15 + 2 = 62.5, rounds to 63.
	assert.Equal(t, 63, got.Score)
	assert.Equal(t, compliance.RiskLevelHigh, got.Level)
	assert.Equal(t, []string{
		FactorUnverifiedKYC,
		FactorSanctionsMatch,
		FactorHighValueTransaction,
		FactorHighRiskCountry,
		FactorVelocityExceeded,
	}, got.RiskFactors)
}

func TestAssess_LevelBoundaries(t *testing.T) {
	assert.Equal(t, compliance.RiskLevelLow, compliance.RiskLevelFromScore(24))
	assert.Equal(t, compliance.RiskLevelMedium, compliance.RiskLevelFromScore(25))
	assert.Equal(t, compliance.RiskLevelMedium, compliance.RiskLevelFromScore(49))
	assert.Equal(t, compliance.RiskLevelHigh, compliance.RiskLevelFromScore(50))
	assert.Equal(t, compliance.RiskLevelHigh, compliance.RiskLevelFromScore(74))
	assert.Equal(t, compliance.RiskLevelCritical, compliance.RiskLevelFromScore(75))
}

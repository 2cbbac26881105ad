package screening

import "strings"

// defaultCountryRisk maps ISO 3166-1 alpha-2 codes to a 0-100 risk score.
// Comprehensively sanctioned jurisdictions sit at the top, FATF grey-list and
// high-corruption jurisdictions in the middle band.
var defaultCountryRisk = map[string]int{
	// Comprehensive sanctions
	"IR": 100, "KP": 100, "SY": 95, "CU": 90, "VE": 85,
	// High risk
	"AF": 80, "MM": 80, "YE": 75, "LY": 75, "SO": 75, "SS": 70,
	"RU": 70, "BY": 65, "IQ": 60, "HT": 60,
	// Elevated / grey list
	"NG": 45, "PK": 45, "AE": 40, "TR": 40, "PH": 40, "PA": 40,
	"KE": 35, "ZA": 35, "VN": 35, "MX": 35,
	// Low risk
	"US": 10, "GB": 10, "DE": 10, "FR": 10, "NL": 10, "CH": 10,
	"CA": 10, "AU": 10, "JP": 10, "SG": 15, "KR": 15,
}

const (
	unknownCountryRisk = 50
	highRiskFloor      = 50
)

// CountryRiskAssessor scores jurisdiction risk for the geographic pipeline
// stage. Unknown or missing country codes are treated as medium risk rather
// than clean.
type CountryRiskAssessor struct {
	scores map[string]int
}

// NewCountryRiskAssessor builds an assessor with the default table plus any
// overrides, which take precedence per country code.
func NewCountryRiskAssessor(overrides map[string]int) *CountryRiskAssessor {
	scores := make(map[string]int, len(defaultCountryRisk)+len(overrides))
	for code, score := range defaultCountryRisk {
		scores[code] = score
	}
	for code, score := range overrides {
		scores[strings.ToUpper(strings.TrimSpace(code))] = score
	}
	return &CountryRiskAssessor{scores: scores}
}

// Score returns the risk score for a country code
func (a *CountryRiskAssessor) Score(code string) int {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return unknownCountryRisk
	}
	if score, ok := a.scores[normalized]; ok {
		return score
	}
	return unknownCountryRisk
}

// IsHighRisk reports whether the country's score meets the high-risk floor
func (a *CountryRiskAssessor) IsHighRisk(code string) bool {
	return a.Score(code) >= highRiskFloor
}

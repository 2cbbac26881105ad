package compliance

import (
	"github.com/solapay/compliance-engine/internal/domain/values"
)

// MatchType describes how a screening query matched a watchlist entry
type MatchType string

const (
	MatchTypeExact      MatchType = "exact"
	MatchTypeFuzzy      MatchType = "fuzzy"
	MatchTypeAlias      MatchType = "alias"
	MatchTypeAliasFuzzy MatchType = "alias_fuzzy"
)

// SanctionMatch is one watchlist hit produced by the screener. Score is a
// similarity in [0,1]; 1.0 is an exact (case-insensitive) name or alias match.
type SanctionMatch struct {
	ListSource values.ListSource `json:"list_source"`
	SanctionID string            `json:"sanction_id"`
	EntityName string            `json:"entity_name"`
	MatchName  string            `json:"match_name"`
	MatchScore float64           `json:"match_score"`
	MatchType  MatchType         `json:"match_type"`
	Program    string            `json:"program,omitempty"`
	Country    string            `json:"country,omitempty"`
	Aliases    []string          `json:"aliases,omitempty"`
}

// IsExact reports whether the match was a full name or alias equality
func (m SanctionMatch) IsExact() bool {
	return m.MatchType == MatchTypeExact || m.MatchType == MatchTypeAlias
}

// MaxMatchScore returns the strongest score in a match set, 0 when empty
func MaxMatchScore(matches []SanctionMatch) float64 {
	max := 0.0
	for _, m := range matches {
		if m.MatchScore > max {
			max = m.MatchScore
		}
	}
	return max
}

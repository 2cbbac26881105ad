package values

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/solapay/compliance-engine/internal/domain/errors"
)

// ListSource identifies which sanctions watchlist a screening entry came from
type ListSource struct {
	source string
}

// Supported list sources
const (
	ListSourceOFAC     = "ofac"
	ListSourceUN       = "un"
	ListSourceEU       = "eu"
	ListSourceUK       = "uk"
	ListSourceInterpol = "interpol"
	ListSourceCustom   = "custom"
)

var (
	sourceDisplayNames = map[string]string{
		ListSourceOFAC:     "US OFAC SDN List",
		ListSourceUN:       "UN Security Council Consolidated List",
		ListSourceEU:       "EU Consolidated Sanctions List",
		ListSourceUK:       "UK HM Treasury Sanctions List",
		ListSourceInterpol: "Interpol Notices",
		ListSourceCustom:   "Organization Blocklist",
	}

	supportedSources = map[string]bool{
		ListSourceOFAC:     true,
		ListSourceUN:       true,
		ListSourceEU:       true,
		ListSourceUK:       true,
		ListSourceInterpol: true,
		ListSourceCustom:   true,
	}

	// Government-maintained lists carry regulatory weight; custom lists are
	// organization policy only.
	regulatorySources = map[string]bool{
		ListSourceOFAC: true,
		ListSourceUN:   true,
		ListSourceEU:   true,
		ListSourceUK:   true,
	}
)

// NewListSource creates a new ListSource value object with validation
func NewListSource(source string) (ListSource, error) {
	if source == "" {
		return ListSource{}, errors.NewValidationError("EMPTY_LIST_SOURCE",
			"list source cannot be empty")
	}

	normalized := strings.ToLower(strings.TrimSpace(source))

	if !supportedSources[normalized] {
		return ListSource{}, errors.NewValidationError("UNSUPPORTED_LIST_SOURCE",
			fmt.Sprintf("list source '%s' is not supported", source))
	}

	return ListSource{source: normalized}, nil
}

// MustNewListSource creates ListSource and panics on error (for constants/tests)
func MustNewListSource(source string) ListSource {
	ls, err := NewListSource(source)
	if err != nil {
		panic(err)
	}
	return ls
}

// Standard list sources
func OFACListSource() ListSource {
	return MustNewListSource(ListSourceOFAC)
}

func UNListSource() ListSource {
	return MustNewListSource(ListSourceUN)
}

func EUListSource() ListSource {
	return MustNewListSource(ListSourceEU)
}

func CustomListSource() ListSource {
	return MustNewListSource(ListSourceCustom)
}

// DefaultScreeningSources returns the lists screened for every transaction
// when an organization has not narrowed the set.
func DefaultScreeningSources() []ListSource {
	return []ListSource{OFACListSource(), UNListSource(), EUListSource()}
}

// String returns the source string
func (ls ListSource) String() string {
	return ls.source
}

// Value returns the underlying source value
func (ls ListSource) Value() string {
	return ls.source
}

// IsValid checks if the list source is valid
func (ls ListSource) IsValid() bool {
	return ls.source != "" && supportedSources[ls.source]
}

// DisplayName returns a human-readable name for the list
func (ls ListSource) DisplayName() string {
	if name, ok := sourceDisplayNames[ls.source]; ok {
		return name
	}
	return ls.source
}

// IsRegulatory reports whether matches from this list carry regulatory weight
func (ls ListSource) IsRegulatory() bool {
	return regulatorySources[ls.source]
}

// MarshalJSON implements json.Marshaler
func (ls ListSource) MarshalJSON() ([]byte, error) {
	return json.Marshal(ls.source)
}

// UnmarshalJSON implements json.Unmarshaler
func (ls *ListSource) UnmarshalJSON(data []byte) error {
	var source string
	if err := json.Unmarshal(data, &source); err != nil {
		return err
	}

	parsed, err := NewListSource(source)
	if err != nil {
		return err
	}

	*ls = parsed
	return nil
}

// DatabaseValue implements driver.Valuer for database storage
func (ls ListSource) DatabaseValue() (driver.Value, error) {
	return ls.source, nil
}

// Scan implements sql.Scanner for database retrieval
func (ls *ListSource) Scan(value interface{}) error {
	if value == nil {
		return errors.NewValidationError("NULL_LIST_SOURCE", "list source cannot be null")
	}

	source, ok := value.(string)
	if !ok {
		return errors.NewValidationError("INVALID_LIST_SOURCE_TYPE",
			fmt.Sprintf("cannot scan %T into ListSource", value))
	}

	parsed, err := NewListSource(source)
	if err != nil {
		return err
	}

	*ls = parsed
	return nil
}

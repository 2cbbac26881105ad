package screening

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/solapay/compliance-engine/internal/domain/compliance"
	"github.com/solapay/compliance-engine/internal/domain/values"
	"github.com/solapay/compliance-engine/internal/metrics"
)

// Alert describes a screening operations event worth paging on, such as a
// dataset reload failure. Consumers wire it to their alerting pipeline.
type Alert struct {
	Severity string
	Message  string
	Err      error
	At       time.Time
}

// AlertFunc receives operational alerts. It must not block.
type AlertFunc func(Alert)

// Screener screens names and countries against the active sanctions dataset.
// The dataset is swapped atomically on reload, so screening calls never see a
// partially updated snapshot and never block behind a reload.
type Screener struct {
	dataset atomic.Pointer[Dataset]
	loader  Loader
	logger  *zap.Logger
	alert   AlertFunc
}

// ScreenerOption configures a Screener
type ScreenerOption func(*Screener)

// WithLoader wires the loader used by Reload
func WithLoader(l Loader) ScreenerOption {
	return func(s *Screener) { s.loader = l }
}

// WithAlertFunc wires the operational alert hook
func WithAlertFunc(fn AlertFunc) ScreenerOption {
	return func(s *Screener) { s.alert = fn }
}

// NewScreener builds a screener serving the given initial dataset
func NewScreener(initial *Dataset, logger *zap.Logger, opts ...ScreenerOption) *Screener {
	if initial == nil {
		initial = BuiltinDataset()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Screener{logger: logger}
	s.dataset.Store(initial)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Screen checks a name against the requested list sources and returns every
// match at or above the threshold, strongest first. Exact name and alias hits
// always score 1.0; fuzzy hits score normalized edit-distance similarity.
// Ties keep dataset order, so results are deterministic for a given snapshot.
func (s *Screener) Screen(name string, sources []values.ListSource, threshold float64) []compliance.SanctionMatch {
	query := strings.ToUpper(strings.TrimSpace(name))
	if query == "" {
		return nil
	}
	if len(sources) == 0 {
		sources = values.DefaultScreeningSources()
	}

	ds := s.dataset.Load()
	var matches []compliance.SanctionMatch

	for _, source := range sources {
		entries := ds.Entries(source)
		if len(entries) == 0 {
			continue
		}

		// Exact name and alias equality run over every entry; they are a
		// map-speed comparison and must never miss.
		hit := make(map[int]struct{})
		for ordinal, entry := range entries {
			match, ok := equalityMatch(query, entry)
			if !ok {
				continue
			}
			hit[ordinal] = struct{}{}
			match.ListSource = source
			matches = append(matches, match)
			metrics.SanctionsMatches.WithLabelValues(source.Value(), string(match.MatchType)).Inc()
		}

		// Edit-distance similarity only runs for entries sharing a trigram
		// with the query, which bounds the expensive scoring on a
		// production-size list.
		for _, ordinal := range ds.candidates(source, query) {
			if _, done := hit[ordinal]; done {
				continue
			}
			match, ok := fuzzyMatch(query, entries[ordinal], threshold)
			if !ok {
				continue
			}
			match.ListSource = source
			matches = append(matches, match)
			metrics.SanctionsMatches.WithLabelValues(source.Value(), string(match.MatchType)).Inc()
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})

	if len(matches) > 0 {
		s.logger.Info("sanctions screening produced matches",
			zap.Int("match_count", len(matches)),
			zap.Float64("top_score", matches[0].MatchScore),
		)
	}

	return matches
}

func entryMatch(entry Entry) compliance.SanctionMatch {
	return compliance.SanctionMatch{
		SanctionID: entry.ID,
		EntityName: entry.Name,
		Program:    entry.Program,
		Country:    entry.Country,
		Aliases:    entry.Aliases,
	}
}

// equalityMatch reports an exact name or alias hit, always scored 1.0
func equalityMatch(query string, entry Entry) (compliance.SanctionMatch, bool) {
	if query == entry.Name {
		match := entryMatch(entry)
		match.MatchName = entry.Name
		match.MatchScore = 1.0
		match.MatchType = compliance.MatchTypeExact
		return match, true
	}
	for _, alias := range entry.Aliases {
		if query == alias {
			match := entryMatch(entry)
			match.MatchName = alias
			match.MatchScore = 1.0
			match.MatchType = compliance.MatchTypeAlias
			return match, true
		}
	}
	return compliance.SanctionMatch{}, false
}

// fuzzyMatch scores the best edit-distance similarity across the entry name
// and aliases, reporting it when it clears the threshold
func fuzzyMatch(query string, entry Entry, threshold float64) (compliance.SanctionMatch, bool) {
	bestScore := similarity(query, entry.Name)
	bestName := entry.Name
	bestType := compliance.MatchTypeFuzzy

	for _, alias := range entry.Aliases {
		if score := similarity(query, alias); score > bestScore {
			bestScore = score
			bestName = alias
			bestType = compliance.MatchTypeAliasFuzzy
		}
	}

	if bestScore < threshold {
		return compliance.SanctionMatch{}, false
	}

	match := entryMatch(entry)
	match.MatchName = bestName
	match.MatchScore = bestScore
	match.MatchType = bestType
	return match, true
}

// ScreenCountry reports whether a country code is comprehensively sanctioned
func (s *Screener) ScreenCountry(code string) bool {
	return s.dataset.Load().IsSanctionedCountry(code)
}

// DatasetLoadedAt returns the load time of the active snapshot
func (s *Screener) DatasetLoadedAt() time.Time {
	return s.dataset.Load().LoadedAt
}

// Reload fetches a fresh dataset and swaps it in. On failure the previous
// snapshot stays active so screening keeps working against known-good data,
// and the failure is logged, counted, and raised through the alert hook.
func (s *Screener) Reload(ctx context.Context) error {
	if s.loader == nil {
		return nil
	}

	fresh, err := s.loader.Load(ctx)
	if err != nil {
		metrics.DatasetReloads.WithLabelValues("failure").Inc()
		s.logger.Error("sanctions dataset reload failed, keeping previous snapshot",
			zap.Error(err),
			zap.Time("active_snapshot_loaded_at", s.dataset.Load().LoadedAt),
		)
		if s.alert != nil {
			s.alert(Alert{
				Severity: "critical",
				Message:  "sanctions dataset reload failed",
				Err:      err,
				At:       time.Now(),
			})
		}
		return err
	}

	s.dataset.Store(fresh)
	metrics.DatasetReloads.WithLabelValues("success").Inc()
	s.logger.Info("sanctions dataset reloaded",
		zap.Int("entry_count", fresh.EntryCount()),
	)
	return nil
}

// RunPeriodicReload reloads the dataset on the given interval until the
// context is canceled. Failures are already handled by Reload.
func (s *Screener) RunPeriodicReload(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Reload(ctx)
		}
	}
}

// similarity is normalized edit-distance similarity in [0,1]
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := math.Max(float64(len([]rune(a))), float64(len([]rune(b))))
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/longest
}

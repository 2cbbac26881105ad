package screening

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/solapay/compliance-engine/internal/domain/compliance"
	"github.com/solapay/compliance-engine/internal/domain/values"
)

func testScreener(t *testing.T, opts ...ScreenerOption) *Screener {
	t.Helper()
	return NewScreener(BuiltinDataset(), zap.NewNop(), opts...)
}

func TestScreen_ExactMatch(t *testing.T) {
	s := testScreener(t)

	matches := s.Screen("AL-QAIDA", []values.ListSource{values.UNListSource()}, 0.85)

	require.Len(t, matches, 1)
	assert.Equal(t, compliance.MatchTypeExact, matches[0].MatchType)
	assert.Equal(t, 1.0, matches[0].MatchScore)
	assert.Equal(t, values.UNListSource(), matches[0].ListSource)
	assert.Equal(t, "un-qe-a-4", matches[0].SanctionID)
}

func TestScreen_ExactMatchIgnoresCaseAndWhitespace(t *testing.T) {
	s := testScreener(t)

	matches := s.Screen("  al-qaida  ", []values.ListSource{values.UNListSource()}, 0.85)

	require.Len(t, matches, 1)
	assert.Equal(t, compliance.MatchTypeExact, matches[0].MatchType)
}

func TestScreen_ExactMatchScoresFullEvenAboveThreshold(t *testing.T) {
	s := testScreener(t)

	// An impossible fuzzy threshold must not suppress exact hits.
	matches := s.Screen("TALIBAN", []values.ListSource{values.EUListSource()}, 1.0)

	require.Len(t, matches, 1)
	assert.Equal(t, 1.0, matches[0].MatchScore)
}

func TestScreen_AliasMatch(t *testing.T) {
	s := testScreener(t)

	matches := s.Screen("KCST", []values.ListSource{values.OFACListSource()}, 0.85)

	require.Len(t, matches, 1)
	assert.Equal(t, compliance.MatchTypeAlias, matches[0].MatchType)
	assert.Equal(t, 1.0, matches[0].MatchScore)
	assert.Equal(t, "KCST", matches[0].MatchName)
	assert.Equal(t, "KOREAN COMMITTEE FOR SPACE TECHNOLOGY", matches[0].EntityName)
}

func TestScreen_FuzzyMatch(t *testing.T) {
	s := testScreener(t)

	// One transposition away from TALIBAN.
	matches := s.Screen("TALIBAN GROUP", []values.ListSource{values.EUListSource()}, 0.5)

	require.NotEmpty(t, matches)
	assert.Equal(t, compliance.MatchTypeFuzzy, matches[0].MatchType)
	assert.Less(t, matches[0].MatchScore, 1.0)
	assert.GreaterOrEqual(t, matches[0].MatchScore, 0.5)
}

func TestScreen_BelowThresholdExcluded(t *testing.T) {
	s := testScreener(t)

	matches := s.Screen("JOHN SMITH", values.DefaultScreeningSources(), 0.85)

	assert.Empty(t, matches)
}

func TestScreen_EmptyNameMatchesNothing(t *testing.T) {
	s := testScreener(t)

	assert.Empty(t, s.Screen("", values.DefaultScreeningSources(), 0.5))
	assert.Empty(t, s.Screen("   ", values.DefaultScreeningSources(), 0.5))
}

func TestScreen_DefaultsToRegulatorySources(t *testing.T) {
	s := testScreener(t)

	matches := s.Screen("AL-QAIDA", nil, 0.85)

	require.Len(t, matches, 1)
	assert.Equal(t, values.UNListSource(), matches[0].ListSource)
}

func TestScreen_SortedByScoreDescending(t *testing.T) {
	s := testScreener(t)

	matches := s.Screen("BANK MELLI IRAN", values.DefaultScreeningSources(), 0.3)

	require.NotEmpty(t, matches)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].MatchScore, matches[i].MatchScore)
	}
	assert.Equal(t, compliance.MatchTypeExact, matches[0].MatchType)
}

func TestScreen_Deterministic(t *testing.T) {
	s := testScreener(t)

	first := s.Screen("IRAN GOVERNMENT", values.DefaultScreeningSources(), 0.4)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, s.Screen("IRAN GOVERNMENT", values.DefaultScreeningSources(), 0.4))
	}
}

func TestScreen_FuzzyScoringLimitedToTrigramCandidates(t *testing.T) {
	ds := NewDataset(map[string][]Entry{
		values.ListSourceCustom: {
			{ID: "c-1", Name: "ABDC"},
			{ID: "c-2", Name: "ABCDE"},
		},
	}, nil)
	s := NewScreener(ds, zap.NewNop())

	matches := s.Screen("ABCD", []values.ListSource{values.CustomListSource()}, 0.4)

	// Only the entry sharing a trigram with the query is similarity-scored.
	require.Len(t, matches, 1)
	assert.Equal(t, "c-2", matches[0].SanctionID)
	assert.Equal(t, compliance.MatchTypeFuzzy, matches[0].MatchType)
}

func TestScreen_EntryMatchesAtMostOnce(t *testing.T) {
	ds := NewDataset(map[string][]Entry{
		values.ListSourceCustom: {
			{ID: "c-1", Name: "ACME TRADING", Aliases: []string{"ACME"}},
		},
	}, nil)
	s := NewScreener(ds, zap.NewNop())

	// The exact hit must not also surface as a fuzzy match of the same entry.
	matches := s.Screen("ACME TRADING", []values.ListSource{values.CustomListSource()}, 0.1)

	require.Len(t, matches, 1)
	assert.Equal(t, compliance.MatchTypeExact, matches[0].MatchType)
	assert.Equal(t, 1.0, matches[0].MatchScore)
}

func TestScreenCountry(t *testing.T) {
	s := testScreener(t)

	assert.True(t, s.ScreenCountry("KP"))
	assert.True(t, s.ScreenCountry("ir"))
	assert.True(t, s.ScreenCountry(" SY "))
	assert.False(t, s.ScreenCountry("US"))
	assert.False(t, s.ScreenCountry(""))
}

type staticLoader struct {
	ds  *Dataset
	err error
}

func (l *staticLoader) Load(_ context.Context) (*Dataset, error) {
	return l.ds, l.err
}

func TestReload_SwapsDataset(t *testing.T) {
	fresh := NewDataset(map[string][]Entry{
		values.ListSourceCustom: {{ID: "c-1", Name: "ACME FRONT LLC"}},
	}, nil)
	s := testScreener(t, WithLoader(&staticLoader{ds: fresh}))

	require.NoError(t, s.Reload(context.Background()))

	matches := s.Screen("ACME FRONT LLC", []values.ListSource{values.CustomListSource()}, 0.85)
	require.Len(t, matches, 1)
	assert.Empty(t, s.Screen("AL-QAIDA", []values.ListSource{values.UNListSource()}, 0.85))
}

func TestReload_FailureKeepsPreviousSnapshotAndAlerts(t *testing.T) {
	var alerts []Alert
	s := testScreener(t,
		WithLoader(&staticLoader{err: assert.AnError}),
		WithAlertFunc(func(a Alert) { alerts = append(alerts, a) }),
	)
	before := s.DatasetLoadedAt()

	err := s.Reload(context.Background())

	require.Error(t, err)
	assert.Equal(t, before, s.DatasetLoadedAt())
	require.Len(t, alerts, 1)
	assert.Equal(t, "critical", alerts[0].Severity)
	assert.ErrorIs(t, alerts[0].Err, assert.AnError)

	// Screening still works against the retained snapshot.
	matches := s.Screen("TALIBAN", []values.ListSource{values.EUListSource()}, 0.85)
	assert.Len(t, matches, 1)
}

func TestReload_NoLoaderIsNoop(t *testing.T) {
	s := testScreener(t)
	assert.NoError(t, s.Reload(context.Background()))
}

func TestFileLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.yaml")
	content := `lists:
  ofac:
    - id: ofac-1
      name: Test Entity
      program: TEST
      country: IR
      aliases:
        - "TE HOLDINGS"
sanctioned_countries:
  - IR
  - KP
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	ds, err := (&FileLoader{Path: path}).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, ds.EntryCount())
	assert.True(t, ds.IsSanctionedCountry("IR"))
	assert.False(t, ds.IsSanctionedCountry("US"))

	entries := ds.Entries(values.OFACListSource())
	require.Len(t, entries, 1)
	assert.Equal(t, "TEST ENTITY", entries[0].Name)
	assert.Equal(t, []string{"TE HOLDINGS"}, entries[0].Aliases)
}

func TestFileLoader_MissingFile(t *testing.T) {
	_, err := (&FileLoader{Path: filepath.Join(t.TempDir(), "absent.yaml")}).Load(context.Background())
	assert.Error(t, err)
}

func TestFileLoader_UnknownListSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lists:\n  bogus:\n    - id: x\n      name: Y\n"), 0o600))

	_, err := (&FileLoader{Path: path}).Load(context.Background())
	assert.Error(t, err)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("ABC", "ABC"))
	assert.Equal(t, 0.0, similarity("", "ABCD"))
	// One edit across four runes.
	assert.InDelta(t, 0.75, similarity("ABCD", "ABCX"), 1e-9)
}

func TestTrigramIndex_ShortQueryScansAll(t *testing.T) {
	ds := BuiltinDataset()
	cands := ds.candidates(values.OFACListSource(), "AB")
	assert.Len(t, cands, len(ds.Entries(values.OFACListSource())))
}

func TestRunPeriodicReload_StopsOnCancel(t *testing.T) {
	fresh := NewDataset(nil, nil)
	s := testScreener(t, WithLoader(&staticLoader{ds: fresh}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunPeriodicReload(ctx, time.Millisecond)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("periodic reload did not stop after cancel")
	}
}

package screening

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/solapay/compliance-engine/internal/domain/errors"
	"github.com/solapay/compliance-engine/internal/domain/values"
)

// Entry is one watchlist record. Names and aliases are stored uppercased so
// screening never re-normalizes per call.
type Entry struct {
	ID      string   `koanf:"id" json:"id"`
	Name    string   `koanf:"name" json:"name"`
	Program string   `koanf:"program" json:"program,omitempty"`
	Country string   `koanf:"country" json:"country,omitempty"`
	Aliases []string `koanf:"aliases" json:"aliases,omitempty"`
}

// Dataset is one immutable snapshot of all configured watchlists plus the
// sanctioned-country set. Screeners swap whole datasets atomically; a Dataset
// is never mutated after Build.
type Dataset struct {
	lists     map[string][]Entry
	indexes   map[string]*trigramIndex
	countries map[string]struct{}
	LoadedAt  time.Time
}

// NewDataset normalizes entries and builds the per-list candidate indexes
func NewDataset(lists map[string][]Entry, sanctionedCountries []string) *Dataset {
	ds := &Dataset{
		lists:     make(map[string][]Entry, len(lists)),
		indexes:   make(map[string]*trigramIndex, len(lists)),
		countries: make(map[string]struct{}, len(sanctionedCountries)),
		LoadedAt:  time.Now(),
	}

	for source, entries := range lists {
		normalized := make([]Entry, len(entries))
		for i, e := range entries {
			e.Name = strings.ToUpper(strings.TrimSpace(e.Name))
			aliases := make([]string, len(e.Aliases))
			for j, a := range e.Aliases {
				aliases[j] = strings.ToUpper(strings.TrimSpace(a))
			}
			e.Aliases = aliases
			normalized[i] = e
		}
		ds.lists[source] = normalized
		ds.indexes[source] = buildTrigramIndex(normalized)
	}

	for _, c := range sanctionedCountries {
		ds.countries[strings.ToUpper(strings.TrimSpace(c))] = struct{}{}
	}

	return ds
}

// Entries returns the entries for a list source, nil when not configured
func (d *Dataset) Entries(source values.ListSource) []Entry {
	return d.lists[source.Value()]
}

// IsSanctionedCountry reports membership in the sanctioned-country set
func (d *Dataset) IsSanctionedCountry(code string) bool {
	_, ok := d.countries[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// EntryCount returns the total number of watchlist entries across lists
func (d *Dataset) EntryCount() int {
	n := 0
	for _, entries := range d.lists {
		n += len(entries)
	}
	return n
}

// candidates returns the ordinals of entries worth fuzzy-scoring for the
// query, preserving entry order. Queries too short to carry a trigram fall
// back to scoring every entry.
func (d *Dataset) candidates(source values.ListSource, query string) []int {
	idx := d.indexes[source.Value()]
	if idx == nil {
		return nil
	}
	return idx.candidates(query)
}

// trigramIndex is the blocking pre-filter for fuzzy matching: an entry is a
// fuzzy candidate only if it shares at least one trigram with the query,
// which keeps similarity scoring off the vast majority of a production-size
// list. Exact and alias equality checks bypass the index entirely.
type trigramIndex struct {
	grams map[string][]int
	size  int
}

func buildTrigramIndex(entries []Entry) *trigramIndex {
	idx := &trigramIndex{grams: make(map[string][]int), size: len(entries)}
	for ordinal, e := range entries {
		seen := make(map[string]struct{})
		for _, name := range append([]string{e.Name}, e.Aliases...) {
			for _, g := range trigrams(name) {
				if _, dup := seen[g]; dup {
					continue
				}
				seen[g] = struct{}{}
				idx.grams[g] = append(idx.grams[g], ordinal)
			}
		}
	}
	return idx
}

func (idx *trigramIndex) candidates(query string) []int {
	grams := trigrams(query)
	if len(grams) == 0 {
		all := make([]int, idx.size)
		for i := range all {
			all[i] = i
		}
		return all
	}

	hit := make(map[int]struct{})
	for _, g := range grams {
		for _, ordinal := range idx.grams[g] {
			hit[ordinal] = struct{}{}
		}
	}

	out := make([]int, 0, len(hit))
	for i := 0; i < idx.size; i++ {
		if _, ok := hit[i]; ok {
			out = append(out, i)
		}
	}
	return out
}

func trigrams(s string) []string {
	runes := []rune(s)
	if len(runes) < 3 {
		return nil
	}
	out := make([]string, 0, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		out = append(out, string(runes[i:i+3]))
	}
	return out
}

// Loader produces a fresh dataset snapshot from some source
type Loader interface {
	Load(ctx context.Context) (*Dataset, error)
}

// datasetFile is the YAML shape consumed by FileLoader
type datasetFile struct {
	Lists     map[string][]Entry `koanf:"lists"`
	Countries []string           `koanf:"sanctioned_countries"`
}

// FileLoader reads a dataset snapshot from a YAML file. Production
// deployments point it at the file a list-subscription job keeps fresh.
type FileLoader struct {
	Path string
}

func (l *FileLoader) Load(ctx context.Context) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(l.Path), yaml.Parser()); err != nil {
		return nil, errors.NewExternalError("sanctions-dataset",
			fmt.Sprintf("loading %s", l.Path)).WithCause(err)
	}

	var parsed datasetFile
	if err := k.Unmarshal("", &parsed); err != nil {
		return nil, errors.NewExternalError("sanctions-dataset",
			fmt.Sprintf("parsing %s", l.Path)).WithCause(err)
	}

	for source := range parsed.Lists {
		if _, err := values.NewListSource(source); err != nil {
			return nil, err
		}
	}

	return NewDataset(parsed.Lists, parsed.Countries), nil
}

// BuiltinDataset returns the seed dataset shipped with the engine. It covers
// the canonical OFAC/UN/EU programs so the engine screens meaningfully before
// a list subscription is wired up.
func BuiltinDataset() *Dataset {
	return NewDataset(map[string][]Entry{
		values.ListSourceOFAC: {
			{ID: "ofac-9639", Name: "IRAN, GOVERNMENT OF", Program: "IRAN", Country: "IR",
				Aliases: []string{"ISLAMIC REPUBLIC OF IRAN", "IRAN GOV"}},
			{ID: "ofac-12470", Name: "KOREAN COMMITTEE FOR SPACE TECHNOLOGY", Program: "DPRK", Country: "KP",
				Aliases: []string{"KCST", "DPRK COMMITTEE FOR SPACE TECHNOLOGY"}},
			{ID: "ofac-6928", Name: "BANK MELLI IRAN", Program: "IRAN", Country: "IR",
				Aliases: []string{"NATIONAL BANK OF IRAN"}},
		},
		values.ListSourceUN: {
			{ID: "un-qe-a-4", Name: "AL-QAIDA", Program: "TERRORISM",
				Aliases: []string{"QAIDA", "AL QAEDA", "AL-QAEDA"}},
			{ID: "un-kp-e-13", Name: "RECONNAISSANCE GENERAL BUREAU", Program: "DPRK", Country: "KP",
				Aliases: []string{"RGB"}},
		},
		values.ListSourceEU: {
			{ID: "eu-1034", Name: "TALIBAN", Program: "TERRORISM", Country: "AF",
				Aliases: []string{"TALEBAN"}},
		},
	}, []string{"IR", "KP", "SY", "CU", "VE"})
}

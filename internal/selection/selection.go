// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package selection turns the scored pool into the final citable set with a
// deterministic citation-key registry.
package selection

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// highBand is the score at which a record counts toward the high-score quota.
const highBand = 7.0

// Select sorts the pool descending by score (ties broken by ingestion order)
// and greedily takes records until the count reaches the tier minimum.
// Descending order front-loads the high band, so the high-score quota is met
// whenever the pool allows it; when the high band alone cannot reach the
// minimum, the remainder is backfilled from the mid and low bands in
// descending score order. Records are never fabricated: a pool smaller than
// the minimum yields everything available with InsufficientPool set.
func Select(scored []types.ScoredRecord, limits types.TierLimits, cfg types.SelectionConfig) (types.SelectionSet, error) {
	if limits.MinRefs <= 0 || limits.MaxRefs < limits.MinRefs {
		return types.SelectionSet{}, fmt.Errorf("invalid reference range [%d, %d]", limits.MinRefs, limits.MaxRefs)
	}

	pool := make([]types.ScoredRecord, len(scored))
	copy(pool, scored)
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].Score != pool[j].Score {
			return pool[i].Score > pool[j].Score
		}
		return pool[i].IngestOrder < pool[j].IngestOrder
	})

	take := limits.MinRefs
	if take > limits.MaxRefs {
		take = limits.MaxRefs
	}

	var set types.SelectionSet
	if len(pool) < limits.MinRefs {
		take = len(pool)
		set.InsufficientPool = true
	}

	minAbstract := cfg.MinAbstractLen
	if minAbstract <= 0 {
		minAbstract = 200
	}

	keys := newKeyRegistry()
	for _, r := range pool[:take] {
		sel := types.SelectedRecord{
			ScoredRecord: r,
			CitationKey:  keys.assign(r),
			DoNotCite:    len(r.Abstract) < minAbstract,
		}
		set.Records = append(set.Records, sel)
	}
	return set, nil
}

// QuotaSatisfied reports whether the set's high-band share meets the quota.
// A false result with a pool that simply ran out of high-band records is the
// backfill case, reported for diagnostics rather than treated as an error.
func QuotaSatisfied(set types.SelectionSet, quota float64) bool {
	if len(set.Records) == 0 {
		return false
	}
	share := float64(set.HighScoreCount()) / float64(len(set.Records))
	return share >= quota
}

// keyRegistry assigns citation keys with case-insensitive collision handling.
type keyRegistry struct {
	used map[string]bool
}

func newKeyRegistry() *keyRegistry {
	return &keyRegistry{used: make(map[string]bool)}
}

// assign derives a human-readable key from the first author's surname and
// the year (e.g. "Smith2020"). Collisions get a disambiguating suffix
// ("Smith2020a", "Smith2020b", …); comparison is case-insensitive so
// "Smith2020" and "smith2020" never coexist.
func (k *keyRegistry) assign(r types.ScoredRecord) string {
	base := keyBase(r)
	if !k.used[strings.ToLower(base)] {
		k.used[strings.ToLower(base)] = true
		return base
	}
	for suffix := 'a'; ; suffix++ {
		key := base + string(suffix)
		if !k.used[strings.ToLower(key)] {
			k.used[strings.ToLower(key)] = true
			return key
		}
	}
}

func keyBase(r types.ScoredRecord) string {
	surname := "Anon"
	if len(r.Authors) > 0 {
		if fields := strings.Fields(r.Authors[0]); len(fields) > 0 {
			surname = fields[len(fields)-1]
		}
	}
	surname = asciiFold(surname)
	if surname == "" {
		surname = "Anon"
	}
	if r.Year > 0 {
		return fmt.Sprintf("%s%d", surname, r.Year)
	}
	// Year unknown (DOI-only records). A bare surname would not scan as a
	// citation key in draft markdown, so the year slot is zero-filled.
	return surname + "0000"
}

// asciiFold strips diacritics and drops any remaining non-ASCII-letter rune,
// so "Ngô" becomes "Ngo" and "Müller" becomes "Muller".
func asciiFold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

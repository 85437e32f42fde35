package capacity

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// CycleCapacity is the historical ceiling for one production cycle.
type CycleCapacity struct {
	MaxProduction float64 `json:"max_production"`
	AvgProduction float64 `json:"avg_production"`
}

// SeasonTotal is the aggregate historical production for a whole season.
type SeasonTotal struct {
	Production float64 `json:"production"`
	Yield      float64 `json:"yield"`
	Count      int     `json:"count"`
}

// CapacityRecord holds the reference capacity data for one
// state/district/season/crop key.
type CapacityRecord struct {
	StandardCycles map[string]CycleCapacity `json:"standard_cycles"`
	CycleDays      int                      `json:"cycle_days"`
	SeasonTotal    SeasonTotal              `json:"season_total"`
}

// Cycle returns the capacity entry for cycle n (1-3).
func (r *CapacityRecord) Cycle(n int) (CycleCapacity, bool) {
	if r == nil || r.StandardCycles == nil {
		return CycleCapacity{}, false
	}
	c, ok := r.StandardCycles[fmt.Sprintf("cycle_%d", n)]
	return c, ok
}

type stateData struct {
	Districts map[string]districtData `json:"districts"`
}

// districtData maps season -> crop -> record.
type districtData map[string]map[string]*CapacityRecord

// Store is the read-only reference capacity dataset. It is loaded once at
// startup and shared by all requests without locking; nothing mutates it
// after Load returns.
type Store struct {
	states  map[string]stateData
	aliases map[string]string
}

// NormalizeKey lowercases and trims a state/district/season/crop key. All
// dataset and ledger matching happens on normalized keys.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Load reads the reference dataset from a JSON file.
func Load(path string, aliases map[string]string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading capacity dataset: %w", err)
	}
	return Parse(raw, aliases)
}

// Parse builds a Store from raw dataset JSON.
func Parse(raw []byte, aliases map[string]string) (*Store, error) {
	var states map[string]stateData
	if err := json.Unmarshal(raw, &states); err != nil {
		return nil, fmt.Errorf("decoding capacity dataset: %w", err)
	}

	// The source dataset is keyed lowercase already; re-normalize anyway so a
	// hand-edited file can't silently break matching.
	normalized := make(map[string]stateData, len(states))
	for stateName, sd := range states {
		nd := stateData{Districts: make(map[string]districtData, len(sd.Districts))}
		for districtName, dd := range sd.Districts {
			seasons := make(districtData, len(dd))
			for seasonName, crops := range dd {
				cropMap := make(map[string]*CapacityRecord, len(crops))
				for cropName, rec := range crops {
					cropMap[NormalizeKey(cropName)] = rec
				}
				seasons[NormalizeKey(seasonName)] = cropMap
			}
			nd.Districts[NormalizeKey(districtName)] = seasons
		}
		normalized[NormalizeKey(stateName)] = nd
	}

	return &Store{states: normalized, aliases: aliases}, nil
}

// Empty returns a store with no data; every lookup misses. Used when the
// dataset file is absent so the resolver degrades to its synthetic default.
func Empty(aliases map[string]string) *Store {
	return &Store{states: map[string]stateData{}, aliases: aliases}
}

// CanonicalDistrict applies the alias table to a raw district name,
// returning the normalized dataset key.
func (s *Store) CanonicalDistrict(district string) string {
	key := NormalizeKey(district)
	if mapped, ok := s.aliases[key]; ok {
		return mapped
	}
	// Historical data sometimes keys districts with underscores.
	if mapped, ok := s.aliases[strings.ReplaceAll(key, " ", "_")]; ok {
		return mapped
	}
	return key
}

// Lookup returns the capacity record for the exact (state, district, season,
// crop) key, or nil when any level is absent. It never errors.
func (s *Store) Lookup(state, district, season, crop string) *CapacityRecord {
	sd, ok := s.states[NormalizeKey(state)]
	if !ok {
		return nil
	}
	dd, ok := sd.Districts[s.CanonicalDistrict(district)]
	if !ok {
		return nil
	}
	crops, ok := dd[NormalizeKey(season)]
	if !ok {
		return nil
	}
	return crops[NormalizeKey(crop)]
}

// States returns all state keys in sorted order.
func (s *Store) States() []string {
	names := make([]string, 0, len(s.states))
	for name := range s.states {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Districts returns the district keys of a state in sorted order. Sorting
// makes same-state and cross-state scans deterministic (JSON object order is
// not observable through Go maps).
func (s *Store) Districts(state string) []string {
	sd, ok := s.states[NormalizeKey(state)]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(sd.Districts))
	for name := range sd.Districts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StateSeasonTotal sums season-total production for a crop across every
// district of a state. Used for the state-level threshold figure.
func (s *Store) StateSeasonTotal(state, season, crop string) float64 {
	sd, ok := s.states[NormalizeKey(state)]
	if !ok {
		return 0
	}
	seasonKey := NormalizeKey(season)
	cropKey := NormalizeKey(crop)
	var total float64
	for _, dd := range sd.Districts {
		if rec, ok := dd[seasonKey][cropKey]; ok && rec != nil {
			total += rec.SeasonTotal.Production
		}
	}
	return total
}

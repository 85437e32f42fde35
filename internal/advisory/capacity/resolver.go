package capacity

import (
	"github.com/FarmFlow/FF-Backend/internal/logging"
)

// Source tags which fallback level produced a resolution, so callers can
// annotate confidence (synthetic data is a guess, not history).
type Source string

const (
	SourceDistrict   Source = "district"
	SourceNeighbor   Source = "neighbor"
	SourceState      Source = "state"
	SourceCrossState Source = "cross_state"
	SourceSynthetic  Source = "synthetic"
)

// ThresholdFraction is the share of historical max capacity above which a
// region counts as saturated for a crop. The upstream data pipeline used
// both 0.7 and 0.8 in different places; 0.7 is the canonical value here.
const ThresholdFraction = 0.7

// Synthetic defaults used when no real capacity data exists at any fallback
// level. Values are in the same raw production units as the dataset.
var syntheticCycleMax = map[int]float64{1: 150, 2: 180, 3: 200}

const syntheticSeasonTotal = 530

// Resolution is the outcome of a threshold lookup. It is always usable:
// resolution never fails, it only degrades.
type Resolution struct {
	Record         *CapacityRecord
	Source         Source
	FoundDistrict  string
	FoundState     string
	MaxProduction  float64
	AvgProduction  float64
	ThresholdValue float64
}

// Resolver finds capacity data for a crop/location/cycle, walking the
// district -> neighbor -> state -> cross-state -> synthetic fallback chain.
type Resolver struct {
	store     *Store
	neighbors map[string][]string
	log       *logging.Logger
}

func NewResolver(store *Store, neighbors map[string][]string, log *logging.Logger) *Resolver {
	if log == nil {
		log = logging.NewNop()
	}
	return &Resolver{store: store, neighbors: neighbors, log: log}
}

// Resolve returns a threshold for the given key. Each fallback step emits a
// structured event so operators can tell which path produced the number.
func (r *Resolver) Resolve(state, district, season, crop string, cycle int) Resolution {
	stateKey := NormalizeKey(state)
	districtKey := r.store.CanonicalDistrict(district)
	seasonKey := NormalizeKey(season)
	cropKey := NormalizeKey(crop)

	// 1. Exact district match.
	if rec := r.store.Lookup(stateKey, districtKey, seasonKey, cropKey); rec != nil {
		return r.finish(rec, SourceDistrict, districtKey, stateKey, cycle)
	}
	r.log.Info("capacity miss at district, trying neighbors",
		"state", stateKey, "district", districtKey, "season", seasonKey, "crop", cropKey)

	// 2. Configured neighbor districts, in adjacency order.
	for _, neighbor := range r.neighbors[districtKey] {
		if rec := r.store.Lookup(stateKey, neighbor, seasonKey, cropKey); rec != nil {
			r.log.Info("capacity found via neighbor district",
				"district", districtKey, "neighbor", neighbor, "crop", cropKey)
			return r.finish(rec, SourceNeighbor, NormalizeKey(neighbor), stateKey, cycle)
		}
	}
	r.log.Info("capacity miss at neighbors, scanning state",
		"state", stateKey, "district", districtKey, "crop", cropKey)

	// 3. Any district in the same state.
	for _, name := range r.store.Districts(stateKey) {
		if rec := r.store.Lookup(stateKey, name, seasonKey, cropKey); rec != nil {
			r.log.Info("capacity found via state-level scan",
				"state", stateKey, "found_district", name, "crop", cropKey)
			return r.finish(rec, SourceState, name, stateKey, cycle)
		}
	}

	// 4. Any district in any other state. Only reached when local data is
	// wholly absent.
	for _, otherState := range r.store.States() {
		if otherState == stateKey {
			continue
		}
		for _, name := range r.store.Districts(otherState) {
			if rec := r.store.Lookup(otherState, name, seasonKey, cropKey); rec != nil {
				r.log.Warn("capacity found via cross-state scan",
					"state", stateKey, "found_state", otherState, "found_district", name, "crop", cropKey)
				return r.finish(rec, SourceCrossState, name, otherState, cycle)
			}
		}
	}

	// 5. Synthetic default so callers always get a usable threshold.
	r.log.Warn("no capacity data at any level, using synthetic default",
		"state", stateKey, "district", districtKey, "season", seasonKey, "crop", cropKey)
	return r.finish(syntheticRecord(), SourceSynthetic, districtKey, stateKey, cycle)
}

func (r *Resolver) finish(rec *CapacityRecord, src Source, district, state string, cycle int) Resolution {
	maxProd, avgProd := cycleCapacityOf(rec, cycle)
	return Resolution{
		Record:         rec,
		Source:         src,
		FoundDistrict:  district,
		FoundState:     state,
		MaxProduction:  maxProd,
		AvgProduction:  avgProd,
		ThresholdValue: maxProd * ThresholdFraction,
	}
}

// cycleCapacityOf reads the cycle entry, splitting the season total evenly
// across the three cycles when the specific entry is absent.
func cycleCapacityOf(rec *CapacityRecord, cycle int) (maxProd, avgProd float64) {
	if c, ok := rec.Cycle(cycle); ok {
		return c.MaxProduction, c.AvgProduction
	}
	maxProd = rec.SeasonTotal.Production / 3
	return maxProd, maxProd / 2
}

func syntheticRecord() *CapacityRecord {
	cycles := make(map[string]CycleCapacity, len(syntheticCycleMax))
	for n, maxProd := range syntheticCycleMax {
		cycles[keyForCycle(n)] = CycleCapacity{MaxProduction: maxProd, AvgProduction: maxProd / 2}
	}
	return &CapacityRecord{
		StandardCycles: cycles,
		CycleDays:      120,
		SeasonTotal:    SeasonTotal{Production: syntheticSeasonTotal},
	}
}

func keyForCycle(n int) string {
	switch n {
	case 1:
		return "cycle_1"
	case 2:
		return "cycle_2"
	default:
		return "cycle_3"
	}
}

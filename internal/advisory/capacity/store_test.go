package capacity_test

import (
	"testing"

	"github.com/FarmFlow/FF-Backend/internal/advisory/capacity"
)

const sampleDataset = `{
  "karnataka": {
    "districts": {
      "mandya": {
        "kharif": {
          "rice": {
            "standard_cycles": {
              "cycle_1": {"max_production": 100, "avg_production": 60},
              "cycle_2": {"max_production": 120, "avg_production": 70},
              "cycle_3": {"max_production": 140, "avg_production": 80}
            },
            "cycle_days": 120,
            "season_total": {"production": 360, "yield": 2.4, "count": 150}
          }
        }
      },
      "mysore": {
        "kharif": {
          "rice": {
            "standard_cycles": {
              "cycle_1": {"max_production": 200, "avg_production": 110}
            },
            "cycle_days": 120,
            "season_total": {"production": 600, "yield": 2.8, "count": 210}
          },
          "ragi": {
            "standard_cycles": {},
            "cycle_days": 90,
            "season_total": {"production": 90, "yield": 1.2, "count": 40}
          }
        }
      }
    }
  },
  "tamil nadu": {
    "districts": {
      "salem": {
        "kharif": {
          "turmeric": {
            "standard_cycles": {
              "cycle_1": {"max_production": 50, "avg_production": 30}
            },
            "cycle_days": 200,
            "season_total": {"production": 150, "yield": 4.1, "count": 25}
          }
        }
      }
    }
  }
}`

func mustParse(t *testing.T, aliases map[string]string) *capacity.Store {
	t.Helper()
	store, err := capacity.Parse([]byte(sampleDataset), aliases)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return store
}

func TestNormalizeKey(t *testing.T) {
	cases := map[string]string{
		"  Karnataka ": "karnataka",
		"RICE":         "rice",
		"mandya":       "mandya",
		"":             "",
	}
	for in, want := range cases {
		if got := capacity.NormalizeKey(in); got != want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLookupExactMatch(t *testing.T) {
	store := mustParse(t, nil)

	rec := store.Lookup("karnataka", "mandya", "kharif", "rice")
	if rec == nil {
		t.Fatal("expected record for karnataka/mandya/kharif/rice")
	}
	c1, ok := rec.Cycle(1)
	if !ok || c1.MaxProduction != 100 {
		t.Errorf("cycle_1 max = %v (ok=%v), want 100", c1.MaxProduction, ok)
	}
	if rec.SeasonTotal.Production != 360 {
		t.Errorf("season total = %v, want 360", rec.SeasonTotal.Production)
	}
}

func TestLookupIsCaseAndWhitespaceInsensitive(t *testing.T) {
	store := mustParse(t, nil)

	if store.Lookup("Karnataka", " Mandya ", "KHARIF", "Rice") == nil {
		t.Error("expected lookup to match regardless of case and whitespace")
	}
}

func TestLookupMisses(t *testing.T) {
	store := mustParse(t, nil)

	cases := []struct{ state, district, season, crop string }{
		{"kerala", "mandya", "kharif", "rice"},      // unknown state
		{"karnataka", "hassan", "kharif", "rice"},   // unknown district
		{"karnataka", "mandya", "rabi", "rice"},     // unknown season
		{"karnataka", "mandya", "kharif", "cotton"}, // unknown crop
	}
	for _, c := range cases {
		if store.Lookup(c.state, c.district, c.season, c.crop) != nil {
			t.Errorf("expected miss for %v", c)
		}
	}
}

func TestCanonicalDistrictAliases(t *testing.T) {
	aliases := map[string]string{
		"mysuru":          "mysore",
		"bangalore_rural": "bangalore rural",
	}
	store := mustParse(t, aliases)

	if got := store.CanonicalDistrict("Mysuru"); got != "mysore" {
		t.Errorf("CanonicalDistrict(Mysuru) = %q, want mysore", got)
	}
	// The underscore form of a spaced name should hit the alias table too.
	if got := store.CanonicalDistrict("bangalore rural"); got != "bangalore rural" {
		t.Errorf("CanonicalDistrict(bangalore rural) = %q, want bangalore rural", got)
	}
	if got := store.CanonicalDistrict("unknown place"); got != "unknown place" {
		t.Errorf("CanonicalDistrict passthrough = %q, want unknown place", got)
	}

	if store.Lookup("karnataka", "Mysuru", "kharif", "rice") == nil {
		t.Error("expected aliased district to resolve in Lookup")
	}
}

func TestStatesAndDistrictsSorted(t *testing.T) {
	store := mustParse(t, nil)

	states := store.States()
	if len(states) != 2 || states[0] != "karnataka" || states[1] != "tamil nadu" {
		t.Errorf("States() = %v, want [karnataka tamil nadu]", states)
	}

	districts := store.Districts("karnataka")
	if len(districts) != 2 || districts[0] != "mandya" || districts[1] != "mysore" {
		t.Errorf("Districts(karnataka) = %v, want [mandya mysore]", districts)
	}

	if store.Districts("kerala") != nil {
		t.Error("Districts of unknown state should be nil")
	}
}

func TestStateSeasonTotal(t *testing.T) {
	store := mustParse(t, nil)

	// rice appears in mandya (360) and mysore (600).
	if got := store.StateSeasonTotal("karnataka", "kharif", "rice"); got != 960 {
		t.Errorf("StateSeasonTotal = %v, want 960", got)
	}
	if got := store.StateSeasonTotal("karnataka", "kharif", "cotton"); got != 0 {
		t.Errorf("StateSeasonTotal for absent crop = %v, want 0", got)
	}
}

func TestEmptyStoreAlwaysMisses(t *testing.T) {
	store := capacity.Empty(map[string]string{"mysuru": "mysore"})

	if store.Lookup("karnataka", "mandya", "kharif", "rice") != nil {
		t.Error("Empty store should never return a record")
	}
	if len(store.States()) != 0 {
		t.Error("Empty store should list no states")
	}
	// Aliases still apply even with no data behind them.
	if got := store.CanonicalDistrict("mysuru"); got != "mysore" {
		t.Errorf("CanonicalDistrict on empty store = %q, want mysore", got)
	}
}

func TestCycleMissingEntry(t *testing.T) {
	store := mustParse(t, nil)

	rec := store.Lookup("karnataka", "mysore", "kharif", "rice")
	if rec == nil {
		t.Fatal("expected record")
	}
	if _, ok := rec.Cycle(2); ok {
		t.Error("cycle_2 should be absent for mysore rice")
	}
	var nilRec *capacity.CapacityRecord
	if _, ok := nilRec.Cycle(1); ok {
		t.Error("nil record should report no cycles")
	}
}

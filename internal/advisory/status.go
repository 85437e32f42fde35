package advisory

import (
	"math"
	"time"

	"github.com/FarmFlow/FF-Backend/internal/advisory/capacity"
)

// Verdict messages surfaced to the farmer.
const (
	VerdictSaturated   = "Warning: Production above threshold - market may be saturated"
	VerdictOpportunity = "Good Opportunity: Production below threshold - potential for growth"
	VerdictNoData      = "No Data Available"
)

// maxDisplayPercentage keeps runaway ratios printable.
const maxDisplayPercentage = 999

type ThresholdStatus struct {
	Reached    bool    `json:"reached"`
	Current    float64 `json:"current"`
	Value      float64 `json:"value"`
	Percentage int     `json:"percentage"`
}

type RegionalSlice struct {
	TotalProduction float64 `json:"totalProduction"`
	Submissions     int     `json:"submissions"`
}

type Thresholds struct {
	CycleMax  float64 `json:"cycleMax"`
	CycleAvg  float64 `json:"cycleAvg"`
	SeasonMax float64 `json:"seasonMax"`
	StateMax  float64 `json:"stateMax"`
}

type RegionalBreakdown struct {
	Cycle  RegionalSlice `json:"cycle"`
	Season RegionalSlice `json:"season"`
	State  RegionalSlice `json:"state"`
}

type CycleReport struct {
	Threshold ThresholdStatus  `json:"threshold"`
	Data      []CycleBreakdown `json:"data"`
}

// Status is the full saturation verdict for a crop at a location. It is
// recomputed on every query and never persisted.
type Status struct {
	Crop         string            `json:"crop"`
	State        string            `json:"state"`
	District     string            `json:"district"`
	Season       string            `json:"season"`
	CurrentCycle int               `json:"currentCycle"`
	Source       capacity.Source   `json:"source"`
	Thresholds   Thresholds        `json:"thresholds"`
	Regional     RegionalBreakdown `json:"regional"`
	Cycles       CycleReport       `json:"cycles"`
	Verdict      string            `json:"verdict"`
}

// GetStatus derives the saturation verdict for crop at state/district for the
// season and cycle implied by now.
//
// The submission ledger and the aggregate ledger are independent counters
// that can briefly disagree; every figure here reconciles the two by taking
// whichever reports more. Read failures on either side degrade to zero with
// a logged warning rather than failing the advisory view.
func GetStatus(crop, state, district string, now time.Time) Status {
	season := DetermineSeason(now)
	cycle := ClassifyCycle(crop, district, state, season, now)

	res := resolver.Resolve(state, district, season, crop, cycle)

	cycleTotals := reconcile(ProductionFilter{
		Crop: crop, State: state, District: district, Season: season, Cycle: cycle,
	})
	seasonTotals := reconcile(ProductionFilter{
		Crop: crop, State: state, District: district, Season: season,
	})
	stateTotals := reconcile(ProductionFilter{
		Crop: crop, State: state, Season: season,
	})

	breakdown, err := QueryCycleBreakdown(crop, state, district, season)
	if err != nil {
		logger.Warn("cycle breakdown unavailable", "crop", crop, "district", district, "error", err)
		breakdown = nil
	}

	stateMax := store.StateSeasonTotal(state, season, crop)
	if stateMax == 0 {
		stateMax = res.Record.SeasonTotal.Production
	}

	status := Status{
		Crop:         crop,
		State:        state,
		District:     district,
		Season:       season,
		CurrentCycle: cycle,
		Source:       res.Source,
		Thresholds: Thresholds{
			CycleMax:  res.MaxProduction,
			CycleAvg:  res.AvgProduction,
			SeasonMax: res.Record.SeasonTotal.Production,
			StateMax:  stateMax,
		},
		Regional: RegionalBreakdown{
			Cycle:  cycleTotals,
			Season: seasonTotals,
			State:  stateTotals,
		},
		Cycles: CycleReport{
			Threshold: thresholdStatus(cycleTotals.TotalProduction, res.ThresholdValue),
			Data:      breakdown,
		},
	}
	status.Verdict = verdictFor(status.Cycles.Threshold)
	return status
}

// reconcile takes the max of the two ledgers for one filter, degrading to
// zero on read failure.
func reconcile(f ProductionFilter) RegionalSlice {
	sub, err := QueryProduction(f)
	if err != nil {
		logger.Warn("submission ledger read failed, using zero",
			"crop", f.Crop, "district", f.District, "cycle", f.Cycle, "error", err)
		sub = ProductionTotals{}
	}
	agg, err := QueryAggregate(f)
	if err != nil {
		logger.Warn("aggregate ledger read failed, using zero",
			"crop", f.Crop, "district", f.District, "cycle", f.Cycle, "error", err)
		agg = ProductionTotals{}
	}
	return RegionalSlice{
		TotalProduction: math.Max(sub.TotalProduction, agg.TotalProduction),
		Submissions:     maxInt(sub.Submissions, agg.Submissions),
	}
}

func thresholdStatus(actual, threshold float64) ThresholdStatus {
	st := ThresholdStatus{
		Current: actual,
		Value:   threshold,
	}
	if threshold <= 0 {
		// Zero threshold means no data, not division by zero.
		return st
	}
	st.Reached = actual >= threshold
	pct := int(math.Round(actual / threshold * 100))
	if pct > maxDisplayPercentage {
		pct = maxDisplayPercentage
	}
	st.Percentage = pct
	return st
}

func verdictFor(t ThresholdStatus) string {
	if t.Value <= 0 {
		return VerdictNoData
	}
	if t.Reached {
		return VerdictSaturated
	}
	return VerdictOpportunity
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

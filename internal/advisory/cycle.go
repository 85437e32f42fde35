package advisory

import (
	"time"

	"github.com/FarmFlow/FF-Backend/internal/advisory/capacity"
	"github.com/FarmFlow/FF-Backend/internal/db"
)

// Cycle breakpoints: how many submissions this month for the same
// crop/district/state/season key push the next submission into a later
// production cycle. Counts at a breakpoint stay in the lower cycle.
const (
	cycleOneMax = 50
	cycleTwoMax = 100
)

// ClassifyCycle buckets a new submission into production cycle 1-3 by
// counting existing submissions for the same normalized key within the
// calendar month containing now. Months are UTC-pinned so classification
// doesn't drift with server timezone.
//
// Cycle is an approximation input, not a financial value, so classification
// fails soft: any store error logs and returns cycle 1. Two concurrent
// submissions can both see the same count and overshoot a breakpoint
// slightly; that is an accepted soft boundary.
func ClassifyCycle(crop, district, state, season string, now time.Time) int {
	start, end := monthBounds(now)

	var count int64
	err := db.DB.Model(&Submission{}).
		Where("crop_key = ? AND district_key = ? AND state_key = ? AND season_key = ?",
			capacity.NormalizeKey(crop),
			capacity.NormalizeKey(district),
			capacity.NormalizeKey(state),
			capacity.NormalizeKey(season)).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Count(&count).Error
	if err != nil {
		logger.Warn("cycle classification failed, defaulting to cycle 1",
			"crop", capacity.NormalizeKey(crop), "district", capacity.NormalizeKey(district), "error", err)
		return 1
	}

	switch {
	case count <= cycleOneMax:
		return 1
	case count <= cycleTwoMax:
		return 2
	default:
		return 3
	}
}

func monthBounds(now time.Time) (time.Time, time.Time) {
	t := now.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end
}

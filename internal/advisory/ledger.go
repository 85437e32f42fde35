package advisory

import (
	"errors"
	"fmt"
	"time"

	"github.com/FarmFlow/FF-Backend/internal/advisory/capacity"
	"github.com/FarmFlow/FF-Backend/internal/db"
	"github.com/FarmFlow/FF-Backend/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubmissionInput carries everything needed to record one crop selection.
// Season and Cycle are derived by the caller (DetermineSeason/ClassifyCycle),
// never supplied by the end user.
type SubmissionInput struct {
	UserID         string
	Crop           string
	AreaHectare    float64
	OriginalArea   *float64
	State          string
	District       string
	Season         string
	Cycle          int
	EstimatedYield float64
	ActualYield    float64
}

// RecordSubmission validates the selection limits, persists the Submission
// and increments the matching RegionAggregate row in one transaction. The
// aggregate update uses a conflict-increment upsert so concurrent
// submissions to the same key cannot lose updates.
func RecordSubmission(in SubmissionInput) (*Submission, error) {
	if in.AreaHectare > MaxAreaHectare {
		return nil, ErrAreaLimitExceeded
	}

	var existing int64
	if err := db.DB.Model(&Submission{}).
		Where("user_id = ?", in.UserID).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("counting existing selections: %w", err)
	}
	if existing >= MaxSelectionsPerUser {
		return nil, ErrCropLimitExceeded
	}

	cropKey := capacity.NormalizeKey(in.Crop)
	var dup Submission
	err := db.DB.Where("user_id = ? AND crop_key = ?", in.UserID, cropKey).First(&dup).Error
	if err == nil {
		return nil, ErrDuplicateCrop
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("checking duplicate crop: %w", err)
	}

	now := time.Now().UTC()
	sub := &Submission{
		ID:              utils.GenerateUUID(),
		UserID:          in.UserID,
		Crop:            in.Crop,
		CropKey:         cropKey,
		AreaHectare:     in.AreaHectare,
		OriginalArea:    in.OriginalArea,
		EstimatedYield:  in.EstimatedYield,
		ActualYield:     in.ActualYield,
		TotalProduction: in.ActualYield, // one submission's production is its actual yield
		Season:          in.Season,
		SeasonKey:       capacity.NormalizeKey(in.Season),
		State:           in.State,
		StateKey:        capacity.NormalizeKey(in.State),
		District:        in.District,
		DistrictKey:     capacity.NormalizeKey(in.District),
		Cycle:           in.Cycle,
		CreatedAt:       now,
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sub).Error; err != nil {
			return err
		}

		agg := RegionAggregate{
			ID:               utils.GenerateUUID(),
			Crop:             in.Crop,
			CropKey:          sub.CropKey,
			State:            in.State,
			StateKey:         sub.StateKey,
			District:         in.District,
			DistrictKey:      sub.DistrictKey,
			Season:           in.Season,
			SeasonKey:        sub.SeasonKey,
			Cycle:            in.Cycle,
			TotalProduction:  in.ActualYield,
			SubmissionsCount: 1,
			UpdatedAt:        now,
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "crop_key"}, {Name: "state_key"}, {Name: "district_key"},
				{Name: "season_key"}, {Name: "cycle"},
			},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total_production":  gorm.Expr("total_production + ?", in.ActualYield),
				"submissions_count": gorm.Expr("submissions_count + 1"),
				"updated_at":        now,
			}),
		}).Create(&agg).Error
	})
	if err != nil {
		return nil, fmt.Errorf("recording submission: %w", err)
	}

	logger.Info("submission recorded",
		"user", in.UserID, "crop", cropKey, "district", sub.DistrictKey,
		"state", sub.StateKey, "season", sub.SeasonKey, "cycle", in.Cycle,
		"production", in.ActualYield)
	return sub, nil
}

// ProductionFilter selects ledger rows by normalized key. District empty
// means the whole state; Cycle zero means the whole season.
type ProductionFilter struct {
	Crop     string
	State    string
	District string
	Season   string
	Cycle    int
}

// ProductionTotals is the summed view of either ledger.
type ProductionTotals struct {
	TotalProduction float64
	Submissions     int
}

// QueryProduction sums matching Submission rows.
func QueryProduction(f ProductionFilter) (ProductionTotals, error) {
	q := db.DB.Model(&Submission{}).
		Where("crop_key = ? AND state_key = ? AND season_key = ?",
			capacity.NormalizeKey(f.Crop), capacity.NormalizeKey(f.State), capacity.NormalizeKey(f.Season))
	if f.District != "" {
		q = q.Where("district_key = ?", capacity.NormalizeKey(f.District))
	}
	if f.Cycle > 0 {
		q = q.Where("cycle = ?", f.Cycle)
	}

	var row struct {
		Total float64
		Count int
	}
	err := q.Select("COALESCE(SUM(total_production), 0) AS total, COUNT(*) AS count").
		Scan(&row).Error
	if err != nil {
		return ProductionTotals{}, fmt.Errorf("querying submission production: %w", err)
	}
	return ProductionTotals{TotalProduction: row.Total, Submissions: row.Count}, nil
}

// QueryAggregate sums matching RegionAggregate rows. Same shape as
// QueryProduction but reading the running counters instead of raw rows.
func QueryAggregate(f ProductionFilter) (ProductionTotals, error) {
	q := db.DB.Model(&RegionAggregate{}).
		Where("crop_key = ? AND state_key = ? AND season_key = ?",
			capacity.NormalizeKey(f.Crop), capacity.NormalizeKey(f.State), capacity.NormalizeKey(f.Season))
	if f.District != "" {
		q = q.Where("district_key = ?", capacity.NormalizeKey(f.District))
	}
	if f.Cycle > 0 {
		q = q.Where("cycle = ?", f.Cycle)
	}

	var row struct {
		Total float64
		Count int
	}
	err := q.Select("COALESCE(SUM(total_production), 0) AS total, COALESCE(SUM(submissions_count), 0) AS count").
		Scan(&row).Error
	if err != nil {
		return ProductionTotals{}, fmt.Errorf("querying aggregate production: %w", err)
	}
	return ProductionTotals{TotalProduction: row.Total, Submissions: row.Count}, nil
}

// CycleBreakdown is the per-cycle production summary shown on the crop
// details view.
type CycleBreakdown struct {
	Cycle      int     `json:"cycle"`
	Production float64 `json:"production"`
	Farmers    int     `json:"farmers"`
	AvgYield   float64 `json:"avgYield"`
}

// QueryCycleBreakdown groups the season's submissions for a district by cycle.
func QueryCycleBreakdown(crop, state, district, season string) ([]CycleBreakdown, error) {
	var rows []CycleBreakdown
	err := db.DB.Model(&Submission{}).
		Where("crop_key = ? AND state_key = ? AND district_key = ? AND season_key = ?",
			capacity.NormalizeKey(crop), capacity.NormalizeKey(state),
			capacity.NormalizeKey(district), capacity.NormalizeKey(season)).
		Select("cycle, COALESCE(SUM(total_production), 0) AS production, COUNT(*) AS farmers, COALESCE(AVG(actual_yield), 0) AS avg_yield").
		Group("cycle").
		Order("cycle").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying cycle breakdown: %w", err)
	}
	return rows, nil
}

// UserSelections returns the user's most recent selections, newest first.
func UserSelections(userID string, limit int) ([]Submission, error) {
	var subs []Submission
	err := db.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("listing user selections: %w", err)
	}
	return subs, nil
}

// DeleteSelection removes one of the user's submissions, freeing a slot
// against the selection limit. The aggregate counter is never decremented;
// the max() reconciliation at read time absorbs the divergence.
func DeleteSelection(userID, id string) error {
	res := db.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&Submission{})
	if res.Error != nil {
		return fmt.Errorf("deleting selection: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RegionAggregateRow reads back the single aggregate row for a key, nil when
// no submissions have touched it yet.
func RegionAggregateRow(crop, state, district, season string) (*RegionAggregate, error) {
	var aggs []RegionAggregate
	err := db.DB.Where("crop_key = ? AND state_key = ? AND district_key = ? AND season_key = ?",
		capacity.NormalizeKey(crop), capacity.NormalizeKey(state),
		capacity.NormalizeKey(district), capacity.NormalizeKey(season)).
		Find(&aggs).Error
	if err != nil {
		return nil, fmt.Errorf("reading region aggregate: %w", err)
	}
	if len(aggs) == 0 {
		return nil, nil
	}

	// One row per cycle; collapse to the season view.
	out := aggs[0]
	for _, a := range aggs[1:] {
		out.TotalProduction += a.TotalProduction
		out.SubmissionsCount += a.SubmissionsCount
		if a.UpdatedAt.After(out.UpdatedAt) {
			out.UpdatedAt = a.UpdatedAt
		}
	}
	out.Cycle = 0
	return &out, nil
}

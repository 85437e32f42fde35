package advisory

import (
	"time"
)

// Submission is one recorded crop selection by one user. Rows are immutable
// after creation; the only mutation path is explicit deletion by the owner.
// *Key columns hold the normalized lowercase form used for all matching.
type Submission struct {
	ID              string   `gorm:"primaryKey" json:"id"`
	UserID          string   `gorm:"index" json:"user_id"`
	Crop            string   `gorm:"not null" json:"crop"`
	CropKey         string   `gorm:"index" json:"-"`
	AreaHectare     float64  `gorm:"not null" json:"area_hectare"`
	OriginalArea    *float64 `json:"original_area,omitempty"` // set when < 1 ha was scaled up for the model
	EstimatedYield  float64  `json:"estimated_yield"`         // per hectare, from the yield model
	ActualYield     float64  `json:"actual_yield"`            // scaled to the actual area
	TotalProduction float64  `json:"total_production"`
	Season          string   `json:"season"`
	SeasonKey       string   `gorm:"index" json:"-"`
	State           string   `json:"state"`
	StateKey        string   `gorm:"index" json:"-"`
	District        string   `json:"district"`
	DistrictKey     string   `gorm:"index" json:"-"`
	Cycle           int      `gorm:"default:1" json:"cycle"`
	CreatedAt       time.Time `json:"created_at"`
}

// RegionAggregate is the running production counter per unique
// crop/state/district/season/cycle key. It is incremented in the same
// transaction as each matching Submission insert and never decremented.
//
// It deliberately duplicates what summing Submissions would give: the two
// counters are reconciled with max() at read time (see status.go).
type RegionAggregate struct {
	ID               string  `gorm:"primaryKey" json:"id"`
	Crop             string  `json:"crop"`
	CropKey          string  `gorm:"uniqueIndex:idx_region_key" json:"-"`
	State            string  `json:"state"`
	StateKey         string  `gorm:"uniqueIndex:idx_region_key" json:"-"`
	District         string  `json:"district"`
	DistrictKey      string  `gorm:"uniqueIndex:idx_region_key" json:"-"`
	Season           string  `json:"season"`
	SeasonKey        string  `gorm:"uniqueIndex:idx_region_key" json:"-"`
	Cycle            int     `gorm:"uniqueIndex:idx_region_key" json:"cycle"`
	TotalProduction  float64 `json:"total_production"`
	SubmissionsCount int     `json:"submissions_count"`
	UpdatedAt        time.Time `json:"updated_at"`
}

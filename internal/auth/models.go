package auth

import (
	"time"

	"github.com/lib/pq"
)

type Session struct {
	SessionID string    `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"not null;unique" json:"-"`
	ExpiresAt time.Time `gorm:"not null"`
}

type User struct {
	UserID         string         `gorm:"primaryKey" json:"user_id"`
	Username       string         `gorm:"uniqueIndex" json:"username"`
	Password       string         `json:"password" gorm:"-"`
	HashedPassword string         `json:"-"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	PreferredCrops pq.StringArray `gorm:"type:text[]" json:"preferred_crops"`

	// Last location the dashboard resolved for this user; reused by the
	// advisory endpoints when a request carries no explicit location.
	DashboardState    string    `json:"dashboard_state"`
	DashboardDistrict string    `json:"dashboard_district"`
	DashboardLat      float64   `json:"dashboard_lat"`
	DashboardLng      float64   `json:"dashboard_lng"`
	LocationUpdatedAt time.Time `json:"-"`

	Session Session `gorm:"foreignKey:UserID" json:"session"`
}

// SoilProfile stores the per-user soil readings the crop recommendation
// model consumes.
type SoilProfile struct {
	UserID      string    `gorm:"primaryKey" json:"user_id"`
	Nitrogen    *float64  `json:"nitrogen"`
	Phosphorus  *float64  `json:"phosphorus"`
	Potassium   *float64  `json:"potassium"`
	PH          *float64  `json:"ph"`
	SoilType    string    `json:"soil_type"`
	AreaHectare *float64  `json:"area_hectare"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Session) TableName() string     { return "app_auth.sessions" }
func (User) TableName() string        { return "app_auth.users" }
func (SoilProfile) TableName() string { return "app_auth.soil_profiles" }

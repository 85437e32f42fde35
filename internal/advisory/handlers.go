package advisory

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/FarmFlow/FF-Backend/internal/advisory/geocoding"
	"github.com/FarmFlow/FF-Backend/internal/advisory/ml"
	"github.com/FarmFlow/FF-Backend/internal/advisory/weather"
	"github.com/FarmFlow/FF-Backend/internal/auth"
	"github.com/FarmFlow/FF-Backend/internal/db"
	"github.com/FarmFlow/FF-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"error": msg})
}

// storedLocation reads the user's dashboard-resolved location, if any.
func storedLocation(userID string) (state, district string, lat, lng float64) {
	var user auth.User
	if err := db.DB.First(&user, "user_id = ?", userID).Error; err != nil {
		return "", "", 0, 0
	}
	return user.DashboardState, user.DashboardDistrict, user.DashboardLat, user.DashboardLng
}

type selectCropRequest struct {
	Crop        string  `json:"crop"`
	AreaHectare float64 `json:"areaHectare"`
	State       string  `json:"state"`
	District    string  `json:"district"`
}

// SelectCropHandler records a crop selection: estimates yield via the model
// service, classifies the production cycle, and writes both ledgers.
func SelectCropHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var input selectCropRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if input.Crop == "" || input.AreaHectare <= 0 {
		writeError(w, http.StatusBadRequest, "Both crop and areaHectare are required for production estimation")
		return
	}

	state, district := input.State, input.District
	if state == "" || district == "" {
		state, district, _, _ = storedLocation(userID)
	}
	if state == "" || district == "" {
		writeError(w, http.StatusBadRequest, "Location not available. Provide state and district or visit the dashboard first.")
		return
	}

	now := time.Now()
	season := DetermineSeason(now)

	// The yield model was trained on plots of at least one hectare; predict
	// for 1 ha and scale the result back down for smaller areas.
	modelArea := input.AreaHectare
	var originalArea *float64
	if modelArea < 1 {
		a := input.AreaHectare
		originalArea = &a
		modelArea = 1
	}
	scalingFactor := input.AreaHectare / modelArea

	estimatedYield, err := mlClient.PredictYield(r.Context(), ml.YieldRequest{
		Area:         modelArea,
		StateName:    state,
		DistrictName: district,
		Season:       season,
		Crop:         input.Crop,
	})
	if err != nil {
		logger.Error("yield prediction failed", "crop", input.Crop, "error", err)
		writeError(w, http.StatusBadGateway, "Failed to get production estimation")
		return
	}
	actualYield := estimatedYield * scalingFactor

	cycle := ClassifyCycle(input.Crop, district, state, season, now)

	sub, err := RecordSubmission(SubmissionInput{
		UserID:         userID,
		Crop:           input.Crop,
		AreaHectare:    input.AreaHectare,
		OriginalArea:   originalArea,
		State:          state,
		District:       district,
		Season:         season,
		Cycle:          cycle,
		EstimatedYield: estimatedYield,
		ActualYield:    actualYield,
	})
	switch {
	case errors.Is(err, ErrAreaLimitExceeded),
		errors.Is(err, ErrCropLimitExceeded),
		errors.Is(err, ErrDuplicateCrop):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		logger.Error("submission persist failed", "user", userID, "crop", input.Crop, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to record crop selection")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"production": map[string]interface{}{
			"estimatedYield":  estimatedYield,
			"actualYield":     actualYield,
			"unit":            "tonnes/hectare",
			"area":            input.AreaHectare,
			"totalProduction": sub.TotalProduction,
			"crop":            sub.Crop,
			"season":          sub.Season,
			"cycle":           sub.Cycle,
			"location": map[string]string{
				"state":    sub.State,
				"district": sub.District,
			},
		},
		"timestamp": now.UTC().Format(time.RFC3339),
	})
}

// UserSelectionsHandler returns the user's latest selections for the
// dashboard, newest first.
func UserSelectionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	subs, err := UserSelections(userID, 10)
	if err != nil {
		logger.Error("listing selections failed", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch crop selections")
		return
	}

	state, district, _, _ := storedLocation(userID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"crops":   subs,
		"location": map[string]string{
			"state":    state,
			"district": district,
		},
	})
}

// DeleteSelectionHandler removes one of the caller's selections by id.
func DeleteSelectionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	err := DeleteSelection(userID, id)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, "Selection not found")
		return
	case err != nil:
		logger.Error("selection delete failed", "user", userID, "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete selection")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// CropDetailsHandler computes the full regional saturation verdict for a
// crop at the caller's location.
func CropDetailsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	crop := chi.URLParam(r, "cropName")
	if crop == "" {
		writeError(w, http.StatusBadRequest, "crop is required")
		return
	}

	state := r.URL.Query().Get("state")
	district := r.URL.Query().Get("district")
	if state == "" || district == "" {
		state, district, _, _ = storedLocation(userID)
	}
	if state == "" || district == "" {
		// Last-resort defaults keep the advisory page usable with no stored
		// location at all.
		state, district = "Karnataka", "Bangalore Urban"
	}

	status := GetStatus(crop, state, district, time.Now())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"cropDetails": status,
	})
}

// RegionProductionHandler reads back the aggregate counter for one
// crop/location/season key.
func RegionProductionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	crop := r.URL.Query().Get("crop")
	if crop == "" {
		writeError(w, http.StatusBadRequest, "crop is required")
		return
	}

	state, district, _, _ := storedLocation(userID)
	if state == "" || district == "" {
		writeError(w, http.StatusBadRequest, "Location not available. Please visit dashboard first to detect your location.")
		return
	}

	season := DetermineSeason(time.Now())
	agg, err := RegionAggregateRow(crop, state, district, season)
	if err != nil {
		logger.Error("region production read failed", "crop", crop, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch region production")
		return
	}

	region := map[string]interface{}{
		"crop":             crop,
		"state":            state,
		"district":         district,
		"season":           season,
		"totalProduction":  0.0,
		"submissionsCount": 0,
	}
	if agg != nil {
		region["totalProduction"] = agg.TotalProduction
		region["submissionsCount"] = agg.SubmissionsCount
		region["updatedAt"] = agg.UpdatedAt
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"region":  region,
	})
}

// LocationsHandler lists the states and districts covered by the reference
// dataset for dropdown selection.
func LocationsHandler(w http.ResponseWriter, r *http.Request) {
	states := store.States()
	displayStates := make([]string, 0, len(states))
	districtsByState := make(map[string][]string, len(states))
	for _, s := range states {
		display := DisplayName(s)
		displayStates = append(displayStates, display)
		for _, d := range store.Districts(s) {
			districtsByState[display] = append(districtsByState[display], DisplayName(d))
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"states":           displayStates,
		"districtsByState": districtsByState,
	})
}

// RegionDataHandler serves map clicks: resolves the coordinate to the
// nearest known district and returns the saturation verdict there.
func RegionDataHandler(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(chi.URLParam(r, "lat"), 64)
	lng, errLng := strconv.ParseFloat(chi.URLParam(r, "lng"), 64)
	if errLat != nil || errLng != nil {
		writeError(w, http.StatusBadRequest, "Invalid coordinates")
		return
	}
	crop := chi.URLParam(r, "cropName")
	if crop == "" {
		writeError(w, http.StatusBadRequest, "Crop parameter is required")
		return
	}

	district, state := geocoding.NearestDistrict(lat, lng)
	if geoClient != nil {
		if place, err := geoClient.ReverseGeocode(r.Context(), lat, lng); err == nil {
			district, state = place.District, place.State
		} else {
			logger.Warn("reverse geocode failed, using nearest known district",
				"lat", lat, "lng", lng, "error", err)
		}
	}

	status := GetStatus(crop, state, district, time.Now())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"crop":    crop,
		"location": map[string]interface{}{
			"district":    DisplayName(district),
			"state":       DisplayName(state),
			"coordinates": map[string]float64{"lat": lat, "lng": lng},
		},
		"production": map[string]interface{}{
			"actual":           status.Cycles.Threshold.Current,
			"threshold":        status.Cycles.Threshold.Value,
			"thresholdReached": status.Cycles.Threshold.Reached,
			"opportunity":      status.Verdict,
		},
		"farmers": map[string]interface{}{
			"count": status.Regional.Season.Submissions,
		},
		"season": status.Season,
		"cycle":  status.CurrentCycle,
		"thresholdData": map[string]interface{}{
			"source":             status.Source,
			"maxCycleProduction": status.Thresholds.CycleMax,
			"avgCycleProduction": status.Thresholds.CycleAvg,
		},
	})
}

type mapRequest struct {
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
	Crops []string `json:"crops"`
}

// MapHandler builds a static map URL with numbered markers for the user's
// top crops.
func MapHandler(w http.ResponseWriter, r *http.Request) {
	var input mapRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if input.Lat == nil || input.Lng == nil || len(input.Crops) == 0 {
		writeError(w, http.StatusBadRequest, "lat, lng and crops[] are required")
		return
	}

	url := BuildStaticMapURL(*input.Lat, *input.Lng, input.Crops)
	if url == "" {
		writeError(w, http.StatusInternalServerError, "Failed to build map url")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"mapUrl":  url,
	})
}

type cropEstimate struct {
	Crop            string   `json:"crop"`
	Probability     int      `json:"probability"`
	EstimatedYield  *float64 `json:"estimatedYield"`
	Unit            string   `json:"unit"`
	Area            float64  `json:"area"`
	TotalProduction *float64 `json:"totalProduction"`
	Error           string   `json:"error,omitempty"`
}

// RecommendationsHandler runs the crop recommendation model against the
// user's soil profile and current weather, then estimates yield for the top
// five crops.
func RecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var soil auth.SoilProfile
	if err := db.DB.First(&soil, "user_id = ?", userID).Error; err != nil {
		writeError(w, http.StatusBadRequest, "Soil data incomplete. Please update your profile first.")
		return
	}
	if soil.Nitrogen == nil || soil.Phosphorus == nil || soil.Potassium == nil || soil.PH == nil || soil.SoilType == "" {
		writeError(w, http.StatusBadRequest, "Soil data incomplete. Please update your profile with N, P, K, pH, and soil type.")
		return
	}

	area := 1.0
	if soil.AreaHectare != nil && *soil.AreaHectare > 0 {
		area = *soil.AreaHectare
	}

	state, district, lat, lng := storedLocation(userID)

	conditions := weather.DefaultConditions
	if weatherClient != nil && (lat != 0 || lng != 0) {
		if c, err := weatherClient.Current(r.Context(), lat, lng); err == nil {
			conditions = c
		} else {
			logger.Warn("weather unavailable, using defaults", "user", userID, "error", err)
		}
	}

	now := time.Now()
	season := DetermineSeason(now)

	topCrops, err := mlClient.RecommendCrops(r.Context(), ml.RecommendationRequest{
		SoilPH:           *soil.PH,
		Temp:             conditions.Temperature,
		RelativeHumidity: conditions.Humidity,
		N:                *soil.Nitrogen,
		P:                *soil.Phosphorus,
		K:                *soil.Potassium,
		Soil:             soil.SoilType,
		Season:           season,
	})
	if err != nil {
		logger.Error("crop recommendation failed", "user", userID, "error", err)
		writeError(w, http.StatusBadGateway, "Failed to get crop predictions")
		return
	}

	// Highest-probability crops first.
	type ranked struct {
		crop string
		prob float64
	}
	order := make([]ranked, 0, len(topCrops))
	for crop, prob := range topCrops {
		order = append(order, ranked{crop, prob})
	}
	sort.Slice(order, func(i, j int) bool { return order[i].prob > order[j].prob })
	if len(order) > 5 {
		order = order[:5]
	}

	estimates := make([]cropEstimate, 0, len(order))
	for _, rc := range order {
		est := cropEstimate{
			Crop:        rc.crop,
			Probability: int(rc.prob * 100),
			Unit:        "tonnes/hectare",
			Area:        area,
		}
		yield, err := mlClient.PredictYield(r.Context(), ml.YieldRequest{
			Area:         area,
			StateName:    state,
			DistrictName: district,
			Season:       season,
			Crop:         rc.crop,
		})
		if err != nil {
			logger.Warn("yield estimate failed for recommended crop", "crop", rc.crop, "error", err)
			est.Error = "Estimation failed"
		} else {
			total := yield * area
			est.EstimatedYield = &yield
			est.TotalProduction = &total
		}
		estimates = append(estimates, est)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"season":    season,
		"weather":   conditions,
		"estimates": estimates,
		"timestamp": now.UTC().Format(time.RFC3339),
	})
}

package advisory

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/FarmFlow/FF-Backend/internal/advisory/capacity"
	"github.com/FarmFlow/FF-Backend/internal/db"
	"github.com/FarmFlow/FF-Backend/internal/utils"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

// setupTestDB swaps the package-global connection for a fresh in-memory
// sqlite database, restored on cleanup. Each call gets its own named shared
// cache so parallel tests don't see each other's rows.
func setupTestDB(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("file:advisorytest%d?mode=memory&cache=shared", testDBSeq.Add(1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("unwrapping test db: %v", err)
	}
	// A single connection keeps the memory database alive for the whole test.
	sqlDB.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(&Submission{}, &RegionAggregate{}); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}

	prev := db.DB
	db.DB = gdb
	t.Cleanup(func() {
		db.DB = prev
		sqlDB.Close()
	})
}

// installCapacity swaps the package-global store and resolver, restored on
// cleanup.
func installCapacity(t *testing.T, rawDataset string, aliases map[string]string, neighbors map[string][]string) {
	t.Helper()

	var st *capacity.Store
	if rawDataset == "" {
		st = capacity.Empty(aliases)
	} else {
		parsed, err := capacity.Parse([]byte(rawDataset), aliases)
		if err != nil {
			t.Fatalf("parsing test dataset: %v", err)
		}
		st = parsed
	}

	prevStore, prevResolver := store, resolver
	store = st
	resolver = capacity.NewResolver(st, neighbors, nil)
	t.Cleanup(func() {
		store, resolver = prevStore, prevResolver
	})
}

// seedSubmission inserts a submission row directly, bypassing validation and
// the aggregate upsert.
func seedSubmission(t *testing.T, userID, crop, state, district, season string, cycle int, production float64, createdAt time.Time) {
	t.Helper()
	sub := Submission{
		ID:              utils.GenerateUUID(),
		UserID:          userID,
		Crop:            crop,
		CropKey:         capacity.NormalizeKey(crop),
		AreaHectare:     1,
		EstimatedYield:  production,
		ActualYield:     production,
		TotalProduction: production,
		Season:          season,
		SeasonKey:       capacity.NormalizeKey(season),
		State:           state,
		StateKey:        capacity.NormalizeKey(state),
		District:        district,
		DistrictKey:     capacity.NormalizeKey(district),
		Cycle:           cycle,
		CreatedAt:       createdAt,
	}
	if err := db.DB.Create(&sub).Error; err != nil {
		t.Fatalf("seeding submission: %v", err)
	}
}

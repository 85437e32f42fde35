package advisory

import (
	"log"
	"os"

	"github.com/FarmFlow/FF-Backend/internal/advisory/capacity"
	"github.com/FarmFlow/FF-Backend/internal/advisory/geocoding"
	"github.com/FarmFlow/FF-Backend/internal/advisory/ml"
	"github.com/FarmFlow/FF-Backend/internal/advisory/weather"
	"github.com/FarmFlow/FF-Backend/internal/db"
	"github.com/FarmFlow/FF-Backend/internal/logging"
)

// Package state wired in Init. The capacity store is immutable after load
// and safe to share across requests without locking.
var (
	store    *capacity.Store
	resolver *capacity.Resolver
	logger   = logging.NewNop()

	mlClient      *ml.Client
	weatherClient *weather.Client
	geoClient     *geocoding.Client
)

func Init() {
	if err := db.DB.AutoMigrate(&Submission{}, &RegionAggregate{}); err != nil {
		log.Fatal("Failed to auto-migrate advisory tables: ", err)
	}

	lg, err := logging.New(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatal("Failed to build advisory logger: ", err)
	}
	logger = lg

	cfg, err := capacity.LoadRegionConfig(os.Getenv("REGION_CONFIG_PATH"))
	if err != nil {
		log.Fatal("Failed to load region config: ", err)
	}

	dataPath := os.Getenv("CAPACITY_DATA_PATH")
	if dataPath == "" {
		dataPath = "processed_cycles.json"
	}
	st, err := capacity.Load(dataPath, cfg.Aliases)
	if err != nil {
		// Missing reference data is survivable: every threshold degrades to
		// the synthetic default.
		log.Printf("[advisory] WARNING: capacity dataset unavailable (%v); thresholds will be synthetic", err)
		st = capacity.Empty(cfg.Aliases)
	}
	store = st
	resolver = capacity.NewResolver(store, cfg.Neighbors, logger)

	mlClient = ml.NewClient(ml.LoadFromEnv())

	weatherClient, err = weather.NewClient()
	if err != nil {
		log.Printf("[advisory] WARNING: weather client disabled: %v", err)
	}

	geoClient, err = geocoding.NewClient()
	if err != nil {
		log.Printf("[advisory] WARNING: geocoding client disabled: %v", err)
	}
	if geoClient == nil {
		log.Println("[advisory] GOOGLE_MAPS_API_KEY not set; submissions must carry explicit state/district")
	}
}

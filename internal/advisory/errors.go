package advisory

import "errors"

const (
	// MaxAreaHectare is the largest area a single crop selection may cover.
	MaxAreaHectare = 2.0
	// MaxSelectionsPerUser caps how many crop selections one user can hold.
	MaxSelectionsPerUser = 5
)

// Validation failures surfaced to the caller with a specific reason; all
// other persistence failures are wrapped generically.
var (
	ErrAreaLimitExceeded = errors.New("area limit exceeded: maximum 2 hectares per crop selection")
	ErrCropLimitExceeded = errors.New("crop limit exceeded: maximum 5 crop selections per user")
	ErrDuplicateCrop     = errors.New("crop already selected: each crop can only be selected once")
)

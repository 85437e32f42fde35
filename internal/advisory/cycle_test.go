package advisory

import (
	"fmt"
	"testing"
	"time"
)

func seedMonthSubmissions(t *testing.T, n int, at time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		seedSubmission(t, fmt.Sprintf("user-%d", i), "Rice", "Karnataka", "Mandya", "Kharif", 1, 2.5, at)
	}
}

func TestClassifyCycleEmptyLedger(t *testing.T) {
	setupTestDB(t)

	now := time.Date(2026, time.July, 10, 0, 0, 0, 0, time.UTC)
	if got := ClassifyCycle("Rice", "Mandya", "Karnataka", "Kharif", now); got != 1 {
		t.Errorf("cycle = %d, want 1 for empty ledger", got)
	}
}

func TestClassifyCycleBreakpoints(t *testing.T) {
	setupTestDB(t)

	now := time.Date(2026, time.July, 10, 0, 0, 0, 0, time.UTC)
	seedMonthSubmissions(t, 50, now)
	if got := ClassifyCycle("Rice", "Mandya", "Karnataka", "Kharif", now); got != 1 {
		t.Errorf("cycle at count 50 = %d, want 1 (counts at a breakpoint stay low)", got)
	}

	seedMonthSubmissions(t, 1, now)
	if got := ClassifyCycle("Rice", "Mandya", "Karnataka", "Kharif", now); got != 2 {
		t.Errorf("cycle at count 51 = %d, want 2", got)
	}

	seedMonthSubmissions(t, 50, now)
	if got := ClassifyCycle("Rice", "Mandya", "Karnataka", "Kharif", now); got != 3 {
		t.Errorf("cycle at count 101 = %d, want 3", got)
	}
}

func TestClassifyCycleIgnoresOtherMonths(t *testing.T) {
	setupTestDB(t)

	now := time.Date(2026, time.July, 10, 0, 0, 0, 0, time.UTC)
	lastMonth := now.AddDate(0, -1, 0)
	seedMonthSubmissions(t, 60, lastMonth)

	if got := ClassifyCycle("Rice", "Mandya", "Karnataka", "Kharif", now); got != 1 {
		t.Errorf("cycle = %d, want 1; last month's submissions must not count", got)
	}
}

func TestClassifyCycleKeyIsolation(t *testing.T) {
	setupTestDB(t)

	now := time.Date(2026, time.July, 10, 0, 0, 0, 0, time.UTC)
	seedMonthSubmissions(t, 60, now) // all Rice/Mandya

	// A different crop in the same district starts fresh.
	if got := ClassifyCycle("Ragi", "Mandya", "Karnataka", "Kharif", now); got != 1 {
		t.Errorf("cycle for unrelated crop = %d, want 1", got)
	}
	// Same crop in a different district starts fresh.
	if got := ClassifyCycle("Rice", "Mysore", "Karnataka", "Kharif", now); got != 1 {
		t.Errorf("cycle for unrelated district = %d, want 1", got)
	}
}

func TestClassifyCycleNormalizesInput(t *testing.T) {
	setupTestDB(t)

	now := time.Date(2026, time.July, 10, 0, 0, 0, 0, time.UTC)
	seedMonthSubmissions(t, 51, now)

	if got := ClassifyCycle("  RICE ", " MANDYA", "karnataka", "KHARIF", now); got != 2 {
		t.Errorf("cycle with unnormalized input = %d, want 2", got)
	}
}

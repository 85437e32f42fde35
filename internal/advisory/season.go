package advisory

import "time"

const (
	SeasonKharif = "Kharif"
	SeasonRabi   = "Rabi"
	SeasonZaid   = "Zaid"
)

// DetermineSeason maps the calendar month of now (UTC) to a cropping season:
// Kharif Jun-Oct, Rabi Nov-Mar, Zaid Apr-May. The upstream handlers
// disagreed on the Rabi end month (Feb vs Mar); Nov-Mar is canonical here.
func DetermineSeason(now time.Time) string {
	switch m := now.UTC().Month(); {
	case m >= time.June && m <= time.October:
		return SeasonKharif
	case m >= time.November || m <= time.March:
		return SeasonRabi
	default:
		return SeasonZaid
	}
}

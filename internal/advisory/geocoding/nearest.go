package geocoding

import "math"

// districtCenter is a rough centroid for districts covered by the shipped
// reference dataset. Used as the map-click fallback when reverse geocoding
// is unavailable or times out.
type districtCenter struct {
	district string
	state    string
	lat, lng float64
}

var districtCenters = []districtCenter{
	{"bangalore rural", "karnataka", 12.9716, 77.5946},
	{"mysore", "karnataka", 12.2958, 76.6394},
	{"mandya", "karnataka", 12.5218, 76.8951},
	{"hassan", "karnataka", 13.0033, 76.1004},
	{"tumkur", "karnataka", 13.3379, 77.1022},
	{"ramanagara", "karnataka", 12.7206, 77.2781},
	{"kolar", "karnataka", 13.1358, 78.1297},
	{"chikballapur", "karnataka", 13.4355, 77.7315},
	{"belgaum", "karnataka", 15.8497, 74.4977},
	{"bagalkot", "karnataka", 16.1781, 75.6961},
}

// NearestDistrict maps a coordinate to the closest known district centroid.
func NearestDistrict(lat, lng float64) (district, state string) {
	best := districtCenters[0]
	bestDist := math.Inf(1)
	for _, c := range districtCenters {
		d := haversineKm(lat, lng, c.lat, c.lng)
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best.district, best.state
}

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

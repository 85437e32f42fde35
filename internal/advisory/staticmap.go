package advisory

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// BuildStaticMapURL builds a Google Static Maps URL centered on the
// coordinate with one numbered marker per crop, spread around the center so
// the labels don't overlap. Returns "" when no maps key is configured.
func BuildStaticMapURL(lat, lng float64, crops []string) string {
	key := os.Getenv("GOOGLE_MAPS_API_KEY")
	if key == "" {
		return ""
	}

	// Small fixed offsets; enough spread to keep up to five markers legible
	// at zoom 12.
	offsets := [][2]float64{
		{0, 0},
		{0.02, 0.02},
		{-0.02, 0.02},
		{0.02, -0.02},
		{-0.02, -0.02},
	}

	// Labels are single characters, so markers are numbered and the client
	// maps the number back to the crop list.
	var markers []string
	for i := range crops {
		if i >= len(offsets) {
			break
		}
		markers = append(markers, fmt.Sprintf("markers=color:green%%7Clabel:%d%%7C%f,%f",
			i+1, lat+offsets[i][0], lng+offsets[i][1]))
	}

	q := url.Values{}
	q.Set("center", fmt.Sprintf("%f,%f", lat, lng))
	q.Set("zoom", "12")
	q.Set("size", "640x400")
	q.Set("maptype", "roadmap")
	q.Set("key", key)

	return "https://maps.googleapis.com/maps/api/staticmap?" +
		q.Encode() + "&" + strings.Join(markers, "&")
}

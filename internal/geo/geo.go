// Package geo provides geofence distance math, the registered site list,
// and the injectable geolocation capability used by attendance claims.
package geo

import (
	"context"
	"math"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371

// FenceRadiusKm is the default geofence tolerance around a session site.
// Deliberately generous: device geolocation is noisy at degree level.
const FenceRadiusKm = 250

// Position is a pair of geographic coordinates in degrees.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Locator resolves the caller's current position. It is permission-gated
// and may fail or deny; callers must treat failure as "location unavailable".
type Locator interface {
	Current(ctx context.Context) (Position, error)
}

// Distance returns the great-circle distance in kilometers between two
// coordinates. Inputs outside [-90,90]/[-180,180] are accepted uncritically.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Site is a named geofence center from the registered site list.
type Site struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// sites is the fixed registry of proctoring locations.
var sites = []Site{
	{Name: "Room 101", Latitude: 5.761553, Longitude: -0.2150965},
	{Name: "Room 102", Latitude: 40.7128, Longitude: -74.006},
	{Name: "Tanko", Latitude: 5.7633979, Longitude: -0.2186333},
}

// Sites returns a copy of the registered site list.
func Sites() []Site {
	out := make([]Site, len(sites))
	copy(out, sites)
	return out
}

// SiteByName looks up a registered site. The second return reports whether
// the name is known.
func SiteByName(name string) (Site, bool) {
	for _, s := range sites {
		if s.Name == name {
			return s, true
		}
	}
	return Site{}, false
}

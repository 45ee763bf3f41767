package maps

import (
	"context"
	"fmt"
	"time"

	"googlemaps.github.io/maps"

	"kolekta/internal/types"
)

// RouteService handles interactions with the Google Maps Directions API.
type RouteService struct {
	client *maps.Client
}

// NewRouteService creates a new RouteService with the given API key.
func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// Path is a decoded driving route between two collection points, ready for
// the app to draw as a polyline and fit on screen.
type Path struct {
	Points          []types.Point `json:"points"`
	NorthEast       types.Point   `json:"north_east"`
	SouthWest       types.Point   `json:"south_west"`
	Distance        string        `json:"distance"`
	DurationSeconds int64         `json:"duration_seconds"`
}

// GetPath fetches driving directions from origin to destination and decodes
// the overview polyline into map points.
func (s *RouteService) GetPath(ctx context.Context, origin, destination types.Point) (Path, error) {
	r := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", origin.Lat, origin.Lng),
		Destination: fmt.Sprintf("%f,%f", destination.Lat, destination.Lng),
		Mode:        maps.TravelModeDriving,
		Region:      "PH", // Bias results to the Philippines
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return Path{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return Path{}, fmt.Errorf("no route found")
	}

	route := routes[0]
	decoded, err := route.OverviewPolyline.Decode()
	if err != nil {
		return Path{}, fmt.Errorf("decoding overview polyline: %w", err)
	}

	points := make([]types.Point, 0, len(decoded))
	for _, ll := range decoded {
		points = append(points, types.Point{Lat: ll.Lat, Lng: ll.Lng})
	}

	leg := route.Legs[0]
	return Path{
		Points:          points,
		NorthEast:       types.Point{Lat: route.Bounds.NorthEast.Lat, Lng: route.Bounds.NorthEast.Lng},
		SouthWest:       types.Point{Lat: route.Bounds.SouthWest.Lat, Lng: route.Bounds.SouthWest.Lng},
		Distance:        leg.Distance.HumanReadable,
		DurationSeconds: int64(leg.Duration / time.Second),
	}, nil
}

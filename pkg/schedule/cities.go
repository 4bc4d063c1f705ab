package schedule

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/timegrid-dev/timegrid/pkg/catalog"
)

// AddCity appends a tracked city built from a catalog record. Becoming the
// first city makes it the anchor; existing candidate selections are not
// converted, they simply re-anchor.
func (s *State) AddCity(rec catalog.Record) TrackedCity {
	city := TrackedCity{
		ID:             uuid.NewString(),
		TzID:           rec.TzID,
		CityName:       rec.CityEN,
		CityNameNative: rec.CityJA,
		CountryName:    rec.CountryEN,
		CatalogID:      rec.ID,
	}
	if city.CityName == "" {
		city.CityName = rec.DisplayName()
	}
	s.Cities = append(s.Cities, city)
	return city
}

// AddCurrentLocation appends a city for the host's own zone.
func (s *State) AddCurrentLocation(tzID string) TrackedCity {
	city := TrackedCity{
		ID:                uuid.NewString(),
		TzID:              tzID,
		CityName:          "Current Location",
		IsCurrentLocation: true,
	}
	s.Cities = append(s.Cities, city)
	return city
}

// RemoveCity deletes a tracked city by id.
func (s *State) RemoveCity(id string) error {
	for i, c := range s.Cities {
		if c.ID == id {
			s.Cities = append(s.Cities[:i], s.Cities[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownCity, id)
}

// MoveCity splices the city at from to position to, the drag-and-drop
// reorder. Moving into or out of position 0 silently re-anchors all
// candidates.
func (s *State) MoveCity(from, to int) error {
	if from < 0 || from >= len(s.Cities) || to < 0 || to >= len(s.Cities) {
		return fmt.Errorf("%w: move %d to %d of %d", ErrUnknownCity, from, to, len(s.Cities))
	}
	if from == to {
		return nil
	}
	city := s.Cities[from]
	rest := append(s.Cities[:from:from], s.Cities[from+1:]...)
	s.Cities = append(rest[:to:to], append([]TrackedCity{city}, rest[to:]...)...)
	return nil
}

// CityZones returns the tracked zone ids in display order.
func (s *State) CityZones() []string {
	zones := make([]string, len(s.Cities))
	for i, c := range s.Cities {
		zones[i] = c.TzID
	}
	return zones
}

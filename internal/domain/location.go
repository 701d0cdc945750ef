package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Location is a WGS84 coordinate pair.
type Location struct {
	Latitude  float64
	Longitude float64
}

// ParseLocation decodes a {"latitude": .., "longitude": ..} object leniently.
// Coordinates may be JSON numbers or numeric strings. If the object is missing,
// malformed, or either coordinate cannot be read as a finite number, the zero
// location is returned.
func ParseLocation(raw json.RawMessage) Location {
	if len(raw) == 0 {
		return Location{}
	}
	var fields struct {
		Latitude  json.RawMessage `json:"latitude"`
		Longitude json.RawMessage `json:"longitude"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Location{}
	}
	lat, ok := parseCoordinate(fields.Latitude)
	if !ok {
		return Location{}
	}
	lng, ok := parseCoordinate(fields.Longitude)
	if !ok {
		return Location{}
	}
	return Location{Latitude: lat, Longitude: lng}
}

func parseCoordinate(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		text = string(raw)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

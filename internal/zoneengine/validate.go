package zoneengine

import (
	"errors"
	"fmt"
)

// Coordinate bounds matching the tracking radar's field of view (spec §4.6).
// Vertices outside this range are accepted — a zone may legitimately extend
// past the sensor's reliable detection envelope — but are worth flagging.
const (
	fieldXMin = -6000
	fieldXMax = 6000
	fieldYMin = 0
	fieldYMax = 6000
)

var (
	ErrEmptyID        = errors.New("zoneengine: zone id must not be empty")
	ErrVertexCount    = errors.New("zoneengine: vertex count must be 3-8")
	ErrSelfIntersect  = errors.New("zoneengine: polygon is self-intersecting")
	ErrDuplicateID    = errors.New("zoneengine: duplicate zone id")
)

// Validate checks vertex count and self-intersection. It never rejects a
// zone for having vertices outside the nominal field of view; callers that
// want that warning can check OutOfField separately.
func Validate(z Zone) error {
	if z.ID == "" {
		return ErrEmptyID
	}
	if len(z.Vertices) < 3 || len(z.Vertices) > MaxVertices {
		return fmt.Errorf("%w: zone %q has %d", ErrVertexCount, z.ID, len(z.Vertices))
	}
	if !IsSimplePolygon(z.Vertices) {
		return fmt.Errorf("%w: zone %q", ErrSelfIntersect, z.ID)
	}
	return nil
}

// OutOfField reports any vertex indices whose coordinates fall outside the
// sensor's nominal field of view.
func OutOfField(z Zone) []int {
	var idx []int
	for i, v := range z.Vertices {
		if v.X < fieldXMin || v.X > fieldXMax || v.Y < fieldYMin || v.Y > fieldYMax {
			idx = append(idx, i)
		}
	}
	return idx
}

// ValidateMap validates every zone in zones and rejects duplicate IDs.
func ValidateMap(zones []Zone) error {
	if len(zones) > MaxZones {
		return fmt.Errorf("zoneengine: %d zones exceeds max %d", len(zones), MaxZones)
	}
	seen := make(map[string]bool, len(zones))
	for _, z := range zones {
		if err := Validate(z); err != nil {
			return err
		}
		if seen[z.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateID, z.ID)
		}
		seen[z.ID] = true
	}
	return nil
}

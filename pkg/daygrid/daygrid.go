// Package daygrid maps minute intervals of an abstract 1440-minute day onto
// horizontal bands, splitting anything that wraps past the day boundary, and
// provides the slot/pixel conversions for the grid.
package daygrid

import "math"

// MinutesPerDay is the length of the abstract day every band is laid onto.
const MinutesPerDay = 24 * 60

// Hour width clamp, in pixels.
const (
	MinHourWidthPx = 10
	MaxHourWidthPx = 120
)

// Segment is a horizontal band within one canonical day, in minutes.
// Left is always in [0, MinutesPerDay) and Left+Width never exceeds
// MinutesPerDay.
type Segment struct {
	Left  int
	Width int
}

// WrapSegments normalizes an interval whose left edge may be negative or past
// the day boundary onto the canonical [0, 1440) day. An interval that crosses
// the boundary is split into exactly two pieces; widths always sum to the
// input width. A non-positive width yields no segments.
func WrapSegments(leftMinutes, widthMinutes int) []Segment {
	if widthMinutes <= 0 {
		return nil
	}

	left := ((leftMinutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	if left+widthMinutes <= MinutesPerDay {
		return []Segment{{Left: left, Width: widthMinutes}}
	}

	first := MinutesPerDay - left
	return []Segment{
		{Left: left, Width: first},
		{Left: 0, Width: widthMinutes - first},
	}
}

// HourWidthPx distributes the available horizontal space evenly over 24
// hours after reserving room for labels, clamped to the legibility range.
func HourWidthPx(availableWidthPx, labelWidthPx int) int {
	w := (availableWidthPx - labelWidthPx) / 24
	if w < MinHourWidthPx {
		return MinHourWidthPx
	}
	if w > MaxHourWidthPx {
		return MaxHourWidthPx
	}
	return w
}

// SlotsPerDay returns the slot count for a granularity in minutes.
func SlotsPerDay(granularityMinutes int) int {
	return MinutesPerDay / granularityMinutes
}

// SlotToPx converts a slot index to its left pixel edge.
func SlotToPx(slot, hourWidthPx, slotsPerHour int) int {
	return slot * hourWidthPx / slotsPerHour
}

// PxToSlot converts a pointer position to the nearest slot index.
func PxToSlot(px, hourWidthPx, slotsPerHour int) int {
	if hourWidthPx <= 0 {
		return 0
	}
	return int(math.Round(float64(px) * float64(slotsPerHour) / float64(hourWidthPx)))
}

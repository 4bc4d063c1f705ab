// Package comfort scores how agreeable a meeting slot is across a set of
// cities and compresses the per-slot scores into a handful of renderable
// heat bands.
package comfort

import (
	"math"
	"time"

	"github.com/timegrid-dev/timegrid/pkg/civiltime"
	"github.com/timegrid-dev/timegrid/pkg/daygrid"
)

// Comfort levels for a local hour.
const (
	Night    = 0 // nobody wants this
	Fringe   = 1 // 06h, or 21-23h
	Shoulder = 2 // 07-09h and 18-21h
	Working  = 3 // 09-18h
)

// HourComfort is the fixed step function mapping a local hour to its
// desirability for a meeting.
func HourComfort(localHour int) int {
	switch {
	case localHour >= 9 && localHour < 18:
		return Working
	case localHour >= 7 && localHour < 9:
		return Shoulder
	case localHour >= 18 && localHour < 21:
		return Shoulder
	case localHour == 6:
		return Fringe
	case localHour >= 21 && localHour < 23:
		return Fringe
	default:
		return Night
	}
}

// Band is a run of adjacent slots sharing one quantized overlay intensity.
// The slot range is half-open.
type Band struct {
	StartSlot int
	EndSlot   int
	Intensity float64
}

// ConsensusSegments computes the consensus heat overlay for one anchored day.
// anchor is the instant of slot 0 (the anchor city's local midnight); each
// slot's score is the summed HourComfort of every city's local hour at that
// slot. Intensity is capped at 0.25 and quantized to one decimal so adjacent
// slots collapse into a few bands; a zero score carries zero intensity.
// Bands with no intensity, or narrower than two slots, are dropped.
//
// Cities whose zone cannot be resolved are left out of both the score and
// the attainable maximum. The result is deterministic for identical inputs.
func ConsensusSegments(anchor time.Time, granularityMinutes int, tzIDs []string, conv *civiltime.Converter) []Band {
	zones := make([]string, 0, len(tzIDs))
	for _, tz := range tzIDs {
		if _, err := conv.FieldsAt(anchor, tz); err == nil {
			zones = append(zones, tz)
		}
	}
	totalSlots := daygrid.SlotsPerDay(granularityMinutes)
	if len(zones) == 0 || totalSlots == 0 {
		return nil
	}
	maxScore := Working * len(zones)

	intensities := make([]float64, totalSlots)
	for slot := 0; slot < totalSlots; slot++ {
		instant := anchor.Add(time.Duration(slot*granularityMinutes) * time.Minute)
		score := 0
		for _, tz := range zones {
			f, err := conv.FieldsAt(instant, tz)
			if err != nil {
				continue
			}
			score += HourComfort(f.Hour)
		}
		intensities[slot] = quantize(intensity(score, maxScore))
	}

	return encode(intensities)
}

func intensity(score, maxScore int) float64 {
	if score <= 0 {
		return 0
	}
	v := 0.05 + 0.2*float64(score)/float64(maxScore)
	return math.Min(0.25, v)
}

func quantize(v float64) float64 {
	return math.Round(v*10) / 10
}

// encode run-length-encodes per-slot intensities into bands, dropping empty
// bands and sub-2-slot slivers.
func encode(intensities []float64) []Band {
	var bands []Band
	start := 0
	for slot := 1; slot <= len(intensities); slot++ {
		if slot < len(intensities) && intensities[slot] == intensities[start] {
			continue
		}
		if intensities[start] > 0 && slot-start >= 2 {
			bands = append(bands, Band{StartSlot: start, EndSlot: slot, Intensity: intensities[start]})
		}
		start = slot
	}
	return bands
}

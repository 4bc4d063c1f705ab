// Package render writes candidates and their per-city local times as
// terminal text.
package render

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/timegrid-dev/timegrid/pkg/civiltime"
	"github.com/timegrid-dev/timegrid/pkg/comfort"
	"github.com/timegrid-dev/timegrid/pkg/schedule"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	cityColor  = color.New(color.FgWhite, color.Bold)
	timeColor  = color.New(color.FgGreen)
	dimColor   = color.New(color.Faint)
)

// Candidate writes one candidate block: its display name and date, then one
// line per tracked city with the selection translated into that city's local
// clock. Cities whose zone cannot be resolved render a placeholder line
// rather than failing the block.
func Candidate(w io.Writer, state *schedule.State, cand schedule.Candidate, conv *civiltime.Converter) error {
	titleColor.Fprintf(w, "%s", cand.DisplayName)
	dimColor.Fprintf(w, "  %04d-%02d-%02d\n", cand.Date.Year, cand.Date.Month, cand.Date.Day)

	anchor, ok := state.Anchor()
	if !ok {
		dimColor.Fprintln(w, "  (no cities tracked)")
		return nil
	}
	if cand.Selection == nil {
		dimColor.Fprintln(w, "  (no time selected)")
		return nil
	}

	midnight, err := conv.LocalMidnight(cand.Date, anchor.TzID)
	if err != nil {
		return fmt.Errorf("resolving anchor midnight: %w", err)
	}
	gran := state.Settings.GranularityMinutes
	start := midnight.Add(time.Duration(cand.Selection.Start*gran) * time.Minute)
	end := midnight.Add(time.Duration(cand.Selection.End*gran) * time.Minute)

	for _, city := range state.Cities {
		if err := cityLine(w, city, start, end, cand.Date, conv); err != nil {
			dimColor.Fprintf(w, "  %-24s (unknown zone %s)\n", cityLabel(city), city.TzID)
		}
	}
	return nil
}

func cityLine(w io.Writer, city schedule.TrackedCity, start, end time.Time, anchorDate civiltime.CivilDate, conv *civiltime.Converter) error {
	sf, err := conv.FieldsAt(start, city.TzID)
	if err != nil {
		return err
	}
	ef, err := conv.FieldsAt(end, city.TzID)
	if err != nil {
		return err
	}

	cityColor.Fprintf(w, "  %-24s", cityLabel(city))
	timeColor.Fprintf(w, "%02d:%02d%s - %02d:%02d%s",
		sf.Hour, sf.Minute, dayMarker(sf.Date(), anchorDate),
		ef.Hour, ef.Minute, dayMarker(ef.Date(), anchorDate))
	dimColor.Fprintf(w, "  %s\n", conv.OffsetLabel(start, city.TzID))
	return nil
}

func cityLabel(city schedule.TrackedCity) string {
	if city.CityNameNative != "" && city.CityNameNative != city.CityName {
		return city.CityName + " (" + city.CityNameNative + ")"
	}
	return city.CityName
}

// dayMarker flags local dates that fall outside the anchor's civil day.
func dayMarker(d, anchorDate civiltime.CivilDate) string {
	switch {
	case d == anchorDate:
		return ""
	case lessDate(d, anchorDate):
		return " -1d"
	default:
		return " +1d"
	}
}

func lessDate(a, b civiltime.CivilDate) bool {
	if a.Year != b.Year {
		return a.Year < b.Year
	}
	if a.Month != b.Month {
		return a.Month < b.Month
	}
	return a.Day < b.Day
}

// Bands writes the consensus overlay as a one-character-per-slot strip, the
// terminal stand-in for the heat band.
func Bands(w io.Writer, bands []comfort.Band, totalSlots int) {
	strip := make([]byte, totalSlots)
	for i := range strip {
		strip[i] = '.'
	}
	for _, b := range bands {
		ch := glyphFor(b.Intensity)
		for i := b.StartSlot; i < b.EndSlot && i < totalSlots; i++ {
			strip[i] = ch
		}
	}
	dimColor.Fprint(w, "  consensus ")
	fmt.Fprintln(w, string(strip))
}

func glyphFor(intensity float64) byte {
	switch {
	case intensity >= 0.3:
		return '#'
	case intensity >= 0.2:
		return '+'
	default:
		return '-'
	}
}

// Plain disables color output, for tests and piped output.
func Plain() {
	color.NoColor = true
}

// Package schedule holds the application state for the meeting grid: the
// ordered tracked cities, the date candidates with their slot selections,
// and the view settings, plus the drag interaction that edits selections.
//
// State methods mutate in memory and report what happened; persisting the
// result is the caller's explicit follow-up, so every mutation has exactly
// one side-effect site.
package schedule

import (
	"errors"
	"fmt"

	"github.com/timegrid-dev/timegrid/pkg/civiltime"
	"github.com/timegrid-dev/timegrid/pkg/daygrid"
)

// MaxCandidates bounds how many date candidates can be alive at once.
const MaxCandidates = 5

// DefaultGranularityMinutes is the slot width used before the user picks one.
const DefaultGranularityMinutes = 60

var (
	ErrCandidateLimit   = errors.New("candidate limit reached")
	ErrUnknownCandidate = errors.New("no such candidate")
	ErrUnknownCity      = errors.New("no such city")
	ErrBadGranularity   = errors.New("granularity must be 15, 30 or 60 minutes")
)

// ViewSettings govern the slot width for all candidates uniformly.
type ViewSettings struct {
	GranularityMinutes int `json:"granularity"`
}

// SlotRange is a half-open selection in slot indices, always normalized to
// Start < End.
type SlotRange struct {
	Start int `json:"startSlot"`
	End   int `json:"endSlot"`
}

// TrackedCity is one user-ordered city row. The first city anchors every
// candidate's day grid.
type TrackedCity struct {
	ID                string `json:"id"`
	TzID              string `json:"tzId"`
	CityName          string `json:"cityName"`
	CityNameNative    string `json:"cityNameNative,omitempty"`
	CountryName       string `json:"countryName,omitempty"`
	CatalogID         string `json:"catalogId,omitempty"`
	IsCurrentLocation bool   `json:"isCurrentLocation,omitempty"`
}

// Candidate is one date-anchored meeting proposal.
type Candidate struct {
	ID          string              `json:"id"`
	DisplayName string              `json:"displayName"`
	Date        civiltime.CivilDate `json:"date"`
	Selection   *SlotRange          `json:"selection,omitempty"`
}

// State is the whole application state.
type State struct {
	Settings   ViewSettings  `json:"settings"`
	Cities     []TrackedCity `json:"cities"`
	Candidates []Candidate   `json:"candidates"`
}

// NewState returns a state with default settings and one empty candidate for
// the given date.
func NewState(today civiltime.CivilDate) *State {
	s := &State{Settings: ViewSettings{GranularityMinutes: DefaultGranularityMinutes}}
	s.Candidates = append(s.Candidates, newCandidate(1, today))
	return s
}

// TotalSlots is the slot count of one day at the current granularity.
func (s *State) TotalSlots() int {
	return daygrid.SlotsPerDay(s.Settings.GranularityMinutes)
}

// Anchor returns the first tracked city, whose local midnight defines slot 0
// of every candidate.
func (s *State) Anchor() (TrackedCity, bool) {
	if len(s.Cities) == 0 {
		return TrackedCity{}, false
	}
	return s.Cities[0], true
}

// SetGranularity switches the slot width and rescales every selection to
// keep its wall-clock extent, rounding outward so selections never vanish.
func (s *State) SetGranularity(minutes int) error {
	if minutes != 15 && minutes != 30 && minutes != 60 {
		return fmt.Errorf("%w: %d", ErrBadGranularity, minutes)
	}
	old := s.Settings.GranularityMinutes
	if minutes == old {
		return nil
	}
	s.Settings.GranularityMinutes = minutes

	total := s.TotalSlots()
	for i := range s.Candidates {
		sel := s.Candidates[i].Selection
		if sel == nil {
			continue
		}
		startMin := sel.Start * old
		endMin := sel.End * old
		rescaled := SlotRange{
			Start: startMin / minutes,
			End:   (endMin + minutes - 1) / minutes,
		}
		s.Candidates[i].Selection = clampRange(rescaled, total)
	}
	return nil
}

// Normalize restores every invariant on state that arrived from outside
// (persisted records, query parameters): granularity is valid, at most five
// and at least one candidate, selections in bounds and ordered.
func (s *State) Normalize(today civiltime.CivilDate) {
	switch s.Settings.GranularityMinutes {
	case 15, 30, 60:
	default:
		s.Settings.GranularityMinutes = DefaultGranularityMinutes
	}
	if len(s.Candidates) > MaxCandidates {
		s.Candidates = s.Candidates[:MaxCandidates]
	}
	total := s.TotalSlots()
	for i := range s.Candidates {
		if sel := s.Candidates[i].Selection; sel != nil {
			r := *sel
			if r.Start > r.End {
				r.Start, r.End = r.End, r.Start
			}
			s.Candidates[i].Selection = clampRange(r, total)
		}
		if s.Candidates[i].DisplayName == "" {
			s.Candidates[i].DisplayName = candidateName(i + 1)
		}
	}
	if len(s.Candidates) == 0 {
		s.Candidates = append(s.Candidates, newCandidate(1, today))
	}
}

// clampRange confines r to [0, totalSlots], returning nil when nothing
// selectable remains.
func clampRange(r SlotRange, totalSlots int) *SlotRange {
	if r.Start < 0 {
		r.Start = 0
	}
	if r.End > totalSlots {
		r.End = totalSlots
	}
	if r.Start >= r.End {
		return nil
	}
	return &r
}

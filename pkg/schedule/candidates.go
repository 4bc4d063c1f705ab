package schedule

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/timegrid-dev/timegrid/pkg/civiltime"
)

func candidateName(n int) string {
	return fmt.Sprintf("Candidate %d", n)
}

func newCandidate(n int, date civiltime.CivilDate) Candidate {
	return Candidate{
		ID:          uuid.NewString(),
		DisplayName: candidateName(n),
		Date:        date,
	}
}

// CandidateByID finds a candidate, returning a pointer into state.
func (s *State) CandidateByID(id string) (*Candidate, bool) {
	for i := range s.Candidates {
		if s.Candidates[i].ID == id {
			return &s.Candidates[i], true
		}
	}
	return nil, false
}

// AddCandidate creates a new candidate cloning the last one's date and
// selection, up to the limit of five.
func (s *State) AddCandidate(today civiltime.CivilDate) (Candidate, error) {
	if len(s.Candidates) >= MaxCandidates {
		return Candidate{}, ErrCandidateLimit
	}
	cand := newCandidate(len(s.Candidates)+1, today)
	if n := len(s.Candidates); n > 0 {
		prev := s.Candidates[n-1]
		cand.Date = prev.Date
		if prev.Selection != nil {
			sel := *prev.Selection
			cand.Selection = &sel
		}
	}
	s.Candidates = append(s.Candidates, cand)
	return cand, nil
}

// RemoveCandidate deletes a candidate. The grid is never empty: deleting the
// last one immediately recreates a selection-free candidate for today.
func (s *State) RemoveCandidate(id string, today civiltime.CivilDate) error {
	for i := range s.Candidates {
		if s.Candidates[i].ID != id {
			continue
		}
		s.Candidates = append(s.Candidates[:i], s.Candidates[i+1:]...)
		if len(s.Candidates) == 0 {
			s.Candidates = append(s.Candidates, newCandidate(1, today))
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownCandidate, id)
}

// SetDate moves a candidate to another civil date, keeping its selection
// (slots are day-relative, so they carry over unchanged).
func (s *State) SetDate(id string, date civiltime.CivilDate) error {
	cand, ok := s.CandidateByID(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCandidate, id)
	}
	cand.Date = date
	return nil
}

// SetSelection stores a normalized, clamped selection on a candidate. A
// reversed range is swapped; an empty one clears the selection.
func (s *State) SetSelection(id string, r SlotRange) error {
	cand, ok := s.CandidateByID(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCandidate, id)
	}
	if r.Start > r.End {
		r.Start, r.End = r.End, r.Start
	}
	cand.Selection = clampRange(r, s.TotalSlots())
	return nil
}

// ClearSelection removes a candidate's selection.
func (s *State) ClearSelection(id string) error {
	cand, ok := s.CandidateByID(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCandidate, id)
	}
	cand.Selection = nil
	return nil
}

// RenameCandidate sets a candidate's display name.
func (s *State) RenameCandidate(id, name string) error {
	cand, ok := s.CandidateByID(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCandidate, id)
	}
	cand.DisplayName = name
	return nil
}

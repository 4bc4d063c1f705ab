package schedule

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timegrid-dev/timegrid/pkg/catalog"
	"github.com/timegrid-dev/timegrid/pkg/civiltime"
)

var today = civiltime.CivilDate{Year: 2024, Month: 1, Day: 15}

func tokyoRecord() catalog.Record {
	return catalog.Record{ID: "tokyo", TzID: "Asia/Tokyo", CityEN: "Tokyo", CityJA: "東京", CountryEN: "Japan", Curated: true}
}

func TestNewStateDefaults(t *testing.T) {
	s := NewState(today)
	assert.Equal(t, DefaultGranularityMinutes, s.Settings.GranularityMinutes)
	require.Len(t, s.Candidates, 1)
	assert.Equal(t, "Candidate 1", s.Candidates[0].DisplayName)
	assert.Equal(t, today, s.Candidates[0].Date)
	assert.Nil(t, s.Candidates[0].Selection)
	assert.Equal(t, 24, s.TotalSlots())
}

func TestAddCandidateClonesPrevious(t *testing.T) {
	s := NewState(today)
	require.NoError(t, s.SetSelection(s.Candidates[0].ID, SlotRange{Start: 9, End: 17}))

	cand, err := s.AddCandidate(today)
	require.NoError(t, err)
	assert.Equal(t, "Candidate 2", cand.DisplayName)
	assert.Equal(t, s.Candidates[0].Date, cand.Date)
	require.NotNil(t, cand.Selection)
	assert.Equal(t, SlotRange{Start: 9, End: 17}, *cand.Selection)

	// The clone is independent of the original.
	require.NoError(t, s.SetSelection(cand.ID, SlotRange{Start: 10, End: 12}))
	assert.Equal(t, SlotRange{Start: 9, End: 17}, *s.Candidates[0].Selection)
}

func TestCandidateLimit(t *testing.T) {
	s := NewState(today)
	for i := 1; i < MaxCandidates; i++ {
		_, err := s.AddCandidate(today)
		require.NoError(t, err)
	}
	_, err := s.AddCandidate(today)
	assert.ErrorIs(t, err, ErrCandidateLimit)
	assert.Len(t, s.Candidates, MaxCandidates)
}

func TestRemoveLastCandidateRecreates(t *testing.T) {
	s := NewState(today)
	id := s.Candidates[0].ID
	require.NoError(t, s.SetSelection(id, SlotRange{Start: 2, End: 4}))

	tomorrow := civiltime.CivilDate{Year: 2024, Month: 1, Day: 16}
	require.NoError(t, s.RemoveCandidate(id, tomorrow))

	require.Len(t, s.Candidates, 1)
	assert.NotEqual(t, id, s.Candidates[0].ID)
	assert.Equal(t, tomorrow, s.Candidates[0].Date)
	assert.Nil(t, s.Candidates[0].Selection)
	assert.ErrorIs(t, s.RemoveCandidate("nope", today), ErrUnknownCandidate)
}

func TestSetSelectionNormalizes(t *testing.T) {
	s := NewState(today)
	id := s.Candidates[0].ID

	require.NoError(t, s.SetSelection(id, SlotRange{Start: 17, End: 9}))
	assert.Equal(t, SlotRange{Start: 9, End: 17}, *s.Candidates[0].Selection)

	require.NoError(t, s.SetSelection(id, SlotRange{Start: -3, End: 99}))
	assert.Equal(t, SlotRange{Start: 0, End: 24}, *s.Candidates[0].Selection)

	// Zero-width clears.
	require.NoError(t, s.SetSelection(id, SlotRange{Start: 5, End: 5}))
	assert.Nil(t, s.Candidates[0].Selection)
}

func TestSetGranularityRescalesSelections(t *testing.T) {
	s := NewState(today)
	id := s.Candidates[0].ID
	require.NoError(t, s.SetSelection(id, SlotRange{Start: 9, End: 17})) // 09:00-17:00 at 60m

	require.NoError(t, s.SetGranularity(15))
	assert.Equal(t, 96, s.TotalSlots())
	assert.Equal(t, SlotRange{Start: 36, End: 68}, *s.Candidates[0].Selection)

	require.NoError(t, s.SetGranularity(60))
	assert.Equal(t, SlotRange{Start: 9, End: 17}, *s.Candidates[0].Selection)

	assert.ErrorIs(t, s.SetGranularity(45), ErrBadGranularity)
}

func TestCityManagement(t *testing.T) {
	s := NewState(today)
	tokyo := s.AddCity(tokyoRecord())
	assert.Equal(t, "Asia/Tokyo", tokyo.TzID)
	assert.Equal(t, "Tokyo", tokyo.CityName)
	assert.Equal(t, "東京", tokyo.CityNameNative)

	here := s.AddCurrentLocation("Europe/Berlin")
	assert.True(t, here.IsCurrentLocation)

	nyc := s.AddCity(catalog.Record{ID: "newyork", TzID: "America/New_York", CityEN: "New York"})

	anchor, ok := s.Anchor()
	require.True(t, ok)
	assert.Equal(t, tokyo.ID, anchor.ID)

	// Reorder: New York to the front re-anchors everything.
	require.NoError(t, s.MoveCity(2, 0))
	anchor, _ = s.Anchor()
	assert.Equal(t, nyc.ID, anchor.ID)
	assert.Equal(t, []string{"America/New_York", "Asia/Tokyo", "Europe/Berlin"}, s.CityZones())

	require.NoError(t, s.RemoveCity(tokyo.ID))
	assert.Equal(t, []string{"America/New_York", "Europe/Berlin"}, s.CityZones())
	assert.ErrorIs(t, s.RemoveCity(tokyo.ID), ErrUnknownCity)
	assert.ErrorIs(t, s.MoveCity(0, 9), ErrUnknownCity)
}

func TestDragNewRange(t *testing.T) {
	s := NewState(today)
	id := s.Candidates[0].ID

	d := BeginDrag(id, DragNew, 9, s.TotalSlots(), nil)
	assert.True(t, d.Active())
	assert.Equal(t, SlotRange{Start: 9, End: 10}, d.Range)

	d = d.MoveTo(16)
	assert.Equal(t, SlotRange{Start: 9, End: 17}, d.Range)

	// Dragging back across the origin keeps the range normalized.
	d = d.MoveTo(4)
	assert.Equal(t, SlotRange{Start: 4, End: 10}, d.Range)

	// Pointer past the day edge clamps.
	d = d.MoveTo(99)
	assert.Equal(t, SlotRange{Start: 9, End: 24}, d.Range)

	r, ok := d.End()
	require.True(t, ok)
	require.NoError(t, s.SetSelection(id, r))
	assert.Equal(t, SlotRange{Start: 9, End: 24}, *s.Candidates[0].Selection)
}

func TestDragAdjustEdges(t *testing.T) {
	existing := &SlotRange{Start: 9, End: 17}

	d := BeginDrag("c", DragAdjustStart, 9, 24, existing)
	d = d.MoveTo(11)
	assert.Equal(t, SlotRange{Start: 11, End: 17}, d.Range)
	// Crossing the pinned end swaps edges instead of inverting.
	d = d.MoveTo(20)
	assert.Equal(t, SlotRange{Start: 16, End: 21}, d.Range)

	d = BeginDrag("c", DragAdjustEnd, 16, 24, existing)
	d = d.MoveTo(12)
	assert.Equal(t, SlotRange{Start: 9, End: 13}, d.Range)
	d = d.MoveTo(3)
	assert.Equal(t, SlotRange{Start: 3, End: 10}, d.Range)

	// No selection to adjust degrades to a new-range drag.
	d = BeginDrag("c", DragAdjustStart, 5, 24, nil)
	assert.Equal(t, DragNew, d.Mode)
	assert.Equal(t, SlotRange{Start: 5, End: 6}, d.Range)

	var idle Drag
	if _, ok := idle.End(); ok {
		t.Error("idle drag should yield nothing")
	}
}

func TestApplyDrag(t *testing.T) {
	s := NewState(today)
	id := s.Candidates[0].ID
	d := BeginDrag(id, DragNew, 9, s.TotalSlots(), nil).MoveTo(16)
	require.NoError(t, s.ApplyDrag(d))
	assert.Equal(t, SlotRange{Start: 9, End: 17}, *s.Candidates[0].Selection)
}

func TestApplyQuery(t *testing.T) {
	cat := catalog.New([]catalog.Record{
		tokyoRecord(),
		{ID: "london", TzID: "Europe/London", CityEN: "London", Curated: true},
	})
	conv := civiltime.New()

	s := NewState(today)
	values := url.Values{}
	values.Set("cities", "tokyo, london, nosuch")
	// 09:00-17:00 JST on 2024-01-15.
	values.Set("from", "2024-01-15T09:00:00+09:00")
	values.Set("to", "2024-01-15T17:00:00+09:00")
	s.ApplyQuery(values, cat, conv)

	assert.Equal(t, []string{"Asia/Tokyo", "Europe/London"}, s.CityZones())
	require.NotNil(t, s.Candidates[0].Selection)
	assert.Equal(t, SlotRange{Start: 9, End: 17}, *s.Candidates[0].Selection)
	assert.Equal(t, today, s.Candidates[0].Date)
}

func TestApplyQueryDegenerate(t *testing.T) {
	cat := catalog.New([]catalog.Record{tokyoRecord()})
	conv := civiltime.New()

	// Inverted range: cities still added, no selection applied.
	s := NewState(today)
	values := url.Values{}
	values.Set("cities", "tokyo")
	values.Set("from", "2024-01-15T17:00:00+09:00")
	values.Set("to", "2024-01-15T09:00:00+09:00")
	s.ApplyQuery(values, cat, conv)
	assert.Len(t, s.Cities, 1)
	assert.Nil(t, s.Candidates[0].Selection)

	// No cities at all: from/to have no anchor to resolve against.
	s = NewState(today)
	values = url.Values{}
	values.Set("from", "2024-01-15T09:00:00Z")
	values.Set("to", "2024-01-15T17:00:00Z")
	s.ApplyQuery(values, cat, conv)
	assert.Nil(t, s.Candidates[0].Selection)
}

func TestNormalizeRepairsCorruptState(t *testing.T) {
	s := &State{
		Settings: ViewSettings{GranularityMinutes: 7},
		Candidates: []Candidate{
			{ID: "a", Selection: &SlotRange{Start: 20, End: 3}},
			{ID: "b", Selection: &SlotRange{Start: -4, End: 99}},
			{ID: "c"}, {ID: "d"}, {ID: "e"}, {ID: "f"},
		},
	}
	s.Normalize(today)

	assert.Equal(t, DefaultGranularityMinutes, s.Settings.GranularityMinutes)
	assert.Len(t, s.Candidates, MaxCandidates)
	assert.Equal(t, SlotRange{Start: 3, End: 20}, *s.Candidates[0].Selection)
	assert.Equal(t, SlotRange{Start: 0, End: 24}, *s.Candidates[1].Selection)
	assert.Equal(t, "Candidate 1", s.Candidates[0].DisplayName)

	empty := &State{}
	empty.Normalize(today)
	require.Len(t, empty.Candidates, 1)
	assert.Equal(t, today, empty.Candidates[0].Date)
}

package store

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timegrid-dev/timegrid/pkg/civiltime"
	"github.com/timegrid-dev/timegrid/pkg/schedule"
)

var today = civiltime.CivilDate{Year: 2024, Month: 1, Day: 15}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state.db"), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetSetDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", []byte("v1")))
	require.NoError(t, s.Set(ctx, "k", []byte("v2"))) // upsert

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k")) // idempotent
	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClosedStore(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Set(context.Background(), "k", nil), ErrClosed)
	_, _, err := s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestStateRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	state := schedule.NewState(today)
	state.AddCurrentLocation("Asia/Tokyo")
	require.NoError(t, state.SetGranularity(30))
	require.NoError(t, state.SetSelection(state.Candidates[0].ID, schedule.SlotRange{Start: 18, End: 34}))
	require.NoError(t, s.SaveState(ctx, state))

	loaded := s.LoadState(ctx, today)
	assert.Equal(t, 30, loaded.Settings.GranularityMinutes)
	require.Len(t, loaded.Cities, 1)
	assert.Equal(t, "Asia/Tokyo", loaded.Cities[0].TzID)
	require.Len(t, loaded.Candidates, 1)
	require.NotNil(t, loaded.Candidates[0].Selection)
	assert.Equal(t, schedule.SlotRange{Start: 18, End: 34}, *loaded.Candidates[0].Selection)
}

func TestLoadStateDefaultsWhenEmpty(t *testing.T) {
	s := openTestStore(t)
	state := s.LoadState(context.Background(), today)
	assert.Equal(t, schedule.DefaultGranularityMinutes, state.Settings.GranularityMinutes)
	assert.Empty(t, state.Cities)
	require.Len(t, state.Candidates, 1)
	assert.Equal(t, today, state.Candidates[0].Date)
}

// One corrupt record resets alone; the others survive.
func TestCorruptRecordResetsIndependently(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	state := schedule.NewState(today)
	state.AddCurrentLocation("Europe/Berlin")
	require.NoError(t, state.SetGranularity(15))
	require.NoError(t, s.SaveState(ctx, state))

	require.NoError(t, s.Set(ctx, KeyCities, []byte("{not json")))

	loaded := s.LoadState(ctx, today)
	assert.Empty(t, loaded.Cities, "corrupt record resets to default")
	assert.Equal(t, 15, loaded.Settings.GranularityMinutes, "other records unaffected")
	require.Len(t, loaded.Candidates, 1)
}

// Persisted state from an older or mangled client is renormalized on load.
func TestLoadStateNormalizes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeySettings, []byte(`{"granularity":7}`)))
	require.NoError(t, s.Set(ctx, KeyCandidates,
		[]byte(`[{"id":"a","displayName":"","date":{"Year":2024,"Month":1,"Day":15},"selection":{"startSlot":20,"endSlot":3}}]`)))

	loaded := s.LoadState(ctx, today)
	assert.Equal(t, schedule.DefaultGranularityMinutes, loaded.Settings.GranularityMinutes)
	require.Len(t, loaded.Candidates, 1)
	require.NotNil(t, loaded.Candidates[0].Selection)
	assert.Equal(t, schedule.SlotRange{Start: 3, End: 20}, *loaded.Candidates[0].Selection)
	assert.NotEmpty(t, loaded.Candidates[0].DisplayName)
}

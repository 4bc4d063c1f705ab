// Package main implements the timegrid command line: render a meeting-time
// candidate across a set of cities, with the consensus strip underneath.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/timegrid-dev/timegrid/pkg/catalog"
	"github.com/timegrid-dev/timegrid/pkg/civiltime"
	"github.com/timegrid-dev/timegrid/pkg/comfort"
	"github.com/timegrid-dev/timegrid/pkg/render"
	"github.com/timegrid-dev/timegrid/pkg/schedule"
	"github.com/timegrid-dev/timegrid/pkg/search"
)

var (
	cities      = flag.String("cities", "", "Comma-separated catalog ids or search terms (first one anchors the day)")
	date        = flag.String("date", "", "Candidate date as YYYY-MM-DD (default today)")
	from        = flag.String("from", "", "Selection start, HH:MM in the anchor city's local time")
	to          = flag.String("to", "", "Selection end, HH:MM in the anchor city's local time")
	granularity = flag.Int("granularity", 60, "Slot width in minutes (15, 30 or 60)")
	catalogURL  = flag.String("catalog-url", "", "Remote catalog URL (empty uses the embedded catalog)")
	noColor     = flag.Bool("no-color", false, "Disable colored output")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *noColor {
		render.Plain()
	}
	if *cities == "" {
		return fmt.Errorf("at least one city is required (try -cities tokyo,london)")
	}

	conv := civiltime.New()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cat := catalog.NewLoader(catalog.WithURL(*catalogURL), catalog.WithLogger(logger)).Load(ctx)
	index := search.NewIndex(cat)

	state := schedule.NewState(todayUTC(conv))
	if err := state.SetGranularity(*granularity); err != nil {
		return err
	}
	for _, term := range strings.Split(*cities, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		rec, ok := cat.ByID(term)
		if !ok {
			// Not a catalog id: take the best search hit.
			hits := index.Search(term)
			if len(hits) == 0 {
				return fmt.Errorf("no city matches %q", term)
			}
			rec = hits[0].Record
		}
		state.AddCity(rec)
	}

	anchor, _ := state.Anchor()
	candDate := todayFor(conv, anchor.TzID)
	if *date != "" {
		parsed, err := time.Parse("2006-01-02", *date)
		if err != nil {
			return fmt.Errorf("parsing -date: %w", err)
		}
		candDate = civiltime.CivilDate{Year: parsed.Year(), Month: int(parsed.Month()), Day: parsed.Day()}
	}
	cand := &state.Candidates[0]
	cand.Date = candDate

	if *from != "" && *to != "" {
		sel, err := selectionFromClock(*from, *to, *granularity)
		if err != nil {
			return err
		}
		if err := state.SetSelection(cand.ID, sel); err != nil {
			return err
		}
	}

	if err := render.Candidate(os.Stdout, state, *cand, conv); err != nil {
		return err
	}

	midnight, err := conv.LocalMidnight(cand.Date, anchor.TzID)
	if err != nil {
		return err
	}
	bands := comfort.ConsensusSegments(midnight, *granularity, state.CityZones(), conv)
	render.Bands(os.Stdout, bands, state.TotalSlots())
	return nil
}

// selectionFromClock turns anchor-local HH:MM bounds into a slot range.
func selectionFromClock(fromClock, toClock string, granularityMinutes int) (schedule.SlotRange, error) {
	start, err := clockMinutes(fromClock)
	if err != nil {
		return schedule.SlotRange{}, fmt.Errorf("parsing -from: %w", err)
	}
	end, err := clockMinutes(toClock)
	if err != nil {
		return schedule.SlotRange{}, fmt.Errorf("parsing -to: %w", err)
	}
	return schedule.SlotRange{
		Start: start / granularityMinutes,
		End:   (end + granularityMinutes - 1) / granularityMinutes,
	}, nil
}

func clockMinutes(clock string) (int, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func todayUTC(conv *civiltime.Converter) civiltime.CivilDate {
	return todayFor(conv, "UTC")
}

func todayFor(conv *civiltime.Converter, tzID string) civiltime.CivilDate {
	f, err := conv.FieldsAt(time.Now(), tzID)
	if err != nil {
		now := time.Now().UTC()
		return civiltime.CivilDate{Year: now.Year(), Month: int(now.Month()), Day: now.Day()}
	}
	return f.Date()
}

// Package main derives the city catalog from a populated-places dataset:
// per country, the capital plus the next most populous cities, emitted in
// the catalog schema and merged with any existing catalog.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/timegrid-dev/timegrid/pkg/catalog"
)

// citiesPerCountry caps each country at the capital plus eleven more.
const citiesPerCountry = 12

var (
	input    = flag.String("input", "", "Populated-places dataset (JSON)")
	existing = flag.String("existing", "", "Existing catalog to merge with (its records win)")
	output   = flag.String("output", "catalog.json", "Output catalog path")
	verbose  = flag.Bool("verbose", false, "Enable verbose logging")
)

// place is one row of the geographic source dataset.
type place struct {
	Name        string `json:"name"`
	NameLocal   string `json:"name_local,omitempty"`
	CountryCode string `json:"country_code"`
	Country     string `json:"country"`
	CountryJA   string `json:"country_ja,omitempty"`
	Population  int64  `json:"population"`
	Capital     bool   `json:"capital"`
	Timezone    string `json:"timezone"`
}

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: catalog-builder -input places.json [-existing catalog.json] [-output catalog.json]")
		os.Exit(2)
	}
	if err := run(logger); err != nil {
		logger.Error("build failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	raw, err := os.ReadFile(*input)
	if err != nil {
		return fmt.Errorf("reading dataset: %w", err)
	}
	var places []place
	if err := json.Unmarshal(raw, &places); err != nil {
		return fmt.Errorf("decoding dataset: %w", err)
	}

	var current []catalog.Record
	if *existing != "" {
		raw, err := os.ReadFile(*existing)
		if err != nil {
			return fmt.Errorf("reading existing catalog: %w", err)
		}
		if err := json.Unmarshal(raw, &current); err != nil {
			return fmt.Errorf("decoding existing catalog: %w", err)
		}
	}

	derived := derive(places, logger)
	logger.Info("catalog derived", "places", len(places), "records", len(derived), "existing", len(current))

	// Existing records come first so they win the id dedupe.
	merged := catalog.New(append(current, derived...))

	out, err := json.MarshalIndent(merged.Records(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	out = append(out, '\n')
	if err := os.WriteFile(*output, out, 0o644); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	logger.Info("catalog written", "path", *output, "records", merged.Len())
	return nil
}

// derive groups places by country and keeps the capital plus the most
// populous remainder. Places with no usable timezone are dropped.
func derive(places []place, logger *slog.Logger) []catalog.Record {
	byCountry := make(map[string][]place)
	var countries []string
	for _, p := range places {
		if p.Timezone == "" || p.Name == "" {
			continue
		}
		if _, err := time.LoadLocation(p.Timezone); err != nil {
			logger.Debug("skipping place with unknown zone", "name", p.Name, "zone", p.Timezone)
			continue
		}
		key := p.CountryCode
		if key == "" {
			key = p.Country
		}
		if _, seen := byCountry[key]; !seen {
			countries = append(countries, key)
		}
		byCountry[key] = append(byCountry[key], p)
	}
	sort.Strings(countries)

	var records []catalog.Record
	for _, country := range countries {
		group := byCountry[country]
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].Capital != group[j].Capital {
				return group[i].Capital
			}
			return group[i].Population > group[j].Population
		})
		if len(group) > citiesPerCountry {
			group = group[:citiesPerCountry]
		}
		for _, p := range group {
			records = append(records, catalog.Record{
				ID:        recordID(p),
				TzID:      p.Timezone,
				CityEN:    p.Name,
				CityJA:    p.NameLocal,
				CountryEN: p.Country,
				CountryJA: p.CountryJA,
			})
		}
	}
	return records
}

// recordID derives the stable external key from the romanized city name.
func recordID(p place) string {
	var b strings.Builder
	for _, r := range strings.ToLower(p.Name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return strings.ToLower(strings.ReplaceAll(p.Timezone, "/", "-"))
	}
	return b.String()
}

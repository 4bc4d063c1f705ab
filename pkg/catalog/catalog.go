// Package catalog holds the city/timezone records the rest of the system
// tracks and searches. Records come from a fetched or embedded JSON payload,
// optionally topped up with every IANA identifier the host supports.
package catalog

import "strings"

// Record is one city/timezone entry. ID is the stable external key (URL
// parameters reference it); records are immutable once loaded.
type Record struct {
	ID        string   `json:"id"`
	TzID      string   `json:"tzId"`
	CityJA    string   `json:"city_ja,omitempty"`
	CityEN    string   `json:"city_en"`
	CountryJA string   `json:"country_ja,omitempty"`
	CountryEN string   `json:"country_en,omitempty"`
	Aliases   []string `json:"aliases,omitempty"`

	// Curated distinguishes hand-maintained records from ones auto-generated
	// out of the host zone list; it is set by the loader, not the payload.
	Curated bool `json:"-"`
}

// DisplayName composes the romanized name with the native one when both are
// present.
func (r Record) DisplayName() string {
	switch {
	case r.CityEN != "" && r.CityJA != "" && r.CityEN != r.CityJA:
		return r.CityEN + " (" + r.CityJA + ")"
	case r.CityEN != "":
		return r.CityEN
	default:
		return r.CityJA
	}
}

// Catalog is an ordered, id-deduplicated set of records.
type Catalog struct {
	records []Record
	byID    map[string]int
}

// New builds a catalog from records in order, keeping the first record for
// any duplicated id.
func New(records []Record) *Catalog {
	c := &Catalog{byID: make(map[string]int, len(records))}
	for _, r := range records {
		if _, dup := c.byID[r.ID]; dup {
			continue
		}
		c.byID[r.ID] = len(c.records)
		c.records = append(c.records, r)
	}
	return c
}

// Records returns the catalog contents in load order. Callers must not
// mutate the result.
func (c *Catalog) Records() []Record {
	return c.records
}

// Len reports the number of records.
func (c *Catalog) Len() int {
	return len(c.records)
}

// ByID looks a record up by its stable id.
func (c *Catalog) ByID(id string) (Record, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Record{}, false
	}
	return c.records[i], true
}

// HasZone reports whether any record already covers the given IANA id.
func (c *Catalog) HasZone(tzID string) bool {
	for _, r := range c.records {
		if r.TzID == tzID {
			return true
		}
	}
	return false
}

// zoneCityName derives a readable city name from an IANA identifier, e.g.
// "America/Argentina/Buenos_Aires" -> "Buenos Aires".
func zoneCityName(tzID string) string {
	last := tzID
	if i := strings.LastIndexByte(tzID, '/'); i >= 0 {
		last = tzID[i+1:]
	}
	return strings.ReplaceAll(last, "_", " ")
}

package schedule

import (
	"net/url"
	"strings"
	"time"

	"github.com/timegrid-dev/timegrid/pkg/catalog"
	"github.com/timegrid-dev/timegrid/pkg/civiltime"
)

// ApplyQuery imports the URL-parameter contract into state: "cities" is a
// comma-separated list of catalog ids to auto-add, and "from"/"to" are
// RFC 3339 instants that become the first candidate's selection, converted
// through the anchor city's midnight at the current granularity and clamped
// to the day. Unknown ids and unparsable instants are skipped silently; a
// selection that clamps to nothing is simply not applied.
func (s *State) ApplyQuery(values url.Values, cat *catalog.Catalog, conv *civiltime.Converter) {
	if raw := values.Get("cities"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if rec, ok := cat.ByID(id); ok {
				s.AddCity(rec)
			}
		}
	}

	from, errFrom := time.Parse(time.RFC3339, values.Get("from"))
	to, errTo := time.Parse(time.RFC3339, values.Get("to"))
	if errFrom != nil || errTo != nil || !to.After(from) {
		return
	}
	anchor, ok := s.Anchor()
	if !ok || len(s.Candidates) == 0 {
		return
	}

	fields, err := conv.FieldsAt(from, anchor.TzID)
	if err != nil {
		return
	}
	midnight, err := conv.LocalMidnight(fields.Date(), anchor.TzID)
	if err != nil {
		return
	}

	gran := s.Settings.GranularityMinutes
	startSlot := int(from.Sub(midnight) / time.Minute / time.Duration(gran))
	endMinutes := int(to.Sub(midnight) / time.Minute)
	endSlot := (endMinutes + gran - 1) / gran

	cand := &s.Candidates[0]
	cand.Date = fields.Date()
	cand.Selection = clampRange(SlotRange{Start: startSlot, End: endSlot}, s.TotalSlots())
}

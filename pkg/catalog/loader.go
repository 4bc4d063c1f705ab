package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/timegrid-dev/timegrid/pkg/civiltime"
)

//go:embed catalog.json
var embeddedPayload []byte

// Option configures a Loader.
type Option func(*Loader)

// WithURL sets the remote catalog URL. Empty means embedded-only.
func WithURL(url string) Option {
	return func(l *Loader) { l.url = url }
}

// WithHTTPClient overrides the HTTP client used for the fetch.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) { l.httpClient = client }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// WithoutAugmentation disables topping the catalog up from the host zone
// list. Mostly useful in tests that want a fixed record set.
func WithoutAugmentation() Option {
	return func(l *Loader) { l.augment = false }
}

// Loader produces a Catalog: network fetch first, embedded payload on any
// fetch failure, empty catalog when even the embedded payload is unusable.
// Nothing here is fatal; search simply yields nothing over an empty catalog.
type Loader struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
	augment    bool
}

// NewLoader returns a Loader with the given options applied.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     slog.Default(),
		augment:    true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load assembles the catalog. Records from the payload (fetched or embedded)
// are curated; records synthesized from the host zone list are not.
func (l *Loader) Load(ctx context.Context) *Catalog {
	records := l.loadPayload(ctx)
	for i := range records {
		records[i].Curated = true
	}

	if l.augment {
		records = append(records, l.zoneRecords(records)...)
	}

	c := New(records)
	l.logger.Info("catalog loaded", "records", c.Len())
	return c
}

func (l *Loader) loadPayload(ctx context.Context) []Record {
	if l.url != "" {
		records, err := l.fetch(ctx)
		if err == nil {
			return records
		}
		l.logger.Debug("catalog fetch failed, using embedded payload", "url", l.url, "error", err)
	}

	var records []Record
	if err := json.Unmarshal(embeddedPayload, &records); err != nil {
		l.logger.Warn("embedded catalog unusable, starting empty", "error", err)
		return nil
	}
	return records
}

func (l *Loader) fetch(ctx context.Context) ([]Record, error) {
	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, http.NoBody)
			if err != nil {
				return err
			}
			resp, err := l.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := resp.Body.Close(); closeErr != nil {
					l.logger.Debug("failed to close catalog response body", "error", closeErr)
				}
			}()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("HTTP %d fetching catalog", resp.StatusCode)
			}
			body, err = io.ReadAll(resp.Body)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			l.logger.Debug("retrying catalog fetch", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}

	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	return records, nil
}

// zoneRecords synthesizes one record per host-supported zone not already
// covered by the payload. Hosts that cannot enumerate zones contribute
// nothing, leaving the curated catalog untouched.
func (l *Loader) zoneRecords(existing []Record) []Record {
	covered := make(map[string]bool, len(existing))
	for _, r := range existing {
		covered[r.TzID] = true
	}

	var records []Record
	for _, tz := range civiltime.Zones() {
		if covered[tz] {
			continue
		}
		records = append(records, Record{
			ID:     tz,
			TzID:   tz,
			CityEN: zoneCityName(tz),
		})
	}
	return records
}

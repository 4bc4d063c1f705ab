// Package main implements the timegrid web server: the static scheduling
// grid plus the JSON API it talks to.
package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/timegrid-dev/timegrid/pkg/catalog"
	"github.com/timegrid-dev/timegrid/pkg/civiltime"
	"github.com/timegrid-dev/timegrid/pkg/comfort"
	"github.com/timegrid-dev/timegrid/pkg/schedule"
	"github.com/timegrid-dev/timegrid/pkg/search"
	"github.com/timegrid-dev/timegrid/pkg/store"
)

//go:embed static/*
var staticFiles embed.FS

var (
	port       = flag.String("port", "8080", "Port for web server")
	catalogURL = flag.String("catalog-url", "", "Remote catalog URL (or set CATALOG_URL; empty uses the embedded catalog)")
	dbPath     = flag.String("db", "", "State database path (or set TIMEGRID_DB; defaults to the user cache dir)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Show version")
)

type rateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{requests: make(map[string][]time.Time)}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-time.Minute)

	var valid []time.Time
	for _, t := range rl.requests[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	// Rate limit: 60 requests per minute per IP
	if len(valid) >= 60 {
		rl.requests[ip] = valid
		return false
	}

	rl.requests[ip] = append(valid, now)
	return true
}

func main() {
	flag.Parse()

	if *version {
		fmt.Println("timegrid Server v1.0.0")
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *catalogURL == "" {
		*catalogURL = os.Getenv("CATALOG_URL")
	}
	if *dbPath == "" {
		*dbPath = os.Getenv("TIMEGRID_DB")
	}
	if *dbPath == "" {
		if cacheDir, err := os.UserCacheDir(); err == nil {
			dir := filepath.Join(cacheDir, "timegrid")
			if err := os.MkdirAll(dir, 0o750); err == nil {
				*dbPath = filepath.Join(dir, "state.db")
			}
		}
	}
	if *dbPath == "" {
		*dbPath = "timegrid.db"
	}

	logger.Info("Server configuration",
		"port", *port,
		"verbose", *verbose,
		"db", *dbPath,
		"has_catalog_url", *catalogURL != "")

	st, err := store.Open(*dbPath, logger)
	if err != nil {
		logger.Error("Failed to open state store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("Failed to close state store", "error", err)
		}
	}()

	conv := civiltime.New()

	// Catalog load degrades all the way to empty; search just yields nothing
	// then, and the server still serves.
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	cat := catalog.NewLoader(
		catalog.WithURL(*catalogURL),
		catalog.WithLogger(logger),
	).Load(loadCtx)
	cancelLoad()

	srv := &server{
		store:   st,
		catalog: cat,
		index:   search.NewIndex(cat),
		conv:    conv,
		limiter: newRateLimiter(),
		logger:  logger,
	}
	srv.state = st.LoadState(context.Background(), todayUTC(conv))

	mux := http.NewServeMux()
	mux.HandleFunc("/", srv.handleHome)
	mux.Handle("/static/", http.FileServer(http.FS(staticFiles)))
	mux.HandleFunc("GET /healthz", srv.handleHealth)
	mux.HandleFunc("GET /api/v1/search", srv.handleSearch)
	mux.HandleFunc("GET /api/v1/consensus", srv.handleConsensus)
	mux.HandleFunc("GET /api/v1/convert", srv.handleConvert)
	mux.HandleFunc("GET /api/v1/state", srv.handleGetState)
	mux.HandleFunc("PUT /api/v1/state", srv.handlePutState)

	httpSrv := &http.Server{
		Addr:              ":" + *port,
		Handler:           srv.wrap(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", *port)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}

type server struct {
	store   *store.Store
	catalog *catalog.Catalog
	index   *search.Index
	conv    *civiltime.Converter
	limiter *rateLimiter
	logger  *slog.Logger

	mu    sync.Mutex
	state *schedule.State
}

func (s *server) wrap(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := fmt.Sprintf("%d-%d", time.Now().Unix(), time.Now().Nanosecond())
		w.Header().Set("X-Request-ID", requestID)

		ip := clientIP(r)
		if !s.limiter.allow(ip) {
			s.logger.Warn("rate limited", "ip", ip, "path", r.URL.Path)
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		start := time.Now()
		handler.ServeHTTP(w, r)
		s.logger.Debug("request served",
			"method", r.Method, "path", r.URL.Path, "duration", time.Since(start), "request_id", requestID)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// todayUTC is the civil date used for fresh candidates before any city is
// tracked.
func todayUTC(conv *civiltime.Converter) civiltime.CivilDate {
	f, err := conv.FieldsAt(time.Now(), "UTC")
	if err != nil {
		now := time.Now().UTC()
		return civiltime.CivilDate{Year: now.Year(), Month: int(now.Month()), Day: now.Day()}
	}
	return f.Date()
}

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	// The shareable-URL contract: ?cities=ids&from=...&to=... seeds state.
	q := r.URL.Query()
	if q.Get("cities") != "" || q.Get("from") != "" {
		s.mu.Lock()
		s.state.ApplyQuery(q, s.catalog, s.conv)
		if err := s.store.SaveState(r.Context(), s.state); err != nil {
			s.logger.Warn("failed to persist seeded state", "error", err)
		}
		s.mu.Unlock()
	}

	page, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]any{"status": "ok", "catalog_records": s.catalog.Len()})
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	results := s.index.Search(r.URL.Query().Get("q"))
	s.writeJSON(w, results)
}

func (s *server) handleConsensus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	s.mu.Lock()
	gran := s.state.Settings.GranularityMinutes
	zones := s.state.CityZones()
	s.mu.Unlock()

	if raw := q.Get("granularity"); raw != "" {
		g, err := strconv.Atoi(raw)
		if err != nil || (g != 15 && g != 30 && g != 60) {
			http.Error(w, "granularity must be 15, 30 or 60", http.StatusBadRequest)
			return
		}
		gran = g
	}
	if raw := q.Get("cities"); raw != "" {
		zones = zones[:0:0]
		for _, id := range strings.Split(raw, ",") {
			if rec, ok := s.catalog.ByID(strings.TrimSpace(id)); ok {
				zones = append(zones, rec.TzID)
			}
		}
	}
	if len(zones) == 0 {
		s.writeJSON(w, []comfort.Band{})
		return
	}

	date, err := parseDate(q.Get("date"))
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	anchor, err := s.conv.LocalMidnight(date, zones[0])
	if err != nil {
		http.Error(w, "unknown anchor zone", http.StatusBadRequest)
		return
	}

	bands := comfort.ConsensusSegments(anchor, gran, zones, s.conv)
	if bands == nil {
		bands = []comfort.Band{}
	}
	s.writeJSON(w, bands)
}

func (s *server) handleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	instant, err := time.Parse(time.RFC3339, q.Get("instant"))
	if err != nil {
		http.Error(w, "instant must be RFC 3339", http.StatusBadRequest)
		return
	}
	tz := q.Get("tz")
	fields, err := s.conv.FieldsAt(instant, tz)
	if err != nil {
		http.Error(w, "unknown zone", http.StatusBadRequest)
		return
	}
	s.writeJSON(w, map[string]any{
		"fields": fields,
		"offset": s.conv.OffsetLabel(instant, tz),
	})
}

func (s *server) handleGetState(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeJSON(w, s.state)
}

func (s *server) handlePutState(w http.ResponseWriter, r *http.Request) {
	var incoming schedule.State
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&incoming); err != nil {
		http.Error(w, "malformed state", http.StatusBadRequest)
		return
	}
	incoming.Normalize(todayUTC(s.conv))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = &incoming
	if err := s.store.SaveState(r.Context(), s.state); err != nil {
		s.logger.Error("failed to persist state", "error", err)
		http.Error(w, "persist failed", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, s.state)
}

func (s *server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("failed to encode response", "error", err)
	}
}

func parseDate(raw string) (civiltime.CivilDate, error) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return civiltime.CivilDate{}, err
	}
	return civiltime.CivilDate{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"MarketScanner/internal/calculator"
	"MarketScanner/internal/collector"
	"MarketScanner/internal/config"
	"MarketScanner/internal/events"
	"MarketScanner/internal/model"
	"MarketScanner/internal/recorder"
	"MarketScanner/internal/scanner"
	"MarketScanner/internal/strategy"
)

// DefaultScansLimit is the number of runs GET /scans returns without ?limit.
const DefaultScansLimit = 20

// Handler holds dependencies for HTTP handlers
type Handler struct {
	cfg       *config.Config
	collector *collector.Collector
	scanner   *scanner.Scanner
	recorder  recorder.Recorder
	publisher events.Publisher
}

// NewHandler creates a new Handler. A nil recorder or publisher is replaced
// by its no-op implementation.
func NewHandler(cfg *config.Config, col *collector.Collector, sc *scanner.Scanner, rec recorder.Recorder, pub events.Publisher) *Handler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if pub == nil {
		pub = events.Noop{}
	}
	return &Handler{cfg: cfg, collector: col, scanner: sc, recorder: rec, publisher: pub}
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// GetFrame handles GET /api/v1/symbols/{symbol}/frame?lookback=N
func (h *Handler) GetFrame(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	lookback := h.cfg.DataSource.Lookback
	if v := r.URL.Query().Get("lookback"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "lookback must be a positive integer")
			return
		}
		lookback = n
	}

	frame, err := h.collector.Frame(r.Context(), symbol, lookback)
	if err != nil {
		respondError(w, fetchStatus(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, frame)
}

// GetSignals handles GET /api/v1/symbols/{symbol}/signals
func (h *Handler) GetSignals(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	frame, err := h.collector.Frame(r.Context(), symbol, h.cfg.DataSource.Lookback)
	if err != nil {
		respondError(w, fetchStatus(err), err.Error())
		return
	}
	latest, _ := frame.Latest()

	respondJSON(w, http.StatusOK, struct {
		Symbol  string              `json:"symbol"`
		Date    string              `json:"date"`
		Close   float64             `json:"close"`
		Signals []model.SignalEvent `json:"signals"`
	}{
		Symbol:  frame.Symbol,
		Date:    latest.Date.Format("2006-01-02"),
		Close:   latest.Close,
		Signals: strategy.DetectSignals(frame),
	})
}

// GetAnalysis handles GET /api/v1/symbols/{symbol}/analysis?preset=
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	cfg, err := h.scoreConfig(r.URL.Query().Get("preset"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.collector.Analyze(r.Context(), symbol, cfg)
	if err != nil {
		respondError(w, fetchStatus(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, a)
}

// scanRequest is the body of POST /api/v1/scan. Symbols win over watchlist.
type scanRequest struct {
	Symbols   []string         `json:"symbols"`
	Watchlist string           `json:"watchlist"`
	Preset    string           `json:"preset"`
	Filters   *scanner.Filters `json:"filters"`
	Sort      string           `json:"sort"`
}

type skippedSymbol struct {
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
}

type scanResponse struct {
	Name      string             `json:"name"`
	Requested int                `json:"requested"`
	Evaluated int                `json:"evaluated"`
	Matched   int                `json:"matched"`
	Skipped   []skippedSymbol    `json:"skipped"`
	Results   []model.ScanResult `json:"results"`
}

// RunScan handles POST /api/v1/scan (?format=csv for a CSV download)
func (h *Handler) RunScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := "adhoc"
	symbols := req.Symbols
	if len(symbols) == 0 {
		if req.Watchlist == "" {
			respondError(w, http.StatusBadRequest, "symbols or watchlist is required")
			return
		}
		wl, err := h.cfg.Watchlist(req.Watchlist)
		if err != nil {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		name, symbols = strings.ToLower(req.Watchlist), wl
	}

	cfg, err := h.scoreConfig(req.Preset)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	sortKey := scanner.SortKey(h.cfg.Scanner.Sort)
	if req.Sort != "" {
		if sortKey, err = scanner.ParseSortKey(req.Sort); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	filters := h.cfg.Scanner.Filters
	if req.Filters != nil {
		filters = *req.Filters
	}

	rep, err := h.scanner.Run(r.Context(), scanner.Request{
		Symbols: symbols,
		Filters: filters,
		Score:   cfg,
		Sort:    sortKey,
	})
	if rep == nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		// client went away; nothing useful to write back
		log.Printf("[WARN] scan %s interrupted: %v", name, err)
		return
	}

	h.recordScan(r, name, presetLabel(req.Preset, h.cfg), rep)

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=scan_%s_%s.csv", name, rep.Finished.Format("20060102_1504")))
		if err := scanner.WriteCSV(w, rep.Results); err != nil {
			log.Printf("[ERROR] write csv: %v", err)
		}
		return
	}

	resp := scanResponse{
		Name:      name,
		Requested: rep.Requested,
		Evaluated: rep.Evaluated,
		Matched:   len(rep.Results),
		Skipped:   make([]skippedSymbol, 0, len(rep.Skipped)),
		Results:   rep.Results,
	}
	for _, s := range rep.Skipped {
		resp.Skipped = append(resp.Skipped, skippedSymbol{Symbol: s.Symbol, Error: s.Err.Error()})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) recordScan(r *http.Request, name, preset string, rep *scanner.Report) {
	if _, err := h.recorder.RecordScan(&recorder.ScanRun{
		Name:      name,
		Preset:    preset,
		Requested: rep.Requested,
		Evaluated: rep.Evaluated,
		Skipped:   len(rep.Skipped),
		Started:   rep.Started,
		Finished:  rep.Finished,
		Results:   rep.Results,
	}); err != nil {
		log.Printf("[ERROR] record scan: %v", err)
	}
	if err := h.publisher.PublishScanCompleted(r.Context(), name, rep.Results); err != nil {
		log.Printf("[ERROR] publish scan: %v", err)
	}
}

// GetScans handles GET /api/v1/scans?limit=N
func (h *Handler) GetScans(w http.ResponseWriter, r *http.Request) {
	limit := DefaultScansLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	scans, err := h.recorder.RecentScans(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, scans)
}

// GetPresets handles GET /api/v1/presets
func (h *Handler) GetPresets(w http.ResponseWriter, r *http.Request) {
	presets := make(map[string]strategy.ScoreConfig)
	for _, name := range strategy.PresetNames() {
		cfg, _ := strategy.Preset(name)
		presets[name] = cfg
	}
	respondJSON(w, http.StatusOK, presets)
}

// GetWatchlists handles GET /api/v1/watchlists
func (h *Handler) GetWatchlists(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.cfg.Watchlists)
}

// GetOverview handles GET /api/v1/overview
func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.collector.Overview(r.Context(), h.cfg.OverviewRequest())
	if err != nil {
		respondError(w, fetchStatus(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, ov)
}

// scoreConfig resolves a request preset, falling back to the configured scoring.
func (h *Handler) scoreConfig(preset string) (strategy.ScoreConfig, error) {
	if preset == "" {
		return h.cfg.ScoreConfig()
	}
	return strategy.Preset(strings.ToLower(preset))
}

func presetLabel(preset string, cfg *config.Config) string {
	switch {
	case preset != "":
		return strings.ToLower(preset)
	case cfg.Scoring != nil:
		return "custom"
	default:
		return cfg.Scanner.Preset
	}
}

func fetchStatus(err error) int {
	switch {
	case errors.Is(err, collector.ErrSymbolNotFound), errors.Is(err, collector.ErrEmptyResponse):
		return http.StatusNotFound
	case errors.Is(err, calculator.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

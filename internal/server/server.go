package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/rent-vs-buy/internal/config"
	"github.com/iwvelando/rent-vs-buy/internal/engine"
	"github.com/iwvelando/rent-vs-buy/internal/metrics"
	"github.com/iwvelando/rent-vs-buy/internal/scenario"
	"github.com/iwvelando/rent-vs-buy/internal/share"
	"github.com/iwvelando/rent-vs-buy/internal/tracing"
	"github.com/iwvelando/rent-vs-buy/pkg/constants"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Error kinds reported alongside the message so clients can tell a missing
// share token (fall back silently) from a corrupt one (warn the user).
const (
	ErrorKindNoToken        = "no_token"
	ErrorKindMalformedToken = "malformed_token"
	ErrorKindInvalidInput   = "invalid_input"
	ErrorKindTooLarge       = "too_large"
	ErrorKindInternal       = "internal"
)

type handler struct {
	logger        *zap.Logger
	maxBodySize int64
	version       string
	shareBase     string
	tracer        trace.Tracer
}

// NewHandler constructs the HTTP handler that serves the evaluation API.
// shareBase, when set, is the page URL share links are built on.
func NewHandler(logger *zap.Logger, maxBodySize int64, version, shareBase string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodyBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:        logger,
		maxBodySize: maxBodySize,
		version:       trimmedVersion,
		shareBase:     strings.TrimSpace(shareBase),
		tracer:        tracing.Tracer("rent-vs-buy/server"),
	}

	mux := http.NewServeMux()

	// Evaluate a scenario
	mux.HandleFunc("/api/evaluate", h.instrument("/api/evaluate", h.handleEvaluate))

	// Evaluate a scenario at every supported term
	mux.HandleFunc("/api/compare-terms", h.instrument("/api/compare-terms", h.handleCompareTerms))

	// Encode a scenario (POST) or restore and evaluate one (GET)
	mux.HandleFunc("/api/share", h.instrument("/api/share", h.handleShare))

	// Preset and payback tables for form defaults
	mux.HandleFunc("/api/presets", h.instrument("/api/presets", h.handlePresets))

	// Version endpoint for UI metadata
	mux.HandleFunc("/api/version", h.instrument("/api/version", h.handleVersion))

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// evaluateRequest is the envelope around a partial scenario: fields not
// present keep their defaults, Preset is applied before them and Inputs
// (free text, e.g. "1.234,56") after them. Without Preset a non-empty
// equipKey selects the preset instead.
type evaluateRequest struct {
	Preset       string            `json:"preset"`
	EquipmentKey string            `json:"equipKey"`
	Inputs       map[string]string `json:"inputs"`
}

type evaluateResponse struct {
	Scenario scenario.Scenario `json:"scenario"`
	Results  engine.Results    `json:"results"`
	Warnings []string          `json:"warnings,omitempty"`
	Token    string            `json:"token"`
	URL      string            `json:"url,omitempty"`
	Duration string            `json:"duration"`
}

type compareTermsResponse struct {
	Scenario scenario.Scenario       `json:"scenario"`
	Terms    []engine.TermComparison `json:"terms"`
	Warnings []string                `json:"warnings,omitempty"`
	Duration string                  `json:"duration"`
}

type shareResponse struct {
	Token string `json:"token"`
	URL   string `json:"url,omitempty"`
}

type presetsResponse struct {
	Presets      map[string]scenario.Preset `json:"presets"`
	PaybackTable map[string]int             `json:"paybackTable"`
	Terms        []int                      `json:"terms"`
	Default      scenario.Scenario          `json:"default"`
}

func (h *handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	s, ok := h.decodeScenario(w, r, "server.handleEvaluate")
	if !ok {
		return
	}

	h.respondEvaluation(w, r, s, start, "server.handleEvaluate")
}

func (h *handler) handleCompareTerms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	s, ok := h.decodeScenario(w, r, "server.handleCompareTerms")
	if !ok {
		return
	}

	_, span := h.tracer.Start(r.Context(), "engine.CompareTerms")
	terms := engine.CompareTerms(s)
	span.SetAttributes(attribute.Int("terms", len(terms)))
	span.End()

	for _, tc := range terms {
		metrics.Evaluations.WithLabelValues(strconv.Itoa(tc.TermMonths)).Inc()
	}

	elapsed := time.Since(start)
	h.logger.Info("term comparison computed",
		zap.String("op", "server.handleCompareTerms"),
		zap.String("equipment", s.EquipmentKey),
		zap.Int("terms", len(terms)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, compareTermsResponse{
		Scenario: s.Normalize(),
		Terms:    terms,
		Warnings: config.ScenarioWarnings(s),
		Duration: elapsed.String(),
	})
}

func (h *handler) handleShare(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s, ok := h.decodeScenario(w, r, "server.handleShare")
		if !ok {
			return
		}
		token, link, err := h.encode(s)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), "server.handleShare")
			return
		}
		h.writeJSON(w, http.StatusOK, shareResponse{Token: token, URL: link})

	case http.MethodGet:
		start := time.Now()
		_, span := h.tracer.Start(r.Context(), "share.Decode")
		s, err := share.FromURL(r.URL.Query().Get("token"))
		span.End()
		switch {
		case errors.Is(err, share.ErrNoToken):
			metrics.ShareTokens.WithLabelValues("decode", ErrorKindNoToken).Inc()
			h.respondErrorKind(w, http.StatusBadRequest, err.Error(), ErrorKindNoToken, "server.handleShare")
			return
		case err != nil:
			metrics.ShareTokens.WithLabelValues("decode", ErrorKindMalformedToken).Inc()
			h.respondErrorKind(w, http.StatusBadRequest, err.Error(), ErrorKindMalformedToken, "server.handleShare")
			return
		}
		metrics.ShareTokens.WithLabelValues("decode", "ok").Inc()

		if err := s.Validate(); err != nil {
			h.respondErrorKind(w, http.StatusBadRequest, err.Error(), ErrorKindMalformedToken, "server.handleShare")
			return
		}
		h.respondEvaluation(w, r, s, start, "server.handleShare")

	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (h *handler) handlePresets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	table := make(map[string]int)
	for term, payback := range scenario.PaybackTable() {
		table[strconv.Itoa(term)] = payback
	}

	h.writeJSON(w, http.StatusOK, presetsResponse{
		Presets:      scenario.Presets(),
		PaybackTable: table,
		Terms:        scenario.SupportedTerms(),
		Default:      scenario.Default(),
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// decodeScenario reads a request body into a validated Scenario, writing
// the error response itself when it fails.
func (h *handler) decodeScenario(w http.ResponseWriter, r *http.Request, op string) (scenario.Scenario, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorKind(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxBodySize), ErrorKindTooLarge, op)
			return scenario.Scenario{}, false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to read request: %v", err), op)
		return scenario.Scenario{}, false
	}

	s, err := parseScenario(body)
	if err != nil {
		h.respondErrorKind(w, http.StatusBadRequest, err.Error(), ErrorKindInvalidInput, op)
		return scenario.Scenario{}, false
	}
	return s, true
}

func parseScenario(body []byte) (scenario.Scenario, error) {
	s := scenario.Default()
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return s, nil
	}

	var req evaluateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return s, fmt.Errorf("failed to decode scenario: %w", err)
	}

	preset := req.Preset
	if preset == "" {
		preset = req.EquipmentKey
	}
	if strings.TrimSpace(preset) != "" {
		var err error
		if s, err = s.WithPreset(preset); err != nil {
			return s, err
		}
	}
	if err := json.Unmarshal(body, &s); err != nil {
		return s, fmt.Errorf("failed to decode scenario: %w", err)
	}
	if !s.PaybackOverride {
		s.PaybackMonths = scenario.DefaultPayback(s.TermMonths)
	}
	if len(req.Inputs) > 0 {
		var err error
		if s, err = s.ApplyText(req.Inputs); err != nil {
			return s, fmt.Errorf("invalid inputs: %w", err)
		}
	}

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

func (h *handler) respondEvaluation(w http.ResponseWriter, r *http.Request, s scenario.Scenario, start time.Time, op string) {
	_, span := h.tracer.Start(r.Context(), "engine.Evaluate")
	res := engine.EvaluateWithLogger(h.logger, s)
	span.SetAttributes(
		attribute.String("equipment", res.Scenario.EquipmentKey),
		attribute.Int("term", res.Scenario.TermMonths),
		attribute.Bool("price_below_cost", res.PriceBelowCost),
	)
	span.End()

	metrics.Evaluations.WithLabelValues(strconv.Itoa(res.Scenario.TermMonths)).Inc()
	if res.PriceBelowCost {
		metrics.PriceBelowCost.Inc()
	}

	token, link, err := h.encode(res.Scenario)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("scenario evaluated",
		zap.String("op", op),
		zap.String("equipment", res.Scenario.EquipmentKey),
		zap.Int("term", res.Scenario.TermMonths),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, evaluateResponse{
		Scenario: res.Scenario,
		Results:  res,
		Warnings: config.ScenarioWarnings(s),
		Token:    token,
		URL:      link,
		Duration: elapsed.String(),
	})
}

func (h *handler) encode(s scenario.Scenario) (string, string, error) {
	token, err := share.Encode(s)
	if err != nil {
		metrics.ShareTokens.WithLabelValues("encode", "error").Inc()
		return "", "", err
	}
	metrics.ShareTokens.WithLabelValues("encode", "ok").Inc()

	if h.shareBase == "" {
		return token, "", nil
	}
	link, err := share.URL(h.shareBase, s)
	if err != nil {
		return "", "", err
	}
	return token, link, nil
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument wraps next with a server span and request metrics.
func (h *handler) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, span := h.tracer.Start(r.Context(), endpoint,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("http.method", r.Method)),
		)
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status_code", rec.status))
		if rec.status >= http.StatusBadRequest {
			span.SetStatus(codes.Error, http.StatusText(rec.status))
		}
		metrics.Requests.WithLabelValues(endpoint, strconv.Itoa(rec.status)).Inc()
		metrics.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.respondErrorKind(w, status, msg, "", op)
}

func (h *handler) respondErrorKind(w http.ResponseWriter, status int, msg, kind, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error_kind", kind),
		zap.String("error", msg),
	)

	payload := map[string]string{"error": msg}
	if kind != "" {
		payload["error_kind"] = kind
	}
	h.writeJSON(w, status, payload)
}

// writeJSON encodes payload before any header is written, so an encoding
// failure still reaches the client as a 500.
func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Int("status", status),
			zap.Error(err),
		)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]string{
			"error":      "failed to encode response",
			"error_kind": ErrorKindInternal,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		h.logger.Error("failed to write JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}

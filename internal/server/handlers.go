package server

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/theirongolddev/wealthtax/internal/cli"
	"github.com/theirongolddev/wealthtax/internal/dataset"
	"github.com/theirongolddev/wealthtax/internal/model"
	"github.com/theirongolddev/wealthtax/internal/widget"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const apiRevenuePath = "/v1/revenue"

// RevenueResponse is served at /v1/revenue.
type RevenueResponse struct {
	Rate        float64          `json:"rate"`
	Revenue     float64          `json:"revenue"`
	RevenueText string           `json:"revenueText"`
	Explanation string           `json:"explanation"`
	Comparison  model.Comparison `json:"comparison"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func (s *Service) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.corsMiddleware)

	get := []string{http.MethodGet, http.MethodHead, http.MethodOptions}
	r.HandleFunc("/", s.handleWidget).Methods(get...).Name("widget")
	r.HandleFunc(apiRevenuePath, s.handleRevenue).Methods(get...).Name("revenue")
	r.HandleFunc("/v1/status", s.handleStatus).Methods(get...).Name("status")
	r.HandleFunc("/data/comparisons.json", s.handleData).Methods(get...).Name("data")
	r.HandleFunc("/healthz", s.handleHealth).Methods(get...).Name("healthz")
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})).Methods(get...).Name("metrics")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})
	return r
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Service) handleRevenue(w http.ResponseWriter, r *http.Request) {
	rate := s.cfg.DefaultRate
	if raw := strings.TrimSpace(r.URL.Query().Get("rate")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:     "rate must be a number",
				RequestID: RequestID(r.Context()),
			})
			return
		}
		rate = s.cfg.Engine.ClampRate(v)
	}

	res := s.engine.Evaluate(rate, s.Table())
	s.metrics.evaluations.Inc()

	writeJSON(w, http.StatusOK, RevenueResponse{
		Rate:        res.Rate,
		Revenue:     res.Revenue,
		RevenueText: cli.FormatCurrency(res.Revenue),
		Explanation: cli.Explanation(res.Rate, s.cfg.Engine.WealthLabel),
		Comparison:  res.Comparison,
	})
}

func (s *Service) handleData(w http.ResponseWriter, _ *http.Request) {
	body, err := dataset.Encode(s.Table())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(body)
}

func (s *Service) handleWidget(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	attrs := widget.Attrs{Title: q.Get("title"), Subtitle: q.Get("subtitle")}
	if attrs.Title == "" {
		attrs.Title = s.cfg.Attrs.Title
	}
	if attrs.Subtitle == "" {
		attrs.Subtitle = s.cfg.Attrs.Subtitle
	}
	attrs = attrs.WithDefaults()

	key := attrs.Title + "\x00" + attrs.Subtitle
	if cached, ok := s.pages.Get(key); ok {
		s.metrics.pageCache.WithLabelValues("hit").Inc()
		writeHTML(w, cached.([]byte))
		return
	}
	s.metrics.pageCache.WithLabelValues("miss").Inc()

	var buf bytes.Buffer
	err := widget.RenderPage(&buf, widget.View{
		Attrs: attrs,
		Slider: widget.Slider{
			Min:  s.cfg.Engine.MinRate,
			Max:  s.cfg.Engine.MaxRate,
			Step: s.cfg.Engine.RateStep,
		},
		Result:      s.engine.Evaluate(s.cfg.DefaultRate, s.Table()),
		WealthLabel: s.cfg.Engine.WealthLabel,
		APIPath:     apiRevenuePath,
	})
	if err != nil {
		s.log.Error().Err(err).Str("request_id", RequestID(r.Context())).Msg("widget render failed")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	page := buf.Bytes()
	s.pages.SetDefault(key, page)
	writeHTML(w, page)
}

func writeHTML(w http.ResponseWriter, page []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

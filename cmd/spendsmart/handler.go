package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"SpendSmart/internal/calculator"
	"SpendSmart/internal/engine"
	"SpendSmart/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// calculationTimeout bounds one request, including the price fetch.
const calculationTimeout = 2 * time.Minute

type calculateFunc func(ctx context.Context, req model.CalculationRequest) (*model.CalculationResult, error)

// newMux routes the calculation endpoint and the metrics of reg.
func newMux(calc calculateFunc, reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("POST /calculate", calculateHandler(calc))
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}

func calculateHandler(calc calculateFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req model.CalculationRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "decode request: "+err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), calculationTimeout)
		defer cancel()

		res, err := calc(ctx, req)
		switch {
		case errors.Is(err, engine.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, calculator.ErrDataUnavailable):
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		case err != nil:
			log.Error().Err(err).Msg("calculate")
			writeError(w, http.StatusInternalServerError, "calculation failed")
			return
		}
		writeJSON(w, http.StatusOK, res)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write response")
	}
}

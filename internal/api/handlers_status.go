// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/proctorwatch/internal/analysis"
	"github.com/tomtom215/proctorwatch/internal/logging"
	"github.com/tomtom215/proctorwatch/internal/models"
	"github.com/tomtom215/proctorwatch/internal/relay"
)

// registrationBodyLimit bounds a registration body when no frame limit is configured.
const registrationBodyLimit = 4 << 20

// Status reports participant counts and the state of every analysis kind.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	states := h.services.States()
	services := make(map[string]models.ServiceState, len(states))
	for kind, state := range states {
		services[kind.String()] = state
	}

	respondSuccess(w, models.StatusSummary{
		Sources:  h.counter.SourceCount(),
		Monitors: h.counter.MonitorCount(),
		Services: services,
		Uptime:   time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Sources returns the current source snapshot, ordered by id.
func (h *Handler) Sources(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, h.relay.Sources())
}

// SourceDetail returns one source with its in-flight state and recent
// results per analysis kind.
func (h *Handler) SourceDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Source id must be a positive integer", nil)
		return
	}

	detail, err := h.relay.SourceDetail(id)
	switch {
	case err == nil:
		respondSuccess(w, detail)
	case errors.Is(err, relay.ErrSourceNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Source not found", nil)
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read source", err)
	}
}

// RegisterSource uploads an identity reference image for one source.
func (h *Handler) RegisterSource(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Source id must be a positive integer", nil)
		return
	}

	limit := int64(registrationBodyLimit)
	if h.config != nil && h.config.Relay.MaxFrameBytes > 0 {
		limit = 2 * h.config.Relay.MaxFrameBytes
	}

	var req models.RegistrationRequest
	if err := decodeJSONBody(w, r, limit, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Request body must be a JSON object with referenceImage", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	err = h.relay.Register(r.Context(), id, req.ReferenceImage)
	var regErr *analysis.RegistrationError
	switch {
	case err == nil:
		respondSuccess(w, models.RegistrationResult{Success: true})
	case errors.Is(err, relay.ErrSourceNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Source not found", nil)
	case errors.Is(err, relay.ErrRegistrationInProgress):
		respondError(w, http.StatusConflict, "CONFLICT", "Registration already in progress", nil)
	case errors.As(err, &regErr):
		logging.Ctx(r.Context()).Info().Uint64("source_id", id).Str("reason", regErr.Reason).Msg("Registration failed")
		respondError(w, http.StatusUnprocessableEntity, "REGISTRATION_FAILED", regErr.Reason, nil)
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Registration failed", err)
	}
}

// ServicesStatus probes every configured analysis service now. The enabled
// state decided at startup is reported unchanged.
func (h *Handler) ServicesStatus(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, h.services.LiveHealth(r.Context(), liveHealthTimeout))
}

// ServiceStats proxies the /stats document of one analysis service.
func (h *Handler) ServiceStats(w http.ResponseWriter, r *http.Request) {
	kind, ok := analysis.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Unknown analysis service", nil)
		return
	}

	stats, err := h.services.Stats(r.Context(), kind)
	switch {
	case err == nil:
		respondSuccess(w, stats)
	case errors.Is(err, analysis.ErrServiceUnavailable):
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", kind.String()+" service is not configured", nil)
	default:
		respondError(w, http.StatusBadGateway, "EXTERNAL_SERVICE_FAILED", "Failed to fetch "+kind.String()+" statistics", err)
	}
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sk1972-mend/mendinsurance/internal/apperr"
	"github.com/sk1972-mend/mendinsurance/internal/auth"
	coverageapp "github.com/sk1972-mend/mendinsurance/internal/coverage/application"
)

const maxBodyBytes = 1 << 20

// Handler provides device registration and policy endpoints.
type Handler struct {
	service *coverageapp.Service
}

// NewHandler constructs a handler.
func NewHandler(service *coverageapp.Service) (*Handler, error) {
	if service == nil {
		return nil, errors.New("coverage handler: nil service")
	}
	return &Handler{service: service}, nil
}

// ServeHTTP handles /api/v1/devices, /api/v1/policies/ and
// /api/v1/admin/registrations/.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/devices":
		switch r.Method {
		case http.MethodPost:
			h.handleRegister(w, r)
		case http.MethodGet:
			h.handleListDevices(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(r.URL.Path, "/api/v1/policies/"):
		h.handlePolicy(w, r)
	case r.URL.Path == "/api/v1/admin/registrations/incomplete":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		devices, err := h.service.ListIncomplete(r.Context(), auth.ActorFromContext(r.Context()))
		if err != nil {
			apperr.WriteHTTP(w, err)
			return
		}
		writeJSON(w, http.StatusOK, devices)
	case strings.HasPrefix(r.URL.Path, "/api/v1/admin/registrations/"):
		h.handleRepair(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req coverageapp.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apperr.WriteHTTP(w, err)
		return
	}
	reg, err := h.service.Register(r.Context(), auth.ActorFromContext(r.Context()), req)
	if err != nil {
		apperr.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

func (h *Handler) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.service.ListDevices(r.Context(), auth.ActorFromContext(r.Context()))
	if err != nil {
		apperr.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

func (h *Handler) handlePolicy(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v1/policies/"), "/")
	actor := auth.ActorFromContext(r.Context())
	id := parts[0]
	if id == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		policy, err := h.service.GetPolicy(r.Context(), actor, id)
		if err != nil {
			apperr.WriteHTTP(w, err)
			return
		}
		writeJSON(w, http.StatusOK, policy)
		return
	}
	if len(parts) != 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var change func() (any, error)
	switch parts[1] {
	case "activate":
		change = func() (any, error) { return h.service.ActivatePolicy(r.Context(), actor, id) }
	case "cancel":
		change = func() (any, error) { return h.service.CancelPolicy(r.Context(), actor, id) }
	case "expire":
		change = func() (any, error) { return h.service.ExpirePolicy(r.Context(), actor, id) }
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
	policy, err := change()
	if err != nil {
		apperr.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

func (h *Handler) handleRepair(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v1/admin/registrations/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "repair" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	result, err := h.service.RepairIncomplete(r.Context(), auth.ActorFromContext(r.Context()), parts[0])
	if err != nil {
		apperr.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return apperr.Validation("body", "invalid json: "+err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sk1972-mend/mendinsurance/internal/apperr"
	"github.com/sk1972-mend/mendinsurance/internal/auth"
	shopapp "github.com/sk1972-mend/mendinsurance/internal/shops/application"
	shops "github.com/sk1972-mend/mendinsurance/internal/shops/domain"
)

const maxBodyBytes = 1 << 20

// Handler provides shop application and review endpoints.
type Handler struct {
	service *shopapp.Service
}

// NewHandler constructs a handler.
func NewHandler(service *shopapp.Service) (*Handler, error) {
	if service == nil {
		return nil, errors.New("shops handler: nil service")
	}
	return &Handler{service: service}, nil
}

type reviewRequest struct {
	Decision shops.Decision `json:"decision"`
	Note     string         `json:"note"`
}

type reevaluateRequest struct {
	Certifications []string `json:"certifications"`
	Equipment      []string `json:"equipment"`
}

// ServeHTTP handles /api/v1/shops/apply and /api/v1/admin/shops.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())
	switch {
	case r.URL.Path == "/api/v1/shops/apply":
		switch r.Method {
		case http.MethodPost:
			var req shopapp.ApplyRequest
			if err := decodeJSON(w, r, &req); err != nil {
				apperr.WriteHTTP(w, err)
				return
			}
			shop, err := h.service.Apply(r.Context(), actor, req)
			respond(w, http.StatusCreated, shop, err)
		case http.MethodGet:
			shop, err := h.service.Mine(r.Context(), actor)
			respond(w, http.StatusOK, shop, err)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case r.URL.Path == "/api/v1/admin/shops":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		list, err := h.service.List(r.Context(), actor, shops.Status(r.URL.Query().Get("status")))
		respond(w, http.StatusOK, list, err)
	case strings.HasPrefix(r.URL.Path, "/api/v1/admin/shops/"):
		h.handleAdminAction(w, r, actor)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleAdminAction(w http.ResponseWriter, r *http.Request, actor auth.Actor) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v1/admin/shops/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	shopID := parts[0]
	switch parts[1] {
	case "review":
		var req reviewRequest
		if err := decodeJSON(w, r, &req); err != nil {
			apperr.WriteHTTP(w, err)
			return
		}
		shop, err := h.service.Review(r.Context(), actor, shopID, req.Decision, req.Note)
		respond(w, http.StatusOK, shop, err)
	case "reevaluate":
		var req reevaluateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			apperr.WriteHTTP(w, err)
			return
		}
		shop, err := h.service.ReevaluateTier(r.Context(), actor, shopID, req.Certifications, req.Equipment)
		respond(w, http.StatusOK, shop, err)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func respond(w http.ResponseWriter, status int, value any, err error) {
	if err != nil {
		apperr.WriteHTTP(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return apperr.Validation("body", "invalid json: "+err.Error())
	}
	return nil
}

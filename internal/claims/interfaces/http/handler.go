package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sk1972-mend/mendinsurance/internal/apperr"
	"github.com/sk1972-mend/mendinsurance/internal/auth"
	claimsapp "github.com/sk1972-mend/mendinsurance/internal/claims/application"
	claims "github.com/sk1972-mend/mendinsurance/internal/claims/domain"
)

const maxBodyBytes = 1 << 20

// Handler provides claim, scanner, shop queue and oversight endpoints.
type Handler struct {
	service *claimsapp.Service
}

// NewHandler constructs a handler.
func NewHandler(service *claimsapp.Service) (*Handler, error) {
	if service == nil {
		return nil, errors.New("claims handler: nil service")
	}
	return &Handler{service: service}, nil
}

type serialRequest struct {
	Serial string `json:"serial"`
}

type statusRequest struct {
	Status claims.Status `json:"status"`
	Note   string        `json:"note"`
}

type triageRequest struct {
	RepairType claims.RepairType `json:"repair_type"`
}

type assignRequest struct {
	ShopID string `json:"shop_id"`
}

// ServeHTTP handles /api/v1/claims, /api/v1/scan, /api/v1/shop/queue and
// /api/v1/admin/claims.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())
	path := r.URL.Path
	switch {
	case path == "/api/v1/claims":
		switch r.Method {
		case http.MethodPost:
			var req claimsapp.FileClaimRequest
			if err := decodeJSON(w, r, &req); err != nil {
				apperr.WriteHTTP(w, err)
				return
			}
			claim, err := h.service.FileClaim(r.Context(), actor, req)
			respond(w, http.StatusCreated, claim, err)
		case http.MethodGet:
			list, err := h.service.ListMine(r.Context(), actor)
			respond(w, http.StatusOK, list, err)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(path, "/api/v1/claims/"):
		h.handleClaim(w, r, actor, strings.TrimPrefix(path, "/api/v1/claims/"))
	case path == "/api/v1/scan":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req serialRequest
		if err := decodeJSON(w, r, &req); err != nil {
			apperr.WriteHTTP(w, err)
			return
		}
		result, err := h.service.Scan(r.Context(), actor, req.Serial)
		respond(w, http.StatusOK, result, err)
	case path == "/api/v1/shop/queue":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		list, err := h.service.ShopQueue(r.Context(), actor)
		respond(w, http.StatusOK, list, err)
	case path == "/api/v1/admin/claims":
		h.handleOversight(w, r, actor)
	case strings.HasPrefix(path, "/api/v1/admin/claims/"):
		parts := strings.Split(strings.TrimPrefix(path, "/api/v1/admin/claims/"), "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] != "payout" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		claim, err := h.service.SettlePayout(r.Context(), actor, parts[0])
		respond(w, http.StatusOK, claim, err)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleClaim(w http.ResponseWriter, r *http.Request, actor auth.Actor, rest string) {
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" || len(parts) > 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		claim, err := h.service.Get(r.Context(), actor, id)
		respond(w, http.StatusOK, claim, err)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	switch parts[1] {
	case "verify":
		var req serialRequest
		if err := decodeJSON(w, r, &req); err != nil {
			apperr.WriteHTTP(w, err)
			return
		}
		result, err := h.service.Verify(r.Context(), actor, id, req.Serial)
		respond(w, http.StatusOK, result, err)
	case "status":
		var req statusRequest
		if err := decodeJSON(w, r, &req); err != nil {
			apperr.WriteHTTP(w, err)
			return
		}
		claim, err := h.service.SetStatus(r.Context(), actor, id, req.Status, req.Note)
		respond(w, http.StatusOK, claim, err)
	case "triage":
		var req triageRequest
		if err := decodeJSON(w, r, &req); err != nil {
			apperr.WriteHTTP(w, err)
			return
		}
		claim, err := h.service.Triage(r.Context(), actor, id, req.RepairType)
		respond(w, http.StatusOK, claim, err)
	case "assign":
		var req assignRequest
		if err := decodeJSON(w, r, &req); err != nil {
			apperr.WriteHTTP(w, err)
			return
		}
		claim, err := h.service.AssignShop(r.Context(), actor, id, req.ShopID)
		respond(w, http.StatusOK, claim, err)
	case "complete":
		var req claimsapp.CompleteRequest
		if err := decodeJSON(w, r, &req); err != nil {
			apperr.WriteHTTP(w, err)
			return
		}
		claim, err := h.service.Complete(r.Context(), actor, id, req)
		respond(w, http.StatusOK, claim, err)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleOversight(w http.ResponseWriter, r *http.Request, actor auth.Actor) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	query := r.URL.Query()
	filter := claims.Filter{
		Status: claims.Status(query.Get("status")),
		Query:  query.Get("q"),
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			apperr.WriteHTTP(w, apperr.Validation("limit", "must be a positive integer"))
			return
		}
		filter.Limit = limit
	}
	list, err := h.service.Oversight(r.Context(), actor, filter)
	respond(w, http.StatusOK, list, err)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return apperr.Validation("body", "invalid json: "+err.Error())
	}
	return nil
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

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sk1972-mend/mendinsurance/internal/apperr"
	catalog "github.com/sk1972-mend/mendinsurance/internal/catalog/domain"
)

// Handler serves the tier resolver and the model picker lists.
type Handler struct {
	catalog *catalog.Catalog
}

// NewHandler constructs a catalog handler.
func NewHandler(c *catalog.Catalog) (*Handler, error) {
	if c == nil {
		return nil, errors.New("catalog handler: nil catalog")
	}
	return &Handler{catalog: c}, nil
}

type tierResponse struct {
	Resolved bool                 `json:"resolved"`
	Pricing  *catalog.TierPricing `json:"pricing,omitempty"`
}

type modelsResponse struct {
	Categories []catalog.Category `json:"categories,omitempty"`
	Brands     []string           `json:"brands,omitempty"`
	Models     []catalog.Model    `json:"models,omitempty"`
}

// ServeHTTP handles /api/v1/catalog/tiers and /api/v1/catalog/models.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	query := r.URL.Query()
	switch r.URL.Path {
	case "/api/v1/catalog/tiers":
		category := query.Get("category")
		if category == "" {
			writeJSON(w, h.catalog.Tiers())
			return
		}
		resp := tierResponse{}
		if pricing, ok := h.catalog.Resolve(category, query.Get("brand"), query.Get("model")); ok {
			resp.Resolved = true
			resp.Pricing = &pricing
		}
		writeJSON(w, resp)
	case "/api/v1/catalog/models":
		category := query.Get("category")
		brand := query.Get("brand")
		switch {
		case category == "":
			writeJSON(w, modelsResponse{Categories: h.catalog.Categories()})
		case !catalog.Category(category).Valid():
			apperr.WriteHTTP(w, apperr.Validation("category", "unknown category"))
		case brand == "":
			writeJSON(w, modelsResponse{Brands: h.catalog.Brands(category)})
		default:
			writeJSON(w, modelsResponse{Models: h.catalog.Models(category, brand)})
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(value)
}

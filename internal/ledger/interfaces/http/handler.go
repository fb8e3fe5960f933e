package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/sk1972-mend/mendinsurance/internal/apperr"
	"github.com/sk1972-mend/mendinsurance/internal/audit"
	"github.com/sk1972-mend/mendinsurance/internal/auth"
	ledgerapp "github.com/sk1972-mend/mendinsurance/internal/ledger/application"
	ledger "github.com/sk1972-mend/mendinsurance/internal/ledger/domain"
	"github.com/sk1972-mend/mendinsurance/internal/ledger/interfaces"
	"github.com/sk1972-mend/mendinsurance/internal/observability/metrics"
)

const (
	maxBodyBytes = 1 << 20
	contentPDF   = "application/pdf"
	contentXLSX  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handler provides shop revenue, wallet and commission endpoints.
type Handler struct {
	service *ledgerapp.Service
	audit   audit.Logger
	logger  *zap.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *ledgerapp.Service, auditLog audit.Logger, logger *zap.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("ledger handler: nil service")
	}
	if auditLog == nil {
		return nil, errors.New("ledger handler: nil audit logger")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, audit: auditLog, logger: logger}, nil
}

// ServeHTTP handles /api/v1/shop/revenue, /api/v1/shop/wallet and
// /api/v1/admin/ledger/commissions.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/shop/revenue":
		h.handleRevenue(w, r)
	case "/api/v1/shop/revenue/export.pdf":
		h.handleExport(w, r, "pdf")
	case "/api/v1/shop/revenue/export.xlsx":
		h.handleExport(w, r, "xlsx")
	case "/api/v1/shop/wallet":
		h.handleWallet(w, r)
	case "/api/v1/admin/ledger/commissions":
		h.handleCommission(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleRevenue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	summary, err := h.revenue(r)
	if err != nil {
		apperr.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request, format string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveStatementExport(format, result, time.Since(start))
	}()

	summary, err := h.revenue(r)
	if err != nil {
		result = metrics.ResultError
		apperr.WriteHTTP(w, err)
		return
	}

	var (
		data        []byte
		contentType string
	)
	switch format {
	case "pdf":
		data, err = interfaces.BuildRevenuePDF(summary)
		contentType = contentPDF
	default:
		data, err = interfaces.BuildRevenueXLSX(summary)
		contentType = contentXLSX
	}
	if err != nil {
		result = metrics.ResultError
		h.logger.Error("revenue export failed", zap.String("format", format), zap.String("shop_id", summary.ShopID), zap.Error(err))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	actor := auth.ActorFromContext(r.Context())
	if err := h.audit.Log(r.Context(), audit.NewEntry(actor, "revenue.export", "shop", summary.ShopID, map[string]any{
		"format": format,
		"months": len(summary.Months),
	})); err != nil {
		h.logger.Warn("audit log failed", zap.String("action", "revenue.export"), zap.Error(err))
	}

	filename := "revenue-" + summary.ShopID + "-" + summary.GeneratedAt.Format("2006-01") + "." + format
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handleWallet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	actor := auth.ActorFromContext(r.Context())
	shopID := r.URL.Query().Get("shop_id")
	balance, err := h.service.WalletBalance(r.Context(), actor, shopID)
	if err != nil {
		apperr.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"wallet_balance": balance})
}

func (h *Handler) handleCommission(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	actor := auth.ActorFromContext(r.Context())
	if err := actor.Require("credit commission", auth.RoleAdmin); err != nil {
		apperr.WriteHTTP(w, err)
		return
	}
	var credit ledgerapp.CommissionCredit
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&credit); err != nil {
		apperr.WriteHTTP(w, apperr.Validation("body", "invalid json: "+err.Error()))
		return
	}
	entry, err := h.service.CreditCommission(r.Context(), credit)
	if err != nil {
		apperr.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) revenue(r *http.Request) (*ledger.RevenueSummary, error) {
	months := 0
	if raw := r.URL.Query().Get("months"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return nil, apperr.Validation("months", "must be an integer")
		}
		if value <= 0 {
			return nil, apperr.Validation("months", "must be between 1 and 24")
		}
		months = value
	}
	actor := auth.ActorFromContext(r.Context())
	return h.service.Revenue(r.Context(), actor, r.URL.Query().Get("shop_id"), months)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sk1972-mend/mendinsurance/internal/audit"
	"github.com/sk1972-mend/mendinsurance/internal/auth"
	ledgerapp "github.com/sk1972-mend/mendinsurance/internal/ledger/application"
	ledger "github.com/sk1972-mend/mendinsurance/internal/ledger/domain"
	"github.com/sk1972-mend/mendinsurance/internal/ledger/infrastructure/memory"
)

type ownerShops map[string]string

func (o ownerShops) ShopIDForOwner(_ context.Context, owner string) (string, error) {
	return o[owner], nil
}

func newHandler(t *testing.T) (*Handler, *audit.MemoryLog) {
	t.Helper()
	log := audit.NewMemoryLog()
	svc, err := ledgerapp.NewService(memory.NewRepository(), ownerShops{"owner-1": "shop-1"}, log,
		ledgerapp.WithClock(func() time.Time { return time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC) }))
	require.NoError(t, err)
	handler, err := NewHandler(svc, log, nil)
	require.NoError(t, err)
	return handler, log
}

func request(method, path, body string, role auth.Role, subject string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	return req.WithContext(auth.WithIdentity(req.Context(), role, subject))
}

func TestCommissionThenRevenue(t *testing.T) {
	handler, log := newHandler(t)
	body := `{"shop_id":"shop-1","policy_id":"p-1","amount":"1.80","reference":"pay-77"}`

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, request(http.MethodPost, "/api/v1/admin/ledger/commissions", body, auth.RoleShop, "owner-1"))
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, request(http.MethodPost, "/api/v1/admin/ledger/commissions", body, auth.RoleAdmin, "admin-1"))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, request(http.MethodGet, "/api/v1/shop/revenue?months=3", "", auth.RoleShop, "owner-1"))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var summary ledger.RevenueSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Len(t, summary.Months, 3)
	assert.Equal(t, "1.8", summary.MonthlyPassive.String())

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, request(http.MethodGet, "/api/v1/shop/revenue?months=abc", "", auth.RoleShop, "owner-1"))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, request(http.MethodGet, "/api/v1/shop/revenue/export.pdf", "", auth.RoleShop, "owner-1"))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, contentPDF, resp.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(resp.Body.Bytes(), []byte("%PDF")))
	assert.Len(t, log.Entries("revenue.export"), 1)

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, request(http.MethodGet, "/api/v1/shop/wallet", "", auth.RoleShop, "owner-1"))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"1.8"`)
}

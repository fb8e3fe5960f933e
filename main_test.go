package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sk1972-mend/mendinsurance/internal/auth"
	"github.com/sk1972-mend/mendinsurance/internal/config"
)

const testSecret = "test-secret"

type client struct {
	t       *testing.T
	handler http.Handler
}

func newClient(t *testing.T) *client {
	t.Helper()
	built, err := buildApp(config.Config{JWTSecret: testSecret}, memoryRepositories(), zap.NewNop())
	require.NoError(t, err)
	return &client{t: t, handler: built.handler}
}

func (c *client) do(method, path, body string, role auth.Role, subject string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if subject != "" {
		token, err := auth.IssueJWT([]byte(testSecret), subject, role, time.Hour)
		require.NoError(c.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	c.handler.ServeHTTP(resp, req)
	return resp
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&value), resp.Body.String())
	return value
}

type idStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func TestServer_HealthAndAuth(t *testing.T) {
	c := newClient(t)

	resp := c.do(http.MethodGet, "/healthz", "", "", "")
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = c.do(http.MethodGet, "/api/v1/devices", "", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = c.do(http.MethodGet, "/api/v1/admin/claims", "", auth.RoleCustomer, "user-1")
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = c.do(http.MethodGet, "/api/v1/catalog/tiers", "", auth.RoleEnterprise, "partner-1")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestServer_ClaimLifecycle(t *testing.T) {
	c := newClient(t)

	resp := c.do(http.MethodPost, "/api/v1/shops/apply", `{
		"business_name":"Fix-It Corner","business_address":"12 Main St","business_phone":"555-0100",
		"business_email":"desk@fixit.example","certifications":["apple","comptia"],
		"equipment":["soldering","diagnostic"],"specializations":["smartphone"]}`, auth.RoleShop, "tech-1")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	shop := decode[idStatus](t, resp)

	resp = c.do(http.MethodPost, "/api/v1/admin/shops/"+shop.ID+"/review", `{"decision":"approve"}`, auth.RoleAdmin, "admin-1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = c.do(http.MethodPost, "/api/v1/devices", `{"category":"smartphone","brand":"Apple",
		"model":"iPhone 15 Pro Max","serial_number":"f2lxk0abcd12","referring_shop_id":"`+shop.ID+`"}`,
		auth.RoleCustomer, "user-1")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	reg := decode[struct {
		Policy idStatus `json:"policy"`
	}](t, resp)

	resp = c.do(http.MethodPost, "/api/v1/claims", `{"policy_id":"`+reg.Policy.ID+`","category":"screen","description":"cracked"}`,
		auth.RoleCustomer, "user-1")
	assert.Equal(t, http.StatusConflict, resp.Code, "pending policy cannot carry a claim")

	resp = c.do(http.MethodPost, "/api/v1/policies/"+reg.Policy.ID+"/activate", "", auth.RoleAdmin, "admin-1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = c.do(http.MethodPost, "/api/v1/claims", `{"policy_id":"`+reg.Policy.ID+`","category":"screen","description":"cracked"}`,
		auth.RoleCustomer, "user-1")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	claim := decode[idStatus](t, resp)
	assert.Equal(t, "filed", claim.Status)

	resp = c.do(http.MethodPost, "/api/v1/scan", `{"serial":"F2LXK0ABCD12"}`, auth.RoleShop, "tech-1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	scan := decode[struct {
		Outcome           string `json:"outcome"`
		WorkbenchUnlocked bool   `json:"workbench_unlocked"`
	}](t, resp)
	assert.Equal(t, "claim_ready", scan.Outcome)
	assert.True(t, scan.WorkbenchUnlocked)

	resp = c.do(http.MethodPost, "/api/v1/claims/"+claim.ID+"/verify", `{"serial":"WRONG0000000"}`, auth.RoleShop, "tech-1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.False(t, decode[struct {
		Match bool `json:"match"`
	}](t, resp).Match)

	resp = c.do(http.MethodPost, "/api/v1/claims/"+claim.ID+"/verify", `{"serial":"f2lxk0abcd12"}`, auth.RoleShop, "tech-1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	verified := decode[struct {
		Match bool     `json:"match"`
		Claim idStatus `json:"claim"`
	}](t, resp)
	assert.True(t, verified.Match)
	assert.Equal(t, "in_progress", verified.Claim.Status)

	resp = c.do(http.MethodPost, "/api/v1/claims/"+claim.ID+"/complete", `{"repair_notes":"new panel","repair_cost":"89.50"}`,
		auth.RoleShop, "tech-1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "verified_complete", decode[idStatus](t, resp).Status)

	resp = c.do(http.MethodPost, "/api/v1/claims/"+claim.ID+"/status", `{"status":"closed"}`, auth.RoleAdmin, "admin-1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "closed", decode[idStatus](t, resp).Status)

	resp = c.do(http.MethodGet, "/api/v1/shop/wallet", "", auth.RoleShop, "tech-1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	wallet := decode[map[string]decimal.Decimal](t, resp)
	// 15% of the 14.00 premium plus the 89.50 repair.
	assert.True(t, wallet["wallet_balance"].Equal(decimal.RequireFromString("91.60")), wallet["wallet_balance"].String())

	resp = c.do(http.MethodGet, "/api/v1/shop/revenue/export.xlsx", "", auth.RoleShop, "tech-1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "revenue-"+shop.ID)
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "warn", "bogus"} {
		log, err := newLogger(level)
		require.NoError(t, err, level)
		assert.NotNil(t, log)
	}
}

func TestServer_EchoesRequestID(t *testing.T) {
	c := newClient(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-7")
	resp := httptest.NewRecorder()
	c.handler.ServeHTTP(resp, req)
	assert.Equal(t, "req-7", resp.Header().Get("X-Request-ID"))

	resp = c.do(http.MethodGet, "/healthz", "", "", "")
	assert.NotEmpty(t, resp.Header().Get("X-Request-ID"))
}

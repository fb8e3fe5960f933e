package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sk1972-mend/mendinsurance/internal/audit"
	"github.com/sk1972-mend/mendinsurance/internal/auth"
	catalog "github.com/sk1972-mend/mendinsurance/internal/catalog/domain"
	coverageapp "github.com/sk1972-mend/mendinsurance/internal/coverage/application"
	"github.com/sk1972-mend/mendinsurance/internal/coverage/infrastructure/memory"
)

func newHandler(t *testing.T) *Handler {
	t.Helper()
	svc, err := coverageapp.NewService(memory.NewRepository(), catalog.Default(), audit.NewMemoryLog())
	require.NoError(t, err)
	handler, err := NewHandler(svc)
	require.NoError(t, err)
	return handler
}

func request(method, path, body string, role auth.Role, subject string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	return req.WithContext(auth.WithIdentity(req.Context(), role, subject))
}

func TestRegisterEndpoint(t *testing.T) {
	handler := newHandler(t)
	body := `{"category":"console","brand":"Valve","model":"Steam Deck OLED","serial_number":"vlv-00012345"}`

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, request(http.MethodPost, "/api/v1/devices", body, auth.RoleCustomer, "user-1"))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var reg coverageapp.Registration
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reg))
	assert.Equal(t, "VLV-00012345", reg.Device.SerialNumber)
	assert.Equal(t, 3, reg.Device.Tier)
	assert.Equal(t, "pending", string(reg.Policy.Status))

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, request(http.MethodGet, "/api/v1/devices", "", auth.RoleCustomer, "user-1"))
	require.Equal(t, http.StatusOK, resp.Code)
	var listed []coverageapp.DeviceCoverage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].Policy)
}

func TestRegisterEndpoint_RejectsPriceFields(t *testing.T) {
	handler := newHandler(t)
	body := `{"category":"console","brand":"Valve","model":"Steam Deck","serial_number":"VLV-00012345","monthly_premium":1}`

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, request(http.MethodPost, "/api/v1/devices", body, auth.RoleCustomer, "user-1"))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRegisterEndpoint_BadSerial(t *testing.T) {
	handler := newHandler(t)
	body := `{"category":"console","brand":"Valve","model":"Steam Deck","serial_number":"SHORT"}`

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, request(http.MethodPost, "/api/v1/devices", body, auth.RoleCustomer, "user-1"))
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), `"field":"serial_number"`)
}

func TestPolicyActionEndpoint(t *testing.T) {
	handler := newHandler(t)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, request(http.MethodPost, "/api/v1/policies/missing/activate", "", auth.RoleAdmin, "admin-1"))
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, request(http.MethodPost, "/api/v1/policies/p-1/renew", "", auth.RoleAdmin, "admin-1"))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

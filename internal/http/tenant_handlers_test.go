package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wisefido-tenants/internal/domain"
	"wisefido-tenants/internal/repository"
	"wisefido-tenants/internal/service"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// noopSchemaManager handler 测试不关心 DDL，全部成功
type noopSchemaManager struct{}

func (noopSchemaManager) CreateSchema(context.Context, string) error { return nil }
func (noopSchemaManager) Bootstrap(context.Context, string) error    { return nil }
func (noopSchemaManager) DropSchema(context.Context, string) error   { return nil }

func newTestRouter() *Router {
	svc := service.NewTenantService(
		repository.NewMemoryTenantsRepo(),
		noopSchemaManager{},
		"tenant_",
		nil,
		nil,
		zap.NewNop(),
	)
	router := NewRouter(zap.NewNop())
	router.RegisterTenantRoutes(NewTenantHandler(svc, zap.NewNop()))
	return router
}

func doJSON(t *testing.T, router *Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createAcme(t *testing.T, router *Router) {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/admin/api/v1/tenants", service.CreateTenantRequest{
		ClientID: "acme",
		Name:     "Acme Inc",
		Email:    "a@acme.test",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateTenant_Handler(t *testing.T) {
	router := newTestRouter()
	rec := doJSON(t, router, http.MethodPost, "/admin/api/v1/tenants", service.CreateTenantRequest{
		ClientID: "acme",
		Name:     "Acme Inc",
		Email:    "a@acme.test",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp Result[domain.Tenant]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, ResultSuccess, resp.Code)
	require.Equal(t, "acme", resp.Result.ClientID)
	require.Equal(t, "tenant_acme", resp.Result.SchemaName)
	require.Equal(t, domain.StatusActive, resp.Result.Status)
}

func TestCreateTenant_Handler_Conflict(t *testing.T) {
	router := newTestRouter()
	createAcme(t, router)

	rec := doJSON(t, router, http.MethodPost, "/admin/api/v1/tenants", service.CreateTenantRequest{
		ClientID: "acme",
		Name:     "Again",
		Email:    "b@acme.test",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateTenant_Handler_Validation(t *testing.T) {
	router := newTestRouter()
	rec := doJSON(t, router, http.MethodPost, "/admin/api/v1/tenants", service.CreateTenantRequest{
		ClientID: "Bad-ID",
		Name:     "Acme",
		Email:    "a@acme.test",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/admin/api/v1/tenants", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTenant_Handler_NotFound(t *testing.T) {
	router := newTestRouter()
	rec := doJSON(t, router, http.MethodGet, "/admin/api/v1/tenants/nobody", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp Result[any]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, ResultError, resp.Code)
}

func TestListTenants_Handler(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodGet, "/admin/api/v1/tenants", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var empty Result[[]domain.Tenant]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &empty))
	require.NotNil(t, empty.Result)
	require.Len(t, empty.Result, 0)

	createAcme(t, router)
	rec = doJSON(t, router, http.MethodGet, "/admin/api/v1/tenants", nil)
	var resp Result[[]domain.Tenant]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Result, 1)
}

func TestUpdateStatus_Handler(t *testing.T) {
	router := newTestRouter()
	createAcme(t, router)

	rec := doJSON(t, router, http.MethodPut, "/admin/api/v1/tenants/acme/status", UpdateStatusRequest{
		Status: domain.StatusSuspended,
		Reason: "invoice overdue",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp Result[domain.Tenant]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, domain.StatusSuspended, resp.Result.Status)

	// 非法状态值
	rec = doJSON(t, router, http.MethodPut, "/admin/api/v1/tenants/acme/status", UpdateStatusRequest{Status: "frozen"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTenant_Handler(t *testing.T) {
	router := newTestRouter()
	createAcme(t, router)

	rec := doJSON(t, router, http.MethodDelete, "/admin/api/v1/tenants/acme", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/admin/api/v1/tenants/acme", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/admin/api/v1/tenants/acme", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth_Handler(t *testing.T) {
	router := newTestRouter()
	createAcme(t, router)

	rec := doJSON(t, router, http.MethodGet, "/admin/api/v1/tenants/acme/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp Result[service.TenantHealth]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "healthy", resp.Result.Status)

	rec = doJSON(t, router, http.MethodGet, "/admin/api/v1/tenants/nobody/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "error", resp.Result.Status)
}

func TestExportTenants_Handler(t *testing.T) {
	router := newTestRouter()
	createAcme(t, router)

	rec := doJSON(t, router, http.MethodGet, "/admin/api/v1/tenants/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"),
	)
	require.True(t, strings.Contains(rec.Header().Get("Content-Disposition"), "tenants_"))
	require.NotEmpty(t, rec.Body.Bytes())
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router := newTestRouter()
	rec := doJSON(t, router, http.MethodPatch, "/admin/api/v1/tenants", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/admin/api/v1/tenants/acme/health", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

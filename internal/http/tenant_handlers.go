package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"wisefido-tenants/internal/domain"
	"wisefido-tenants/internal/service"

	"go.uber.org/zap"
)

// TenantHandler 租户管理 Admin API
type TenantHandler struct {
	svc    *service.TenantService
	logger *zap.Logger
}

func NewTenantHandler(svc *service.TenantService, logger *zap.Logger) *TenantHandler {
	return &TenantHandler{svc: svc, logger: logger}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError 按错误分类映射 HTTP 状态码
func (h *TenantHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch domain.KindOf(err) {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindConflict:
		status = http.StatusConflict
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindConnection:
		status = http.StatusBadGateway
	case domain.KindProvisioning:
		status = http.StatusInternalServerError
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("tenant API error", zap.Error(err))
	}
	writeJSON(w, status, Fail(err.Error()))
}

// ListTenants GET /admin/api/v1/tenants
func (h *TenantHandler) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.svc.ListTenants(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if tenants == nil {
		tenants = []*domain.Tenant{}
	}
	writeJSON(w, http.StatusOK, Ok(tenants))
}

// CreateTenant POST /admin/api/v1/tenants
func (h *TenantHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	t, err := h.svc.CreateTenant(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(t))
}

// GetTenant GET /admin/api/v1/tenants/{clientID}
func (h *TenantHandler) GetTenant(w http.ResponseWriter, r *http.Request, clientID string) {
	t, err := h.svc.GetTenant(r.Context(), clientID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(t))
}

// UpdateStatusRequest PUT /admin/api/v1/tenants/{clientID}/status 请求体
type UpdateStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// UpdateStatus PUT /admin/api/v1/tenants/{clientID}/status
func (h *TenantHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, clientID string) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	t, err := h.svc.UpdateTenantStatus(r.Context(), clientID, req.Status, req.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(t))
}

// DeleteTenant DELETE /admin/api/v1/tenants/{clientID}
func (h *TenantHandler) DeleteTenant(w http.ResponseWriter, r *http.Request, clientID string) {
	if err := h.svc.DeleteTenant(r.Context(), clientID); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"client_id": clientID}))
}

// Health GET /admin/api/v1/tenants/{clientID}/health
func (h *TenantHandler) Health(w http.ResponseWriter, r *http.Request, clientID string) {
	writeJSON(w, http.StatusOK, Ok(h.svc.CheckTenantHealth(r.Context(), clientID)))
}

// ExportTenants GET /admin/api/v1/tenants/export
func (h *TenantHandler) ExportTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.svc.ListTenants(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	data, err := GenerateTenantsExport(tenants)
	if err != nil {
		h.writeError(w, err)
		return
	}
	filename := fmt.Sprintf("tenants_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	_, _ = w.Write(data)
}

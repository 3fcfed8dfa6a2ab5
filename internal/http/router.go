package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterTenantRoutes 注册租户管理路由
func (r *Router) RegisterTenantRoutes(h *TenantHandler) {
	// list / create
	r.Handle("/admin/api/v1/tenants", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.ListTenants(w, req)
		case http.MethodPost:
			h.CreateTenant(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	// xlsx 导出（精确 pattern 优先于下面的前缀 pattern）
	r.Handle("/admin/api/v1/tenants/export", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ExportTenants(w, req)
	})

	// tenants/{clientID}[/status|/health]
	r.Handle("/admin/api/v1/tenants/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/admin/api/v1/tenants/")
		parts := strings.Split(rest, "/")
		clientID := parts[0]
		if clientID == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		switch {
		case len(parts) == 1:
			switch req.Method {
			case http.MethodGet:
				h.GetTenant(w, req, clientID)
			case http.MethodDelete:
				h.DeleteTenant(w, req, clientID)
			default:
				w.WriteHeader(http.StatusMethodNotAllowed)
			}
		case len(parts) == 2 && parts[1] == "status":
			if req.Method != http.MethodPut {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.UpdateStatus(w, req, clientID)
		case len(parts) == 2 && parts[1] == "health":
			if req.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.Health(w, req, clientID)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

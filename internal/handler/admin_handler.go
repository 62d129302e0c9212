package handler

import (
	"net/http"

	"saas-backoffice/internal/authz"
	"saas-backoffice/internal/model"
	"saas-backoffice/internal/service"
)

type rolesView struct {
	Roles     []model.Role `json:"roles"`
	SuperRole model.Role   `json:"super_role"`
	Rules     []authz.Rule `json:"rules"`
}

type ruleLister interface {
	Rules() []authz.Rule
}

type AdminHandler struct {
	auth  *service.AuthService
	audit *service.AuditService
	rules ruleLister
}

func NewAdminHandler(auth *service.AuthService, audit *service.AuditService, rules ruleLister) *AdminHandler {
	return &AdminHandler{auth: auth, audit: audit, rules: rules}
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) error {
	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		return err
	}

	return writeOK(w, model.AuthUserList{Users: users})
}

func (h *AdminHandler) Roles(w http.ResponseWriter, _ *http.Request) error {
	return writeOK(w, rolesView{
		Roles:     model.Roles(),
		SuperRole: authz.SuperRole,
		Rules:     h.rules.Rules(),
	})
}

func (h *AdminHandler) Logs(w http.ResponseWriter, r *http.Request) error {
	entries, err := h.audit.Recent(r.Context(), parseIntOrDefault(r.URL.Query().Get("limit"), 50))
	if err != nil {
		return err
	}

	return writeOK(w, map[string]any{"items": entries})
}

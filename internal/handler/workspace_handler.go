package handler

import (
	"net/http"

	"saas-backoffice/internal/middleware"
	"saas-backoffice/internal/model"
	"saas-backoffice/pkg/apierror"
)

type workspaceView struct {
	Area     string     `json:"area"`
	UserID   string     `json:"user_id"`
	Username string     `json:"username"`
	TenantID string     `json:"tenant_id,omitempty"`
	Role     model.Role `json:"role"`
}

// WorkspaceHandler serves the landing route of one business area. It reads
// the identity the pipeline attached and never looks at the token.
type WorkspaceHandler struct {
	area string
}

func NewWorkspaceHandler(area string) *WorkspaceHandler {
	return &WorkspaceHandler{area: area}
}

func (h *WorkspaceHandler) Get(w http.ResponseWriter, r *http.Request) error {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return apierror.Unauthorized("no token provided")
	}

	return writeOK(w, workspaceView{
		Area:     h.area,
		UserID:   claims.Subject,
		Username: claims.Username,
		TenantID: claims.TenantID,
		Role:     claims.Role,
	})
}

package handler

import (
	"net/http"

	"saas-backoffice/internal/middleware"
	"saas-backoffice/internal/model"
	"saas-backoffice/internal/service"
	"saas-backoffice/pkg/apierror"
)

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) error {
	var payload model.LoginRequest
	if err := decodeJSON(r, &payload); err != nil {
		return err
	}

	result, err := h.service.Login(r.Context(), payload)
	if err != nil {
		return err
	}

	return writeOK(w, result)
}

func (h *AuthHandler) Captcha(w http.ResponseWriter, r *http.Request) error {
	captcha, err := h.service.NewCaptcha(r.Context())
	if err != nil {
		return err
	}

	return writeOK(w, captcha)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) error {
	var payload model.RefreshRequest
	if err := decodeJSON(r, &payload); err != nil {
		return err
	}

	result, err := h.service.Refresh(r.Context(), payload.Token)
	if err != nil {
		return err
	}

	return writeOK(w, result)
}

// Logout only acknowledges; the client discards its token.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) error {
	return writeOK(w, map[string]any{"logged_out": true})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) error {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return apierror.Unauthorized("no token provided")
	}

	user, err := h.service.Profile(r.Context(), claims)
	if err != nil {
		return err
	}

	return writeOK(w, user)
}

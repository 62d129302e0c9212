package model

import "time"

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	TenantID     string    `json:"tenant_id,omitempty"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type AuthUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	TenantID string `json:"tenant_id,omitempty"`
	Role     Role   `json:"role"`
}

func (u User) Public() AuthUser {
	return AuthUser{ID: u.ID, Username: u.Username, TenantID: u.TenantID, Role: u.Role}
}

type AuthUserList struct {
	Users []AuthUser `json:"users"`
}

type LoginRequest struct {
	Username  string `json:"username" validate:"required,max=64"`
	Password  string `json:"password" validate:"required,max=128"`
	Captcha   string `json:"captcha" validate:"omitempty,len=6,alphanum"`
	SessionID string `json:"session_id" validate:"omitempty,uuid"`
}

type RefreshRequest struct {
	Token string `json:"token" validate:"required"`
}

// LoginResult is the data section of the login and refresh responses.
type LoginResult struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	TenantID  string    `json:"tenant_id,omitempty"`
	Role      Role      `json:"role"`
	Roles     []Role    `json:"roles"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Captcha struct {
	SessionID  string `json:"session_id"`
	CaptchaURL string `json:"captcha_url"`
}

package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Identity related errors
	ErrUnknownRole = errors.New("unknown role")

	// Captcha related errors
	ErrCaptchaNotFound = errors.New("captcha not found")
	ErrCaptchaMismatch = errors.New("captcha mismatch")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)

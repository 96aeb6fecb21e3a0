package models

import "errors"

// Application-wide standard errors
var (
	// Session & Authentication Errors
	ErrUnauthorized    = errors.New("unauthorized") // Authentication required or failed
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session has expired")
	ErrInvalidName     = errors.New("name must not be empty")

	// Token Errors
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
	ErrInvalidInput   = errors.New("invalid input data")
)

// Коды ошибок для JSON API.
const (
	ErrCodeBadRequest   = 40001
	ErrCodeValidation   = 40002
	ErrCodeUnauthorized = 40101
	ErrCodeTokenInvalid = 40102
	ErrCodeUpstream     = 50201
	ErrCodeInternal     = 50001
)

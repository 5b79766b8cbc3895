package apperror

import "errors"

var (
	ErrConnection        = errors.New("connection error")
	ErrNotConnected      = errors.New("socket is not connected")
	ErrMatchmaking       = errors.New("matchmaking failed")
	ErrJoinMatch         = errors.New("failed to join match")
	ErrSessionClosed     = errors.New("match session is closed")
	ErrAuthentication    = errors.New("authentication failed")
	ErrInvalidUsername   = errors.New("invalid username")
	ErrServerUnreachable = errors.New("server not reachable")
)

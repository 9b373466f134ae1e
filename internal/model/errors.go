package model

import "errors"

// Common errors used across the application
var (
	// Session errors
	ErrSessionFull       = errors.New("session already has the maximum number of players")
	ErrNoPlayers         = errors.New("no players are signed up")
	ErrRoundInProgress   = errors.New("current round has not ended")
	ErrInvalidDigitCount = errors.New("digit count is out of range")

	// Round errors
	ErrNoCurrentRound = errors.New("no round has been started")
	ErrRoundEnded     = errors.New("round has already ended")

	// Code generation errors
	ErrCodeLengthInvalid = errors.New("secret code length must be between 1 and 10")
)

package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")

	// Configuration errors
	ErrNotConfigurator = errors.New("caller is not the configurator")
	ErrInvalidParams   = errors.New("invalid game parameters")
	ErrParamsNotSet    = errors.New("game parameters not set")

	// Game errors
	ErrGameNotFound        = errors.New("game not found")
	ErrGameEnded           = errors.New("game has ended")
	ErrGameAlreadyStarted  = errors.New("game has already started")
	ErrJoinWindowClosed    = errors.New("join window is closed")
	ErrJoinWindowStillOpen = errors.New("join window is still open")
	ErrTurnTooSoon         = errors.New("too soon to draw another number")
	ErrNoNumbersDrawnYet   = errors.New("no numbers have been drawn yet")
	ErrInsufficientDraws   = errors.New("not enough numbers drawn to check a board")
	ErrGameBusy            = errors.New("game has an operation in flight")

	// Membership errors
	ErrAlreadyJoined    = errors.New("player has already joined this game")
	ErrNotAJoinedPlayer = errors.New("player has not joined this game")
)

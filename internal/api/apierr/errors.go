package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/bingopot/internal/dependencies/token"
	"github.com/mcoot/bingopot/internal/model"
	"github.com/mcoot/bingopot/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeInvalidParams       = "INVALID_PARAMS"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeNotConfigurator     = "NOT_CONFIGURATOR"
	CodePlayerNotFound      = "PLAYER_NOT_FOUND"
	CodeGameNotFound        = "GAME_NOT_FOUND"
	CodeGameEnded           = "GAME_ENDED"
	CodeGameAlreadyStarted  = "GAME_ALREADY_STARTED"
	CodeJoinWindowClosed    = "JOIN_WINDOW_CLOSED"
	CodeJoinWindowStillOpen = "JOIN_WINDOW_STILL_OPEN"
	CodeAlreadyJoined       = "ALREADY_JOINED"
	CodeNotAJoinedPlayer    = "NOT_A_JOINED_PLAYER"
	CodeTurnTooSoon         = "TURN_TOO_SOON"
	CodeNoNumbersDrawnYet   = "NO_NUMBERS_DRAWN_YET"
	CodeInsufficientDraws   = "INSUFFICIENT_DRAWS"
	CodeGameBusy            = "GAME_BUSY"
	CodeInsufficientFunds   = "INSUFFICIENT_FUNDS"
	CodeTransferFailed      = "TRANSFER_FAILED"
	CodeUsernameExists      = "USERNAME_EXISTS"
	CodeInvalidUsername     = "INVALID_USERNAME"
	CodeWeakPassword        = "WEAK_PASSWORD"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrGameNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeGameNotFound, "Game not found"}}
	case errors.Is(err, model.ErrNotConfigurator):
		return &httpError{http.StatusForbidden, APIError{CodeNotConfigurator, "Only the configurator can perform this action"}}
	case errors.Is(err, model.ErrInvalidParams):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidParams, "Durations must not be negative"}}
	case errors.Is(err, model.ErrGameEnded):
		return &httpError{http.StatusConflict, APIError{CodeGameEnded, "Game has ended"}}
	case errors.Is(err, model.ErrGameAlreadyStarted):
		return &httpError{http.StatusConflict, APIError{CodeGameAlreadyStarted, "Game has already started"}}
	case errors.Is(err, model.ErrJoinWindowClosed):
		return &httpError{http.StatusConflict, APIError{CodeJoinWindowClosed, "Join window has closed"}}
	case errors.Is(err, model.ErrJoinWindowStillOpen):
		return &httpError{http.StatusConflict, APIError{CodeJoinWindowStillOpen, "Join window is still open"}}
	case errors.Is(err, model.ErrAlreadyJoined):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyJoined, "Already joined this game"}}
	case errors.Is(err, model.ErrNotAJoinedPlayer):
		return &httpError{http.StatusForbidden, APIError{CodeNotAJoinedPlayer, "Not a joined player"}}
	case errors.Is(err, model.ErrTurnTooSoon):
		return &httpError{http.StatusConflict, APIError{CodeTurnTooSoon, "Next draw is not due yet"}}
	case errors.Is(err, model.ErrNoNumbersDrawnYet):
		return &httpError{http.StatusConflict, APIError{CodeNoNumbersDrawnYet, "No numbers have been drawn yet"}}
	case errors.Is(err, model.ErrInsufficientDraws):
		return &httpError{http.StatusConflict, APIError{CodeInsufficientDraws, "Not enough numbers have been drawn"}}
	case errors.Is(err, model.ErrGameBusy):
		return &httpError{http.StatusConflict, APIError{CodeGameBusy, "Game is busy, retry"}}

	// Map token errors
	case errors.Is(err, token.ErrInsufficientFunds):
		return &httpError{http.StatusPaymentRequired, APIError{CodeInsufficientFunds, "Insufficient funds for the entry fee"}}
	case errors.Is(err, token.ErrAmountOutOfRange):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Amount is out of range"}}
	case errors.Is(err, token.ErrTransferFailed):
		return &httpError{http.StatusBadGateway, APIError{CodeTransferFailed, "Token transfer failed"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}
	case errors.Is(err, auth.ErrUsernameExists):
		return &httpError{http.StatusConflict, APIError{CodeUsernameExists, "Username already exists"}}
	case errors.Is(err, auth.ErrInvalidUsername):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidUsername, auth.ErrInvalidUsername.Error()}}
	case errors.Is(err, auth.ErrWeakPassword):
		return &httpError{http.StatusBadRequest, APIError{CodeWeakPassword, auth.ErrWeakPassword.Error()}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}

package utils

import (
	"errors"
	"fmt"
)

// ErrorKind classifies application errors.
type ErrorKind string

const (
	KindAuth     ErrorKind = "AUTH"
	KindNotFound ErrorKind = "NOT_FOUND"
	KindState    ErrorKind = "STATE"
	KindResource ErrorKind = "RESOURCE"
)

// Error codes surfaced to clients in error frames and API responses.
const (
	CodeAuthInvalidToken = "AUTH_INVALID_TOKEN"
	CodeInvalidRequest   = "INVALID_REQUEST"

	CodeMatchNotFound                = "MATCH_NOT_FOUND"
	CodeMatchAlreadyComplete         = "MATCH_ALREADY_COMPLETE"
	CodeMatchNotAuthorized           = "MATCH_NOT_AUTHORIZED"
	CodeMatchInvalidStatusTransition = "MATCH_INVALID_STATUS_TRANSITION"
	CodeMatchAlreadyExists           = "MATCH_ALREADY_EXISTS"
	CodeMatchNotLive                 = "MATCH_NOT_LIVE"
	CodeMatchNotReady                = "MATCH_NOT_READY"

	CodeTournamentNotFound           = "TOURNAMENT_NOT_FOUND"
	CodeTournamentAlreadyStarted     = "TOURNAMENT_ALREADY_STARTED"
	CodeTournamentNotEnoughPlayers   = "TOURNAMENT_NOT_ENOUGH_PLAYERS"
	CodeTournamentFull               = "TOURNAMENT_FULL"
	CodeTournamentMatchNotFound      = "TOURNAMENT_MATCH_NOT_FOUND"
	CodeTournamentMatchNoWinner      = "TOURNAMENT_MATCH_NO_WINNER"
	CodeTournamentMatchInvalidWinner = "TOURNAMENT_MATCH_INVALID_WINNER"
)

// AppError is the error type shared by the match engine, the bracket engine
// and the transport layers.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func newAppError(kind ErrorKind, code, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func NewAuthError(code, format string, args ...interface{}) *AppError {
	return newAppError(KindAuth, code, format, args...)
}

func NewNotFoundError(code, format string, args ...interface{}) *AppError {
	return newAppError(KindNotFound, code, format, args...)
}

func NewStateError(code, format string, args ...interface{}) *AppError {
	return newAppError(KindState, code, format, args...)
}

func NewResourceError(code, format string, args ...interface{}) *AppError {
	return newAppError(KindResource, code, format, args...)
}

// WithCause attaches an underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// AsAppError extracts the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Kind == kind
}

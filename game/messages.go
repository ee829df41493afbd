// File: game/messages.go
package game

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lguibr/pongarena/bollywood"
)

// --- WebSocket Messages (Client -> Server) ---

const (
	TypeAuthenticate = "authenticate"
	TypeMovePaddle   = "move_paddle"
)

var (
	// ErrUnknownMessageType is returned for a well-formed frame whose type is not part of the protocol.
	ErrUnknownMessageType = errors.New("unsupported message type")
	// ErrMalformedMessage is returned for frames that are not valid protocol JSON.
	ErrMalformedMessage = errors.New("malformed message")
)

// ClientMessage is the closed set of frames a client may send.
type ClientMessage interface {
	clientMessage()
}

// Authenticate carries the bearer token; it must be the first frame.
type Authenticate struct {
	Token string
}

// MovePaddle sets the sender's paddle intent for the following ticks.
type MovePaddle struct {
	Direction Direction
}

func (Authenticate) clientMessage() {}
func (MovePaddle) clientMessage()   {}

type clientEnvelope struct {
	Type  string          `json:"type"`
	Token string          `json:"token"`
	Data  json.RawMessage `json:"data"`
}

// DecodeClientMessage parses one client frame into its variant.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var env clientEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch env.Type {
	case TypeAuthenticate:
		return Authenticate{Token: env.Token}, nil
	case TypeMovePaddle:
		var raw string
		if err := json.Unmarshal(env.Data, &raw); err != nil {
			return nil, fmt.Errorf("%w: move_paddle data must be a string", ErrMalformedMessage)
		}
		dir, ok := ParseDirection(raw)
		if !ok {
			return nil, fmt.Errorf("%w: unknown direction %q", ErrMalformedMessage, raw)
		}
		return MovePaddle{Direction: dir}, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, env.Type)
	}
}

// --- WebSocket Messages (Server -> Client) ---

// ServerMessage is the closed set of frames the server sends.
type ServerMessage interface {
	serverMessage()
}

// AuthenticatedMessage acknowledges a successful authenticate.
type AuthenticatedMessage struct {
	Type string `json:"type"` // "authenticated"
}

// WaitingMessage is one frame of the pre-game countdown.
type WaitingMessage struct {
	Type      string `json:"type"` // "waiting"
	CountDown int    `json:"countDown"`
}

// GameStartMessage marks the first tick.
type GameStartMessage struct {
	Type string `json:"type"` // "game_start"
}

type PlayerView struct {
	Y      float64 `json:"y"`
	Score  int     `json:"score"`
	UserID string  `json:"userId"`
}

type BallView struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type GameUpdateData struct {
	Player1 PlayerView `json:"player1"`
	Player2 PlayerView `json:"player2"`
	Ball    BallView   `json:"ball"`
}

// GameUpdateMessage is broadcast at the end of every tick.
type GameUpdateMessage struct {
	Type string         `json:"type"` // "game_update"
	Data GameUpdateData `json:"data"`
}

type GameEndData struct {
	Winner       string `json:"winner"`
	Player1Score int    `json:"player1Score"`
	Player2Score int    `json:"player2Score"`
	Disconnected bool   `json:"disconnected"`
}

// GameEndMessage is the final frame of a match.
type GameEndMessage struct {
	Type string      `json:"type"` // "game_end"
	Data GameEndData `json:"data"`
}

// ErrorMessage reports a protocol or authorization failure.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (AuthenticatedMessage) serverMessage() {}
func (WaitingMessage) serverMessage()       {}
func (GameStartMessage) serverMessage()     {}
func (GameUpdateMessage) serverMessage()    {}
func (GameEndMessage) serverMessage()       {}
func (ErrorMessage) serverMessage()         {}

func NewAuthenticatedMessage() AuthenticatedMessage {
	return AuthenticatedMessage{Type: "authenticated"}
}

func NewWaitingMessage(countDown int) WaitingMessage {
	return WaitingMessage{Type: "waiting", CountDown: countDown}
}

func NewGameStartMessage() GameStartMessage {
	return GameStartMessage{Type: "game_start"}
}

func NewGameUpdateMessage(data GameUpdateData) GameUpdateMessage {
	return GameUpdateMessage{Type: "game_update", Data: data}
}

func NewGameEndMessage(data GameEndData) GameEndMessage {
	return GameEndMessage{Type: "game_end", Data: data}
}

func NewErrorMessage(code, message string) ErrorMessage {
	return ErrorMessage{Type: "error", Code: code, Message: message}
}

// --- Actor Messages (internal) ---

// MatchSpec identifies a match and its two players.
type MatchSpec struct {
	MatchID   string
	Player1ID string
	Player2ID string
}

// PlayerJoinRequest registers an authenticated connection (Ask).
type PlayerJoinRequest struct {
	UserID string
	Conn   PlayerConn
}

// JoinAck answers PlayerJoinRequest.
type JoinAck struct {
	Phase Phase
}

// PlayerLeft deregisters a connection. Ignored if Conn was already replaced.
type PlayerLeft struct {
	UserID string
	Conn   PlayerConn
}

// PaddleIntent records a move_paddle from UserID.
type PaddleIntent struct {
	UserID    string
	Direction Direction
}

// StartMatchRequest asks a live match to begin its countdown (Ask).
type StartMatchRequest struct{}

// ForfeitRequest ends a live match awarding WinnerID the win (Ask).
// The reply is true when the match was ended by this request.
type ForfeitRequest struct {
	WinnerID string
}

// EndGameRequest ends a live match immediately (Ask).
type EndGameRequest struct{}

// EndGameAck answers EndGameRequest.
type EndGameAck struct {
	AlreadyOver bool
	WinnerID    string
	Abandoned   bool
}

// PresenceRequest asks for the authenticated players of a match (Ask).
type PresenceRequest struct{}

// PresenceResponse answers PresenceRequest.
type PresenceResponse struct {
	MatchID       string
	Phase         Phase
	Authenticated []string
}

type countdownTick struct{}
type gameTick struct{}

// EnsureMatchRequest returns the match actor PID, spawning it on first use (Ask).
type EnsureMatchRequest struct {
	Spec MatchSpec
}

// LookupMatchRequest returns the live match actor PID, if any (Ask).
type LookupMatchRequest struct {
	MatchID string
}

// LookupMatchResponse answers LookupMatchRequest.
type LookupMatchResponse struct {
	PID   *bollywood.PID
	Found bool
}

// ListMatchesRequest returns the ids of all live matches (Ask).
type ListMatchesRequest struct{}

// MatchClosed is sent by a match actor to the manager as it tears down.
type MatchClosed struct {
	MatchID string
	PID     *bollywood.PID
}

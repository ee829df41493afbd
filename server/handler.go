package server

import (
	"context"
	"errors"
	"net"
	"time"

	"golang.org/x/net/websocket"

	"github.com/lguibr/pongarena/game"
	"github.com/lguibr/pongarena/utils"
)

// HandleMatch serves /ws/match/{matchId}. The first frame must authenticate
// within the auth timeout; afterwards only move_paddle is accepted.
func (s *Server) HandleMatch(ws *websocket.Conn) {
	matchID := ws.Request().PathValue("matchId")
	client := newWSClient(ws, s.cfg.OutboundBuffer, s.log.With().Str("match_id", matchID).Logger())
	log := client.log
	defer func() {
		client.Close()
		client.wait()
	}()

	session, err := s.authenticate(ws, client, matchID)
	if err != nil {
		log.Info().Err(err).Msg("connection rejected")
		client.Send(errorFrame(err))
		return
	}
	defer session.Leave(client)
	log = log.With().Str("user_id", session.UserID).Logger()
	log.Info().Msg("player connected")

	for {
		data, err := receive(ws)
		if err != nil {
			log.Debug().Err(err).Msg("read loop finished")
			return
		}
		msg, err := game.DecodeClientMessage(data)
		if err != nil {
			client.Send(game.NewErrorMessage("", err.Error()))
			continue
		}
		switch m := msg.(type) {
		case game.MovePaddle:
			session.Move(m.Direction)
		case game.Authenticate:
			client.Send(game.NewErrorMessage("", "already authenticated"))
		}
	}
}

// authenticate waits for the authenticate frame and joins the match. Frames
// of any other type before it are answered with an error and ignored.
func (s *Server) authenticate(ws *websocket.Conn, client *wsClient, matchID string) (*game.Session, error) {
	timeout := s.cfg.AuthTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	_ = ws.SetReadDeadline(time.Now().Add(timeout))
	defer func() { _ = ws.SetReadDeadline(time.Time{}) }()

	for {
		data, err := receive(ws)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return nil, utils.NewAuthError(utils.CodeAuthInvalidToken, "authentication timeout")
			}
			return nil, err
		}

		msg, err := game.DecodeClientMessage(data)
		if err != nil {
			client.Send(game.NewErrorMessage("", err.Error()))
			continue
		}
		am, ok := msg.(game.Authenticate)
		if !ok {
			client.Send(game.NewErrorMessage("", "not authenticated"))
			continue
		}
		return s.join(am.Token, client, matchID)
	}
}

func (s *Server) join(token string, client *wsClient, matchID string) (*game.Session, error) {
	userID, err := s.verifier.Verify(token)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.PersistTimeout)
	defer cancel()
	m, err := s.matches.FindMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.Status.Terminal() {
		return nil, utils.NewStateError(utils.CodeMatchAlreadyComplete, "match %s is %s", matchID, m.Status)
	}
	if !m.HasPlayer(userID) {
		return nil, utils.NewAuthError(utils.CodeMatchNotAuthorized, "user %s is not a player of match %s", userID, matchID)
	}

	return s.sessions.Join(game.MatchSpec{
		MatchID:   m.ID,
		Player1ID: m.Player1ID,
		Player2ID: m.Player2ID,
	}, userID, client)
}

func receive(ws *websocket.Conn) ([]byte, error) {
	var data []byte
	err := websocket.Message.Receive(ws, &data)
	return data, err
}

// errorFrame converts err into the frame sent before closing.
func errorFrame(err error) game.ErrorMessage {
	if appErr, ok := utils.AsAppError(err); ok {
		return game.NewErrorMessage(appErr.Code, appErr.Message)
	}
	return game.NewErrorMessage("", "connection closed")
}
